package defs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adnsv/tsplay/config"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const testToken = "test-token"

// fakeAPI serves a contents listing at /listing and raw file bodies at
// /raw/<name>. Earlier files answer slower so completion order is reversed.
type fakeAPI struct {
	srv      *httptest.Server
	files    []string
	contents map[string]string

	listingStatus int
	failRaw       string

	rawRequests atomic.Int32
}

func newFakeAPI(t *testing.T, files []string) *fakeAPI {
	t.Helper()
	api := &fakeAPI{files: files, contents: map[string]string{}}
	for _, fn := range files {
		api.contents[fn] = "declare const " + strings.ReplaceAll(fn, ".", "_") + ": `tpl`;"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/listing", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
			return
		}
		if api.listingStatus != 0 {
			http.Error(w, `{"message":"Not Found"}`, api.listingStatus)
			return
		}
		entries := []Entry{{Name: "sub", Path: "lib/sub", Type: "dir"}}
		for _, fn := range api.files {
			entries = append(entries, Entry{
				Name:        fn,
				Path:        "lib/" + fn,
				Type:        "file",
				DownloadURL: api.srv.URL + "/raw/" + fn,
			})
		}
		_ = json.NewEncoder(w).Encode(entries)
	})
	mux.HandleFunc("/raw/", func(w http.ResponseWriter, r *http.Request) {
		api.rawRequests.Add(1)
		name := strings.TrimPrefix(r.URL.Path, "/raw/")
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if name == api.failRaw {
			http.Error(w, "rate limit exceeded", http.StatusForbidden)
			return
		}
		for i, fn := range api.files {
			if fn == name {
				time.Sleep(time.Duration(len(api.files)-i) * 5 * time.Millisecond)
			}
		}
		fmt.Fprint(w, api.contents[name])
	})

	api.srv = httptest.NewServer(mux)
	t.Cleanup(api.srv.Close)
	return api
}

func (api *fakeAPI) client(t *testing.T, token string) *Client {
	t.Helper()
	c, err := NewClient(Options{BaseURL: api.srv.URL, Token: token, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func testSource(t *testing.T, match string) Source {
	return Source{
		Name:    "es6",
		Listing: "listing",
		Match:   regexp.MustCompile(match),
		Output:  filepath.Join(t.TempDir(), "defs", "es6.d.ts"),
	}
}

func TestRun_JoinsMatchingFilesInListingOrder(t *testing.T) {
	api := newFakeAPI(t, []string{"es2015.core.d.ts", "es2015.promise.d.ts", "readme.md", "es2015.symbol.d.ts"})
	src := testSource(t, `\.d\.ts$`)

	err := Run(context.Background(), api.client(t, testToken), src)
	require.NoError(t, err)

	require.EqualValues(t, 3, api.rawRequests.Load(), "one content request per matching file")

	got, err := os.ReadFile(src.Output)
	require.NoError(t, err)
	want := strings.Join([]string{
		api.contents["es2015.core.d.ts"],
		api.contents["es2015.promise.d.ts"],
		api.contents["es2015.symbol.d.ts"],
	}, "\n")
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Fatalf("joined output mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_ListingFailureWritesNothing(t *testing.T) {
	api := newFakeAPI(t, []string{"es2015.core.d.ts"})
	api.listingStatus = http.StatusNotFound
	src := testSource(t, `.*`)

	err := Run(context.Background(), api.client(t, testToken), src)
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	require.Equal(t, http.StatusNotFound, reqErr.StatusCode)
	require.Equal(t, api.srv.URL+"/listing", reqErr.URL)
	require.Contains(t, err.Error(), "Not Found", "error carries the response body")

	require.Zero(t, api.rawRequests.Load())
	_, statErr := os.Stat(src.Output)
	require.True(t, os.IsNotExist(statErr), "no output file after a failed listing")
}

func TestRun_BadTokenReportsTarget(t *testing.T) {
	api := newFakeAPI(t, []string{"es2015.core.d.ts"})

	err := Run(context.Background(), api.client(t, "wrong"), testSource(t, `.*`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "GET "+api.srv.URL+"/listing")
	require.Contains(t, err.Error(), "Bad credentials")
}

func TestRun_ContentFailureAbortsAndKeepsExistingOutput(t *testing.T) {
	api := newFakeAPI(t, []string{"es2015.core.d.ts", "es2015.promise.d.ts"})
	api.failRaw = "es2015.promise.d.ts"
	src := testSource(t, `.*`)
	require.NoError(t, os.MkdirAll(filepath.Dir(src.Output), 0755))
	require.NoError(t, os.WriteFile(src.Output, []byte("previous"), 0644))

	err := Run(context.Background(), api.client(t, testToken), src)
	require.Error(t, err)
	require.Contains(t, err.Error(), "/raw/es2015.promise.d.ts")
	require.Contains(t, err.Error(), "rate limit exceeded")

	got, err := os.ReadFile(src.Output)
	require.NoError(t, err)
	require.Equal(t, "previous", string(got))
}

func TestFetch_NoMatches(t *testing.T) {
	api := newFakeAPI(t, []string{"readme.md"})

	_, err := Fetch(context.Background(), api.client(t, testToken), testSource(t, `\.d\.ts$`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "no files")
	require.Zero(t, api.rawRequests.Load())
}

func TestSelect_SkipsDirectories(t *testing.T) {
	entries := []Entry{
		{Name: "b.d.ts", Type: "file"},
		{Name: "x.d.ts", Type: "dir"},
		{Name: "a.d.ts", Type: "file"},
		{Name: "c.txt", Type: "file"},
	}

	got := Select(entries, regexp.MustCompile(`\.d\.ts$`))
	require.Equal(t, []Entry{{Name: "b.d.ts", Type: "file"}, {Name: "a.d.ts", Type: "file"}}, got)
}

func TestJoin(t *testing.T) {
	require.Equal(t, "a\nb\nc", string(Join([]Blob{{Text: []byte("a")}, {Text: []byte("b")}, {Text: []byte("c")}})))
	require.Empty(t, Join(nil))
}

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "https://api.github.com"})
	require.Error(t, err)
}

func TestClient_URL(t *testing.T) {
	c, err := NewClient(Options{BaseURL: "https://api.github.com/", Token: "t"})
	require.NoError(t, err)

	require.Equal(t, "https://api.github.com/repos/a/b/contents/lib", c.URL("/repos/a/b/contents/lib"))
	require.Equal(t, "https://example.com/x", c.URL("https://example.com/x"))
}

func TestRunConfigured(t *testing.T) {
	api := newFakeAPI(t, []string{"esnext.array.d.ts", "es2015.core.d.ts", "esnext.intl.d.ts"})
	dir := t.TempDir()
	cfgFN := filepath.Join(dir, config.DefaultPath)
	require.NoError(t, os.WriteFile(cfgFN, []byte(`
api:
  base-url: `+api.srv.URL+`
  token-env: TSPLAY_TEST_FETCH_TOKEN
fetch:
  drafts:
    listing: /listing
    match: '^esnext\.'
    output: defs/drafts.d.ts
`), 0644))
	t.Setenv("TSPLAY_TEST_FETCH_TOKEN", testToken)

	cfg, err := config.Load(cfgFN)
	require.NoError(t, err)
	require.NoError(t, RunConfigured(context.Background(), cfg, "drafts"))

	got, err := os.ReadFile(filepath.Join(dir, "defs", "drafts.d.ts"))
	require.NoError(t, err)
	require.Equal(t, api.contents["esnext.array.d.ts"]+"\n"+api.contents["esnext.intl.d.ts"], string(got))
}

func TestRunConfigured_MissingTokenSendsNothing(t *testing.T) {
	api := newFakeAPI(t, []string{"es2015.core.d.ts"})
	dir := t.TempDir()
	cfgFN := filepath.Join(dir, config.DefaultPath)
	require.NoError(t, os.WriteFile(cfgFN, []byte("api:\n  base-url: "+api.srv.URL+"\n  token-env: TSPLAY_TEST_FETCH_NO_TOKEN\n"), 0644))
	t.Setenv("TSPLAY_TEST_FETCH_NO_TOKEN", "")

	cfg, err := config.Load(cfgFN)
	require.NoError(t, err)

	err = RunConfigured(context.Background(), cfg, "es6")
	require.Error(t, err)
	require.Contains(t, err.Error(), "TSPLAY_TEST_FETCH_NO_TOKEN")
	require.Zero(t, api.rawRequests.Load())
	_, statErr := os.Stat(filepath.Join(dir, "defs", "es6.d.ts"))
	require.True(t, os.IsNotExist(statErr))
}
