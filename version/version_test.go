package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestString_LdflagsFallback(t *testing.T) {
	saved := appVer
	t.Cleanup(func() { appVer = saved })

	appVer = "v9.9.9"
	require.Equal(t, "v9.9.9", String())
}
