package bundle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripStatements(t *testing.T) {
	script := []byte("'use strict';\n  const monaco = require('monaco-editor');  \r\nmonaco.editor.create(el);\nconst monaco = require('monaco-editor');")

	out, n := StripStatements(script, []string{"const monaco = require('monaco-editor');"})
	require.Equal(t, 2, n)
	require.Equal(t, "'use strict';\nmonaco.editor.create(el);\n", string(out))
}

func TestStripStatements_NothingToStrip(t *testing.T) {
	script := []byte("a();\nb();\n")

	out, n := StripStatements(script, []string{"", "  "})
	require.Zero(t, n)
	require.Equal(t, script, out)

	out, n = StripStatements(script, []string{"c();"})
	require.Zero(t, n)
	require.Equal(t, string(script), string(out))
}

func TestStripStatements_KeepsPartialMatches(t *testing.T) {
	script := []byte("// const monaco = require('monaco-editor');\nconst monaco = require('monaco-editor'); init();\n")

	out, n := StripStatements(script, []string{"const monaco = require('monaco-editor');"})
	require.Zero(t, n)
	require.Equal(t, string(script), string(out))
}
