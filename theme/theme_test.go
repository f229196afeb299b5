package theme

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.treelight.dev/treelight"
)

const duskTheme = `
name = "dusk"

[scopes.keyword]
color = "#a578ea"
bold = true

[scopes.string]
color = "#b8e466"

[scopes."string.escape"]
color = "#d7ba7d"

[scopes.comment]
color = "#8a8a8a"
italic = true
`

func TestParse(t *testing.T) {
	th, err := Parse(strings.NewReader(duskTheme))
	require.NoError(t, err)
	assert.Equal(t, "dusk", th.Name())

	attrs := th.Attributes(treelight.ScopeKeyword)
	assert.Equal(t, `class="hl-keyword"`, string(attrs))
}

func TestParse_RejectsUnknownScope(t *testing.T) {
	_, err := Parse(strings.NewReader(`[scopes."keyword.typo.oops"]` + "\ncolor = \"#fff\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keyword.typo.oops")
}

func TestParse_RejectsMalformedTOML(t *testing.T) {
	_, err := Parse(strings.NewReader(`scopes = [`))
	require.Error(t, err)
}

func TestAttributes_AncestorFallback(t *testing.T) {
	th, err := Parse(strings.NewReader(duskTheme))
	require.NoError(t, err)

	// string.escape is themed directly.
	assert.Equal(t, `class="hl-string-escape"`, string(th.Attributes(treelight.ScopeStringEscape)))
	// string.regex is not; it falls back to string.
	assert.Equal(t, `class="hl-string"`, string(th.Attributes(treelight.ScopeStringRegex)))
	// variable has no themed ancestor at all.
	assert.Nil(t, th.Attributes(treelight.ScopeVariable))
}

func TestAttributes_Inline(t *testing.T) {
	th, err := Parse(strings.NewReader("inline = true\n" + `
[scopes.keyword]
color = "#a578ea"
bold = true
`))
	require.NoError(t, err)

	attrs := string(th.Attributes(treelight.ScopeKeyword))
	assert.Equal(t, `style="color:#a578ea;font-weight:bold"`, attrs)
}

func TestAttributes_ClassOverrideAndPrefix(t *testing.T) {
	th, err := Parse(strings.NewReader(`class-prefix = "tl-"` + "\n" + `
[scopes.keyword]
color = "#a578ea"

[scopes.comment]
color = "#8a8a8a"
class = "muted"
`))
	require.NoError(t, err)

	assert.Equal(t, `class="tl-keyword"`, string(th.Attributes(treelight.ScopeKeyword)))
	assert.Equal(t, `class="muted"`, string(th.Attributes(treelight.ScopeComment)))
}

func TestWriteCSS(t *testing.T) {
	th, err := Parse(strings.NewReader(duskTheme))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, th.WriteCSS(&buf))

	// Rules come out in vocabulary order: comment < keyword < string <
	// string.escape.
	want := ".hl-comment{color:#8a8a8a;font-style:italic}\n" +
		".hl-keyword{color:#a578ea;font-weight:bold}\n" +
		".hl-string{color:#b8e466}\n" +
		".hl-string-escape{color:#d7ba7d}\n"
	assert.Equal(t, want, buf.String())

	// Deterministic across runs.
	var again bytes.Buffer
	require.NoError(t, th.WriteCSS(&again))
	assert.Equal(t, buf.String(), again.String())
}

func TestDefault(t *testing.T) {
	th := Default()
	assert.Equal(t, "default", th.Name())
	assert.NotNil(t, th.Attributes(treelight.ScopeKeyword))
	assert.NotNil(t, th.Attributes(treelight.ScopeStringRegex), "falls back to string")

	var buf bytes.Buffer
	require.NoError(t, th.WriteCSS(&buf))
	assert.Contains(t, buf.String(), ".hl-keyword{")
}
