// Command treelight highlights source files as HTML fragments.
package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/spf13/cobra"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_html "github.com/tree-sitter/tree-sitter-html/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"

	"go.treelight.dev/treelight/languages"
	"go.treelight.dev/treelight/theme"
)

//go:embed queries
var queries embed.FS

var (
	flagLanguage string
	flagTheme    string
	flagOutput   string
	flagCSS      bool
)

var rootCmd = &cobra.Command{
	Use:   "treelight [file]",
	Short: "Highlight source code as HTML",
	Long: `Highlight a source file as an HTML fragment using tree-sitter.

The output is a <pre><code> fragment with one <span class="line"> per
logical line. Styles come from the built-in theme or a TOML theme file;
use --css to print the matching stylesheet.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVarP(&flagLanguage, "language", "l", "", "language name (default: from the file extension)")
	rootCmd.Flags().StringVarP(&flagTheme, "theme", "t", "", "TOML theme file (default: built-in theme)")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output file (default: stdout)")
	rootCmd.Flags().BoolVar(&flagCSS, "css", false, "print the theme stylesheet and exit")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	th := theme.Default()
	if flagTheme != "" {
		loaded, err := theme.Load(flagTheme)
		if err != nil {
			return err
		}
		th = loaded
	}

	var out = os.Stdout
	if flagOutput != "" {
		f, err := os.Create(flagOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if flagCSS {
		return th.WriteCSS(out)
	}

	if len(args) == 0 {
		return fmt.Errorf("missing input file")
	}

	source, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	lang := flagLanguage
	if lang == "" {
		lang = languageForFile(args[0])
	}

	registry, err := newRegistry()
	if err != nil {
		return err
	}

	return registry.Render(cmd.Context(), out, lang, source, th.Attributes)
}

func newRegistry() (*languages.Registry, error) {
	registry := languages.NewRegistry()
	for _, grammar := range []struct {
		name string
		ptr  unsafe.Pointer
	}{
		{"go", tree_sitter_go.Language()},
		{"html", tree_sitter_html.Language()},
		{"javascript", tree_sitter_javascript.Language()},
	} {
		err := registry.Register(
			grammar.name,
			languages.NewLanguage(grammar.ptr),
			queryFile(grammar.name, "highlights"),
			queryFile(grammar.name, "injections"),
			queryFile(grammar.name, "locals"),
		)
		if err != nil {
			return nil, err
		}
	}
	registry.Alias("js", "javascript")
	return registry, nil
}

func queryFile(language, kind string) []byte {
	b, err := queries.ReadFile("queries/" + language + "/" + kind + ".scm")
	if err != nil {
		return nil
	}
	return b
}

func languageForFile(path string) string {
	switch filepath.Ext(path) {
	case ".go":
		return "go"
	case ".html", ".htm":
		return "html"
	case ".js", ".mjs", ".cjs":
		return "javascript"
	default:
		return ""
	}
}
