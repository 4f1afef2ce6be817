package scanner

import (
	"fmt"
	"path/filepath"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
	tree_sitter_lua "github.com/tree-sitter-grammars/tree-sitter-lua/bindings/go"
	tree_sitter_zig "github.com/tree-sitter-grammars/tree-sitter-zig/bindings/go"
)

// language describes how to outline one grammar.
type language struct {
	name       string
	extensions []string
	grammar    *tree_sitter.Language

	// classKinds are node kinds that own methods.
	classKinds map[string]bool
	// scopeKinds are function-like node kinds; definitions inside them are
	// local and left out of the outline.
	scopeKinds map[string]bool
	// byReceiver attaches methods to the type named by their receiver
	// instead of the enclosing class node.
	byReceiver bool
	// classesAfterBody lists a class after the classes nested in it.
	classesAfterBody bool
	// transparent reports scope nodes that are neither outlined nor treat
	// their body as local.
	transparent func(n *tree_sitter.Node) bool

	query *tree_sitter.Query
}

func set(kinds ...string) map[string]bool {
	m := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		m[k] = true
	}
	return m
}

var jsScopes = set(
	"function_declaration",
	"generator_function_declaration",
	"function_expression",
	"function",
	"generator_function",
	"arrow_function",
	"method_definition",
)

func builtinLanguages() []*language {
	return []*language{
		{
			name:             "python",
			extensions:       []string{".py"},
			grammar:          tree_sitter.NewLanguage(tree_sitter_python.Language()),
			classKinds:       set("class_definition"),
			scopeKinds:       set("function_definition"),
			classesAfterBody: true,
			transparent:      isAsync,
		},
		{
			name:       "javascript",
			extensions: []string{".js", ".mjs", ".cjs", ".jsx"},
			grammar:    tree_sitter.NewLanguage(tree_sitter_javascript.Language()),
			classKinds: set("class_declaration", "class"),
			scopeKinds: jsScopes,
		},
		{
			name:       "typescript",
			extensions: []string{".ts", ".mts", ".cts"},
			grammar:    tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
			classKinds: set("class_declaration", "abstract_class_declaration", "class"),
			scopeKinds: jsScopes,
		},
		{
			name:       "tsx",
			extensions: []string{".tsx"},
			grammar:    tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
			classKinds: set("class_declaration", "abstract_class_declaration", "class"),
			scopeKinds: jsScopes,
		},
		{
			name:       "go",
			extensions: []string{".go"},
			grammar:    tree_sitter.NewLanguage(tree_sitter_go.Language()),
			classKinds: set(),
			scopeKinds: set("function_declaration", "method_declaration", "func_literal"),
			byReceiver: true,
		},
		{
			name:       "lua",
			extensions: []string{".lua"},
			grammar:    tree_sitter.NewLanguage(tree_sitter_lua.Language()),
			classKinds: set(),
			scopeKinds: set("function_declaration", "function_definition"),
			byReceiver: true,
		},
		{
			name:       "zig",
			extensions: []string{".zig"},
			grammar:    tree_sitter.NewLanguage(tree_sitter_zig.Language()),
			classKinds: set("struct_declaration", "enum_declaration", "union_declaration"),
			scopeKinds: set("function_declaration"),
		},
	}
}

// isAsync matches "async def". Such functions are left out of a Python
// outline and the definitions in their body are outlined as if the function
// were not there.
func isAsync(n *tree_sitter.Node) bool {
	if n.Kind() != "function_definition" || n.ChildCount() == 0 {
		return false
	}
	first := n.Child(0)
	return first != nil && first.Kind() == "async"
}

// LanguageInfo describes a language the scanner can outline.
type LanguageInfo struct {
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
	Enabled    bool     `json:"enabled"`
}

// SupportedLanguages lists the language names accepted in Config.Languages.
func SupportedLanguages() []string {
	var names []string
	for _, l := range builtinLanguages() {
		names = append(names, l.name)
	}
	return names
}

// loadLanguages compiles queries for the requested languages and returns
// them keyed by file extension.
func loadLanguages(names []string) (map[string]*language, error) {
	available := make(map[string]*language)
	for _, l := range builtinLanguages() {
		available[l.name] = l
	}

	byExt := make(map[string]*language)
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		l, ok := available[name]
		if !ok {
			closeLanguages(byExt)
			return nil, fmt.Errorf("unsupported language: %q (supported: %s)",
				name, strings.Join(SupportedLanguages(), ", "))
		}
		if l.query != nil {
			continue
		}
		q, qerr := tree_sitter.NewQuery(l.grammar, Queries[l.name])
		if qerr != nil {
			closeLanguages(byExt)
			return nil, fmt.Errorf("compiling %s query: %s", l.name, qerr.Error())
		}
		l.query = q
		for _, ext := range l.extensions {
			byExt[ext] = l
		}
	}
	return byExt, nil
}

func closeLanguages(byExt map[string]*language) {
	closed := make(map[*language]bool)
	for _, l := range byExt {
		if closed[l] || l.query == nil {
			continue
		}
		l.query.Close()
		closed[l] = true
	}
}

func languageFor(byExt map[string]*language, path string) *language {
	return byExt[strings.ToLower(filepath.Ext(path))]
}
