package treesitter

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/rohankatakam/semdiff/internal/errors"
)

// Supported language identifiers
const (
	LangJavaScript = "javascript"
	LangJSX        = "jsx"
	LangTypeScript = "typescript"
	LangTSX        = "tsx"
)

// LanguageParser wraps tree-sitter parser with language-specific grammar.
// A parser is not safe for concurrent use; create one per goroutine.
// IMPORTANT: Always call Close() to release the underlying C parser.
type LanguageParser struct {
	parser   *sitter.Parser
	language *sitter.Language
	langName string
}

// NewLanguageParser creates a parser for the specified language
// Supported languages: javascript, jsx, typescript, tsx
func NewLanguageParser(lang string) (*LanguageParser, error) {
	var language *sitter.Language
	switch lang {
	case LangJavaScript, LangJSX:
		language = javascript.GetLanguage()
	case LangTypeScript:
		language = typescript.GetLanguage()
	case LangTSX:
		language = tsx.GetLanguage()
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(language)

	return &LanguageParser{
		parser:   parser,
		language: language,
		langName: lang,
	}, nil
}

// Language returns the language this parser was created for
func (lp *LanguageParser) Language() string {
	return lp.langName
}

// Close releases parser resources
func (lp *LanguageParser) Close() {
	if lp.parser != nil {
		lp.parser.Close()
		lp.parser = nil
	}
}

// Parse parses source code and returns the syntax tree.
// Sources containing syntax errors are rejected with a parse error naming the
// first error position. Caller must call Tree.Close() when done.
func (lp *LanguageParser) Parse(ctx context.Context, path string, code []byte) (*Tree, error) {
	tsTree, err := lp.parser.ParseCtx(ctx, nil, code)
	if err != nil {
		return nil, errors.ParseError(err, path)
	}
	if tsTree == nil {
		return nil, errors.ParseError(fmt.Errorf("parser returned no tree"), path)
	}

	tree := newTree(path, lp.langName, code, tsTree)
	if tree.root == nil {
		tree.Close()
		return nil, errors.ParseError(fmt.Errorf("parser returned nil root node"), path)
	}

	if tree.root.HasError() {
		line, col := tree.firstErrorPosition()
		tree.Close()
		return nil, errors.ParseError(fmt.Errorf("syntax error at %d:%d", line, col), path).
			WithContext("line", line).
			WithContext("column", col)
	}

	return tree, nil
}

// Parse detects the language from path and parses code with a fresh parser
func Parse(ctx context.Context, path string, code []byte) (*Tree, error) {
	lang := DetectLanguage(path)
	if lang == "" {
		return nil, errors.ParseError(fmt.Errorf("unsupported file type"), path)
	}

	lp, err := NewLanguageParser(lang)
	if err != nil {
		return nil, errors.ParseError(err, path)
	}
	defer lp.Close()

	return lp.Parse(ctx, path, code)
}

// DetectLanguage returns language identifier from file extension
func DetectLanguage(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))

	langMap := map[string]string{
		".js":  LangJavaScript,
		".jsx": LangJSX,
		".mjs": LangJavaScript,
		".cjs": LangJavaScript,
		".ts":  LangTypeScript,
		".mts": LangTypeScript,
		".cts": LangTypeScript,
		".tsx": LangTSX,
	}

	return langMap[ext]
}

// IsSupported reports whether a parser exists for the file's extension
func IsSupported(filePath string) bool {
	return DetectLanguage(filePath) != ""
}
