package syntax

import (
	"path/filepath"
	"sort"
	"strings"
)

// Delimiter is a construct that may span lines: a block comment, a
// triple-quoted string, a raw string
type Delimiter struct {
	Open    string
	Close   string
	Kind    TokenKind
	Escapes bool // a backslash escapes the following character
}

// Language declares the lexical grammar the tokenizer needs
type Language struct {
	Name         string
	LineComments []string
	Delimiters   []Delimiter
	Quotes       string // single-line string quote characters
	Escapes      bool
}

// Plain has no comment or string syntax
var Plain = &Language{Name: "plain"}

var (
	cBlock      = Delimiter{Open: "/*", Close: "*/", Kind: TokenBlockComment}
	tripleDbl   = Delimiter{Open: `"""`, Close: `"""`, Kind: TokenString, Escapes: true}
	tripleSgl   = Delimiter{Open: "'''", Close: "'''", Kind: TokenString, Escapes: true}
	htmlComment = Delimiter{Open: "<!--", Close: "-->", Kind: TokenBlockComment}
)

var languages = map[string]*Language{
	"python": {
		Name:         "python",
		LineComments: []string{"#"},
		Delimiters:   []Delimiter{tripleDbl, tripleSgl},
		Quotes:       `"'`,
		Escapes:      true,
	},
	"go": {
		Name:         "go",
		LineComments: []string{"//"},
		Delimiters:   []Delimiter{cBlock, {Open: "`", Close: "`", Kind: TokenString}},
		Quotes:       `"'`,
		Escapes:      true,
	},
	"c": {
		Name:         "c",
		LineComments: []string{"//"},
		Delimiters:   []Delimiter{cBlock},
		Quotes:       `"'`,
		Escapes:      true,
	},
	"java": {
		Name:         "java",
		LineComments: []string{"//"},
		Delimiters:   []Delimiter{cBlock, tripleDbl},
		Quotes:       `"'`,
		Escapes:      true,
	},
	"javascript": {
		Name:         "javascript",
		LineComments: []string{"//"},
		Delimiters:   []Delimiter{cBlock, {Open: "`", Close: "`", Kind: TokenString, Escapes: true}},
		Quotes:       `"'`,
		Escapes:      true,
	},
	"rust": {
		Name:         "rust",
		LineComments: []string{"//"},
		Delimiters:   []Delimiter{cBlock},
		Quotes:       `"`,
		Escapes:      true,
	},
	"shell": {
		Name:         "shell",
		LineComments: []string{"#"},
		Quotes:       `"'`,
		Escapes:      true,
	},
	"ruby": {
		Name:         "ruby",
		LineComments: []string{"#"},
		Delimiters:   []Delimiter{{Open: "=begin", Close: "=end", Kind: TokenBlockComment}},
		Quotes:       `"'`,
		Escapes:      true,
	},
	"yaml": {
		Name:         "yaml",
		LineComments: []string{"#"},
		Quotes:       `"'`,
		Escapes:      true,
	},
	"toml": {
		Name:         "toml",
		LineComments: []string{"#"},
		Delimiters:   []Delimiter{tripleDbl, {Open: "'''", Close: "'''", Kind: TokenString}},
		Quotes:       `"'`,
		Escapes:      true,
	},
	"sql": {
		Name:         "sql",
		LineComments: []string{"--"},
		Delimiters:   []Delimiter{cBlock},
		Quotes:       `'"`,
	},
	"lua": {
		Name:         "lua",
		LineComments: []string{"--"},
		Delimiters: []Delimiter{
			{Open: "--[[", Close: "]]", Kind: TokenBlockComment},
			{Open: "[[", Close: "]]", Kind: TokenString},
		},
		Quotes:  `"'`,
		Escapes: true,
	},
	"html": {
		Name:       "html",
		Delimiters: []Delimiter{htmlComment},
	},
	"css": {
		Name:       "css",
		Delimiters: []Delimiter{cBlock},
		Quotes:     `"'`,
		Escapes:    true,
	},
	"kdl": {
		Name:         "kdl",
		LineComments: []string{"//"},
		Delimiters:   []Delimiter{cBlock},
		Quotes:       `"`,
		Escapes:      true,
	},
	"plain": Plain,
}

var extensionLanguages = map[string]string{
	".py":    "python",
	".pyi":   "python",
	".pyw":   "python",
	".go":    "go",
	".c":     "c",
	".h":     "c",
	".cc":    "c",
	".cpp":   "c",
	".cxx":   "c",
	".hpp":   "c",
	".cs":    "c",
	".swift": "c",
	".java":  "java",
	".kt":    "java",
	".scala": "java",
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".ts":    "javascript",
	".tsx":   "javascript",
	".rs":    "rust",
	".sh":    "shell",
	".bash":  "shell",
	".zsh":   "shell",
	".rb":    "ruby",
	".yaml":  "yaml",
	".yml":   "yaml",
	".toml":  "toml",
	".sql":   "sql",
	".lua":   "lua",
	".html":  "html",
	".htm":   "html",
	".xml":   "html",
	".svg":   "html",
	".css":   "css",
	".scss":  "css",
	".kdl":   "kdl",
}

func init() {
	// Longest opener first so "--[[" wins over "[[" and triple quotes over quotes
	for _, lang := range languages {
		sort.SliceStable(lang.Delimiters, func(i, j int) bool {
			return len(lang.Delimiters[i].Open) > len(lang.Delimiters[j].Open)
		})
	}
}

// LanguageByName returns a registered language, or Plain
func LanguageByName(name string) *Language {
	if lang, ok := languages[strings.ToLower(name)]; ok {
		return lang
	}
	return Plain
}

// LanguageForPath picks a language from the file extension, falling back to Plain
func LanguageForPath(path string) *Language {
	ext := strings.ToLower(filepath.Ext(path))
	if name, ok := extensionLanguages[ext]; ok {
		return languages[name]
	}
	return Plain
}
