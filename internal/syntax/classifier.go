// Package syntax classifies source lines as comment, string, code or mixed
// using a small per-language tokenizer. Multi-line constructs are carried
// between lines in a State owned by the caller.
package syntax

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/standardbeagle/greaper/internal/types"
)

// TokenKind is the lexical class of a token
type TokenKind uint8

const (
	TokenString TokenKind = 1 << iota
	TokenBlockComment
	TokenComment
	TokenNumber
	TokenWord
	TokenSymbol
)

func (k TokenKind) String() string {
	switch k {
	case TokenString:
		return "STRING"
	case TokenBlockComment:
		return "BLOCK_COMMENT"
	case TokenComment:
		return "COMMENT"
	case TokenNumber:
		return "NUMBER"
	case TokenWord:
		return "WORD"
	case TokenSymbol:
		return "SYMBOL"
	}
	return "UNKNOWN"
}

// Token is one lexeme of a line. Whitespace is not reported.
type Token struct {
	Text string
	Kind TokenKind
}

// State records an unterminated multi-line construct. The zero value is
// outside any construct. One State belongs to one file.
type State struct {
	open *Delimiter
}

// InConstruct reports whether a multi-line construct is still open
func (s *State) InConstruct() bool {
	return s != nil && s.open != nil
}

// Reset returns the state to outside any construct
func (s *State) Reset() {
	s.open = nil
}

// Tokenize splits line into tokens, advancing state across multi-line constructs
func Tokenize(line string, lang *Language, state *State) []Token {
	if lang == nil {
		lang = Plain
	}
	if state == nil {
		state = &State{}
	}

	// A blank line inside an open construct still belongs to it
	if line == "" && state.open != nil {
		return []Token{{Kind: state.open.Kind}}
	}

	var tokens []Token
	i := 0
	for i < len(line) {
		if state.open != nil {
			d := state.open
			end, found := findClose(line, i, d.Close, d.Escapes)
			if !found {
				tokens = append(tokens, Token{Text: line[i:], Kind: d.Kind})
				return tokens
			}
			tokens = append(tokens, Token{Text: line[i:end], Kind: d.Kind})
			state.open = nil
			i = end
			continue
		}

		rest := line[i:]

		if d := matchDelimiter(rest, lang.Delimiters); d != nil {
			end, found := findClose(line, i+len(d.Open), d.Close, d.Escapes)
			if !found {
				state.open = d
				tokens = append(tokens, Token{Text: rest, Kind: d.Kind})
				return tokens
			}
			tokens = append(tokens, Token{Text: line[i:end], Kind: d.Kind})
			i = end
			continue
		}

		if strings.IndexByte(lang.Quotes, rest[0]) >= 0 {
			quote := string(rest[0])
			end, found := findClose(line, i+1, quote, lang.Escapes)
			if !found {
				end = len(line)
			}
			tokens = append(tokens, Token{Text: line[i:end], Kind: TokenString})
			i = end
			continue
		}

		if hasAnyPrefix(rest, lang.LineComments) {
			tokens = append(tokens, Token{Text: rest, Kind: TokenComment})
			return tokens
		}

		r, size := utf8.DecodeRuneInString(rest)
		switch {
		case unicode.IsSpace(r):
			i += size
		case r < utf8.RuneSelf && isASCIIDigit(byte(r)):
			end := scanNumber(line, i)
			if end < len(line) && isWordRune(runeAt(line, end)) {
				end = scanWord(line, i)
				tokens = append(tokens, Token{Text: line[i:end], Kind: TokenWord})
			} else {
				tokens = append(tokens, Token{Text: line[i:end], Kind: TokenNumber})
			}
			i = end
		case isWordRune(r):
			end := scanWord(line, i)
			tokens = append(tokens, Token{Text: line[i:end], Kind: TokenWord})
			i = end
		default:
			tokens = append(tokens, Token{Text: rest[:size], Kind: TokenSymbol})
			i += size
		}
	}
	return tokens
}

// ClassifyLine tokenizes line and reduces its token kinds to a LineKind.
// It must be called on every line of a file, in order, so state stays correct.
func ClassifyLine(line string, lang *Language, state *State) types.LineKind {
	var kinds TokenKind
	for _, tok := range Tokenize(line, lang, state) {
		kinds |= tok.Kind
	}
	return reduce(kinds)
}

const (
	commentKinds = TokenComment | TokenBlockComment
	codeKinds    = TokenWord | TokenNumber | TokenSymbol
)

func reduce(kinds TokenKind) types.LineKind {
	switch {
	case kinds == 0:
		return types.LineCode
	case kinds&^commentKinds == 0:
		return types.LineComment
	case kinds == TokenString:
		return types.LineString
	case kinds&^codeKinds == 0:
		return types.LineCode
	}
	return types.LineMixed
}

// IsSyntaxMatch reports whether a line of the given kind satisfies mode.
// Plain text never matches comment or string and always matches code and mixed.
func IsSyntaxMatch(kind types.LineKind, mode types.SyntaxMode, lang *Language) bool {
	if mode == types.SyntaxAll || mode == "" {
		return true
	}
	if lang == nil || lang == Plain {
		return mode == types.SyntaxCode || mode == types.SyntaxMixed
	}
	return string(kind) == string(mode)
}

func matchDelimiter(s string, delims []Delimiter) *Delimiter {
	for i := range delims {
		if strings.HasPrefix(s, delims[i].Open) {
			return &delims[i]
		}
	}
	return nil
}

// findClose returns the index just past closer, searching from start
func findClose(line string, start int, closer string, escapes bool) (int, bool) {
	for i := start; i < len(line); i++ {
		if escapes && line[i] == '\\' {
			i++
			continue
		}
		if strings.HasPrefix(line[i:], closer) {
			return i + len(closer), true
		}
	}
	return len(line), false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func runeAt(s string, i int) rune {
	r, _ := utf8.DecodeRuneInString(s[i:])
	return r
}

func scanWord(s string, i int) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !isWordRune(r) {
			break
		}
		i += size
	}
	return i
}

// scanNumber consumes digits with an optional fractional part
func scanNumber(s string, i int) int {
	i = scanDigits(s, i)
	if i+1 < len(s) && s[i] == '.' && isASCIIDigit(s[i+1]) {
		i = scanDigits(s, i+1)
	}
	return i
}

func scanDigits(s string, i int) int {
	for i < len(s) && isASCIIDigit(s[i]) {
		i++
	}
	return i
}

func isASCIIDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
