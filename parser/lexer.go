package parser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/victorcalife/tql/ast"
)

// LexError is a malformed token. It aborts the whole compile.
type LexError struct {
	Pos  ast.Position
	Char rune
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%d:%d: unexpected character %q", e.Pos.Line, e.Pos.Column, e.Char)
}

// Scan converts TQL source text into its full token stream, terminated by an
// EOF token. It is a pure function of the input; the program is small enough
// that no streaming is needed.
func Scan(src string) ([]Token, error) {
	l := &lexer{src: src, line: 1, col: 1}
	return l.scan()
}

type lexer struct {
	src  string
	pos  int // byte offset of next rune
	line int
	col  int
}

func (l *lexer) scan() ([]Token, error) {
	var toks []Token
	for {
		l.skipSpaceAndComments()
		start := l.position()
		r, ok := l.peek()
		if !ok {
			toks = append(toks, Token{Kind: EOF, Pos: start})
			return toks, nil
		}

		switch {
		case isIdentStart(r):
			toks = append(toks, l.scanWord(start))
		case unicode.IsDigit(r):
			toks = append(toks, l.scanNumber(start))
		case r == '"':
			t, err := l.scanString(start)
			if err != nil {
				return nil, err
			}
			toks = append(toks, t)
		default:
			t, err := l.scanOperator(start, r)
			if err != nil {
				return nil, err
			}
			toks = append(toks, t)
		}
	}
}

func (l *lexer) position() ast.Position {
	return ast.Position{Line: l.line, Column: l.col}
}

func (l *lexer) peek() (rune, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
	return r, true
}

func (l *lexer) next() (rune, bool) {
	r, ok := l.peek()
	if !ok {
		return 0, false
	}
	l.pos += utf8.RuneLen(r)
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r, true
}

func (l *lexer) skipSpaceAndComments() {
	for {
		r, ok := l.peek()
		if !ok {
			return
		}
		switch {
		case r == '#':
			for {
				c, ok := l.next()
				if !ok || c == '\n' {
					break
				}
			}
		case unicode.IsSpace(r):
			l.next()
		default:
			return
		}
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// scanWord reads an identifier, keyword or letter-prefixed currency symbol
// (R$, US$). Keywords match case-insensitively; identifiers keep the
// author's casing, accents included.
func (l *lexer) scanWord(start ast.Position) Token {
	startOff := l.pos
	for {
		r, ok := l.peek()
		if !ok || !isIdentPart(r) {
			break
		}
		l.next()
	}
	word := l.src[startOff:l.pos]

	if r, ok := l.peek(); ok && r == '$' {
		if sym := strings.ToUpper(word) + "$"; currencySymbols[sym] {
			l.next()
			return Token{Kind: MONEY, Lexeme: sym, Pos: start}
		}
	}

	if upper := strings.ToUpper(word); keywords[upper] {
		return Token{Kind: KEYWORD, Lexeme: upper, Pos: start}
	}
	return Token{Kind: IDENT, Lexeme: word, Pos: start}
}

func (l *lexer) scanNumber(start ast.Position) Token {
	startOff := l.pos
	kind := INT
	for {
		r, ok := l.peek()
		if !ok {
			break
		}
		if unicode.IsDigit(r) {
			l.next()
			continue
		}
		if r == '.' && kind == INT {
			// only a decimal point when a digit follows
			rest := l.src[l.pos+1:]
			if len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
				kind = NUMBER
				l.next()
				continue
			}
		}
		break
	}
	return Token{Kind: kind, Lexeme: l.src[startOff:l.pos], Pos: start}
}

func (l *lexer) scanString(start ast.Position) (Token, error) {
	l.next() // opening quote
	var sb strings.Builder
	for {
		r, ok := l.next()
		if !ok || r == '\n' {
			return Token{}, &LexError{Pos: start, Char: '"'}
		}
		if r == '"' {
			return Token{Kind: STRING, Lexeme: sb.String(), Pos: start}, nil
		}
		if r == '\\' {
			esc, ok := l.next()
			if !ok {
				return Token{}, &LexError{Pos: start, Char: '\\'}
			}
			r = esc
		}
		sb.WriteRune(r)
	}
}

func (l *lexer) scanOperator(start ast.Position, r rune) (Token, error) {
	l.next()
	single := map[rune]TokenKind{
		'=': EQ,
		'+': PLUS,
		'-': MINUS,
		'*': STAR,
		'/': SLASH,
		'%': PERCENT,
		'(': LPAREN,
		')': RPAREN,
		'[': LBRACKET,
		']': RBRACKET,
		',': COMMA,
		':': COLON,
		';': SEMICOLON,
	}
	switch r {
	case '>':
		if n, ok := l.peek(); ok && n == '=' {
			l.next()
			return Token{Kind: GTE, Lexeme: ">=", Pos: start}, nil
		}
		return Token{Kind: GT, Lexeme: ">", Pos: start}, nil
	case '<':
		if n, ok := l.peek(); ok {
			switch n {
			case '=':
				l.next()
				return Token{Kind: LTE, Lexeme: "<=", Pos: start}, nil
			case '>':
				l.next()
				return Token{Kind: NEQ, Lexeme: "<>", Pos: start}, nil
			}
		}
		return Token{Kind: LT, Lexeme: "<", Pos: start}, nil
	case '$', '€':
		return Token{Kind: MONEY, Lexeme: string(r), Pos: start}, nil
	}
	if k, ok := single[r]; ok {
		return Token{Kind: k, Lexeme: string(r), Pos: start}, nil
	}
	return Token{}, &LexError{Pos: start, Char: r}
}
