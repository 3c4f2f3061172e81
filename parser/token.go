package parser

import (
	"fmt"

	"github.com/victorcalife/tql/ast"
)

// TokenKind identifies the lexical class of a token.
type TokenKind int

const (
	EOF TokenKind = iota
	IDENT
	KEYWORD
	INT
	NUMBER
	STRING
	MONEY // currency symbol: R$, US$, $, €

	EQ  // =
	NEQ // <>
	GT  // >
	GTE // >=
	LT  // <
	LTE // <=

	PLUS    // +
	MINUS   // -
	STAR    // *
	SLASH   // /
	PERCENT // %

	LPAREN    // (
	RPAREN    // )
	LBRACKET  // [
	RBRACKET  // ]
	COMMA     // ,
	COLON     // :
	SEMICOLON // ;
)

var tokenNames = map[TokenKind]string{
	EOF:       "EOF",
	IDENT:     "identifier",
	KEYWORD:   "keyword",
	INT:       "integer",
	NUMBER:    "number",
	STRING:    "string",
	MONEY:     "currency",
	EQ:        "=",
	NEQ:       "<>",
	GT:        ">",
	GTE:       ">=",
	LT:        "<",
	LTE:       "<=",
	PLUS:      "+",
	MINUS:     "-",
	STAR:      "*",
	SLASH:     "/",
	PERCENT:   "%",
	LPAREN:    "(",
	RPAREN:    ")",
	LBRACKET:  "[",
	RBRACKET:  "]",
	COMMA:     ",",
	COLON:     ":",
	SEMICOLON: ";",
}

func (k TokenKind) String() string {
	if s, ok := tokenNames[k]; ok {
		return s
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is a single lexical unit with its source position.
// For KEYWORD tokens Lexeme is the canonical upper-case keyword; for all
// other kinds it is the literal source text.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Pos    ast.Position
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "EOF"
	case IDENT, KEYWORD, INT, NUMBER, MONEY:
		return t.Lexeme
	case STRING:
		return fmt.Sprintf("%q", t.Lexeme)
	default:
		return t.Kind.String()
	}
}

// keywords is the fixed TQL keyword set. Matching is case-insensitive;
// the lexer stores the canonical upper-case form.
var keywords = map[string]bool{
	"SOMAR":            true,
	"CONTAR":           true,
	"MEDIA":            true,
	"MAX":              true,
	"MIN":              true,
	"DE":               true,
	"ONDE":             true,
	"EM":               true,
	"E":                true,
	"OU":               true,
	"AGRUPADO":         true,
	"ORDENADO":         true,
	"LIMITADO":         true,
	"POR":              true,
	"A":                true,
	"ASC":              true,
	"DESC":             true,
	"TOP":              true,
	"DASHBOARD":        true,
	"KPI":              true,
	"GRAFICO":          true,
	"TABELA":           true,
	"GAUGE":            true,
	"TITULO":           true,
	"FORMATO":          true,
	"MOEDA":            true,
	"COR":              true,
	"CORES":            true,
	"SE":               true,
	"ATUALIZAR_A_CADA": true,
	"HOJE":             true,
	"AGORA":            true,
	"MINUTO":           true,
	"HORA":             true,
	"DIA":              true,
	"SEMANA":           true,
	"MES":              true,
	"ANO":              true,
	"ULTIMOS":          true,
	"ENTRE":            true,
	"PERIODO":          true,
	"MINIMO":           true,
	"MAXIMO":           true,
	"META":             true,
	"ALTURA":           true,
	"LARGURA":          true,
}

// currencySymbols are the MOEDA symbols the lexer recognizes as one token.
var currencySymbols = map[string]bool{
	"R$":  true,
	"US$": true,
	"$":   true,
	"€":   true,
}
