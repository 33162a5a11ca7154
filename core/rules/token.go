package rules

import "fmt"

// Position locates a token in the rule-file source.
type Position struct {
	Line int
	Col  int
}

func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Col)
}

// TokenKind enumerates the semantic units the lexer produces.
type TokenKind int

const (
	EOF TokenKind = iota
	IDENT
	NUMBER
	STRING

	// Statement keywords, matched verbatim (KEEP CONTAINER IF ...).
	KEEP
	DELETE
	FORCE
	CONTAINER
	IMAGE
	IF

	// Boolean operators, lowercase like the expression they live in.
	AND
	OR
	NOT

	EQ  // ==
	NEQ // !=
	LT  // <
	GT  // >
	LTE // <=
	GTE // >=

	PLUS
	MINUS
	STAR
	SLASH

	LPAREN
	RPAREN
	DOT
	SEMICOLON
)

var tokenNames = map[TokenKind]string{
	EOF:       "end of input",
	IDENT:     "identifier",
	NUMBER:    "number",
	STRING:    "string",
	KEEP:      "'KEEP'",
	DELETE:    "'DELETE'",
	FORCE:     "'FORCE'",
	CONTAINER: "'CONTAINER'",
	IMAGE:     "'IMAGE'",
	IF:        "'IF'",
	AND:       "'and'",
	OR:        "'or'",
	NOT:       "'not'",
	EQ:        "'=='",
	NEQ:       "'!='",
	LT:        "'<'",
	GT:        "'>'",
	LTE:       "'<='",
	GTE:       "'>='",
	PLUS:      "'+'",
	MINUS:     "'-'",
	STAR:      "'*'",
	SLASH:     "'/'",
	LPAREN:    "'('",
	RPAREN:    "')'",
	DOT:       "'.'",
	SEMICOLON: "';'",
}

func (k TokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(k))
}

// Token is one semantic unit of rule-file input. Text holds the source
// spelling, except for STRING tokens where it holds the unquoted value.
type Token struct {
	Kind TokenKind
	Text string
	Pos  Position
}

var keywords = map[string]TokenKind{
	"KEEP":      KEEP,
	"DELETE":    DELETE,
	"FORCE":     FORCE,
	"CONTAINER": CONTAINER,
	"IMAGE":     IMAGE,
	"IF":        IF,
	"and":       AND,
	"or":        OR,
	"not":       NOT,
}
