package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func kinds(tokens []Token) []TokenKind {
	out := make([]TokenKind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func TestLex(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		wantKinds []TokenKind
		wantTexts []string
		wantErr   string
	}{
		{
			name:      "empty input",
			src:       "",
			wantKinds: []TokenKind{EOF},
		},
		{
			name:      "comment only",
			src:       "# nothing here\n",
			wantKinds: []TokenKind{EOF},
		},
		{
			name: "full statement",
			src:  "DELETE CONTAINER IF Container.State.Running == 0;",
			wantKinds: []TokenKind{
				DELETE, CONTAINER, IF,
				IDENT, DOT, IDENT, DOT, IDENT,
				EQ, NUMBER, SEMICOLON, EOF,
			},
		},
		{
			name:      "force keyword",
			src:       "FORCE DELETE IMAGE IF Image.Dangling;",
			wantKinds: []TokenKind{FORCE, DELETE, IMAGE, IF, IDENT, DOT, IDENT, SEMICOLON, EOF},
		},
		{
			name:      "lowercase boolean operators",
			src:       "not a and b or c",
			wantKinds: []TokenKind{NOT, IDENT, AND, IDENT, OR, IDENT, EOF},
		},
		{
			name:      "keywords are case sensitive",
			src:       "keep Keep KEEP",
			wantKinds: []TokenKind{IDENT, IDENT, KEEP, EOF},
			wantTexts: []string{"keep", "Keep", "KEEP", ""},
		},
		{
			name:      "comparison operators",
			src:       "== != < > <= >=",
			wantKinds: []TokenKind{EQ, NEQ, LT, GT, LTE, GTE, EOF},
		},
		{
			name:      "arithmetic and grouping",
			src:       "(1 + 2.5) * 3 / -4",
			wantKinds: []TokenKind{LPAREN, NUMBER, PLUS, NUMBER, RPAREN, STAR, NUMBER, SLASH, MINUS, NUMBER, EOF},
			wantTexts: []string{"(", "1", "+", "2.5", ")", "*", "3", "/", "-", "4", ""},
		},
		{
			name:      "single quoted string keeps inner value",
			src:       "'2 weeks ago'",
			wantKinds: []TokenKind{STRING, EOF},
			wantTexts: []string{"2 weeks ago", ""},
		},
		{
			name:      "double quoted string",
			src:       `"nginx:latest"`,
			wantKinds: []TokenKind{STRING, EOF},
			wantTexts: []string{"nginx:latest", ""},
		},
		{
			name:      "comment between tokens",
			src:       "KEEP # explain why\nCONTAINER",
			wantKinds: []TokenKind{KEEP, CONTAINER, EOF},
		},
		{
			name:    "lone equals",
			src:     "Container.Name = 'x'",
			wantErr: "did you mean '=='",
		},
		{
			name:    "lone bang",
			src:     "! Container.State.Running",
			wantErr: "did you mean '!='",
		},
		{
			name:    "unterminated string",
			src:     "KEEP CONTAINER IF Container.Name == 'oops\n;",
			wantErr: "unterminated string literal",
		},
		{
			name:    "unterminated string at eof",
			src:     `"half`,
			wantErr: "unterminated string literal",
		},
		{
			name:    "unknown character",
			src:     "KEEP CONTAINER IF Container.Name == @;",
			wantErr: "unexpected character '@'",
		},
		{
			name:    "non ascii character",
			src:     "KEEP CONTAINER IF é;",
			wantErr: "unexpected character 'é'",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Lex(tt.src)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantKinds, kinds(tokens))
			if tt.wantTexts != nil {
				texts := make([]string, len(tokens))
				for i, tok := range tokens {
					texts[i] = tok.Text
				}
				assert.Equal(t, tt.wantTexts, texts)
			}
		})
	}
}

func TestLexPositions(t *testing.T) {
	tokens, err := Lex("KEEP CONTAINER\n  IF Container.Name;")
	assert.NoError(t, err)

	assert.Equal(t, Position{Line: 1, Col: 1}, tokens[0].Pos)
	assert.Equal(t, Position{Line: 1, Col: 6}, tokens[1].Pos)
	assert.Equal(t, Position{Line: 2, Col: 3}, tokens[2].Pos)
	assert.Equal(t, Position{Line: 2, Col: 6}, tokens[3].Pos)
}

func TestLexErrorPosition(t *testing.T) {
	_, err := Lex("KEEP CONTAINER IF\n  Container.Name = 'x';")
	assert.Error(t, err)

	var lexErr *LexError
	assert.ErrorAs(t, err, &lexErr)
	assert.Equal(t, 2, lexErr.Pos.Line)
	assert.ErrorContains(t, err, "line 2")
}
