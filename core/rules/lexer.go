package rules

import (
	"strconv"
	"unicode/utf8"
)

// Lex scans rule-file source into a token stream terminated by an EOF token.
// Whitespace and newlines are insignificant; # comments run to end of line.
// Any unrecognized character is fatal for the whole rule file.
func Lex(src string) ([]Token, error) {
	l := &lexer{src: src, line: 1, col: 1}

	var tokens []Token
	for {
		l.skipSpaceAndComments()
		if l.eof() {
			tokens = append(tokens, Token{Kind: EOF, Pos: l.position()})
			return tokens, nil
		}
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
}

type lexer struct {
	src  string
	pos  int
	line int
	col  int
}

func (l *lexer) eof() bool {
	return l.pos >= len(l.src)
}

func (l *lexer) position() Position {
	return Position{Line: l.line, Col: l.col}
}

func (l *lexer) peek() byte {
	return l.src[l.pos]
}

func (l *lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *lexer) skipSpaceAndComments() {
	for !l.eof() {
		switch c := l.peek(); {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()
		case c == '#':
			for !l.eof() && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *lexer) next() (Token, error) {
	pos := l.position()
	c := l.peek()

	switch {
	case isIdentStart(c):
		return l.scanIdent(pos), nil
	case c >= '0' && c <= '9':
		return l.scanNumber(pos), nil
	case c == '\'' || c == '"':
		return l.scanString(pos)
	}

	l.advance()
	switch c {
	case '=':
		if !l.eof() && l.peek() == '=' {
			l.advance()
			return Token{Kind: EQ, Text: "==", Pos: pos}, nil
		}
		return Token{}, &LexError{Pos: pos, Msg: "unexpected character '=' (did you mean '==')"}
	case '!':
		if !l.eof() && l.peek() == '=' {
			l.advance()
			return Token{Kind: NEQ, Text: "!=", Pos: pos}, nil
		}
		return Token{}, &LexError{Pos: pos, Msg: "unexpected character '!' (did you mean '!=')"}
	case '<':
		if !l.eof() && l.peek() == '=' {
			l.advance()
			return Token{Kind: LTE, Text: "<=", Pos: pos}, nil
		}
		return Token{Kind: LT, Text: "<", Pos: pos}, nil
	case '>':
		if !l.eof() && l.peek() == '=' {
			l.advance()
			return Token{Kind: GTE, Text: ">=", Pos: pos}, nil
		}
		return Token{Kind: GT, Text: ">", Pos: pos}, nil
	case '+':
		return Token{Kind: PLUS, Text: "+", Pos: pos}, nil
	case '-':
		return Token{Kind: MINUS, Text: "-", Pos: pos}, nil
	case '*':
		return Token{Kind: STAR, Text: "*", Pos: pos}, nil
	case '/':
		return Token{Kind: SLASH, Text: "/", Pos: pos}, nil
	case '(':
		return Token{Kind: LPAREN, Text: "(", Pos: pos}, nil
	case ')':
		return Token{Kind: RPAREN, Text: ")", Pos: pos}, nil
	case '.':
		return Token{Kind: DOT, Text: ".", Pos: pos}, nil
	case ';':
		return Token{Kind: SEMICOLON, Text: ";", Pos: pos}, nil
	}

	// Report the full rune for non-ASCII input.
	r, size := utf8.DecodeRuneInString(l.src[l.pos-1:])
	for i := 1; i < size; i++ {
		l.advance()
	}
	return Token{}, &LexError{Pos: pos, Msg: "unexpected character " + strconv.QuoteRune(r)}
}

func (l *lexer) scanIdent(pos Position) Token {
	start := l.pos
	for !l.eof() && isIdentPart(l.peek()) {
		l.advance()
	}
	text := l.src[start:l.pos]
	if kind, ok := keywords[text]; ok {
		return Token{Kind: kind, Text: text, Pos: pos}
	}
	return Token{Kind: IDENT, Text: text, Pos: pos}
}

func (l *lexer) scanNumber(pos Position) Token {
	start := l.pos
	for !l.eof() && l.peek() >= '0' && l.peek() <= '9' {
		l.advance()
	}
	if l.pos < len(l.src)-1 && l.peek() == '.' && l.src[l.pos+1] >= '0' && l.src[l.pos+1] <= '9' {
		l.advance()
		for !l.eof() && l.peek() >= '0' && l.peek() <= '9' {
			l.advance()
		}
	}
	return Token{Kind: NUMBER, Text: l.src[start:l.pos], Pos: pos}
}

func (l *lexer) scanString(pos Position) (Token, error) {
	quote := l.advance()
	start := l.pos
	for !l.eof() {
		c := l.peek()
		if c == '\n' {
			break
		}
		l.advance()
		if c == quote {
			return Token{Kind: STRING, Text: l.src[start : l.pos-1], Pos: pos}, nil
		}
	}
	return Token{}, &LexError{Pos: pos, Msg: "unterminated string literal"}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
