package rules

import (
	"strconv"
	"strings"

	"github.com/dockersweep/dockersweep/core/domain"
)

// Parse tokenizes and parses rule-file source into its ordered rule list.
// Parsing happens once per run; the returned rules are never mutated.
func Parse(src string) ([]Rule, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	var out []Rule
	for !p.at(EOF) {
		rule, err := p.parseRule()
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, nil
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) next() Token {
	t := p.tokens[p.pos]
	if t.Kind != EOF {
		p.pos++
	}
	return t
}

func (p *parser) at(kind TokenKind) bool {
	return p.tokens[p.pos].Kind == kind
}

func (p *parser) expect(kind TokenKind) (Token, error) {
	t := p.peek()
	if t.Kind != kind {
		return Token{}, p.errExpected(kind.String())
	}
	return p.next(), nil
}

func (p *parser) errExpected(expected string) error {
	t := p.peek()
	found := t.Kind.String()
	switch t.Kind {
	case IDENT, NUMBER:
		found = "'" + t.Text + "'"
	case STRING:
		found = "string '" + t.Text + "'"
	}
	return &ParseError{Pos: t.Pos, Expected: expected, Found: found}
}

// parseRule parses: ["FORCE"] ("KEEP"|"DELETE") ("CONTAINER"|"IMAGE") "IF"
// <expr> ";". FORCE is accepted with KEEP but has no runtime effect; force
// only modifies delete semantics.
func (p *parser) parseRule() (Rule, error) {
	start := p.pos
	rule := Rule{At: p.peek().Pos}

	if p.at(FORCE) {
		p.next()
		rule.Force = true
	}

	switch p.peek().Kind {
	case KEEP:
		rule.Action = domain.Keep
	case DELETE:
		rule.Action = domain.Delete
	default:
		return Rule{}, p.errExpected("'KEEP' or 'DELETE'")
	}
	p.next()

	switch p.peek().Kind {
	case CONTAINER:
		rule.Target = domain.KindContainer
	case IMAGE:
		rule.Target = domain.KindImage
	default:
		return Rule{}, p.errExpected("'CONTAINER' or 'IMAGE'")
	}
	p.next()

	if _, err := p.expect(IF); err != nil {
		return Rule{}, err
	}

	cond, err := p.parseExpr()
	if err != nil {
		return Rule{}, err
	}
	rule.Condition = cond

	if _, err := p.expect(SEMICOLON); err != nil {
		return Rule{}, err
	}

	rule.Text = renderTokens(p.tokens[start:p.pos])
	return rule, nil
}

// Precedence low to high: or, and, not, comparison, additive,
// multiplicative, unary minus, atoms.
func (p *parser) parseExpr() (Expr, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.at(OR) {
		op := p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Logic{Op: OpOr, Left: left, Right: right, At: op.Pos}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.at(AND) {
		op := p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &Logic{Op: OpAnd, Left: left, Right: right, At: op.Pos}
	}
	return left, nil
}

func (p *parser) parseNot() (Expr, error) {
	if p.at(NOT) {
		op := p.next()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Not{X: x, At: op.Pos}, nil
	}
	return p.parseComparison()
}

// parseComparison admits at most one comparison per expression level;
// comparisons do not chain.
func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	var op CompareOp
	switch p.peek().Kind {
	case EQ:
		op = OpEq
	case NEQ:
		op = OpNeq
	case LT:
		op = OpLt
	case GT:
		op = OpGt
	case LTE:
		op = OpLte
	case GTE:
		op = OpGte
	default:
		return left, nil
	}
	tok := p.next()
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return &Compare{Op: op, Left: left, Right: right, At: tok.Pos}, nil
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.at(PLUS) || p.at(MINUS) {
		tok := p.next()
		op := OpAdd
		if tok.Kind == MINUS {
			op = OpSub
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &Arith{Op: op, Left: left, Right: right, At: tok.Pos}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.at(STAR) || p.at(SLASH) {
		tok := p.next()
		op := OpMul
		if tok.Kind == SLASH {
			op = OpDiv
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Arith{Op: op, Left: left, Right: right, At: tok.Pos}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.at(MINUS) {
		tok := p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Neg{X: x, At: tok.Pos}, nil
	}
	return p.parseAtom()
}

func (p *parser) parseAtom() (Expr, error) {
	switch t := p.peek(); t.Kind {
	case NUMBER:
		p.next()
		f, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			return nil, &ParseError{Pos: t.Pos, Expected: "number", Found: "'" + t.Text + "'"}
		}
		return &Literal{Value: f, At: t.Pos}, nil
	case STRING:
		p.next()
		return &Literal{Value: t.Text, At: t.Pos}, nil
	case LPAREN:
		p.next()
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return &Group{X: x, At: t.Pos}, nil
	case IDENT:
		return p.parsePathOrCall()
	default:
		return nil, p.errExpected("expression")
	}
}

// parsePathOrCall parses a dotted attribute path, optionally followed by a
// method call: an attribute path immediately followed by a parenthesized
// string literal, restricted to the names before and after.
func (p *parser) parsePathOrCall() (Expr, error) {
	first := p.next()
	segments := []string{first.Text}
	for p.at(DOT) {
		p.next()
		seg, err := p.expect(IDENT)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg.Text)
	}

	if !p.at(LPAREN) {
		return &Path{Segments: segments, At: first.Pos}, nil
	}

	p.next()
	name := segments[len(segments)-1]
	if len(segments) < 2 || (name != "before" && name != "after") {
		return nil, &ParseError{
			Pos:      first.Pos,
			Expected: "method call 'before' or 'after' on an attribute path",
			Found:    "'" + strings.Join(segments, ".") + "('",
		}
	}
	arg, err := p.expect(STRING)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return &Call{
		Receiver: &Path{Segments: segments[:len(segments)-1], At: first.Pos},
		Name:     name,
		Arg:      arg.Text,
		ArgPos:   arg.Pos,
		At:       first.Pos,
	}, nil
}

// renderTokens reconstructs a one-line form of a statement for log output.
func renderTokens(tokens []Token) string {
	var b strings.Builder
	for i, t := range tokens {
		text := t.Text
		if t.Kind == STRING {
			text = "'" + t.Text + "'"
		}
		if i > 0 && needsSpace(tokens[i-1].Kind, t.Kind) {
			b.WriteByte(' ')
		}
		b.WriteString(text)
	}
	return b.String()
}

func needsSpace(prev, cur TokenKind) bool {
	switch cur {
	case DOT, SEMICOLON, RPAREN:
		return false
	case LPAREN:
		// Method calls hug their receiver; grouping parens stand alone.
		return prev != IDENT
	}
	switch prev {
	case DOT, LPAREN:
		return false
	}
	return true
}
