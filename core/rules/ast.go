package rules

import (
	"strings"

	"github.com/dockersweep/dockersweep/core/domain"
)

// Expr is a node in a rule condition AST. The tree is built once by the
// parser and shared read-only by all evaluations.
type Expr interface {
	expr()
	Pos() Position
}

// Literal is a string or numeric constant.
type Literal struct {
	Value any // string or float64
	At    Position
}

// Path is a dotted attribute path; the first segment names the rule's
// top-level variable (Container or Image).
type Path struct {
	Segments []string
	At       Position
}

func (p *Path) String() string {
	return strings.Join(p.Segments, ".")
}

// Not negates the truthiness of its operand.
type Not struct {
	X  Expr
	At Position
}

// Neg is arithmetic negation of a numeric operand.
type Neg struct {
	X  Expr
	At Position
}

type LogicOp int

const (
	OpAnd LogicOp = iota
	OpOr
)

func (op LogicOp) String() string {
	if op == OpOr {
		return "or"
	}
	return "and"
}

// Logic is a short-circuiting and/or node.
type Logic struct {
	Op          LogicOp
	Left, Right Expr
	At          Position
}

type CompareOp int

const (
	OpEq CompareOp = iota
	OpNeq
	OpLt
	OpGt
	OpLte
	OpGte
)

func (op CompareOp) String() string {
	switch op {
	case OpEq:
		return "=="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpGt:
		return ">"
	case OpLte:
		return "<="
	default:
		return ">="
	}
}

// Compare is a single, non-chaining comparison.
type Compare struct {
	Op          CompareOp
	Left, Right Expr
	At          Position
}

type ArithOp int

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
)

func (op ArithOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	default:
		return "/"
	}
}

// Arith is a numeric binary operation; / is true division.
type Arith struct {
	Op          ArithOp
	Left, Right Expr
	At          Position
}

// Call is a before()/after() method call on a DateTime-valued attribute
// path. The type restriction on the receiver is checked at evaluation time;
// the parser only enforces the call shape.
type Call struct {
	Receiver *Path
	Name     string
	Arg      string
	ArgPos   Position
	At       Position
}

// Group is a parenthesized sub-expression.
type Group struct {
	X  Expr
	At Position
}

func (*Literal) expr() {}
func (*Path) expr()    {}
func (*Not) expr()     {}
func (*Neg) expr()     {}
func (*Logic) expr()   {}
func (*Compare) expr() {}
func (*Arith) expr()   {}
func (*Call) expr()    {}
func (*Group) expr()   {}

func (n *Literal) Pos() Position { return n.At }
func (n *Path) Pos() Position    { return n.At }
func (n *Not) Pos() Position     { return n.At }
func (n *Neg) Pos() Position     { return n.At }
func (n *Logic) Pos() Position   { return n.At }
func (n *Compare) Pos() Position { return n.At }
func (n *Arith) Pos() Position   { return n.At }
func (n *Call) Pos() Position    { return n.At }
func (n *Group) Pos() Position   { return n.At }

// Rule is one ordered statement from the rule file. Rules are immutable
// after parsing; the list keeps file order, which is significant.
type Rule struct {
	Target    domain.Kind
	Action    domain.Action
	Force     bool
	Condition Expr
	At        Position
	Text      string
}
