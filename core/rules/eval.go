package rules

import (
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/dockersweep/dockersweep/core/domain"
)

// Env carries the run-wide evaluation context: the single "now" captured at
// run start (so relative date thresholds agree across all evaluations) and
// the arena resolver for cross-references between containers and images.
type Env struct {
	Now      time.Time
	Resolver domain.Resolver
}

// Eval interprets a condition expression against one resource, binding the
// resource to its kind's top-level name. Evaluation is pure: it never
// mutates the resource or any shared state.
func Eval(expr Expr, resource *domain.ResourceValue, env Env) (any, error) {
	e := &evaluator{root: resource, rootName: resource.Kind().Var(), env: env}
	return e.eval(expr)
}

// EvalCondition evaluates expr and reduces the result to its truthiness.
func EvalCondition(expr Expr, resource *domain.ResourceValue, env Env) (bool, error) {
	v, err := Eval(expr, resource, env)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

type evaluator struct {
	root     *domain.ResourceValue
	rootName string
	env      Env
}

func (e *evaluator) eval(x Expr) (any, error) {
	switch n := x.(type) {
	case *Literal:
		return n.Value, nil
	case *Group:
		return e.eval(n.X)
	case *Path:
		return e.resolvePath(n)
	case *Not:
		v, err := e.eval(n.X)
		if err != nil {
			return nil, err
		}
		return !truthy(v), nil
	case *Neg:
		v, err := e.eval(n.X)
		if err != nil {
			return nil, err
		}
		f, ok := v.(float64)
		if !ok {
			return nil, &TypeMismatchError{Pos: n.At, Op: "-", Types: []string{typeName(v)}}
		}
		return -f, nil
	case *Logic:
		return e.logic(n)
	case *Compare:
		return e.compare(n)
	case *Arith:
		return e.arith(n)
	case *Call:
		return e.call(n)
	}
	return nil, fmt.Errorf("unsupported expression node %T", x)
}

// logic short-circuits: the right operand is not evaluated when the left
// already determines the result, so it may safely reference attributes that
// only resolve once the left condition holds.
func (e *evaluator) logic(n *Logic) (any, error) {
	left, err := e.eval(n.Left)
	if err != nil {
		return nil, err
	}
	if n.Op == OpAnd && !truthy(left) {
		return false, nil
	}
	if n.Op == OpOr && truthy(left) {
		return true, nil
	}
	right, err := e.eval(n.Right)
	if err != nil {
		return nil, err
	}
	return truthy(right), nil
}

// resolvePath walks the dotted path by key lookup, dereferencing arena
// references on the way. Lookup is read-only; a missing segment is an error.
func (e *evaluator) resolvePath(p *Path) (any, error) {
	if p.Segments[0] != e.rootName {
		return nil, &AttributeError{Pos: p.At, Path: p.String(), Segment: p.Segments[0]}
	}
	var cur any = e.root
	for _, seg := range p.Segments[1:] {
		v, err := e.lookup(cur, seg, p)
		if err != nil {
			return nil, err
		}
		cur = v
	}
	return cur, nil
}

func (e *evaluator) lookup(cur any, seg string, p *Path) (any, error) {
	if ref, ok := cur.(domain.Ref); ok {
		rv, ok := e.env.Resolver.Resolve(ref)
		if !ok {
			return nil, &AttributeError{Pos: p.At, Path: p.String(), Segment: seg}
		}
		cur = rv
	}
	switch v := cur.(type) {
	case *domain.ResourceValue:
		val, ok := v.Get(seg)
		if !ok {
			return nil, &AttributeError{Pos: p.At, Path: p.String(), Segment: seg}
		}
		return val, nil
	case map[string]any:
		val, ok := v[seg]
		if !ok {
			return nil, &AttributeError{Pos: p.At, Path: p.String(), Segment: seg}
		}
		return val, nil
	default:
		return nil, &AttributeError{Pos: p.At, Path: p.String(), Segment: seg}
	}
}

// compare applies type-aware semantics; incompatible operand types fail
// rather than coercing or silently returning false.
func (e *evaluator) compare(n *Compare) (any, error) {
	left, err := e.eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.eval(n.Right)
	if err != nil {
		return nil, err
	}

	mismatch := func() error {
		return &TypeMismatchError{Pos: n.At, Op: n.Op.String(), Types: []string{typeName(left), typeName(right)}}
	}

	// nil admits equality against anything, on either side; ordering on
	// nil is an error.
	if left == nil || right == nil {
		if !isEquality(n.Op) {
			return nil, mismatch()
		}
		return equality(n.Op, left == nil && right == nil), nil
	}

	if l, ok := left.(float64); ok {
		r, ok := right.(float64)
		if !ok {
			return nil, mismatch()
		}
		return compareOrdered(n.Op, l, r), nil
	}
	if l, ok := left.(string); ok {
		if r, ok := right.(string); ok {
			return compareOrdered(n.Op, l, r), nil
		}
		if r, ok := right.(domain.Ref); ok && isEquality(n.Op) {
			return equality(n.Op, l == r.ID), nil
		}
		return nil, mismatch()
	}
	if l, ok := left.(domain.DateTime); ok {
		r, ok := right.(domain.DateTime)
		if !ok {
			return nil, mismatch()
		}
		return compareTimes(n.Op, l.Time, r.Time), nil
	}
	if l, ok := left.(bool); ok {
		r, ok := right.(bool)
		if !ok || !isEquality(n.Op) {
			return nil, mismatch()
		}
		return equality(n.Op, l == r), nil
	}
	if l, ok := left.(domain.Ref); ok && isEquality(n.Op) {
		switch r := right.(type) {
		case domain.Ref:
			return equality(n.Op, l == r), nil
		case string:
			return equality(n.Op, l.ID == r), nil
		}
		return nil, mismatch()
	}
	return nil, mismatch()
}

func (e *evaluator) arith(n *Arith) (any, error) {
	left, err := e.eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.eval(n.Right)
	if err != nil {
		return nil, err
	}
	l, lok := left.(float64)
	r, rok := right.(float64)
	if !lok || !rok {
		return nil, &TypeMismatchError{Pos: n.At, Op: n.Op.String(), Types: []string{typeName(left), typeName(right)}}
	}
	switch n.Op {
	case OpAdd:
		return l + r, nil
	case OpSub:
		return l - r, nil
	case OpMul:
		return l * r, nil
	default:
		if r == 0 {
			return nil, &DivisionByZeroError{Pos: n.At}
		}
		return l / r, nil
	}
}

// call evaluates before()/after(). The receiver must resolve to a DateTime;
// the argument is parsed against the run-wide now.
func (e *evaluator) call(n *Call) (any, error) {
	recv, err := e.resolvePath(n.Receiver)
	if err != nil {
		return nil, err
	}
	dt, ok := recv.(domain.DateTime)
	if !ok {
		return nil, &TypeMismatchError{Pos: n.At, Op: n.Name + "()", Types: []string{typeName(recv)}}
	}
	threshold, err := domain.ParseDateSpec(n.Arg, e.env.Now)
	if err != nil {
		return nil, &DateSpecError{Pos: n.ArgPos, Spec: n.Arg, Err: err}
	}
	if n.Name == "before" {
		return dt.Time.Before(threshold), nil
	}
	return dt.Time.After(threshold), nil
}

func isEquality(op CompareOp) bool {
	return op == OpEq || op == OpNeq
}

func equality(op CompareOp, equal bool) bool {
	if op == OpNeq {
		return !equal
	}
	return equal
}

func compareOrdered[T float64 | string](op CompareOp, l, r T) bool {
	switch op {
	case OpEq:
		return l == r
	case OpNeq:
		return l != r
	case OpLt:
		return l < r
	case OpGt:
		return l > r
	case OpLte:
		return l <= r
	default:
		return l >= r
	}
}

func compareTimes(op CompareOp, l, r time.Time) bool {
	switch op {
	case OpEq:
		return l.Equal(r)
	case OpNeq:
		return !l.Equal(r)
	case OpLt:
		return l.Before(r)
	case OpGt:
		return l.After(r)
	case OpLte:
		return !l.After(r)
	default:
		return !l.Before(r)
	}
}

// truthy follows the original language semantics: missing values are
// errors, but a present nil (e.g. an absent image back-reference) is false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case domain.DateTime:
		return true
	case domain.Ref:
		return true
	case *domain.ResourceValue:
		return true
	case mapset.Set[domain.Ref]:
		return t.Cardinality() > 0
	case map[string]any:
		return len(t) > 0
	case []any:
		return len(t) > 0
	default:
		return true
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case domain.DateTime:
		return "datetime"
	case domain.Ref, *domain.ResourceValue:
		return "resource"
	case mapset.Set[domain.Ref]:
		return "set"
	case map[string]any:
		return "mapping"
	default:
		return fmt.Sprintf("%T", v)
	}
}
