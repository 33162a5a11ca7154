package rules

import (
	"fmt"
	"strings"
)

// LexError reports an unrecognized or malformed piece of rule-file input.
// It is fatal for the run; no partial rule file is accepted.
type LexError struct {
	Pos Position
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %s: %s", e.Pos, e.Msg)
}

// ParseError reports a token stream that does not form a valid rule.
type ParseError struct {
	Pos      Position
	Expected string
	Found    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s: expected %s, found %s", e.Pos, e.Expected, e.Found)
}

// AttributeError reports an attribute path that does not resolve on the
// resource being evaluated. A missing attribute is always an error, never a
// false result.
type AttributeError struct {
	Pos     Position
	Path    string
	Segment string
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("cannot resolve attribute %q at %s: no attribute %q", e.Path, e.Pos, e.Segment)
}

// TypeMismatchError reports incompatible operand types in a comparison,
// arithmetic operation or method call. Types are never coerced.
type TypeMismatchError struct {
	Pos   Position
	Op    string
	Types []string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch at %s: invalid operand types for %s: %s",
		e.Pos, e.Op, strings.Join(e.Types, ", "))
}

// DivisionByZeroError reports a division whose right operand evaluated to
// zero. Division never yields an infinity.
type DivisionByZeroError struct {
	Pos Position
}

func (e *DivisionByZeroError) Error() string {
	return fmt.Sprintf("division by zero at %s", e.Pos)
}

// DateSpecError reports an unparseable date string passed to before()/after().
type DateSpecError struct {
	Pos  Position
	Spec string
	Err  error
}

func (e *DateSpecError) Error() string {
	return fmt.Sprintf("bad date spec %q at %s: %v", e.Spec, e.Pos, e.Err)
}

func (e *DateSpecError) Unwrap() error {
	return e.Err
}

// RuleError wraps an evaluation failure with the offending rule's source
// position and the resource it was evaluated against.
type RuleError struct {
	RulePos  Position
	RuleText string
	Resource string
	Err      error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule at %s (%s) failed against %s: %v",
		e.RulePos, e.RuleText, e.Resource, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}
