package semantic

import (
	"fmt"

	"github.com/victorcalife/tql/ast"
)

// ErrorKind classifies binding failures.
type ErrorKind int

const (
	UnknownDataset ErrorKind = iota
	UnknownField
	UnknownVariable
	TypeMismatch
	CrossTenantAccessDenied
	InvalidQuery
)

func (k ErrorKind) String() string {
	switch k {
	case UnknownDataset:
		return "unknown dataset"
	case UnknownField:
		return "unknown field"
	case UnknownVariable:
		return "unknown variable"
	case TypeMismatch:
		return "type mismatch"
	case CrossTenantAccessDenied:
		return "access denied"
	default:
		return "invalid query"
	}
}

// Error is a binding failure with the source position of the offending node.
type Error struct {
	Kind ErrorKind
	Pos  ast.Position
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s: %s", e.Pos.Line, e.Pos.Column, e.Kind, e.Msg)
}

func errAt(kind ErrorKind, node ast.Node, format string, args ...interface{}) *Error {
	var pos ast.Position
	if loc := node.Location(); loc != nil {
		pos = loc.Start
	}
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
