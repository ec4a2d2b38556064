package query

import (
	"fmt"
	"strings"
)

// Kind is the query form.
type Kind int

const (
	KindConstruct Kind = iota + 1
	KindInsert
	KindDelete
)

// String returns the SPARQL keyword for the kind.
func (k Kind) String() string {
	switch k {
	case KindConstruct:
		return "CONSTRUCT"
	case KindInsert:
		return "INSERT"
	case KindDelete:
		return "DELETE"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	return k >= KindConstruct && k <= KindDelete
}

// IsUpdate reports whether k is a SPARQL Update form.
func (k Kind) IsUpdate() bool {
	return k == KindInsert || k == KindDelete
}

// ParseKind parses a kind name case-insensitively.
// A blank or unknown name is an invalid argument.
func ParseKind(s string) (Kind, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	switch name {
	case "":
		return 0, NewInvalidArgument("query kind is blank", nil)
	case "CONSTRUCT":
		return KindConstruct, nil
	case "INSERT":
		return KindInsert, nil
	case "DELETE":
		return KindDelete, nil
	default:
		return 0, &Error{
			Code:    ErrCodeInvalidArgument,
			Message: "unknown query kind",
			Details: map[string]string{"kind": s},
		}
	}
}
