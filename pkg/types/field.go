package types

import (
	"io"
	"storedb/pkg/primitives"
)

type Field interface {
	Serialize(w io.Writer) error

	Compare(op Predicate, other Field) (bool, error)

	Type() Type

	String() string

	Equals(other Field) bool

	Hash() (primitives.HashCode, error)
}
