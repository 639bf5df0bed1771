package argv

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/wagiedev/procshim-go/internal/errors"
)

// List is an immutable, validated argument vector.
// Index 0 is the program, the rest are its arguments in caller order.
type List struct {
	items []string
}

// Build validates values left to right and converts them into a List.
//
// Build fails with errors.ErrNoArguments when values is empty and with an
// *errors.InvalidArgumentError for the first value that is not string-like
// or that cannot be represented as a C string. On failure the zero List is
// returned.
func Build(values []any) (List, error) {
	if len(values) == 0 {
		return List{}, errors.ErrNoArguments
	}

	items := make([]string, 0, len(values))

	for i, v := range values {
		s, err := convert(i, v)
		if err != nil {
			// Drop exactly the converted prefix [0, i).
			clear(items)

			return List{}, err
		}

		items = append(items, s)
	}

	return List{items: items}, nil
}

// FromStrings builds a List from already-typed strings.
func FromStrings(values []string) (List, error) {
	anys := make([]any, len(values))
	for i, v := range values {
		anys[i] = v
	}

	return Build(anys)
}

// convert turns a single string-like value into an argv entry.
func convert(index int, v any) (string, error) {
	var s string

	switch x := v.(type) {
	case string:
		s = x
	case []byte:
		if bytes.IndexByte(x, 0) >= 0 {
			return "", &errors.InvalidArgumentError{Index: index, Type: "[]byte", Reason: "contains NUL byte"}
		}

		s = string(x)
	case nil:
		return "", &errors.InvalidArgumentError{Index: index, Type: "nil"}
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.String {
			return "", &errors.InvalidArgumentError{Index: index, Type: typeName(v)}
		}

		s = rv.String()
	}

	if strings.IndexByte(s, 0) >= 0 {
		return "", &errors.InvalidArgumentError{Index: index, Type: typeName(v), Reason: "contains NUL byte"}
	}

	return s, nil
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}

// Len returns the number of items, program included.
func (l List) Len() int {
	return len(l.items)
}

// IsZero reports whether l holds no items.
func (l List) IsZero() bool {
	return len(l.items) == 0
}

// Program returns argv[0], or "" for the zero List.
func (l List) Program() string {
	if len(l.items) == 0 {
		return ""
	}

	return l.items[0]
}

// Args returns a copy of argv[1:].
func (l List) Args() []string {
	if len(l.items) <= 1 {
		return nil
	}

	out := make([]string, len(l.items)-1)
	copy(out, l.items[1:])

	return out
}

// Argv returns a copy of the full vector.
func (l List) Argv() []string {
	if len(l.items) == 0 {
		return nil
	}

	out := make([]string, len(l.items))
	copy(out, l.items)

	return out
}

// String renders the vector for logs. It is not shell-quoted.
func (l List) String() string {
	return fmt.Sprintf("%q", l.items)
}
