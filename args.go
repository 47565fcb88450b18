package termux

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Invocation is the fully assembled token sequence used to spawn the
// external tool. The first element is the program name.
type Invocation []string

// String renders the invocation as a POSIX shell command line. Each token
// is quoted only when it contains characters the shell would interpret.
func (inv Invocation) String() string {
	quoted := make([]string, len(inv))
	for i, tok := range inv {
		quoted[i] = quoteArg(tok)
	}
	return strings.Join(quoted, " ")
}

// Flag is a boolean switch. Name is emitted only when Set is true.
type Flag struct {
	Name string
	Set  bool
}

// Option is a valued switch. A nil Value emits nothing, and so does a typed
// nil pointer, slice, map or interface. List values should be passed
// through JoinList.
type Option struct {
	Name  string
	Value any
}

// F is shorthand for Flag{Name: name, Set: set}.
func F(name string, set bool) Flag {
	return Flag{Name: name, Set: set}
}

// O is shorthand for Option{Name: name, Value: value}.
func O(name string, value any) Option {
	return Option{Name: name, Value: value}
}

// BuildArgs assembles an Invocation in the order
// base → flags → options → positional.
//
// Flags contribute their name only when set. Options contribute a
// name/value pair unless their value is absent; booleans render as
// "true" or "false".
func BuildArgs(base []string, flags []Flag, options []Option, positional ...string) Invocation {
	inv := make(Invocation, 0, len(base)+len(flags)+2*len(options)+len(positional))
	inv = append(inv, base...)

	for _, f := range flags {
		if f.Set {
			inv = append(inv, f.Name)
		}
	}

	for _, o := range options {
		value, ok := renderValue(o.Value)
		if !ok {
			continue
		}
		inv = append(inv, o.Name, value)
	}

	return append(inv, positional...)
}

// JoinList pre-joins a list-valued option into one comma-separated token.
// A nil slice is absent; an empty non-nil slice is the empty token.
func JoinList[T any](items []T) any {
	if items == nil {
		return nil
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i], _ = renderValue(item)
	}
	return strings.Join(parts, ",")
}

// renderValue converts an option value to its token form.
// Returns false when the value is absent.
func renderValue(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return "", false
		}
		if s, ok := v.(fmt.Stringer); ok {
			return s.String(), true
		}
		return renderValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return "", false
		}
	}

	switch x := v.(type) {
	case bool:
		return strconv.FormatBool(x), true
	case string:
		return x, true
	case int:
		return strconv.Itoa(x), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint:
		return strconv.FormatUint(uint64(x), 10), true
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), true
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true
	case fmt.Stringer:
		return x.String(), true
	default:
		return fmt.Sprint(x), true
	}
}

// Ptr returns a pointer to v. Useful for optional option values.
func Ptr[T any](v T) *T {
	return &v
}

// quoteArg wraps tok in single quotes when the shell would otherwise split
// or expand it. An embedded single quote is written as '\''.
func quoteArg(tok string) string {
	if tok == "" {
		return "''"
	}
	if strings.IndexFunc(tok, needsQuote) < 0 {
		return tok
	}
	var b strings.Builder
	b.Grow(len(tok) + 2)
	b.WriteByte('\'')
	for _, r := range tok {
		if r == '\'' {
			b.WriteString(`'\''`)
			continue
		}
		b.WriteRune(r)
	}
	b.WriteByte('\'')
	return b.String()
}

func needsQuote(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("-_./,:=@%+", r)
}
