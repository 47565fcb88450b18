package termux

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Interpreter turns the standard output of a successful run into a typed
// result. Each implementation matches one of the output conventions the
// external tool uses across its sub-commands.
type Interpreter[T any] interface {
	Interpret(stdout string) (T, error)
}

// InterpreterFunc adapts an ordinary function to Interpreter.
type InterpreterFunc[T any] func(stdout string) (T, error)

func (f InterpreterFunc[T]) Interpret(stdout string) (T, error) {
	return f(stdout)
}

// Call runs inv through c and interprets its output with in. Errors from
// the run itself are returned unchanged and in is not consulted.
func Call[T any](ctx context.Context, c *Client, inv Invocation, in Interpreter[T], opts ...RunOption) (T, error) {
	stdout, err := c.Run(ctx, inv, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	v, err := in.Interpret(stdout)
	if err != nil {
		c.hooks.invokeError(err)
	}
	return v, err
}

// ---------------------------------------------------------------------------
// Structured decode
// ---------------------------------------------------------------------------

// JSON decodes stdout as a JSON document. With T = any the result is the
// generic tree of maps, slices, strings, float64s and bools.
type JSON[T any] struct{}

func (JSON[T]) Interpret(stdout string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(stdout), &v); err != nil {
		var zero T
		return zero, &ParseError{Raw: []byte(stdout), Err: err}
	}
	return v, nil
}

// ---------------------------------------------------------------------------
// Silence is success
// ---------------------------------------------------------------------------

// Silent treats empty or whitespace-only output as success. Anything else
// is the tool's error message.
type Silent struct{}

func (Silent) Interpret(stdout string) (struct{}, error) {
	if strings.TrimSpace(stdout) != "" {
		return struct{}{}, &ToolError{Message: stdout}
	}
	return struct{}{}, nil
}

// ---------------------------------------------------------------------------
// Prefix conventions
// ---------------------------------------------------------------------------

// PrefixGate decides success by whether stdout starts with Prefix.
// By default a match is success; with MatchIsFailure a match is the
// failure. The failing branch reports the whole output as *ToolError.
type PrefixGate struct {
	Prefix         string
	MatchIsFailure bool
}

func (g PrefixGate) Interpret(stdout string) (struct{}, error) {
	if strings.HasPrefix(stdout, g.Prefix) == g.MatchIsFailure {
		return struct{}{}, &ToolError{Message: stdout}
	}
	return struct{}{}, nil
}

// Prefixed pairs an output prefix with the value it stands for.
type Prefixed[T any] struct {
	Prefix string
	Value  T
}

// PrefixMap maps stdout to a value by the first entry of Table whose
// prefix it starts with. When nothing matches the result is Default, or
// *UnmatchedError in Strict mode.
type PrefixMap[T any] struct {
	Table   []Prefixed[T]
	Default T
	Strict  bool
}

// Match returns the value of the first matching prefix and whether one
// matched. On no match it returns Default and false.
func (m PrefixMap[T]) Match(stdout string) (T, bool) {
	for _, entry := range m.Table {
		if strings.HasPrefix(stdout, entry.Prefix) {
			return entry.Value, true
		}
	}
	return m.Default, false
}

func (m PrefixMap[T]) Interpret(stdout string) (T, error) {
	v, ok := m.Match(stdout)
	if !ok && m.Strict {
		var zero T
		return zero, &UnmatchedError{Output: stdout}
	}
	return v, nil
}

// ---------------------------------------------------------------------------
// Pattern extraction
// ---------------------------------------------------------------------------

// Pattern extracts the first capture group of Regexp and converts it with
// Convert. The pattern must match at the very start of stdout.
type Pattern[T any] struct {
	Regexp  *regexp.Regexp
	Convert func(string) (T, error)
}

func (p Pattern[T]) Interpret(stdout string) (T, error) {
	var zero T
	groups, ok := matchAtStart(p.Regexp, stdout)
	if !ok {
		return zero, &UnmatchedError{Output: stdout}
	}
	if len(groups) == 0 {
		return zero, &ParseError{Raw: []byte(stdout), Err: fmt.Errorf("pattern %q has no capture group", p.Regexp)}
	}
	v, err := p.Convert(groups[0])
	if err != nil {
		return zero, &ParseError{Raw: []byte(groups[0]), Err: err}
	}
	return v, nil
}

// Groups extracts every capture group of Regexp, converting group i with
// Converters[i]. Groups without a converter are returned as strings.
type Groups struct {
	Regexp     *regexp.Regexp
	Converters []func(string) (any, error)
}

func (g Groups) Interpret(stdout string) ([]any, error) {
	groups, ok := matchAtStart(g.Regexp, stdout)
	if !ok {
		return nil, &UnmatchedError{Output: stdout}
	}
	out := make([]any, len(groups))
	for i, s := range groups {
		if i >= len(g.Converters) || g.Converters[i] == nil {
			out[i] = s
			continue
		}
		v, err := g.Converters[i](s)
		if err != nil {
			return nil, &ParseError{Raw: []byte(s), Err: fmt.Errorf("group %d: %w", i+1, err)}
		}
		out[i] = v
	}
	return out, nil
}

// matchAtStart returns the capture groups of re when it matches at the
// start of s.
func matchAtStart(re *regexp.Regexp, s string) ([]string, bool) {
	loc := re.FindStringSubmatchIndex(s)
	if loc == nil || loc[0] != 0 {
		return nil, false
	}
	groups := make([]string, 0, len(loc)/2-1)
	for i := 2; i < len(loc); i += 2 {
		if loc[i] < 0 {
			groups = append(groups, "")
			continue
		}
		groups = append(groups, s[loc[i]:loc[i+1]])
	}
	return groups, true
}

// ---------------------------------------------------------------------------
// Text formats
// ---------------------------------------------------------------------------

// Text returns stdout unchanged.
type Text struct{}

func (Text) Interpret(stdout string) (string, error) {
	return stdout, nil
}

// KeyValue parses "Key: value" lines into a map. Lines without ": " are
// skipped. Output starting with Sentinel yields an empty map.
type KeyValue struct {
	Sentinel string
}

func (kv KeyValue) Interpret(stdout string) (map[string]string, error) {
	out := make(map[string]string)
	if kv.Sentinel != "" && strings.HasPrefix(stdout, kv.Sentinel) {
		return out, nil
	}
	for _, line := range strings.Split(stdout, "\n") {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		out[key] = value
	}
	return out, nil
}
