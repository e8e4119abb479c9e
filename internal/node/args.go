package node

import "strconv"

// Arg is one tag argument. An empty Name marks a positional argument.
type Arg struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Value string `json:"value" yaml:"value"`
}

// Key returns the argument name, or its positional index when unnamed.
func (a Arg) Key(index int) string {
	if a.Name != "" {
		return a.Name
	}

	return strconv.Itoa(index)
}

// Args is an ordered argument list.
type Args []Arg

// Add appends a positional argument.
func (a *Args) Add(value string) {
	*a = append(*a, Arg{Value: value})
}

// AppendToLast appends r to the most recently added argument. It is a
// no-op when no argument has been started.
func (a *Args) AppendToLast(r rune) {
	if len(*a) == 0 {
		return
	}
	last := &(*a)[len(*a)-1]
	last.Value += string(r)
}

// Len returns the number of arguments.
func (a Args) Len() int {
	return len(a)
}

// At returns the value at position i.
func (a Args) At(i int) (string, bool) {
	if i < 0 || i >= len(a) {
		return "", false
	}

	return a[i].Value, true
}

// First returns the first value or "".
func (a Args) First() string {
	v, _ := a.At(0)

	return v
}

// Get returns the value stored under name. Positional arguments answer to
// their index.
func (a Args) Get(name string) (string, bool) {
	for i, arg := range a {
		if arg.Key(i) == name {
			return arg.Value, true
		}
	}

	return "", false
}

// Values returns every value in order.
func (a Args) Values() []string {
	out := make([]string, len(a))
	for i, arg := range a {
		out[i] = arg.Value
	}

	return out
}

// Clone returns an independent copy.
func (a Args) Clone() Args {
	if a == nil {
		return nil
	}
	out := make(Args, len(a))
	copy(out, a)

	return out
}
