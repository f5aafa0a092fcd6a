// Package destination resolves the input and output destinations bound to
// a function. Destinations only label spans; an unknown function resolves
// to "" and is never an error.
package destination

import "fmt"

// Resolver maps a function identifier to its bound destinations.
type Resolver interface {
	// Input returns the destination the function consumes from.
	Input(functionID string) string
	// Output returns the destination the function's results are sent to.
	Output(functionID string) string
}

// Direction selects the input or output binding of a function.
type Direction uint8

const (
	In Direction = iota
	Out
)

// String returns the binding suffix used in property keys.
func (d Direction) String() string {
	if d == Out {
		return "out"
	}

	return "in"
}

// PropertyKey returns the flat property key holding the destination of the
// first binding of functionID in direction d, e.g.
// "bindings.uppercase-in-0.destination".
func PropertyKey(functionID string, d Direction) string {
	return fmt.Sprintf("bindings.%s-%s-0.destination", functionID, d)
}

// Properties resolves destinations from a flat property map keyed by
// [PropertyKey].
type Properties map[string]string

// Input implements Resolver.
func (p Properties) Input(functionID string) string {
	return p[PropertyKey(functionID, In)]
}

// Output implements Resolver.
func (p Properties) Output(functionID string) string {
	return p[PropertyKey(functionID, Out)]
}

// Binding holds both destinations of one function.
type Binding struct {
	Input  string `yaml:"input" json:"input"`
	Output string `yaml:"output" json:"output"`
}

// Bindings resolves destinations from a map keyed by function identifier.
type Bindings map[string]Binding

// Input implements Resolver.
func (b Bindings) Input(functionID string) string {
	return b[functionID].Input
}

// Output implements Resolver.
func (b Bindings) Output(functionID string) string {
	return b[functionID].Output
}

// Func adapts a function to Resolver.
type Func func(functionID string, d Direction) string

// Input implements Resolver.
func (f Func) Input(functionID string) string {
	return f(functionID, In)
}

// Output implements Resolver.
func (f Func) Output(functionID string) string {
	return f(functionID, Out)
}

// Nop resolves every destination to "".
var Nop Resolver = Bindings(nil)

// Chain consults resolvers in order and returns the first non-empty result.
func Chain(resolvers ...Resolver) Resolver {
	return Func(func(functionID string, d Direction) string {
		for _, r := range resolvers {
			if r == nil {
				continue
			}
			var dest string
			if d == Out {
				dest = r.Output(functionID)
			} else {
				dest = r.Input(functionID)
			}
			if dest != "" {
				return dest
			}
		}

		return ""
	})
}
