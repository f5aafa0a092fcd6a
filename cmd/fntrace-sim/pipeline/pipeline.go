// Package pipeline defines the function pipelines run by the simulator.
package pipeline

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/arloliu/fntrace/destination"
)

// Pipeline is a chain of functions; each step consumes the previous step's
// output message.
type Pipeline struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one function invocation in a pipeline.
type Step struct {
	Function string            `yaml:"function"`
	Op       Op                `yaml:"op"`
	Delay    Duration          `yaml:"delay,omitempty"`
	Tags     map[string]string `yaml:"tags,omitempty"`

	// Error simulation
	ErrorRate    float64 `yaml:"errorRate,omitempty"`    // 0.0-1.0
	ErrorMessage string  `yaml:"errorMessage,omitempty"` // defaults to "X"
}

// Validate reports the first problem that prevents p from running.
func (p *Pipeline) Validate() error {
	if p.Name == "" {
		return errors.New("pipeline name is required")
	}
	if len(p.Steps) == 0 {
		return fmt.Errorf("pipeline %s: at least one step is required", p.Name)
	}
	for i, s := range p.Steps {
		if s.Function == "" {
			return fmt.Errorf("pipeline %s: step %d: function is required", p.Name, i)
		}
		if !s.Op.Valid() {
			return fmt.Errorf("pipeline %s: step %s: unknown op %q", p.Name, s.Function, s.Op)
		}
		if s.ErrorRate < 0 || s.ErrorRate > 1 {
			return fmt.Errorf("pipeline %s: step %s: errorRate must be within [0, 1]", p.Name, s.Function)
		}
	}

	return nil
}

// Topic returns the destination between step i and step i+1.
// Topic(-1) is the pipeline's source.
func (p *Pipeline) Topic(i int) string {
	if i < 0 {
		return p.Name + ".in"
	}

	return fmt.Sprintf("%s.%d.%s", p.Name, i, p.Steps[i].Function)
}

// Bindings returns the destinations of every step: each step reads the
// topic the previous step writes.
func (p *Pipeline) Bindings() destination.Bindings {
	b := make(destination.Bindings, len(p.Steps))
	for i, s := range p.Steps {
		b[s.Function] = destination.Binding{Input: p.Topic(i - 1), Output: p.Topic(i)}
	}

	return b
}

// Functions returns the function ids of p in step order.
func (p *Pipeline) Functions() []string {
	out := make([]string, 0, len(p.Steps))
	for _, s := range p.Steps {
		out = append(out, s.Function)
	}

	return out
}

// Duration is a wrapper for time.Duration that supports YAML parsing.
type Duration time.Duration

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)

	return nil
}

// AsDuration converts Duration to time.Duration.
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}

// Registry holds the built-in pipelines.
var Registry = map[string]*Pipeline{}

func init() {
	Register(UppercasePipeline())
	Register(TextPipeline())
	Register(FailingPipeline())
	Register(FlakyPipeline())
}

// Register adds a pipeline to the registry.
func Register(p *Pipeline) {
	Registry[p.Name] = p
}

// Get retrieves a pipeline by name.
func Get(name string) (*Pipeline, bool) {
	p, ok := Registry[name]
	return p, ok
}

// List returns all registered pipeline names, sorted.
func List() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}
