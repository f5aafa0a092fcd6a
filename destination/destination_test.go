package destination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPropertyKey(t *testing.T) {
	assert.Equal(t, "bindings.uppercase-in-0.destination", PropertyKey("uppercase", In))
	assert.Equal(t, "bindings.uppercase-out-0.destination", PropertyKey("uppercase", Out))
}

func TestProperties(t *testing.T) {
	p := Properties{
		"bindings.uppercase-in-0.destination":  "words",
		"bindings.uppercase-out-0.destination": "shouts",
	}

	assert.Equal(t, "words", p.Input("uppercase"))
	assert.Equal(t, "shouts", p.Output("uppercase"))
	assert.Empty(t, p.Input("reverse"))
	assert.Empty(t, Properties(nil).Output("uppercase"))
}

func TestBindings(t *testing.T) {
	b := Bindings{"uppercase": {Input: "words"}}

	assert.Equal(t, "words", b.Input("uppercase"))
	assert.Empty(t, b.Output("uppercase"))
	assert.Empty(t, b.Input("missing"))
}

func TestNop(t *testing.T) {
	assert.Empty(t, Nop.Input("uppercase"))
	assert.Empty(t, Nop.Output("uppercase"))
}

func TestFunc(t *testing.T) {
	f := Func(func(id string, d Direction) string {
		return id + "." + d.String()
	})

	assert.Equal(t, "fn.in", f.Input("fn"))
	assert.Equal(t, "fn.out", f.Output("fn"))
}

func TestChain(t *testing.T) {
	r := Chain(
		nil,
		Bindings{"uppercase": {Output: "from-bindings"}},
		Properties{
			"bindings.uppercase-in-0.destination":  "from-properties",
			"bindings.uppercase-out-0.destination": "ignored",
		},
	)

	assert.Equal(t, "from-properties", r.Input("uppercase"))
	assert.Equal(t, "from-bindings", r.Output("uppercase"))
	assert.Empty(t, r.Input("other"))
	assert.Empty(t, Chain().Output("uppercase"))
}
