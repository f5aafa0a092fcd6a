package fntrace

import (
	"context"
	"testing"

	"github.com/arloliu/fntrace/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/baggage"
)

func TestBaggageHelpers(t *testing.T) {
	ctx, err := SetBaggage(context.Background(), "tenant", "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", GetBaggage(ctx, "tenant"))

	ctx = MustSetBaggage(ctx, "region", "eu")
	assert.Equal(t, "eu", GetBaggage(ctx, "region"))

	_, err = SetBaggage(ctx, "bad key", "v")
	require.Error(t, err)
	assert.Panics(t, func() { MustSetBaggage(ctx, "bad key", "v") })
}

func TestInvocationBaggage(t *testing.T) {
	ctx := MustSetBaggage(context.Background(), "tenant", "from-ctx")
	ctx = MustSetBaggage(ctx, "region", "eu")

	bag := invocationBaggage(ctx, message.Headers{"Baggage": "tenant=from-msg,user=42"})

	assert.Equal(t, "from-msg", bag.Member("tenant").Value())
	assert.Equal(t, "eu", bag.Member("region").Value())
	assert.Equal(t, "42", bag.Member("user").Value())
	assert.Equal(t, map[string]string{"tenant": "from-msg", "user": "42"},
		baggageTags(bag, []string{"tenant", "user", "absent"}))
}

func TestInvocationBaggage_Malformed(t *testing.T) {
	ctx := MustSetBaggage(context.Background(), "tenant", "acme")

	bag := invocationBaggage(ctx, message.Headers{BaggageHeader: "=;;="})

	assert.Equal(t, 1, bag.Len())
}

func TestWithBaggageHeader(t *testing.T) {
	bag, err := baggage.Parse("tenant=acme")
	require.NoError(t, err)

	out := withBaggageHeader(message.New(nil, nil), bag)
	assert.Equal(t, "tenant=acme", out.Header(BaggageHeader))

	kept := withBaggageHeader(message.New(nil, message.Headers{BaggageHeader: "user=1"}), bag)
	assert.Equal(t, "user=1", kept.Header(BaggageHeader))

	empty := withBaggageHeader(message.New(nil, nil), baggage.Baggage{})
	assert.Empty(t, empty.Headers)
}

func TestWrapper_Baggage(t *testing.T) {
	tp, exp := newTestTracerProvider(t)
	w := NewWrapper(WithTracerProvider(tp), WithBaggageTags("tenant"))

	var seen string
	out, err := w.Apply(context.Background(), "fn",
		message.New(nil, message.Headers{BaggageHeader: "tenant=acme"}),
		PayloadFunc(func(ctx context.Context, _ []byte) ([]byte, error) {
			seen = GetBaggage(ctx, "tenant")
			return nil, nil
		}))
	require.NoError(t, err)

	assert.Equal(t, "acme", seen)
	assert.Equal(t, "tenant=acme", out.Header(BaggageHeader))
	for _, s := range exp.GetSpans() {
		assert.Equal(t, "acme", spanAttrMap(s.Attributes)["tenant"], s.Name)
	}
}
