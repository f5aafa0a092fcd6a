package fntrace

import (
	"context"
	"fmt"

	"github.com/arloliu/fntrace/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/baggage"
)

// BaggageHeader is the W3C baggage header carried on messages.
const BaggageHeader = "baggage"

// SetBaggage adds a key-value pair to the baggage in ctx. Baggage in the
// context passed to Wrapper.Apply travels on the output message.
//
// Keys must be valid HTTP header tokens; values with special characters must
// be percent-encoded. Returns an error if either is invalid.
func SetBaggage(ctx context.Context, key, value string) (context.Context, error) {
	member, err := baggage.NewMember(key, value)
	if err != nil {
		return ctx, fmt.Errorf("fntrace: baggage member %q: %w", key, err)
	}
	bag, err := baggage.FromContext(ctx).SetMember(member)
	if err != nil {
		return ctx, fmt.Errorf("fntrace: set baggage member %q: %w", key, err)
	}

	return baggage.ContextWithBaggage(ctx, bag), nil
}

// MustSetBaggage is SetBaggage for keys and values known to be valid.
// Panics on an invalid key or value.
func MustSetBaggage(ctx context.Context, key, value string) context.Context {
	newCtx, err := SetBaggage(ctx, key, value)
	if err != nil {
		panic(err)
	}

	return newCtx
}

// GetBaggage retrieves a value from the baggage in ctx.
func GetBaggage(ctx context.Context, key string) string {
	return baggage.FromContext(ctx).Member(key).Value()
}

// invocationBaggage merges the baggage of ctx with the baggage header of an
// inbound message. Message members win. A malformed header is reported via
// otel.Handle and ignored.
func invocationBaggage(ctx context.Context, h message.Headers) baggage.Baggage {
	bag := baggage.FromContext(ctx)

	raw, ok := h.Lookup(BaggageHeader)
	if !ok || raw == "" {
		return bag
	}
	inbound, err := baggage.Parse(raw)
	if err != nil {
		otel.Handle(fmt.Errorf("fntrace: parse baggage header: %w", err))
		return bag
	}
	for _, m := range inbound.Members() {
		if merged, err := bag.SetMember(m); err == nil {
			bag = merged
		}
	}

	return bag
}

// baggageTags returns the members of bag named in keys.
func baggageTags(bag baggage.Baggage, keys []string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if m := bag.Member(k); m.Key() != "" {
			out[k] = m.Value()
		}
	}

	return out
}

// withBaggageHeader sets the baggage header on msg unless it already has one.
func withBaggageHeader(msg message.Message, bag baggage.Baggage) message.Message {
	if bag.Len() == 0 {
		return msg
	}
	if _, ok := msg.Headers.Lookup(BaggageHeader); ok {
		return msg
	}

	return msg.WithHeaders(msg.Headers.With(BaggageHeader, bag.String()))
}
