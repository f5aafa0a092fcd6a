package pipeline

import (
	"bytes"
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/arloliu/fntrace"
)

// Op is the transformation a step applies to its payload.
type Op string

const (
	OpEcho    Op = "echo"
	OpUpper   Op = "upper"
	OpLower   Op = "lower"
	OpReverse Op = "reverse"
	OpFail    Op = "fail"
)

// Valid reports whether o is a known op. The empty op is echo.
func (o Op) Valid() bool {
	switch o {
	case "", OpEcho, OpUpper, OpLower, OpReverse, OpFail:
		return true
	default:
		return false
	}
}

// Invoker returns the function s runs. delay is the time the function
// spends before answering, cut short when ctx is done.
func (s Step) Invoker(delay time.Duration) fntrace.Invoker {
	msg := s.ErrorMessage
	if msg == "" {
		msg = "X"
	}

	return fntrace.PayloadFunc(func(ctx context.Context, p []byte) ([]byte, error) {
		if delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			case <-t.C:
			}
		}

		if s.Op == OpFail || (s.ErrorRate > 0 && rand.Float64() < s.ErrorRate) { //nolint:gosec // weak rand is fine for simulation
			return nil, errors.New(msg)
		}

		return s.Op.apply(p), nil
	})
}

func (o Op) apply(p []byte) []byte {
	switch o {
	case OpUpper:
		return bytes.ToUpper(p)
	case OpLower:
		return bytes.ToLower(p)
	case OpReverse:
		out := bytes.Clone(p)
		slices.Reverse(out)

		return out
	default:
		return bytes.Clone(p)
	}
}
