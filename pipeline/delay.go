package pipeline

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/use-agent/cartprobe/poll"
)

// Delayer produces the randomized pauses around navigation.
type Delayer interface {
	Delay(ctx context.Context) error
}

// NoDelay never pauses.
type NoDelay struct{}

func (NoDelay) Delay(ctx context.Context) error { return ctx.Err() }

// JitterDelayer pauses for a uniformly random duration in [Min, Max].
type JitterDelayer struct {
	Min, Max time.Duration
	Sleeper  poll.Sleeper
}

// NewJitterDelayer creates a JitterDelayer sleeping on s.
func NewJitterDelayer(min, max time.Duration, s poll.Sleeper) *JitterDelayer {
	if max < min {
		max = min
	}
	return &JitterDelayer{Min: min, Max: max, Sleeper: s}
}

func (j *JitterDelayer) Delay(ctx context.Context) error {
	return j.Sleeper.Sleep(ctx, j.next())
}

func (j *JitterDelayer) next() time.Duration {
	d := j.Min
	if span := j.Max - j.Min; span > 0 {
		d += time.Duration(rand.Int64N(int64(span) + 1))
	}
	return d
}
