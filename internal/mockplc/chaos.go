package mockplc

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/fabgitops/operator/common"
)

// ChaosGenerator periodically perturbs a RegisterStore's value by a random
// delta, simulating a PLC whose process variable drifts on its own between
// polls. The reconciliation controller is expected to notice the resulting
// mismatch against the declared spec value and correct it.
//
// The drift formula is uniform over [-MaxDrift, +MaxDrift], clamped to
// [0, 32767] after applying, matching how the original fault-injection
// harness this system replaces modeled register drift.
type ChaosGenerator struct {
	interval time.Duration
	maxDrift int32
	rng      *rand.Rand

	mutex   sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}

	logger common.LoggerInterface
}

// ChaosOption configures a ChaosGenerator.
type ChaosOption func(*ChaosGenerator)

// WithChaosLogger attaches a logger for drift events.
func WithChaosLogger(logger common.LoggerInterface) ChaosOption {
	return func(c *ChaosGenerator) { c.logger = logger }
}

// WithChaosSeed fixes the PRNG seed, used by tests that need deterministic
// drift sequences.
func WithChaosSeed(seed int64) ChaosOption {
	return func(c *ChaosGenerator) { c.rng = rand.New(rand.NewSource(seed)) }
}

// NewChaosGenerator creates a generator that drifts a register every
// interval by up to maxDrift in either direction.
func NewChaosGenerator(interval time.Duration, maxDrift uint16, options ...ChaosOption) *ChaosGenerator {
	c := &ChaosGenerator{
		interval: interval,
		maxDrift: int32(maxDrift),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Start begins drifting store on a background goroutine, ticking every
// interval until Stop is called. Starting an already-running generator is
// a no-op.
func (c *ChaosGenerator) Start(ctx context.Context, store *RegisterStore) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.running {
		return
	}
	c.running = true
	c.stop = make(chan struct{})
	c.done = make(chan struct{})

	if c.logger != nil {
		c.logger.Warn(ctx, "chaos mode activated: drifting every %s, max drift %d", c.interval, c.maxDrift)
	}

	go c.run(ctx, store)
}

// Stop halts drifting. It blocks until the background goroutine exits.
func (c *ChaosGenerator) Stop() {
	c.mutex.Lock()
	if !c.running {
		c.mutex.Unlock()
		return
	}
	stop := c.stop
	done := c.done
	c.running = false
	c.mutex.Unlock()

	close(stop)
	<-done
}

func (c *ChaosGenerator) run(ctx context.Context, store *RegisterStore) {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			delta := c.nextDelta()
			newValue := store.Add(delta)
			if c.logger != nil {
				c.logger.Warn(ctx, "chaos drift: register -> %d (delta %d)", newValue, delta)
			}
		}
	}
}

// nextDelta draws a uniform sample in [-maxDrift, +maxDrift].
func (c *ChaosGenerator) nextDelta() int32 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.maxDrift == 0 {
		return 0
	}
	return c.rng.Int31n(2*c.maxDrift+1) - c.maxDrift
}
