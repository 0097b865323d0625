// Package controller implements the GitOps reconciliation loop: a
// work-queue driven worker pool that converges each IndustrialPLC record
// against the live value of its target holding register.
package controller

import (
	"context"
	"fmt"
	"time"

	"k8s.io/client-go/util/workqueue"

	"github.com/fabgitops/operator/common"
	"github.com/fabgitops/operator/internal/metrics"
	"github.com/fabgitops/operator/internal/plcclient"
	"github.com/fabgitops/operator/internal/store"
	"github.com/fabgitops/operator/logging"
)

// unreachableRequeueDelay is the fixed requeue delay after an
// unreachable-PLC result.
const unreachableRequeueDelay = 10 * time.Second

// storeErrorRequeueDelay is the fixed requeue delay after a store-adapter
// failure, independent of the per-record poll interval.
const storeErrorRequeueDelay = 5 * time.Second

// Controller drives reconciliation for every IndustrialPLC record the
// attached store reports with a fixed pool of workers (see WithWorkers),
// serialized per key by the underlying work queue.
type Controller struct {
	store   store.Store
	metrics *metrics.Registry
	logger  common.LoggerInterface

	namespace string
	workers   int

	dialTimeout time.Duration

	queue workqueue.TypedRateLimitingInterface[store.ObjectKey]
}

// Option configures a Controller.
type Option func(*Controller)

// WithWorkers sets the number of concurrent reconcile workers. Default 1.
func WithWorkers(n int) Option {
	return func(c *Controller) { c.workers = n }
}

// WithDialTimeout bounds every Modbus operation a reconcile performs.
// Default 5s.
func WithDialTimeout(timeout time.Duration) Option {
	return func(c *Controller) { c.dialTimeout = timeout }
}

// WithLogger attaches a logger.
func WithLogger(logger common.LoggerInterface) Option {
	return func(c *Controller) { c.logger = logger }
}

// New creates a Controller watching namespace via st, recording metrics
// into reg.
func New(st store.Store, reg *metrics.Registry, namespace string, options ...Option) *Controller {
	c := &Controller{
		store:       st,
		metrics:     reg,
		logger:      logging.NewLogger(),
		namespace:   namespace,
		workers:     1,
		dialTimeout: 5 * time.Second,
		queue: workqueue.NewTypedRateLimitingQueue[store.ObjectKey](
			workqueue.DefaultTypedControllerRateLimiter[store.ObjectKey](),
		),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Run starts the watch loop and worker pool. It blocks until ctx is
// canceled, then drains workers before returning.
func (c *Controller) Run(ctx context.Context) error {
	go c.watchLoop(ctx)

	done := make(chan struct{})
	for i := 0; i < c.workers; i++ {
		go func() {
			c.runWorker(ctx)
			done <- struct{}{}
		}()
	}

	<-ctx.Done()
	c.queue.ShutDown()
	for i := 0; i < c.workers; i++ {
		<-done
	}
	return nil
}

// watchLoop drains the store's watch channel, re-listing and re-watching
// whenever the channel closes (the underlying watch disconnected), and
// enqueues every Added/Updated/Deleted event's key. A fresh watch event, a
// re-list after reconnect, and an operator annotating a record to
// force-sync all surface here as the same Added/Updated delivery; the
// per-record poll timer is the one trigger that does not, since reconcile
// schedules it itself with queue.AddAfter.
func (c *Controller) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		events, err := c.store.Watch(ctx, c.namespace)
		if err != nil {
			c.logger.Error(ctx, "watch failed, retrying: %v", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		c.seedFromList(ctx)

	drainEvents:
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-events:
				if !ok {
					// Watch disconnected; re-list and re-watch.
					break drainEvents
				}
				key := store.ObjectKey{Namespace: event.Record.Namespace, Name: event.Record.Name}
				c.queue.Add(key)
			}
		}
	}
}

// seedFromList enqueues every currently known record once, so a freshly
// started operator (or one resuming after a watch disconnect) converges
// records that changed while it wasn't watching.
func (c *Controller) seedFromList(ctx context.Context) {
	records, err := c.store.List(ctx, c.namespace)
	if err != nil {
		c.logger.Error(ctx, "initial list failed: %v", err)
		return
	}
	for _, record := range records {
		c.queue.Add(store.ObjectKey{Namespace: record.Namespace, Name: record.Name})
	}
}

func (c *Controller) runWorker(ctx context.Context) {
	for c.processNextItem(ctx) {
	}
}

func (c *Controller) processNextItem(ctx context.Context) bool {
	key, shutdown := c.queue.Get()
	if shutdown {
		return false
	}
	defer c.queue.Done(key)

	if err := c.reconcile(ctx, key); err != nil {
		// Unexpected (non-taxonomy) error: every specified failure path
		// already called Forget+AddAfter itself and returns nil here, so
		// only a programming-bug-shaped error reaches the rate limiter.
		c.logger.Error(ctx, "unexpected reconcile error for %s: %v", key, err)
		c.queue.AddRateLimited(key)
		return true
	}

	return true
}

// reconcile implements spec.md §4.4's 10-step Reconcile(key) sequence.
func (c *Controller) reconcile(ctx context.Context, key store.ObjectKey) error {
	start := time.Now()

	// Step 1: load current record by key.
	record, err := c.store.Get(ctx, key.Namespace, key.Name)
	if err == store.ErrNotFound {
		return nil
	}
	if err != nil {
		c.queue.Forget(key)
		c.queue.AddAfter(key, storeErrorRequeueDelay)
		return nil
	}
	record.ApplyDefaults()

	// Step 2: refresh the managed-record gauge.
	all, err := c.store.List(ctx, key.Namespace)
	if err == nil {
		c.metrics.ManagedPLCs.Set(float64(len(all)))
	}

	// Step 3: construct an ephemeral Modbus client.
	client := plcclient.New(
		record.Spec.DeviceAddress,
		plcclient.WithPort(int(record.Spec.Port)),
		plcclient.WithTimeout(c.dialTimeout),
		plcclient.WithLogger(c.logger),
	)

	// Carry forward the persisted status so DriftEvents/CorrectionsApplied
	// accumulate across ticks and CurrentValue survives a tick that errors
	// out before reaching a fresh read, rather than resetting to zero.
	status := record.Status

	// Step 4: reachability gate.
	if !client.Reachable(ctx) {
		c.metrics.PLCConnectionStatus.WithLabelValues(key.Namespace, key.Name).Set(0)
		status.SetError(fmt.Errorf("PLC unreachable"))
		if err := c.store.PatchStatus(ctx, key.Namespace, key.Name, status); err != nil {
			c.logger.Error(ctx, "failed to patch unreachable status for %s: %v", key, err)
		}
		c.queue.Forget(key)
		c.queue.AddAfter(key, unreachableRequeueDelay)
		return nil
	}
	c.metrics.PLCConnectionStatus.WithLabelValues(key.Namespace, key.Name).Set(1)

	// Step 5: observe.
	value, err := client.ReadHolding(ctx, common.Address(record.Spec.TargetRegister))
	if err != nil {
		status.SetError(fmt.Errorf("failed to read register: %w", err))
		if patchErr := c.store.PatchStatus(ctx, key.Namespace, key.Name, status); patchErr != nil {
			c.logger.Error(ctx, "failed to patch read-error status for %s: %v", key, patchErr)
		}
		// Normal backoff: the per-record poll timer below still applies.
		c.queue.Forget(key)
		c.queue.AddAfter(key, time.Duration(record.Spec.PollIntervalSecs)*time.Second)
		return nil
	}
	c.metrics.RegisterValue.WithLabelValues(key.Namespace, key.Name).Set(float64(value))

	// Step 6: drift decision.
	if uint16(value) == record.Spec.TargetValue {
		status.SetSynced(uint16(value))
	} else {
		status.SetDrift(record.Spec.TargetValue, uint16(value))
		c.metrics.DriftEventsTotal.Inc()
		if err := c.store.PublishEvent(ctx, key.Namespace, key.Name, store.EventWarning, "DriftDetected",
			fmt.Sprintf("Register %d drifted: desired=%d, actual=%d", record.Spec.TargetRegister, record.Spec.TargetValue, value),
			"Reconcile"); err != nil {
			c.logger.Warn(ctx, "failed to publish DriftDetected event for %s: %v", key, err)
		}

		// Step 7: correction, only on drift and only if enabled.
		if record.Spec.AutoCorrectEnabled() {
			status.SetCorrecting()
			if err := c.store.PatchStatus(ctx, key.Namespace, key.Name, status); err != nil {
				c.logger.Error(ctx, "failed to patch correcting status for %s: %v", key, err)
			}

			if err := client.WriteHolding(ctx, common.Address(record.Spec.TargetRegister), record.Spec.TargetValue); err != nil {
				status.SetError(fmt.Errorf("failed to correct: %w", err))
			} else {
				c.metrics.CorrectionsTotal.Inc()
				status.SetCorrected(record.Spec.TargetValue)
				if err := c.store.PublishEvent(ctx, key.Namespace, key.Name, store.EventNormal, "DriftCorrected",
					fmt.Sprintf("Register %d corrected to %d", record.Spec.TargetRegister, record.Spec.TargetValue),
					"Reconcile"); err != nil {
					c.logger.Warn(ctx, "failed to publish DriftCorrected event for %s: %v", key, err)
				}
			}
		}
	}

	// Step 8: patch the final status.
	if err := c.store.PatchStatus(ctx, key.Namespace, key.Name, status); err != nil {
		c.logger.Error(ctx, "failed to patch final status for %s: %v", key, err)
	}

	// Step 9: record reconciliation duration.
	c.metrics.ReconciliationDurationSeconds.Set(time.Since(start).Seconds())

	// Step 10: requeue at the per-record poll interval.
	c.queue.Forget(key)
	c.queue.AddAfter(key, time.Duration(record.Spec.PollIntervalSecs)*time.Second)
	return nil
}
