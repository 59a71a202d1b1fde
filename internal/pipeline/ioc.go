package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"strings"

	"github.com/nao1215/opentip/internal/model"
	"github.com/nao1215/opentip/internal/opentip"
	"golang.org/x/sync/errgroup"
)

// IOCLookup is the subset of the OpenTIP client the IOC checker needs.
type IOCLookup interface {
	LookupIOC(ctx context.Context, kind opentip.Kind, value string) ([]byte, bool, error)
	LookupURL(kind opentip.Kind, value string) string
}

// IOCChecker looks up many indicators of one kind concurrently.
type IOCChecker struct {
	client      IOCLookup
	concurrency int
	logger      *slog.Logger
}

// IOCOption configures an IOCChecker.
type IOCOption func(*IOCChecker)

// WithIOCConcurrency sets the maximum number of concurrent lookups.
// Default is runtime.GOMAXPROCS(0).
func WithIOCConcurrency(n int) IOCOption {
	return func(c *IOCChecker) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithIOCLogger sets a custom logger.
func WithIOCLogger(logger *slog.Logger) IOCOption {
	return func(c *IOCChecker) {
		c.logger = logger
	}
}

// NewIOCChecker creates an IOCChecker.
func NewIOCChecker(client IOCLookup, opts ...IOCOption) *IOCChecker {
	c := &IOCChecker{
		client:      client,
		concurrency: runtime.GOMAXPROCS(0),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// Check looks up every value and returns one result per value, in input
// order. Values are lowercased before the lookup. A failed lookup is
// recorded in its result and does not stop the others, with two
// exceptions: a cancelled context, and a rejected API key. After either,
// lookups that have not finished are recorded as failed with the cause.
func (c *IOCChecker) Check(ctx context.Context, kind opentip.Kind, values []string) []model.IOCResult {
	c.logger.Debug("checking indicators", "kind", kind, "count", len(values), "concurrency", c.concurrency)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	results := make([]model.IOCResult, len(values))

	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for i, value := range values {
		g.Go(func() error {
			results[i] = c.checkOne(ctx, kind, value)
			if errors.Is(results[i].Err(), opentip.ErrForbidden) {
				cancel(results[i].Err())
			}
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // errors are recorded per result

	return results
}

func (c *IOCChecker) checkOne(ctx context.Context, kind opentip.Kind, value string) model.IOCResult {
	request := strings.ToLower(value)
	lookupURL := c.client.LookupURL(kind, request)

	if ctx.Err() != nil {
		return model.NewIOCError(kind.String(), value, lookupURL, context.Cause(ctx))
	}

	payload, found, err := c.client.LookupIOC(ctx, kind, request)
	if err != nil {
		if ctx.Err() != nil {
			err = context.Cause(ctx)
		}
		c.logger.Warn("indicator lookup failed", "ioc", value, "error", err)
		return model.NewIOCError(kind.String(), value, lookupURL, err)
	}

	result := model.IOCResult{IOC: value, Type: kind.String(), URL: lookupURL}
	if found {
		result.SetPayload(payload)
	}
	return result
}
