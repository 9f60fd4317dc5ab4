// Package fallback evaluates an ordered list of degrading strategies until
// one yields an acceptable result. The order is data, not control flow, so a
// reader (and a test) can see exactly how a source degrades.
package fallback

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrExhausted is returned when every strategy in a chain fails. Chains whose
// final strategy is static content never return it.
var ErrExhausted = errors.New("fallback: all strategies exhausted")

// Strategy is one way of producing a T. Run returns an error to pass control
// to the next strategy; Accept, when set, can additionally reject a
// non-error result (e.g. an empty record set).
type Strategy[T any] struct {
	Name   string
	Run    func(ctx context.Context) (T, error)
	Accept func(T) bool
}

// Chain evaluates strategies in order.
type Chain[T any] struct {
	strategies []Strategy[T]
	log        *logrus.Entry
}

// New builds a chain over the given strategies. The logger records which
// strategies were skipped and why, for diagnostics only.
func New[T any](log *logrus.Entry, strategies ...Strategy[T]) *Chain[T] {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Chain[T]{strategies: strategies, log: log}
}

// Execute runs the chain and returns the first acceptable result together
// with the name of the strategy that produced it. A cancelled context stops
// the chain immediately.
func (c *Chain[T]) Execute(ctx context.Context) (T, string, error) {
	var zero T
	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return zero, "", err
		}
		value, err := s.Run(ctx)
		if err != nil {
			c.log.Debugf("strategy %q failed: %v", s.Name, err)
			continue
		}
		if s.Accept != nil && !s.Accept(value) {
			c.log.Debugf("strategy %q result rejected", s.Name)
			continue
		}
		return value, s.Name, nil
	}
	return zero, "", fmt.Errorf("%w (%d strategies)", ErrExhausted, len(c.strategies))
}
