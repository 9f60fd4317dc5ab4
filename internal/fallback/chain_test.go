package fallback

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain_FirstSuccessWins(t *testing.T) {
	chain := New(nil,
		Strategy[string]{Name: "cache", Run: func(context.Context) (string, error) { return "cached", nil }},
		Strategy[string]{Name: "live", Run: func(context.Context) (string, error) {
			t.Fatal("later strategies must not run after a success")
			return "", nil
		}},
	)

	value, name, err := chain.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cached", value)
	assert.Equal(t, "cache", name)
}

func TestChain_SkipsFailingStrategies(t *testing.T) {
	calls := []string{}
	record := func(name string, v string, err error) Strategy[string] {
		return Strategy[string]{Name: name, Run: func(context.Context) (string, error) {
			calls = append(calls, name)
			return v, err
		}}
	}

	chain := New(nil,
		record("cache", "", errors.New("miss")),
		record("live", "", errors.New("upstream down")),
		record("static", "default", nil),
	)

	value, name, err := chain.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "default", value)
	assert.Equal(t, "static", name)
	assert.Equal(t, []string{"cache", "live", "static"}, calls, "strategies must run in declared order")
}

func TestChain_AcceptPredicateRejectsEmptyResult(t *testing.T) {
	chain := New(nil,
		Strategy[[]int]{
			Name:   "live",
			Run:    func(context.Context) ([]int, error) { return nil, nil },
			Accept: func(v []int) bool { return len(v) > 0 },
		},
		Strategy[[]int]{Name: "static", Run: func(context.Context) ([]int, error) { return []int{1}, nil }},
	)

	value, name, err := chain.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1}, value)
	assert.Equal(t, "static", name)
}

func TestChain_AllFailReturnsErrExhausted(t *testing.T) {
	chain := New(nil,
		Strategy[int]{Name: "only", Run: func(context.Context) (int, error) { return 0, errors.New("nope") }},
	)

	_, _, err := chain.Execute(context.Background())
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestChain_CancelledContextStopsChain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chain := New(nil,
		Strategy[int]{Name: "live", Run: func(context.Context) (int, error) {
			t.Fatal("strategy must not run after cancellation")
			return 0, nil
		}},
	)

	_, _, err := chain.Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
