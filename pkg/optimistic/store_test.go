package optimistic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	ID    int
	Label string
}

func TestStore_MutateCommitSuccess(t *testing.T) {
	s := NewStore([]entry{{1, "a"}, {2, "b"}, {3, "c"}})

	reconciled := false
	err := s.Mutate(context.Background(),
		func(v []entry) []entry {
			out := v[:0]
			for _, e := range v {
				if e.ID != 2 {
					out = append(out, e)
				}
			}
			return out
		},
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) { reconciled = true },
	)

	require.NoError(t, err)
	assert.True(t, reconciled)
	assert.Len(t, s.Get(), 2)
}

func TestStore_MutateRollbackRestoresExactSnapshot(t *testing.T) {
	initial := []entry{{1, "a"}, {2, "b"}, {5, "target"}}
	s := NewStore(initial)

	commitErr := errors.New("server rejected")
	reconciled := false
	err := s.Mutate(context.Background(),
		func(v []entry) []entry { return v[:1] },
		func(ctx context.Context) error { return commitErr },
		func(ctx context.Context) { reconciled = true },
	)

	require.ErrorIs(t, err, commitErr)
	assert.True(t, reconciled, "reconcile must run even on failure")
	assert.Equal(t, initial, s.Get(), "cache must deep-equal the pre-mutation snapshot")
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := NewStore([]entry{{1, "a"}})

	got := s.Get()
	got[0].Label = "mutated"

	assert.Equal(t, "a", s.Get()[0].Label)
}

func TestStore_SubscribeFanOutAndUnsubscribe(t *testing.T) {
	s := NewStore([]entry{})

	var first, second int
	unsubFirst := s.Subscribe(func(v []entry) { first++ })
	s.Subscribe(func(v []entry) { second++ })

	s.Set([]entry{{1, "a"}})
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)

	unsubFirst()
	unsubFirst() // second call is a no-op

	s.Set([]entry{{1, "a"}, {2, "b"}})
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestStore_OptimisticStateVisibleDuringCommit(t *testing.T) {
	s := NewStore([]entry{{1, "a"}, {2, "b"}})

	err := s.Mutate(context.Background(),
		func(v []entry) []entry { return v[1:] },
		func(ctx context.Context) error {
			// readers see the optimistic value before commit resolves
			assert.Len(t, s.Get(), 1)
			return nil
		},
		nil,
	)
	require.NoError(t, err)
}
