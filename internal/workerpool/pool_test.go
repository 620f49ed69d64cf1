package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunExecutesEveryItem(t *testing.T) {
	var count int64
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	err := Run(context.Background(), items, 4, func(ctx context.Context, item int) error {
		atomic.AddInt64(&count, 1)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(50), count)
}

func TestRunPropagatesFirstError(t *testing.T) {
	items := []int{1, 2, 3}
	sentinel := errors.New("boom")

	err := Run(context.Background(), items, 2, func(ctx context.Context, item int) error {
		if item == 2 {
			return sentinel
		}
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
}

func TestRunCollectPreservesOrder(t *testing.T) {
	items := []int{10, 20, 30, 40}
	results, err := RunCollect(context.Background(), items, 2, func(ctx context.Context, item int) (int, error) {
		return item * 2, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{20, 40, 60, 80}, results)
}

func TestRunDefaultsLimitWhenNonPositive(t *testing.T) {
	items := []int{1, 2, 3}
	err := Run(context.Background(), items, 0, func(ctx context.Context, item int) error {
		return nil
	})
	require.NoError(t, err)
}
