package ingest

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dayoung-ko/finsync/internal/pkg/model"
	"github.com/dayoung-ko/finsync/internal/pkg/store"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type countingClient struct {
	calls atomic.Int64
	panic bool
}

func (c *countingClient) FetchCategory(context.Context, string) ([]model.Product, []model.Option, error) {
	c.calls.Add(1)
	if c.panic {
		panic("boom")
	}
	return nil, nil, nil
}

func TestScheduler_Run(t *testing.T) {
	t.Run("triggers repeatedly until cancelled", func(t *testing.T) {
		client := &countingClient{}
		svc := NewService(store.NewMemory(), client, []string{"020000"}, zap.NewNop())
		sched := NewScheduler(svc, 10*time.Millisecond, zap.NewNop())

		ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
		defer cancel()
		sched.Run(ctx)

		// immediate pass plus at least a few ticks
		assert.GreaterOrEqual(t, client.calls.Load(), int64(3))
	})

	t.Run("a panicking pass does not kill the loop", func(t *testing.T) {
		client := &countingClient{panic: true}
		svc := NewService(store.NewMemory(), client, []string{"020000"}, zap.NewNop())
		sched := NewScheduler(svc, 10*time.Millisecond, zap.NewNop())

		ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
		defer cancel()

		assert.NotPanics(t, func() { sched.Run(ctx) })
		assert.GreaterOrEqual(t, client.calls.Load(), int64(2))
	})
}
