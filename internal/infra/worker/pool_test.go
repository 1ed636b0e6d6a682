//go:build !integration

package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func nopLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

func TestPool_RunsSubmittedTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := NewPool(3, nopLogger())
	p.Start(ctx)
	defer p.Stop()

	var (
		wg  sync.WaitGroup
		ran int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		err := p.SubmitWait(ctx, func(ctx context.Context) error {
			defer wg.Done()
			atomic.AddInt32(&ran, 1)
			if i%5 == 0 {
				return errors.New("task error is logged, not fatal")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
	}
	wg.Wait()
	if ran != 20 {
		t.Fatalf("expected 20 tasks to run, got %d", ran)
	}
}

func TestPool_Submit(t *testing.T) {
	t.Run("nil task", func(t *testing.T) {
		p := NewPool(1, nopLogger())
		if err := p.Submit(nil); !errors.Is(err, ErrNilTask) {
			t.Fatalf("expected ErrNilTask, got %v", err)
		}
	})

	t.Run("queue full without workers", func(t *testing.T) {
		p := NewPool(1, nopLogger())
		noop := func(context.Context) error { return nil }
		for i := 0; i < 4; i++ {
			if err := p.Submit(noop); err != nil {
				t.Fatalf("submit %d: %v", i, err)
			}
		}
		if err := p.Submit(noop); !errors.Is(err, ErrQueueFull) {
			t.Fatalf("expected ErrQueueFull, got %v", err)
		}
	})

	t.Run("stopped pool", func(t *testing.T) {
		p := NewPool(1, nopLogger())
		p.Start(context.Background())
		p.Stop()
		p.Stop()
		if err := p.Submit(func(context.Context) error { return nil }); !errors.Is(err, ErrStopped) {
			t.Fatalf("expected ErrStopped, got %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		if err := p.SubmitWait(ctx, func(context.Context) error { return nil }); err == nil {
			t.Fatal("expected SubmitWait on a stopped pool to fail")
		}
	})
}
