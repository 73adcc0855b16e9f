package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type funcJob struct {
	name string
	fn   func(ctx context.Context) error
}

func (j funcJob) Name() string { return j.name }
func (j funcJob) Run(ctx context.Context) error { return j.fn(ctx) }

func TestRunner_AddRejectsBadSpec(t *testing.T) {
	r := NewRunner(time.UTC, time.Second, zerolog.Nop())
	job := funcJob{name: "noop", fn: func(context.Context) error { return nil }}
	if err := r.Add("not a cron spec", job); err == nil {
		t.Fatal("expected error for invalid spec")
	}
	if err := r.Add("*/15 * * * *", job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunner_RunOnceAppliesTimeout(t *testing.T) {
	r := NewRunner(time.UTC, 20*time.Millisecond, zerolog.Nop())
	job := funcJob{name: "slow", fn: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	if err := r.RunOnce(context.Background(), job); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestRunner_RunOncePassesResult(t *testing.T) {
	r := NewRunner(nil, 0, zerolog.Nop())
	var calls int32
	job := funcJob{name: "count", fn: func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		if _, ok := ctx.Deadline(); ok {
			t.Error("expected no deadline when timeout is zero")
		}
		return nil
	}}
	if err := r.RunOnce(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRunner_StartStop(t *testing.T) {
	r := NewRunner(time.UTC, time.Second, zerolog.Nop())
	r.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
