package sched

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/devdeck/devdeck/internal/scan"
)

type countingScanner struct {
	runs atomic.Int32
}

func (c *countingScanner) Run(context.Context) (*scan.Summary, error) {
	c.runs.Add(1)
	return &scan.Summary{}, nil
}

func TestScheduler_RunsImmediatelyAndOnTicks(t *testing.T) {
	scanner := &countingScanner{}
	s := New(scanner, 20*time.Millisecond, time.Second, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return scanner.runs.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
}

func TestScheduler_StopsBeforeFirstTick(t *testing.T) {
	scanner := &countingScanner{}
	s := New(scanner, time.Hour, 0, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return scanner.runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
}
