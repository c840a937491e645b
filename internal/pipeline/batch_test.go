package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
)

// countingStep tracks concurrent executions.
type countingStep struct {
	active  atomic.Int32
	maxSeen atomic.Int32
	total   atomic.Int32
}

func (s *countingStep) Do(_ context.Context, job *Job) error {
	n := s.active.Add(1)
	defer s.active.Add(-1)

	for {
		seen := s.maxSeen.Load()
		if n <= seen || s.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	s.total.Add(1)
	return nil
}

func (s *countingStep) Name() string {
	return "counting"
}

func TestBatchProcessor(t *testing.T) {
	t.Parallel()

	t.Run("processes every job", func(t *testing.T) {
		t.Parallel()

		step := &countingStep{}
		factory := func() *Pipeline {
			p := New(WithLogger(testLogger()))
			p.AddStep(step)
			return p
		}

		bp := NewBatchProcessor(factory,
			WithBatchLogger(testLogger()),
			WithConcurrency(2),
		)

		jobs := []*Job{
			testJob("http://a.example.com"),
			testJob("http://b.example.com"),
			testJob("http://c.example.com"),
		}

		if err := bp.ProcessBatch(context.Background(), jobs); err != nil {
			t.Fatalf("ProcessBatch() error = %v", err)
		}

		if got := step.total.Load(); got != 3 {
			t.Errorf("executed %d jobs, want 3", got)
		}
		if got := step.maxSeen.Load(); got > 2 {
			t.Errorf("observed %d concurrent jobs, limit was 2", got)
		}
		for _, job := range jobs {
			if len(job.StepsRun) != 1 {
				t.Errorf("job %s ran %d steps, want 1", job.Seed, len(job.StepsRun))
			}
		}
	})

	t.Run("callback fires for every job", func(t *testing.T) {
		t.Parallel()

		factory := func() *Pipeline {
			p := New(WithLogger(testLogger()))
			p.AddStep(&countingStep{})
			return p
		}

		bp := NewBatchProcessor(factory, WithBatchLogger(testLogger()))

		jobs := []*Job{
			testJob("http://a.example.com"),
			testJob("http://b.example.com"),
		}

		var mu sync.Mutex
		seen := make(map[int]string)

		err := bp.ProcessBatchWithCallback(context.Background(), jobs, func(job *Job, index int) {
			mu.Lock()
			seen[index] = job.Seed
			mu.Unlock()
		})
		if err != nil {
			t.Fatalf("ProcessBatchWithCallback() error = %v", err)
		}

		if len(seen) != 2 {
			t.Fatalf("callback fired %d times, want 2", len(seen))
		}
		if seen[0] != "http://a.example.com" || seen[1] != "http://b.example.com" {
			t.Errorf("callback indexes wrong: %v", seen)
		}
	})

	t.Run("cancelled context aborts the batch", func(t *testing.T) {
		t.Parallel()

		factory := func() *Pipeline {
			p := New(WithLogger(testLogger()))
			p.AddStep(&countingStep{})
			return p
		}

		bp := NewBatchProcessor(factory, WithBatchLogger(testLogger()))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := bp.ProcessBatch(ctx, []*Job{testJob("http://a.example.com")})
		if err == nil {
			t.Error("ProcessBatch() error = nil, want context error")
		}
	})
}
