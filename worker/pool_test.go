package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mockResult struct {
	err error
}

func (r *mockResult) GetError() error {
	return r.err
}

type mockJob struct {
	duration  time.Duration
	shouldErr bool
	executed  *int32
}

func (j *mockJob) Execute(ctx context.Context) Result {
	if j.executed != nil {
		atomic.AddInt32(j.executed, 1)
	}
	if j.duration > 0 {
		select {
		case <-time.After(j.duration):
		case <-ctx.Done():
			return &mockResult{err: ctx.Err()}
		}
	}
	if j.shouldErr {
		return &mockResult{err: errors.New("job error")}
	}
	return &mockResult{}
}

func TestNewPool(t *testing.T) {
	assert.Equal(t, 5, NewPool(5).Workers())
	assert.Equal(t, 1, NewPool(0).Workers())
	assert.Equal(t, 1, NewPool(-1).Workers())
}

func TestPoolRun(t *testing.T) {
	pool := NewPool(2)

	var executed int32
	jobs := make([]Job, 10)
	for i := range jobs {
		jobs[i] = &mockJob{executed: &executed}
	}

	results := pool.Run(context.Background(), jobs)

	assert.Len(t, results, 10)
	assert.Equal(t, int32(10), atomic.LoadInt32(&executed))
}

func TestPoolRunLargeBatch(t *testing.T) {
	pool := NewPool(4)

	var executed int32
	jobs := make([]Job, 500)
	for i := range jobs {
		jobs[i] = &mockJob{executed: &executed}
	}

	results := pool.Run(context.Background(), jobs)

	assert.Len(t, results, 500)
	assert.Equal(t, int32(500), atomic.LoadInt32(&executed))
}

func TestPoolRunConcurrencyCap(t *testing.T) {
	workers := 4
	pool := NewPool(workers)

	var current, maxSeen int32
	var mu sync.Mutex

	jobs := make([]Job, 40)
	for i := range jobs {
		jobs[i] = &concurrencyJob{
			start: func() {
				cur := atomic.AddInt32(&current, 1)
				mu.Lock()
				if cur > maxSeen {
					maxSeen = cur
				}
				mu.Unlock()
			},
			end:      func() { atomic.AddInt32(&current, -1) },
			duration: 5 * time.Millisecond,
		}
	}

	pool.Run(context.Background(), jobs)

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, maxSeen, int32(workers))
}

type concurrencyJob struct {
	start    func()
	end      func()
	duration time.Duration
}

func (j *concurrencyJob) Execute(ctx context.Context) Result {
	if j.start != nil {
		j.start()
	}
	time.Sleep(j.duration)
	if j.end != nil {
		j.end()
	}
	return &mockResult{}
}

func TestPoolRunCollectsErrors(t *testing.T) {
	pool := NewPool(2)

	results := pool.Run(context.Background(), []Job{
		&mockJob{shouldErr: true},
		&mockJob{},
	})

	failed := 0
	for _, res := range results {
		if res.GetError() != nil {
			failed++
		}
	}
	assert.Equal(t, 1, failed)
}

func TestPoolRunCanceledContext(t *testing.T) {
	pool := NewPool(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var executed int32
	jobs := make([]Job, 20)
	for i := range jobs {
		jobs[i] = &mockJob{executed: &executed}
	}

	results := pool.Run(ctx, jobs)

	// The feed stops on cancellation, so not every job runs.
	assert.LessOrEqual(t, len(results), 20)
	assert.Equal(t, int32(len(results)), atomic.LoadInt32(&executed))
}

func TestPoolRunEmpty(t *testing.T) {
	assert.Nil(t, NewPool(3).Run(context.Background(), nil))
}

func TestPoolSizeFor(t *testing.T) {
	assert.Equal(t, 4, PoolSizeFor(1))
	assert.Equal(t, 4, PoolSizeFor(4))
	assert.Equal(t, 9, PoolSizeFor(9))
	assert.Equal(t, 16, PoolSizeFor(16))
	assert.Equal(t, 16, PoolSizeFor(400))
}
