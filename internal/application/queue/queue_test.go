package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startQueue(t *testing.T, cfg Config) *Queue {
	t.Helper()
	q := New(cfg)
	require.NoError(t, q.Start())
	t.Cleanup(func() { _ = q.Close(context.Background()) })
	return q
}

// blockingJob 开始后发信号，收到 release 后结束
func blockingJob(id string, started chan<- struct{}, release <-chan struct{}) Job {
	return Job{ID: id, Run: func(context.Context) (any, error) {
		close(started)
		<-release
		return id, nil
	}}
}

func TestQueueRunsJobsInOrder(t *testing.T) {
	q := startQueue(t, Config{Capacity: 8})

	started := make(chan struct{})
	release := make(chan struct{})
	first, err := q.Enqueue(context.Background(), blockingJob("first", started, release))
	require.NoError(t, err)
	<-started

	var mu sync.Mutex
	var order []string
	active := 0
	maxActive := 0
	tickets := make([]*Ticket, 0, 5)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		id := id
		ticket, err := q.Enqueue(context.Background(), Job{ID: id, Run: func(context.Context) (any, error) {
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			order = append(order, id)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			return id, nil
		}})
		require.NoError(t, err)
		tickets = append(tickets, ticket)
	}
	assert.Equal(t, 5, q.Len())

	close(release)
	v, err := first.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", v)

	for i, ticket := range tickets {
		v, err := ticket.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c", "d", "e"}[i], v)
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, order)
	assert.Equal(t, 1, maxActive)
}

func TestQueueFailureDoesNotBlockLaterJobs(t *testing.T) {
	q := startQueue(t, Config{Capacity: 4})
	boom := errors.New("boom")

	failing, err := q.Enqueue(context.Background(), Job{ID: "fail", Run: func(context.Context) (any, error) {
		return nil, boom
	}})
	require.NoError(t, err)
	panicking, err := q.Enqueue(context.Background(), Job{ID: "panic", Run: func(context.Context) (any, error) {
		panic("kaboom")
	}})
	require.NoError(t, err)
	ok, err := q.Enqueue(context.Background(), Job{ID: "ok", Run: func(context.Context) (any, error) {
		return 42, nil
	}})
	require.NoError(t, err)

	_, err = failing.Wait(context.Background())
	assert.ErrorIs(t, err, boom)

	_, err = panicking.Wait(context.Background())
	assert.ErrorIs(t, err, ErrJobPanicked)

	v, err := ok.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestQueueFull(t *testing.T) {
	q := startQueue(t, Config{Capacity: 1})

	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	_, err := q.Enqueue(context.Background(), blockingJob("running", started, release))
	require.NoError(t, err)
	<-started

	_, err = q.Enqueue(context.Background(), Job{ID: "queued", Run: func(context.Context) (any, error) { return nil, nil }})
	require.NoError(t, err)

	_, err = q.Enqueue(context.Background(), Job{ID: "overflow", Run: func(context.Context) (any, error) { return nil, nil }})
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestQueueClosed(t *testing.T) {
	q := New(Config{Capacity: 2})
	require.NoError(t, q.Start())
	require.NoError(t, q.Close(context.Background()))

	_, err := q.Enqueue(context.Background(), Job{ID: "late", Run: func(context.Context) (any, error) { return nil, nil }})
	assert.ErrorIs(t, err, ErrQueueClosed)
	assert.ErrorIs(t, q.Start(), ErrQueueClosed)
}

func TestCloseDrainsQueuedJobs(t *testing.T) {
	q := New(Config{Capacity: 4})
	require.NoError(t, q.Start())

	var mu sync.Mutex
	ran := 0
	tickets := make([]*Ticket, 0, 3)
	for i := 0; i < 3; i++ {
		ticket, err := q.Enqueue(context.Background(), Job{ID: "j", Run: func(context.Context) (any, error) {
			mu.Lock()
			ran++
			mu.Unlock()
			return nil, nil
		}})
		require.NoError(t, err)
		tickets = append(tickets, ticket)
	}

	require.NoError(t, q.Close(context.Background()))
	for _, ticket := range tickets {
		_, err := ticket.Wait(context.Background())
		assert.NoError(t, err)
	}
	assert.Equal(t, 3, ran)
}

func TestTicketWaitHonoursContext(t *testing.T) {
	q := startQueue(t, Config{Capacity: 1})
	started := make(chan struct{})
	release := make(chan struct{})
	ticket, err := q.Enqueue(context.Background(), blockingJob("slow", started, release))
	require.NoError(t, err)
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = ticket.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	v, err := ticket.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "slow", v)
}

func TestJobTimeout(t *testing.T) {
	q := startQueue(t, Config{Capacity: 1, JobTimeout: 5 * time.Millisecond})
	ticket, err := q.Enqueue(context.Background(), Job{ID: "t", Run: func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}})
	require.NoError(t, err)
	_, err = ticket.Wait(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
