package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/pergola-quoter/internal/catalog"
	"github.com/joseph-ayodele/pergola-quoter/internal/common"
)

type fakeTarget struct {
	mu      sync.Mutex
	calls   int
	block   chan struct{}
	err     error
	started chan struct{}
}

func (f *fakeTarget) Reload(context.Context) (catalog.Report, error) {
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return catalog.Report{}, f.err
}

func (f *fakeTarget) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestReloader_RunsJob(t *testing.T) {
	target := &fakeTarget{}
	done := make(chan Job, 1)
	r := NewReloader(target, nil, WithOnDone(func(j Job, _ catalog.Report, err error) {
		assert.NoError(t, err)
		done <- j
	}))
	defer r.Shutdown(context.Background())

	require.NoError(t, r.Enqueue(context.Background(), Job{Reason: "manual"}))
	select {
	case j := <-done:
		assert.Equal(t, "manual", j.Reason)
		assert.False(t, j.SubmittedAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("reload did not run")
	}
	assert.Equal(t, 1, target.Calls())
}

func TestReloader_CoalescesBursts(t *testing.T) {
	target := &fakeTarget{block: make(chan struct{}), started: make(chan struct{}, 1)}
	r := NewReloader(target, nil)

	require.NoError(t, r.Enqueue(context.Background(), Job{Reason: "first"}))
	<-target.started // worker is inside Reload, the slot is free again

	for i := 0; i < 10; i++ {
		require.NoError(t, r.Enqueue(context.Background(), Job{Reason: "burst"}))
	}
	close(target.block)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	r.Shutdown(ctx)

	assert.Equal(t, 2, target.Calls())
	assert.Equal(t, 2, r.Runs())
}

func TestReloader_Interval(t *testing.T) {
	target := &fakeTarget{}
	r := NewReloader(target, nil, WithInterval(10*time.Millisecond))
	require.Eventually(t, func() bool { return target.Calls() >= 2 }, 2*time.Second, 5*time.Millisecond)
	r.Shutdown(context.Background())
}

func TestReloader_FailureIsReported(t *testing.T) {
	target := &fakeTarget{err: errors.New("source list missing")}
	errs := make(chan error, 1)
	r := NewReloader(target, nil, WithOnDone(func(_ Job, _ catalog.Report, err error) { errs <- err }))
	defer r.Shutdown(context.Background())

	require.NoError(t, r.Enqueue(context.Background(), Job{Reason: "manual"}))
	select {
	case err := <-errs:
		assert.EqualError(t, err, "source list missing")
	case <-time.After(2 * time.Second):
		t.Fatal("reload did not run")
	}
}

func TestReloader_EnqueueAfterShutdown(t *testing.T) {
	r := NewReloader(&fakeTarget{}, nil)
	r.Shutdown(context.Background())
	r.Shutdown(context.Background())
	assert.ErrorIs(t, r.Enqueue(context.Background(), Job{Reason: "late"}), ErrClosed)
}

func TestReloader_Follow(t *testing.T) {
	target := &fakeTarget{}
	r := NewReloader(target, nil)
	defer r.Shutdown(context.Background())

	changes := make(chan string)
	errs := make(chan error)
	finished := make(chan struct{})
	go func() {
		r.Follow(context.Background(), changes, errs)
		close(finished)
	}()

	changes <- "/srv/ceniky.txt"
	errs <- errors.New("watch overflow")
	close(changes)
	close(errs)

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Follow did not return after channels closed")
	}
	require.Eventually(t, func() bool { return target.Calls() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestReloader_EnqueueInheritsRequestID(t *testing.T) {
	target := &fakeTarget{}
	done := make(chan Job, 1)
	r := NewReloader(target, nil, WithOnDone(func(j Job, _ catalog.Report, _ error) { done <- j }))
	defer r.Shutdown(context.Background())

	ctx := common.WithRequestID(context.Background(), "req-42")
	require.NoError(t, r.Enqueue(ctx, Job{Reason: "grpc"}))
	select {
	case j := <-done:
		assert.Equal(t, "req-42", j.TraceID)
	case <-time.After(2 * time.Second):
		t.Fatal("reload did not run")
	}
}
