package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/pergola-quoter/internal/catalog"
	"github.com/joseph-ayodele/pergola-quoter/internal/common"
)

// ErrClosed is returned by Enqueue after Shutdown.
var ErrClosed = errors.New("reloader is shut down")

// Reloadable is what the reloader drives. *catalog.Store implements it.
type Reloadable interface {
	Reload(ctx context.Context) (catalog.Report, error)
}

// Reloader runs catalog reloads on a single worker. A job submitted while another is pending
// is merged into it, so a burst of triggers costs one reload.
type Reloader struct {
	target   Reloadable
	logger   *slog.Logger
	timeout  time.Duration
	interval time.Duration

	ch   chan Job
	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
	runs   int
	onDone func(Job, catalog.Report, error)
}

type Option func(*Reloader)

// WithInterval schedules a reload every d. Zero disables periodic reloads.
func WithInterval(d time.Duration) Option {
	return func(r *Reloader) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithReloadTimeout(d time.Duration) Option {
	return func(r *Reloader) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithOnDone registers a callback invoked after every reload.
func WithOnDone(fn func(Job, catalog.Report, error)) Option {
	return func(r *Reloader) { r.onDone = fn }
}

func NewReloader(target Reloadable, logger *slog.Logger, opts ...Option) *Reloader {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reloader{
		target:  target,
		logger:  logger,
		timeout: 2 * time.Minute,
		ch:      make(chan Job, 1),
		stop:    make(chan struct{}),
	}
	for _, o := range opts {
		o(r)
	}
	r.start()
	return r
}

func (r *Reloader) start() {
	r.once.Do(func() {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.logger.Info("reloader.started", "interval", r.interval.String())
			for job := range r.ch {
				r.run(job)
			}
			r.logger.Info("reloader.stopped")
		}()

		if r.interval > 0 {
			r.wg.Add(1)
			go func() {
				defer r.wg.Done()
				t := time.NewTicker(r.interval)
				defer t.Stop()
				for {
					select {
					case <-r.stop:
						return
					case <-t.C:
						_ = r.Enqueue(context.Background(), Job{Reason: "interval"})
					}
				}
			}()
		}
	})
}

func (r *Reloader) run(job Job) {
	ctx, cancel := common.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if job.TraceID != "" {
		ctx = common.WithRequestID(ctx, job.TraceID)
	}
	ctx, rid := common.EnsureRequestID(ctx)

	start := time.Now()
	report, err := r.target.Reload(ctx)
	if err != nil {
		r.logger.Error("reloader.reload.failed", "req_id", rid, "reason", job.Reason, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
	} else {
		r.logger.Info("reloader.reload.ok", "req_id", rid, "reason", job.Reason,
			"loaded", report.Loaded(), "failed", len(report.Failed()),
			"elapsed_ms", time.Since(start).Milliseconds())
	}

	r.mu.Lock()
	r.runs++
	onDone := r.onDone
	r.mu.Unlock()
	if onDone != nil {
		onDone(job, report, err)
	}
}

// Enqueue schedules a reload. It never blocks: when one is already pending the job is dropped.
// A job without a TraceID inherits the request id of ctx.
func (r *Reloader) Enqueue(ctx context.Context, job Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.logger.Warn("reloader.enqueue.closed", "reason", job.Reason)
		return ErrClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	if job.TraceID == "" {
		job.TraceID = common.RequestIDFromContext(ctx)
	}
	select {
	case r.ch <- job:
		r.logger.Debug("reloader.enqueued", "reason", job.Reason)
	default:
		r.logger.Debug("reloader.coalesced", "reason", job.Reason)
	}
	return nil
}

// Runs reports how many reloads have completed.
func (r *Reloader) Runs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

// Shutdown stops accepting jobs, lets a pending reload finish and waits for the workers
// or for ctx, whichever comes first.
func (r *Reloader) Shutdown(ctx context.Context) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.stop)
	close(r.ch)
	r.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); r.wg.Wait() }()

	select {
	case <-ctx.Done():
		r.logger.Warn("reloader.shutdown.interrupted")
	case <-done:
		r.logger.Info("reloader.shutdown.complete")
	}
}

// Follow enqueues a reload for every path received on changes until the channel closes.
// It pairs with catalog.Watch.
func (r *Reloader) Follow(ctx context.Context, changes <-chan string, errs <-chan error) {
	for changes != nil || errs != nil {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if err := r.Enqueue(ctx, Job{Reason: "watch:" + path}); errors.Is(err, ErrClosed) {
				return
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			r.logger.Warn("reloader.watch.error", "error", err)
		}
	}
}
