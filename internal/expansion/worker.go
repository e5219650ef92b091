// Package expansion fills rooms in the background, one queued job per room, so a turn
// never waits on room generation.
package expansion

import (
	"context"
	"sync"

	"github.com/tatianab/dungeon-crawler/internal/dungeon"
	"github.com/tatianab/dungeon-crawler/internal/logger"
	"github.com/tatianab/dungeon-crawler/internal/session"
	"github.com/zyedidia/generic/mapset"
	"golang.org/x/time/rate"
)

// Job asks for one room of one session to be expanded. Previous is the description of
// the room the player was in when the job was scheduled.
type Job struct {
	Session  *session.Session
	RoomID   string
	Previous string
}

func (j Job) key() string {
	return j.Session.ID + "/" + j.RoomID
}

// Saver persists a session after a room was filled. The caller holds the session lock.
type Saver interface {
	Save(ctx context.Context, s *session.Session) error
}

type Options struct {
	Workers   int
	QueueSize int
	// RatePerSecond caps model calls across all workers. Zero means no cap.
	RatePerSecond float64
}

// Worker consumes expansion jobs.
type Worker struct {
	expander *dungeon.Expander
	saver    Saver
	queue    chan Job
	workers  int
	limiter  *rate.Limiter

	mu       sync.Mutex
	pending  mapset.Set[string]
	inflight sync.WaitGroup
}

func NewWorker(expander *dungeon.Expander, saver Saver, opts Options) *Worker {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 1
	}
	w := &Worker{
		expander: expander,
		saver:    saver,
		queue:    make(chan Job, opts.QueueSize),
		workers:  opts.Workers,
		pending:  mapset.New[string](),
	}
	if opts.RatePerSecond > 0 {
		w.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}
	return w
}

// Enqueue schedules job without blocking. It reports false when the same room is
// already pending or the queue is full; the room then stays ungenerated until a
// later move schedules it again.
func (w *Worker) Enqueue(job Job) bool {
	key := job.key()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending.Has(key) {
		return false
	}
	select {
	case w.queue <- job:
		w.pending.Put(key)
		w.inflight.Add(1)
		return true
	default:
		logger.Warning("expansion queue full, dropping job", "save", job.Session.ID, "room", job.RoomID)
		return false
	}
}

// Run processes jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job := <-w.queue:
					w.Process(ctx, job)
					w.finish(job)
				}
			}
		}()
	}
	wg.Wait()
}

// Wait blocks until every enqueued job has been processed. Run must be active.
func (w *Worker) Wait() {
	w.inflight.Wait()
}

func (w *Worker) finish(job Job) {
	w.mu.Lock()
	w.pending.Remove(job.key())
	w.mu.Unlock()
	w.inflight.Done()
}

// Process expands one room and reports whether it was filled. The model call runs
// without the session lock; the result is applied only if no one generated the room
// in the meantime.
func (w *Worker) Process(ctx context.Context, job Job) bool {
	s := job.Session

	s.Lock()
	room := s.State.Rooms[job.RoomID]
	if room == nil || room.IsGenerated {
		s.Unlock()
		return false
	}
	req := dungeon.RequestFor(room, s.State.Theme, job.Previous)
	s.Unlock()

	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return false
		}
	}

	content := w.expander.Generate(ctx, req)
	if ctx.Err() != nil {
		return false
	}

	s.Lock()
	defer s.Unlock()
	room = s.State.Rooms[job.RoomID]
	if room == nil || !dungeon.Apply(room, content) {
		return false
	}
	logger.Info("room expanded in background", "save", s.ID, "room", job.RoomID, "fallback", content.Fallback)

	if w.saver != nil {
		if err := w.saver.Save(ctx, s); err != nil {
			logger.Error("failed to save after expansion", "save", s.ID, "room", job.RoomID, "error", err)
		}
	}
	return true
}
