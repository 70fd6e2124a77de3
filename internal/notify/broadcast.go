package notify

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/dshills/storebot/pkg/types"
)

const (
	// DefaultProgressEvery is the progress-report cadence in recipients.
	DefaultProgressEvery = 10

	defaultWorkers = 4
	// Chat transports throttle bulk sends around 30 messages per second.
	defaultSendRate = rate.Limit(25)
)

// Progress is a snapshot of a running broadcast.
type Progress struct {
	Done      int
	Succeeded int
	Failed    int
	Total     int
}

// Report summarizes a finished broadcast.
type Report struct {
	RunID     string
	Attempted int
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Dispatcher delivers one message to a full user roster. Deliveries are
// independent; a failed recipient never aborts the run. The roster is
// snapshotted by the caller before Run and no per-user locks are held
// while iterating.
type Dispatcher struct {
	sender        Sender
	logger        *log.Logger
	limiter       *rate.Limiter
	workers       int
	progressEvery int
}

// NewDispatcher creates a Dispatcher with default concurrency, rate limit,
// and progress cadence.
func NewDispatcher(sender Sender, logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		sender:        sender,
		logger:        logger,
		limiter:       rate.NewLimiter(defaultSendRate, 1),
		workers:       defaultWorkers,
		progressEvery: DefaultProgressEvery,
	}
}

// Run delivers content to every user in the roster. onProgress, when
// non-nil, is invoked after every progressEvery completed deliveries and
// once at the end; it is never called concurrently.
func (d *Dispatcher) Run(ctx context.Context, roster []*types.User, content types.Content, onProgress func(Progress)) Report {
	runID := uuid.NewString()
	total := len(roster)
	start := time.Now()
	d.logger.Printf("broadcast %s starting: %d recipients", runID, total)

	var done, succeeded, failed atomic.Int64
	var progressMu sync.Mutex

	report := func(force bool) {
		if onProgress == nil {
			return
		}
		progressMu.Lock()
		defer progressMu.Unlock()
		n := int(done.Load())
		if force || (d.progressEvery > 0 && n%d.progressEvery == 0) {
			onProgress(Progress{
				Done:      n,
				Succeeded: int(succeeded.Load()),
				Failed:    int(failed.Load()),
				Total:     total,
			})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for _, user := range roster {
		g.Go(func() error {
			if err := d.limiter.Wait(gctx); err != nil {
				// Context cancelled; count the recipient as failed
				failed.Add(1)
			} else if err := d.sender.Send(gctx, user.ID, content); err != nil {
				d.logger.Printf("broadcast %s: failed to send to %d: %v", runID, user.ID, err)
				failed.Add(1)
			} else {
				succeeded.Add(1)
			}
			done.Add(1)
			report(false)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures are counted

	report(true)
	rep := Report{
		RunID:     runID,
		Attempted: total,
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
		Duration:  time.Since(start),
	}
	d.logger.Printf("broadcast %s finished: %d attempted, %d succeeded, %d failed in %s",
		runID, rep.Attempted, rep.Succeeded, rep.Failed, rep.Duration)
	return rep
}
