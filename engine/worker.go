package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thisisjab/herdcomp/executor"
	"github.com/thisisjab/herdcomp/source"
)

// Outcome is an executed command line.
type Outcome struct {
	ID         uuid.UUID       `json:"id"`
	Source     string          `json:"source"`
	Line       string          `json:"line"`
	ReadAt     time.Time       `json:"readAt"`
	FinishedAt time.Time       `json:"finishedAt"`
	Result     executor.Result `json:"result"`
}

type workerPool struct {
	runner       Runner
	session      executor.Session
	logger       *slog.Logger
	workersCount int
	wg           sync.WaitGroup
}

func newWorkerPool(logger *slog.Logger, runner Runner, session executor.Session, workersCount int) *workerPool {
	return &workerPool{
		runner:       runner,
		session:      session,
		logger:       logger,
		workersCount: workersCount,
	}
}

// run returns once lines is drained or ctx is done.
func (wp *workerPool) run(ctx context.Context, lines <-chan source.CommandLine, results chan<- Outcome) {
	spawnWorker := func(workerID int) {
		for {
			select {
			case <-ctx.Done():
				return
			case l, ok := <-lines:
				if !ok {
					return
				}

				o := Outcome{
					ID:         uuid.New(),
					Source:     l.Source,
					Line:       l.Line,
					ReadAt:     l.ReadAt,
					Result:     wp.runner.ExecuteLine(ctx, wp.session, l.Line),
					FinishedAt: time.Now(),
				}

				wp.logger.Debug("executed command", "worker_id", workerID, "outcome_id", o.ID, "outcome", o.Result.Outcome())

				select {
				case results <- o:
				case <-ctx.Done():
					return
				}
			}
		}
	}

	for i := range wp.workersCount {
		wp.wg.Go(func() {
			spawnWorker(i)
		})
	}

	wp.wg.Wait()
}
