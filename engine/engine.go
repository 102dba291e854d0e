// Package engine runs the commands read from sources through a pool of
// executor workers and flushes the results to a sink in batches.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/thisisjab/herdcomp/executor"
	"github.com/thisisjab/herdcomp/source"
)

// Runner executes one command line.
type Runner interface {
	ExecuteLine(ctx context.Context, session executor.Session, line string) executor.Result
}

// Settings are the tunables that can come from the config file.
type Settings struct {
	Workers       uint          `yaml:"workers"`
	LinesBuffer   uint          `yaml:"lines_buffer"`
	FlushSize     uint          `yaml:"flush_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

func DefaultSettings() Settings {
	return Settings{Workers: 1, LinesBuffer: 16, FlushSize: 1}
}

type Config struct {
	Settings

	Sources []source.CommandSource
	Runner  Runner
	Sink    Sink
	Session executor.Session
}

// Engine orchestrates command sources, executor workers and the result sink.
type Engine struct {
	cfg    Config
	logger *slog.Logger
	sink   *sinkManager
}

func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Engine{
		cfg:    cfg,
		logger: logger,
		sink:   newSinkManager(logger, cfg.Sink, cfg.FlushSize, cfg.FlushInterval),
	}, nil
}

func (c Config) validate() error {
	if len(c.Sources) == 0 {
		return errors.New("no command sources are configured")
	}

	if c.Runner == nil {
		return errors.New("no runner is configured")
	}

	if c.Sink == nil {
		return errors.New("no result sink is configured")
	}

	if c.FlushSize == 0 && c.FlushInterval == 0 {
		return errors.New("flush size and flush interval cannot both be zero")
	}

	if c.Workers == 0 {
		return errors.New("workers cannot be zero")
	}

	return nil
}

// Run blocks until every source is exhausted or ctx is done. Results still
// buffered are flushed before it returns.
func (e *Engine) Run(ctx context.Context) error {
	lines := e.consumeLines(ctx)

	var wg sync.WaitGroup
	outcomes := make(chan Outcome, e.cfg.Workers)

	wp := newWorkerPool(e.logger, e.cfg.Runner, e.cfg.Session, int(e.cfg.Workers))

	wg.Go(func() {
		wp.run(ctx, lines, outcomes)
		close(outcomes)
	})

	ticks, stop := e.sink.ticker()
	defer stop()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()

			// Keep what the workers finished before stopping.
			flushCtx := context.WithoutCancel(ctx)
			for o := range outcomes {
				e.sink.add(flushCtx, o)
			}
			e.sink.flush(flushCtx)
			return ctx.Err()
		case <-ticks:
			e.sink.flush(ctx)
		case o, ok := <-outcomes:
			if !ok {
				e.sink.flush(ctx)
				return nil
			}
			e.sink.add(ctx, o)
		}
	}
}

func (e *Engine) consumeLines(ctx context.Context) <-chan source.CommandLine {
	lines := make(chan source.CommandLine, e.cfg.LinesBuffer)
	e.logger.Debug("created command lines channel.", "size", e.cfg.LinesBuffer)

	var sourceWg sync.WaitGroup

	for _, s := range e.cfg.Sources {
		sourceWg.Go(func() {
			err := s.Provide(ctx, lines)
			if err != nil && !errors.Is(err, context.Canceled) {
				e.logger.Error("command source failed.", "source", s.SourceName(), "error", err)
			}
		})
	}

	go func() {
		sourceWg.Wait()
		close(lines)
	}()

	return lines
}
