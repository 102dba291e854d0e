// Package executor runs parsed commands against a Backend and normalizes the
// heterogeneous backend answers into a single Result shape.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/thisisjab/herdcomp/entity"
	"github.com/thisisjab/herdcomp/fault"
	"github.com/thisisjab/herdcomp/querier/ast"
	"github.com/thisisjab/herdcomp/querier/parser"
)

// Backend is the data source commands run against. Implementations must
// scope every call to the tenant carried by the query or parameters.
type Backend interface {
	ListAnimals(ctx context.Context, q entity.ListQuery) (entity.ListPage, error)
	CountAnimals(ctx context.Context, q entity.CountQuery) (int64, error)
	CountByGroup(ctx context.Context, q entity.CountQuery) ([]entity.GroupCount, error)
	Aggregate(ctx context.Context, q entity.AggregateQuery) ([]entity.AggregateRow, error)
	ListEvents(ctx context.Context, q entity.EventQuery) ([]entity.EventRecord, error)

	// CallProcedure runs a named report procedure and returns its rows.
	CallProcedure(ctx context.Context, name string, params map[string]any) ([]map[string]any, error)
}

// Recorder receives execution metrics.
type Recorder interface {
	ObserveExecution(command, outcome string, d time.Duration)
	AddDiagnostic(command, kind string)
}

type Config struct {
	// ListLimit caps the number of rows LIST returns.
	ListLimit int `yaml:"list_limit"`

	// Report windows, in days, ending today.
	BredsumDays int `yaml:"bredsum_days"`
	EconDays    int `yaml:"econ_days"`
	TrendDays   int `yaml:"trend_days"`
}

func DefaultConfig() Config {
	return Config{
		ListLimit:   1000,
		BredsumDays: 365,
		EconDays:    30,
		TrendDays:   90,
	}
}

func (c Config) Validate() error {
	if c.ListLimit <= 0 {
		return errors.New("list limit must be positive")
	}

	if c.BredsumDays <= 0 || c.EconDays <= 0 || c.TrendDays <= 0 {
		return errors.New("report windows must be positive")
	}

	return nil
}

type Option func(*Executor)

func WithConfig(cfg Config) Option {
	return func(e *Executor) { e.cfg = cfg }
}

func WithRecorder(r Recorder) Option {
	return func(e *Executor) { e.recorder = r }
}

// WithClock replaces time.Now, which report windows and timings use.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// Executor is stateless between calls and safe for concurrent use.
type Executor struct {
	backend  Backend
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time
	cfg      Config
}

func New(backend Backend, logger *slog.Logger, opts ...Option) *Executor {
	e := &Executor{
		backend: backend,
		logger:  logger,
		now:     time.Now,
		cfg:     DefaultConfig(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

type handler func(e *Executor, ctx context.Context, c *call) (Result, error)

var handlers = map[string]handler{
	"LIST":    (*Executor).list,
	"SHOW":    (*Executor).list,
	"COUNT":   (*Executor).count,
	"SUM":     (*Executor).sum,
	"BREDSUM": (*Executor).bredsum,
	"ECON":    (*Executor).econ,
	"EVENTS":  (*Executor).events,
	"PLOT":    (*Executor).plot,
	"COWVAL":  (*Executor).cowval,
}

// call carries the per-execution state handlers share.
type call struct {
	session     Session
	cmd         *ast.Command
	logger      *slog.Logger
	recorder    Recorder
	diagnostics []Diagnostic
}

// drop records a dropped part of the command.
func (c *call) drop(kind DiagnosticKind, field, message string) {
	c.logger.Warn("dropped part of command.", "kind", kind, "field", field, "reason", message)
	c.diagnostics = append(c.diagnostics, Diagnostic{Kind: kind, Field: field, Message: message})

	if c.recorder != nil {
		c.recorder.AddDiagnostic(c.cmd.Command, string(kind))
	}
}

// ExecuteLine parses line and executes it. Parse errors become error results.
func (e *Executor) ExecuteLine(ctx context.Context, session Session, line string) Result {
	cmd, err := parser.Parse(line)
	if err != nil {
		return errorResult(err)
	}

	return e.Execute(ctx, session, cmd)
}

// Execute runs a single command. It never panics and never returns an error:
// every failure is reported in the result.
func (e *Executor) Execute(ctx context.Context, session Session, cmd *ast.Command) (res Result) {
	start := e.now()

	c := &call{
		session:  session,
		cmd:      cmd,
		recorder: e.recorder,
		logger:   e.logger.With("execution-id", uuid.NewString()),
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("command panicked.", "panic", r)
			res = errorResult(fault.New(fault.UnknownCode, fmt.Sprintf("internal error: %v", r)))
		}

		elapsed := e.now().Sub(start)
		res.ExecutionTime = elapsed.Milliseconds()
		res.Diagnostics = c.diagnostics

		if e.recorder != nil && cmd != nil {
			e.recorder.ObserveExecution(cmd.Command, res.Outcome(), elapsed)
		}
	}()

	if cmd == nil {
		return errorResult(fault.New(fault.ParseCode, "Command cannot be empty"))
	}

	c.logger = c.logger.With("command", cmd.Command)

	if err := session.validate(); err != nil {
		return errorResult(err)
	}

	h, ok := handlers[cmd.Command]
	if !ok {
		return errorResult(fault.Newf(fault.NotImplementedCode, "Command %s not yet implemented", cmd.Command))
	}

	for _, fragment := range cmd.Rejected {
		c.drop(UnparsedCondition, "", fmt.Sprintf("could not parse condition %q", fragment))
	}

	res, err := h(e, ctx, c)
	if err != nil {
		c.logger.Debug("command failed.", "error", err)
		return errorResult(err)
	}

	c.logger.Debug("command executed.", "type", res.Type, "rows", len(res.Data))

	return res
}

// window returns the [start, end] dates of a report covering the last days.
func (e *Executor) window(days int) (string, string) {
	end := e.now()
	start := end.AddDate(0, 0, -days)
	return start.Format(time.DateOnly), end.Format(time.DateOnly)
}
