package source

import (
	"context"
	"time"
)

// CommandLine is one command read from a source.
type CommandLine struct {
	Source string
	Line   string
	ReadAt time.Time
}

// CommandSource delivers command lines until ctx is done or the source ends.
type CommandSource interface {
	SourceName() string
	Provide(ctx context.Context, lines chan<- CommandLine) error
}
