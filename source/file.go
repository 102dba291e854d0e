package source

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

type CommandFileSourceConfig struct {
	Path string `yaml:"path"`

	// FromStart replays the lines already in the file before tailing it.
	FromStart bool `yaml:"from_start"`
}

// CommandFileSource watches a file and emits every complete line appended to
// it. Blank lines and lines starting with # are skipped.
type CommandFileSource struct {
	cfg    CommandFileSourceConfig
	logger *slog.Logger
}

func NewCommandFileSource(logger *slog.Logger, cfg CommandFileSourceConfig) (*CommandFileSource, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("file path is required")
	}

	return &CommandFileSource{cfg: cfg, logger: logger}, nil
}

func (f *CommandFileSource) SourceName() string {
	return f.cfg.Path
}

func (f *CommandFileSource) Provide(ctx context.Context, lines chan<- CommandLine) error {
	file, err := os.Open(f.cfg.Path)
	if err != nil {
		return fmt.Errorf("cannot open file: %w", err)
	}
	defer file.Close()

	if !f.cfg.FromStart {
		if _, err := file.Seek(0, io.SeekEnd); err != nil {
			return err
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(f.cfg.Path); err != nil {
		return fmt.Errorf("cannot add file to watcher: %w", err)
	}

	reader := bufio.NewReader(file)

	// A line without its newline yet is kept until the rest is written.
	var pending []byte

	drain := func() error {
		for {
			chunk, err := reader.ReadBytes('\n')
			pending = append(pending, chunk...)

			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}

			line := strings.TrimSpace(string(bytes.TrimRight(pending, "\r\n")))
			pending = pending[:0]

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			select {
			case lines <- CommandLine{Source: f.SourceName(), Line: line, ReadAt: time.Now()}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	if f.cfg.FromStart {
		if err := drain(); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				f.logger.Debug("fsnotify watcher channel is closed.")
				return nil
			}

			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				f.logger.Info("watched file was moved or removed.", "path", f.cfg.Path)
				return nil
			}

			if !event.Has(fsnotify.Write) {
				f.logger.Debug("received unhandled event from fsnotify.", "event", event.String())
				continue
			}

			rewound, err := f.rewindIfTruncated(file, reader)
			if err != nil {
				return err
			}
			if rewound {
				pending = pending[:0]
			}

			if err := drain(); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// rewindIfTruncated starts over when the file became shorter than what was read.
func (f *CommandFileSource) rewindIfTruncated(file *os.File, reader *bufio.Reader) (bool, error) {
	info, err := file.Stat()
	if err != nil {
		return false, err
	}

	offset, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return false, err
	}

	if info.Size() >= offset-int64(reader.Buffered()) {
		return false, nil
	}

	f.logger.Info("watched file was truncated, reading from the start.", "path", f.cfg.Path)

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return false, err
	}
	reader.Reset(file)

	return true, nil
}
