package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/thisisjab/herdcomp/engine"
	"github.com/thisisjab/herdcomp/source"
)

var (
	watchFromStart bool
	watchJSON      bool
	watchWorkers   uint
)

var watchCmd = &cobra.Command{
	Use:   "watch FILE...",
	Short: "Run every command appended to one or more files",
	Long: `watch tails each FILE and runs every complete line as a command. Blank
lines and lines starting with # are skipped. A file stops being watched when
it is removed; watch returns once no file is left or on Ctrl+C.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchFromStart, "from-start", false, "run the commands already in the files first")
	watchCmd.Flags().BoolVar(&watchJSON, "json", false, "print one JSON document per command")
	watchCmd.Flags().UintVar(&watchWorkers, "workers", 0, "commands run concurrently (default from config)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := loadRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	sources := make([]source.CommandSource, 0, len(args))
	for _, path := range args {
		src, err := source.NewCommandFileSource(rt.logger, source.CommandFileSourceConfig{Path: path, FromStart: watchFromStart})
		if err != nil {
			return err
		}
		sources = append(sources, src)
	}

	var sink engine.Sink = engine.NewJSONLinesSink(os.Stdout)
	if !watchJSON {
		sink = engine.SinkFunc(func(_ context.Context, outcomes ...engine.Outcome) error {
			for _, o := range outcomes {
				fmt.Fprintln(os.Stdout, mutedStyle.Render(o.Source+":")+" "+colorize(o.Line))
				printResult(os.Stdout, o.Result)
			}
			return nil
		})
	}

	settings := rt.watch
	if watchWorkers > 0 {
		settings.Workers = watchWorkers
	}

	e, err := engine.New(engine.Config{
		Settings: settings,
		Sources:  sources,
		Runner:   rt.executor,
		Sink:     sink,
		Session:  rt.session,
	}, rt.logger)
	if err != nil {
		return err
	}

	if err := e.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	rt.logger.Info("watch stopped.")
	return nil
}
