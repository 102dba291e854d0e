package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/thisisjab/herdcomp/config"
	"github.com/thisisjab/herdcomp/engine"
	"github.com/thisisjab/herdcomp/executor"
	"gopkg.in/yaml.v3"
)

var (
	cfgFile  string
	envFile  string
	tenantID string
	userID   string
)

var rootCmd = &cobra.Command{
	Use:   "herdcomp",
	Short: "DairyComp command interpreter",
	Long: `herdcomp parses and runs DairyComp style herd commands such as

  LIST ID PEN LACT DIM FOR RC=3 DIM>60
  COUNT FOR RC=5 BY PEN
  SUM MILK BY PEN

against the configured herd database.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "./.config.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "optional dotenv file with secrets")
	rootCmd.PersistentFlags().StringVar(&tenantID, "tenant", "", "tenant the commands run for (default $HERDCOMP_TENANT_ID)")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "user the commands run as (default $HERDCOMP_USER_ID)")
}

// runtime is everything a command needs to execute against storage.
type runtime struct {
	executor *executor.Executor
	session  executor.Session
	watch    engine.Settings
	logger   *slog.Logger
	close    func()
}

func loadRuntime(ctx context.Context) (*runtime, error) {
	// A missing dotenv file is fine, the environment may already be set.
	_ = godotenv.Load(envFile)

	fileContent, err := os.ReadFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file content: %w", err)
	}

	cfg := config.Default()
	if err := yaml.Unmarshal(fileContent, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file: %w", err)
	}
	cfg.ApplyEnv()

	// Keep stdout for command output.
	if cfg.Logger.Output == "" || cfg.Logger.Output == "stdout" {
		cfg.Logger.Output = "stderr"
	}

	components, logger, err := cfg.Parse()
	if err != nil {
		return nil, fmt.Errorf("cannot parse config file: %w", err)
	}

	if err := components.Storage.Connect(ctx); err != nil {
		components.Storage.Close(ctx) //nolint:errcheck
		return nil, fmt.Errorf("storage %s is unreachable: %w", components.Storage.Name(), err)
	}

	return &runtime{
		executor: components.Executor,
		session:  session(),
		watch:    cfg.Watch,
		logger:   logger,
		close:    func() { components.Storage.Close(context.WithoutCancel(ctx)) }, //nolint:errcheck
	}, nil
}

func session() executor.Session {
	s := executor.Session{TenantID: tenantID, UserID: userID}
	if s.TenantID == "" {
		s.TenantID = os.Getenv("HERDCOMP_TENANT_ID")
	}
	if s.UserID == "" {
		s.UserID = os.Getenv("HERDCOMP_USER_ID")
	}
	return s
}
