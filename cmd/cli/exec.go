package main

import (
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var execJSON bool

var execCmd = &cobra.Command{
	Use:   "exec COMMAND...",
	Short: "Run a single command",
	Example: `  herdcomp exec LIST ID PEN FOR RC=5
  herdcomp exec --json "SUM MILK BY PEN"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func init() {
	execCmd.Flags().BoolVar(&execJSON, "json", false, "print the raw result as JSON")
	rootCmd.AddCommand(execCmd)
}

var errCommandFailed = errors.New("command failed")

func runExec(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	res := rt.executor.ExecuteLine(cmd.Context(), rt.session, strings.Join(args, " "))

	if execJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		printResult(os.Stdout, res)
	}

	if !res.Success {
		return errCommandFailed
	}
	return nil
}
