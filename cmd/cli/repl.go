package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Read commands from stdin and run them one by one",
	RunE:  runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stdout, promptStyle.Render("herdcomp> "))

		if !scanner.Scan() {
			fmt.Fprintln(os.Stdout)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		printResult(os.Stdout, rt.executor.ExecuteLine(cmd.Context(), rt.session, line))

		if err := cmd.Context().Err(); err != nil {
			return err
		}
	}
}
