package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thisisjab/herdcomp/autocomplete"
	"github.com/thisisjab/herdcomp/querier/highlight"
)

var (
	suggestCursor int
	highlightHTML bool
)

var suggestCmd = &cobra.Command{
	Use:   "suggest TEXT",
	Short: "Show autocomplete suggestions for a partial command",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")

		cursor := suggestCursor
		if cursor < 0 || cursor > len([]rune(text)) {
			cursor = len([]rune(text))
		}

		ctx := autocomplete.DetectContext(string([]rune(text)[:cursor]))
		fmt.Fprintln(os.Stdout, mutedStyle.Render("context: "+string(ctx)))

		for _, s := range autocomplete.New().Suggestions(text, cursor) {
			fmt.Fprintf(os.Stdout, "%s %s\n", keyStyle.Render(fmt.Sprintf("%-10s", s.Label)), mutedStyle.Render(s.Description))
		}
		return nil
	},
}

var highlightCmd = &cobra.Command{
	Use:   "highlight TEXT",
	Short: "Print a command with syntax colors",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")

		if highlightHTML {
			fmt.Fprintln(os.Stdout, highlight.HTML(text))
			return nil
		}

		fmt.Fprintln(os.Stdout, colorize(text))
		return nil
	},
}

func init() {
	suggestCmd.Flags().IntVar(&suggestCursor, "cursor", -1, "cursor position in runes (default end of text)")
	highlightCmd.Flags().BoolVar(&highlightHTML, "html", false, "print inline-styled HTML instead")
	rootCmd.AddCommand(suggestCmd, highlightCmd)
}
