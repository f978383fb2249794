// Package main provides the gemcli CLI for querying the Generative
// Language API and replaying past exchanges.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gemcli/internal/config"
	"gemcli/internal/genai"
	"gemcli/internal/history"
	"gemcli/internal/render"
	"gemcli/internal/session"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	modelFlag       string
	historyFileFlag string
)

var rootCmd = &cobra.Command{
	Use:          "gemcli <prompt>",
	Short:        "Ask a Gemini model a question and keep a local log of exchanges",
	Version:      version,
	Args:         cobra.ArbitraryArgs,
	RunE:         runAsk,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "",
		"model identifier (env: GEMINI_MODEL, default: gemini-1.5-flash)")
	rootCmd.PersistentFlags().StringVar(&historyFileFlag, "history-file", "",
		"history log path (env: GEMCLI_HISTORY_FILE, default: ~/.gemcli/history.json)")

	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newClearCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "gemcli: %v\n", err)
		os.Exit(1)
	}
}

func runAsk(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("no prompt given (try \"gemcli <prompt>\" or \"gemcli history\")")
	}
	prompt := strings.Join(args, " ")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	model := cfg.Model
	if modelFlag != "" {
		model = modelFlag
	}

	store := history.NewStore(resolveHistoryPath(cfg), cmd.ErrOrStderr())
	if err := store.Initialize(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}

	client := genai.NewClient(cfg.BaseURL, cfg.APIKey)
	driver := session.New(client, store, cmd.OutOrStdout(), cmd.ErrOrStderr())
	return driver.Run(cmd.Context(), model, prompt)
}

func newHistoryCmd() *cobra.Command {
	var (
		wrap         int
		forceColor   bool
		forceNoColor bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Render the logged exchanges, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if forceColor && forceNoColor {
				return errors.New("--color and --no-color cannot be used together")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			store := history.NewStore(resolveHistoryPath(cfg), cmd.ErrOrStderr())
			records, err := store.Load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			outFile, _ := out.(*os.File)
			return render.History(records, render.Options{
				Wrap:         wrap,
				ForceColor:   forceColor,
				ForceNoColor: forceNoColor,
				Out:          out,
				OutFile:      outFile,
			})
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&wrap, "wrap", 0, "wrap the answer box at the given column width")
	flags.BoolVar(&forceColor, "color", false, "force-enable ANSI colors even when stdout is not a TTY")
	flags.BoolVar(&forceNoColor, "no-color", false, "disable ANSI colors regardless of terminal detection")

	return cmd
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Erase the logged exchanges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store := history.NewStore(resolveHistoryPath(cfg), cmd.ErrOrStderr())
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		},
	}
}

func resolveHistoryPath(cfg *config.Config) string {
	if historyFileFlag != "" {
		return historyFileFlag
	}
	return cfg.HistoryFile
}
