// Package render produces the human-readable transcript of the history log.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gemcli/internal/classify"
	"gemcli/internal/history"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/tidwall/pretty"
	"golang.org/x/term"
)

// Options defines the configurable parameters for rendering the log.
type Options struct {
	Wrap         int
	ForceColor   bool
	ForceNoColor bool
	Out          io.Writer
	OutFile      *os.File
}

var (
	headerIndexColors = text.Colors{text.Bold, text.FgHiWhite}
	headerModelColors = text.Colors{text.FgCyan}
	timestampColors   = text.Colors{text.Faint}
	labelColors       = text.Colors{text.FgYellow}
	errorColors       = text.Colors{text.FgRed}
)

// History writes the stored records to opts.Out, one block per record in
// stored order (newest first), 1-indexed. An empty log renders a single
// "no history" message and is not an error.
func History(records []history.Record, opts Options) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	if len(records) == 0 {
		_, err := fmt.Fprintln(out, "No history yet.")
		return err
	}

	useColor := resolveColorChoice(opts)
	if useColor {
		// go-pretty suppresses escape codes for non-TTY writers unless
		// colors are enabled globally.
		text.EnableColors()
	}
	width := determineWidth(opts.OutFile, opts.Wrap)

	for i, rec := range records {
		if i > 0 {
			fmt.Fprintln(out)
		}
		printRecord(out, rec, i+1, width, useColor)
	}
	return nil
}

func printRecord(out io.Writer, rec history.Record, index int, width int, useColor bool) {
	headerPlain := fmt.Sprintf("[#%03d] %s | %s", index, rec.Timestamp, rec.Model)

	indexText := colorize(useColor, headerIndexColors, fmt.Sprintf("#%03d", index))
	tsText := colorize(useColor, timestampColors, rec.Timestamp)
	modelText := colorize(useColor, headerModelColors, rec.Model)
	fmt.Fprintf(out, "[%s] %s | %s\n", indexText, tsText, modelText)
	fmt.Fprintln(out, strings.Repeat("-", len(headerPlain)))

	fmt.Fprintf(out, "%s %s\n", colorize(useColor, labelColors, "prompt:"), rec.Prompt)

	if strings.TrimSpace(rec.TextResponse) != "" {
		for _, line := range renderTextBox(rec.TextResponse, width) {
			fmt.Fprintln(out, line)
		}
	}

	printFullResponse(out, rec, useColor)
}

func printFullResponse(out io.Writer, rec history.Record, useColor bool) {
	fmt.Fprintln(out, colorize(useColor, labelColors, "full response:"))

	if !rec.FullResponse.Structured {
		fmt.Fprintln(out, rec.FullResponse.Text)
		return
	}

	data, err := json.Marshal(rec.FullResponse.Value)
	if err != nil {
		fmt.Fprintln(out, colorize(useColor, errorColors, fmt.Sprintf("(unrenderable response: %v)", err)))
		return
	}

	formatted := pretty.Pretty(data)
	if useColor {
		formatted = pretty.Color(formatted, nil)
	}
	out.Write(formatted)

	printUsage(out, string(data), useColor)
}

// printUsage writes the one-line token summary, but only when the prompt
// token count is present. Counts the payload does not carry are omitted,
// never shown as zero.
func printUsage(out io.Writer, doc string, useColor bool) {
	usage := classify.ExtractUsage(doc)
	if usage.PromptTokens == nil {
		return
	}
	parts := []string{fmt.Sprintf("prompt=%d", *usage.PromptTokens)}
	if usage.ResponseTokens != nil {
		parts = append(parts, fmt.Sprintf("response=%d", *usage.ResponseTokens))
	}
	if usage.TotalTokens != nil {
		parts = append(parts, fmt.Sprintf("total=%d", *usage.TotalTokens))
	}
	fmt.Fprintf(out, "%s %s\n", colorize(useColor, labelColors, "tokens:"), strings.Join(parts, " "))
}

func colorize(enabled bool, colors text.Colors, s string) string {
	if !enabled {
		return s
	}
	return colors.Sprint(s)
}

func resolveColorChoice(opts Options) bool {
	if opts.ForceColor {
		return true
	}
	if opts.ForceNoColor {
		return false
	}
	return shouldUseColorAuto(opts.Out)
}

func shouldUseColorAuto(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func determineWidth(out *os.File, wrap int) int {
	if wrap > 0 {
		return wrap
	}
	if out != nil {
		if w, _, err := term.GetSize(int(out.Fd())); err == nil && w > 0 {
			return w
		}
	}
	if colsStr := os.Getenv("COLUMNS"); colsStr != "" {
		if v, err := strconv.Atoi(colsStr); err == nil && v > 0 {
			return v
		}
	}
	return 80
}
