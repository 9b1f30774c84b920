package output

import (
	"fmt"
	"io"
	"os"
	"sort"

	easyhttp "github.com/abdul-hamid-achik/easyhttp/packages/http"
	"github.com/abdul-hamid-achik/easyhttp/packages/history"
	"github.com/fatih/color"
)

// truncate shortens long values for display
func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func familyColor(family easyhttp.Family) *color.Color {
	switch family {
	case easyhttp.FamilySuccess:
		return color.New(color.FgGreen)
	case easyhttp.FamilyRedirection:
		return color.New(color.FgYellow)
	case easyhttp.FamilyInformational:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgRed)
	}
}

func (f *ConsoleFormatter) FormatResult(result *Result) {
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()
	status := familyColor(result.Family).SprintFunc()

	fmt.Fprintf(f.writer, "%s %s\n", bold(result.Method), result.URL)
	fmt.Fprintf(f.writer, "%s %s %s\n", status(result.Status), status(fmt.Sprintf("[%s]", result.Family)),
		cyan(fmt.Sprintf("(%dms)", result.Duration.Milliseconds())))

	if f.verbose {
		names := make([]string, 0, len(result.Header))
		for name := range result.Header {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, v := range result.Header[name] {
				fmt.Fprintf(f.writer, "  %s: %s\n", name, v)
			}
		}
	}

	if result.Schema != "" {
		if len(result.SchemaViolations) == 0 {
			fmt.Fprintf(f.writer, "  %s schema %s\n", color.GreenString("✓"), result.Schema)
		} else {
			fmt.Fprintf(f.writer, "  %s schema %s\n", color.RedString("✗"), result.Schema)
			for _, v := range result.SchemaViolations {
				fmt.Fprintf(f.writer, "    %s\n", v)
			}
		}
	}

	if len(result.Extracts) > 0 {
		red := color.New(color.FgRed).SprintFunc()
		for _, e := range result.Extracts {
			if !e.Found {
				fmt.Fprintf(f.writer, "  %s %s %s\n", red("✗"), e.Path, red("(not found)"))
				continue
			}
			fmt.Fprintf(f.writer, "  %s = %s\n", e.Path, truncate(e.Value, 200))
		}
		return
	}

	if len(result.Body) > 0 {
		fmt.Fprintf(f.writer, "\n%s\n", string(result.Body))
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHistory(entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintf(f.writer, "No requests recorded\n")
		return
	}

	red := color.New(color.FgRed).SprintFunc()
	for _, e := range entries {
		ts := e.ExecutedAt.Local().Format("2006-01-02 15:04:05")
		if e.Error != "" {
			fmt.Fprintf(f.writer, "%4d  %s  %-6s %s %s\n", e.ID, ts, e.Method, e.URL, red(truncate(e.Error, 80)))
			continue
		}
		status := familyColor(e.Family).SprintFunc()
		fmt.Fprintf(f.writer, "%4d  %s  %-6s %s %s (%dms)\n", e.ID, ts, e.Method, e.URL,
			status(e.Status), e.Duration.Milliseconds())
	}
}
