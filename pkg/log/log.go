// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log renders a run for humans while mirroring it to zerolog.
package log

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"

	"github.com/ElonVolo/evcodeshift/pkg/status"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // Base width for filename
	statusWidth = 10 // Width for status text
)

// 📦 RunOperation describes a run for the header line
type RunOperation struct {
	Transform string // Transform identifier
	Dialect   string // Loader dialect
	Files     int    // Number of files discovered
	Workers   int    // Number of workers
	Dry       bool   // Whether writes are suppressed
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog      zerolog.Logger
	console   io.Writer
	formatter status.FileFormatter
	verbose   bool
	mu        sync.Mutex
	currentOp *RunOperation
	done      int
}

// 🏭 New creates a new logger. Structured logs go to zlog, human output to console.
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:      zlog,
		console:   console,
		formatter: status.NewDefaultFileFormatter(),
		mu:        sync.Mutex{},
	}
}

// WithVerbose also prints unchanged and skipped files.
func (l *Logger) WithVerbose(verbose bool) *Logger {
	l.verbose = verbose
	return l
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatFileStatus formats the terminal event of a file for display
func (l *Logger) formatFileStatus(ev status.Event) string {
	// Determine symbol and color
	var symbol rune
	var symbolColor color.Attribute
	switch ev.Status {
	case status.StatusError:
		symbol = '✗'
		symbolColor = color.FgRed
	case status.StatusOK:
		symbol = '⟳'
		symbolColor = color.FgBlue
	case status.StatusNoChange:
		symbol = '•'
		symbolColor = color.FgCyan
	default:
		symbol = '-'
		symbolColor = color.FgYellow
	}

	path := ev.File
	detail := ""
	if path == "" {
		path = "(batch)"
		detail = ev.Msg
	} else {
		detail = strings.TrimSpace(strings.TrimPrefix(ev.Msg, ev.File))
	}

	// Build the line
	line := fmt.Sprintf("%s%s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, path),
		color.New(symbolColor).Sprint(fmt.Sprintf("%-*s", statusWidth, ev.Status)))
	if detail != "" {
		line += " " + color.New(color.Faint).Sprint(detail)
	}
	return line
}

// 📝 LogEvent logs one worker event
func (l *Logger) LogEvent(ctx context.Context, ev status.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch ev.Action {
	case status.ActionStatus:
		l.done++
		if l.verbose || ev.Status == status.StatusOK || ev.Status == status.StatusError {
			fmt.Fprintln(l.console, l.formatFileStatus(ev))
		}
		if ev.Status == status.StatusError && ev.Trace != "" && l.verbose {
			fmt.Fprintln(l.console, color.New(color.Faint).Sprint(ev.Trace))
		}
		l.zlog.Debug().
			Str("file", ev.File).
			Str("status", ev.Status.String()).
			Str("batch", ev.Batch).
			Str("msg", ev.Msg).
			Msg("file done")
	case status.ActionReport:
		fmt.Fprintf(l.console, "%*s%s %s: %s\n", fileIndent, "",
			color.New(color.FgMagenta).Sprint("↳"), ev.File, ev.Msg)
		l.zlog.Info().Str("file", ev.File).Str("msg", ev.Msg).Msg("report")
	case status.ActionUpdate:
		l.zlog.Debug().Str("name", ev.Name).Int("quantity", ev.Quantity).Msg("stats")
	case status.ActionFree:
		l.zlog.Debug().Str("batch", ev.Batch).Msg("batch freed")
	}
}

// 📝 StartRun prints the run header
func (l *Logger) StartRun(ctx context.Context, op RunOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currentOp = &op
	l.done = 0

	mode := "write"
	if op.Dry {
		mode = "dry"
	}
	dialect := op.Dialect
	if dialect == "" {
		dialect = "native"
	}

	fmt.Fprintf(l.console, "[processing %s files with %s workers]\n",
		color.New(color.FgCyan).Sprint(op.Files),
		color.New(color.FgCyan).Sprint(op.Workers))

	fmt.Fprintf(l.console, "%s %s %s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(op.Transform),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(dialect),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(mode))

	l.zlog.Info().
		Str("transform", op.Transform).
		Str("dialect", op.Dialect).
		Int("files", op.Files).
		Int("workers", op.Workers).
		Bool("dry", op.Dry).
		Msg("starting run")
}

// 📝 Progress prints how many files are done
func (l *Logger) Progress() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.currentOp == nil {
		return
	}
	fmt.Fprintln(l.console, l.formatter.FormatProgress(l.done, l.currentOp.Files))
}

// 📝 EndRun prints the summary table and closes the run
func (l *Logger) EndRun(ctx context.Context, sum status.Summary) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data := pterm.TableData{
		{"Result", "Files"},
		{"ok", strconv.Itoa(sum.OK)},
		{"unchanged", strconv.Itoa(sum.NoChange)},
		{"skipped", strconv.Itoa(sum.Skip)},
		{"errors", strconv.Itoa(sum.Error)},
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		l.zlog.Warn().Err(err).Msg("rendering summary")
	} else {
		fmt.Fprintln(l.console, table)
	}

	if len(sum.Stats) > 0 {
		stats := pterm.TableData{{"Stat", "Count"}}
		for _, name := range sum.StatNames() {
			stats = append(stats, []string{name, strconv.Itoa(sum.Stats[name])})
		}
		if table, err := pterm.DefaultTable.WithHasHeader().WithData(stats).Srender(); err == nil {
			fmt.Fprintln(l.console, table)
		}
	}

	elapsed := fmt.Sprintf("Time elapsed: %.3fs", sum.Elapsed.Seconds())
	if sum.Error > 0 {
		fmt.Fprint(l.console, pterm.Warning.WithPrefix(pterm.Prefix{Text: "⚠️"}).Sprintln(elapsed))
	} else {
		fmt.Fprint(l.console, pterm.Success.WithPrefix(pterm.Prefix{Text: "✅"}).Sprintln(elapsed))
	}

	event := l.zlog.Info().
		Int("ok", sum.OK).
		Int("nochange", sum.NoChange).
		Int("skip", sum.Skip).
		Int("error", sum.Error).
		Dur("elapsed", sum.Elapsed)
	for _, name := range sum.StatNames() {
		event = event.Int("stat_"+name, sum.Stats[name])
	}
	event.Msg("run complete")

	l.currentOp = nil
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("evcodeshift")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error
func (l *Logger) Error(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console, color.New(color.FgRed).Sprint(l.formatter.FormatError(err)))
	l.zlog.Error().Err(err).Msg("run failed")
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
