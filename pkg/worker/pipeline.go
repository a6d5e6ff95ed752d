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

package worker

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/ElonVolo/evcodeshift/pkg/fault"
	"github.com/ElonVolo/evcodeshift/pkg/parser"
	"github.com/ElonVolo/evcodeshift/pkg/status"
	"github.com/ElonVolo/evcodeshift/pkg/transform"
)

// pipelineFile is the path of this file as recorded in stack traces.
var pipelineFile = func() string {
	_, file, _, _ := runtime.Caller(0)
	return file
}()

// 🏷️ Kind classifies how a file ended
type Kind string

const (
	Unchanged Kind = "unchanged"
	Skipped   Kind = "skipped"
	Written   Kind = "written"
	Failed    Kind = "error"
)

// 📋 Outcome is the result of one file. Only failures carry a message and trace.
type Outcome struct {
	Path    string
	Kind    Kind
	Message string
	Trace   string
}

// Status maps the outcome to its wire status.
func (o Outcome) Status() status.Status {
	switch o.Kind {
	case Written:
		return status.StatusOK
	case Unchanged:
		return status.StatusNoChange
	case Skipped:
		return status.StatusSkip
	default:
		return status.StatusError
	}
}

func failed(path, msg, trace string) Outcome {
	return Outcome{Path: path, Kind: Failed, Message: singleLine(msg), Trace: trace}
}

// 🔄 process runs one file through read, transform, classify and persist.
// It never returns an error: every failure is an outcome.
func (w *Worker) process(ctx context.Context, rep *status.Reporter, p parser.Parser, path string, opts transform.Options) Outcome {
	logger := zerolog.Ctx(ctx).With().Str("file", path).Logger()

	source, err := w.files.ReadFile(ctx, path)
	if err != nil {
		logger.Debug().Err(err).Msg("read failed")
		return failed(path, "File error: "+err.Error(), "")
	}

	req := transform.Request{Path: path, Source: source}
	api := w.api(ctx, rep, p, path, opts.Dry())

	out, err := w.invoke(ctx, req, api, opts)
	if err != nil {
		logger.Debug().Err(err).Msg("transform failed")
		return failed(path, "Transformation error ("+err.Error()+")", trimTrace(err))
	}

	switch {
	case out == "":
		return Outcome{Path: path, Kind: Skipped}
	case out == source:
		return Outcome{Path: path, Kind: Unchanged}
	}

	if opts.Print() {
		w.echo(out)
	}

	if !opts.Dry() {
		if err := w.files.WriteFileAtomic(ctx, path, out); err != nil {
			logger.Debug().Err(err).Msg("write failed")
			return failed(path, "File writer error: "+err.Error(), "")
		}
	}

	return Outcome{Path: path, Kind: Written}
}

// api builds the capabilities of one invocation. Stats only reports during dry runs.
func (w *Worker) api(ctx context.Context, rep *status.Reporter, p parser.Parser, path string, dry bool) transform.API {
	logger := zerolog.Ctx(ctx)

	api := transform.API{
		Parser: p,
		Report: func(msg string) {
			if err := rep.Report(ctx, path, msg); err != nil {
				logger.Warn().Err(err).Str("file", path).Msg("sending report")
			}
		},
		Stats: func(string, ...int) {},
	}

	if dry {
		api.Stats = func(name string, quantity ...int) {
			n := 1
			if len(quantity) > 0 {
				n = quantity[0]
			}
			if err := rep.Stats(ctx, name, n); err != nil {
				logger.Warn().Err(err).Str("stat", name).Msg("sending stats")
			}
		}
	}

	return api
}

// invoke calls the transform, turning a panic into an error.
func (w *Worker) invoke(ctx context.Context, req transform.Request, api transform.API, opts transform.Options) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r, stack: debug.Stack()}
		}
	}()

	out, err = w.module.Func(ctx, req, api, opts)
	if err != nil {
		return "", fault.Mark(fault.ErrTransform, err)
	}
	return out, nil
}

func (w *Worker) echo(out string) {
	w.printMu.Lock()
	defer w.printMu.Unlock()
	fmt.Fprintln(w.stdout, out)
}

// panicError carries a recovered panic and the stack it unwound.
type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	if err, ok := e.value.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(e.value)
}

func (e *panicError) Unwrap() error {
	return fault.ErrTransform
}

type stackTracer interface {
	StackTrace() []uintptr
}

// 🧹 trimTrace renders the stack recorded with err, minus every frame in this file
func trimTrace(err error) string {
	var perr *panicError
	if errors.As(err, &perr) {
		return trimPanicStack(string(perr.stack))
	}

	var st stackTracer
	if !errors.As(err, &st) {
		return ""
	}

	var lines []string
	frames := runtime.CallersFrames(st.StackTrace())
	for {
		frame, more := frames.Next()
		if frame.File != pipelineFile && frame.Function != "" {
			lines = append(lines, fmt.Sprintf("%s\n\t%s:%d", frame.Function, frame.File, frame.Line))
		}
		if !more {
			break
		}
	}
	return strings.Join(lines, "\n")
}

// trimPanicStack filters debug.Stack output. Frames come in pairs: the
// function line, then a tab indented location line.
func trimPanicStack(stack string) string {
	lines := strings.Split(strings.TrimRight(stack, "\n"), "\n")
	if len(lines) > 0 && strings.HasPrefix(lines[0], "goroutine ") {
		lines = lines[1:]
	}

	var out []string
	for i := 0; i < len(lines); i += 2 {
		fn := lines[i]
		loc := ""
		if i+1 < len(lines) {
			loc = lines[i+1]
		}
		if strings.Contains(loc, pipelineFile+":") || strings.HasPrefix(fn, "runtime/debug.Stack") {
			continue
		}
		out = append(out, fn)
		if loc != "" {
			out = append(out, loc)
		}
	}
	return strings.Join(out, "\n")
}

// singleLine collapses line breaks so a status stays on one line.
func singleLine(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", " ")
	return strings.ReplaceAll(msg, "\n", " ")
}
