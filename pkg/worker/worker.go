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

// Package worker runs a transform over batches of files and reports every
// file's outcome to a controller.
package worker

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ElonVolo/evcodeshift/pkg/fault"
	"github.com/ElonVolo/evcodeshift/pkg/files"
	"github.com/ElonVolo/evcodeshift/pkg/loader"
	"github.com/ElonVolo/evcodeshift/pkg/parser"
	"github.com/ElonVolo/evcodeshift/pkg/rules"
	"github.com/ElonVolo/evcodeshift/pkg/status"
	"github.com/ElonVolo/evcodeshift/pkg/transform"
)

// maxInFlight caps the files of one batch processed at the same time.
const maxInFlight = 16

// machineryMessage is reported when the batch machinery itself fails.
const machineryMessage = "This should never be shown!"

// 📦 Batch is one unit of work sent by a controller
type Batch struct {
	ID      string            `json:"id,omitempty"`
	Files   []string          `json:"files"`
	Options transform.Options `json:"options,omitempty"`
}

// ⚙️ Options configure a worker at construction
type Options struct {
	// Transform identifies the transform: a built-in name, an executable or a rule file
	Transform string
	// Dialect is the loader dialect of Transform
	Dialect string
	// Module is an already loaded transform; it wins over Transform
	Module *transform.Module
	// Sink receives every event; required
	Sink status.Sink
	// Stdout receives printed sources, os.Stdout by default
	Stdout io.Writer
	// Files reads and writes sources, the os by default
	Files files.FileManager
	// Hook compiles rule files, a fresh hook by default
	Hook *rules.Hook
}

// 👷 Worker owns a loaded transform and its parser preference.
//
// All state lives on the instance: two workers in the same process share
// nothing.
type Worker struct {
	module   *transform.Module
	resolver *parser.Resolver
	hook     *rules.Hook
	sink     status.Sink
	files    files.FileManager

	printMu sync.Mutex
	stdout  io.Writer

	inflight sync.WaitGroup
}

// 🏗️ New loads the transform and resolves its parser preference. Any error
// is a configuration error and leaves no usable worker.
func New(ctx context.Context, opts Options) (*Worker, error) {
	if opts.Sink == nil {
		return nil, fault.Configurationf("worker needs an event sink")
	}

	w := &Worker{
		hook:   opts.Hook,
		sink:   opts.Sink,
		files:  opts.Files,
		stdout: opts.Stdout,
		module: opts.Module,
	}
	if w.hook == nil {
		w.hook = rules.NewHook()
	}
	if w.files == nil {
		w.files = files.NewManager()
	}
	if w.stdout == nil {
		w.stdout = os.Stdout
	}

	if w.module == nil {
		mod, err := loader.Load(ctx, opts.Transform, opts.Dialect, w.hook)
		if err != nil {
			return nil, err
		}
		w.module = mod
	} else if err := w.module.Validate(); err != nil {
		return nil, err
	}

	resolver, err := parser.NewResolver(w.module.ParserName, w.module.Parser)
	if err != nil {
		return nil, errors.Errorf("resolving parser of %s: %w", w.module.Name, err)
	}
	w.resolver = resolver

	return w, nil
}

// Module returns the loaded transform.
func (w *Worker) Module() *transform.Module {
	return w.module
}

// 🏃 Run processes one batch and always ends it with a free event. Per file
// failures become error statuses; the returned error only reports a sink
// that could not deliver the free event.
func (w *Worker) Run(ctx context.Context, batch Batch) error {
	logger := zerolog.Ctx(ctx).With().Str("batch", batch.ID).Int("files", len(batch.Files)).Logger()
	ctx = logger.WithContext(ctx)
	rep := status.NewReporter(w.sink, batch.ID)

	if len(batch.Files) == 0 {
		logger.Debug().Msg("empty batch")
		return rep.Free(ctx)
	}

	p, err := w.resolver.Prepare(batch.Options.Parser(), parser.Config(batch.Options.ParserConfig()))
	if err != nil {
		logger.Error().Err(err).Msg("preparing parser")
		w.fatal(ctx, rep, err)
		return rep.Free(ctx)
	}

	var g errgroup.Group
	g.SetLimit(maxInFlight)

	for _, path := range batch.Files {
		path := path
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = errors.Errorf("processing %s: panic: %v", path, r)
				}
			}()

			out := w.process(ctx, rep, p, path, batch.Options)
			if err := rep.Status(ctx, out.Status(), out.Path, out.Message, out.Trace); err != nil {
				return errors.Errorf("reporting %s: %w", path, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("batch machinery failed")
		if err := rep.Status(ctx, status.StatusError, "", machineryMessage, ""); err != nil {
			logger.Error().Err(err).Msg("reporting machinery failure")
		}
	}

	logger.Debug().Msg("batch done")
	return rep.Free(ctx)
}

// fatal reports an error that stops a whole batch before any file ran.
func (w *Worker) fatal(ctx context.Context, rep *status.Reporter, err error) {
	if serr := rep.Status(ctx, status.StatusError, "", fatalMessage(err), ""); serr != nil {
		zerolog.Ctx(ctx).Error().Err(serr).Msg("reporting fatal error")
	}
}

// 📨 HandleMessage decodes one inbound message and runs it. A malformed
// message is answered with an error status and a free event; the worker
// stays usable.
func (w *Worker) HandleMessage(ctx context.Context, raw []byte) error {
	var batch Batch
	err := json.Unmarshal(raw, &batch)
	if err == nil && batch.Files == nil {
		err = errors.New(`missing "files"`)
	}
	if err != nil {
		perr := fault.Protocolf("decoding message: %w", err)
		rep := status.NewReporter(w.sink, batch.ID)
		w.fatal(ctx, rep, perr)
		if ferr := rep.Free(ctx); ferr != nil {
			return errors.Errorf("freeing after protocol error: %w", ferr)
		}
		return perr
	}
	return w.Run(ctx, batch)
}

// 🔌 Serve reads messages from r until it is closed or ctx is done. Batches
// already started are allowed to finish before Serve returns.
func (w *Worker) Serve(ctx context.Context, r io.Reader) error {
	logger := zerolog.Ctx(ctx)
	runCtx := context.WithoutCancel(ctx)

	type message struct {
		raw []byte
		err error
	}
	messages := make(chan message)
	go func() {
		defer close(messages)
		dec := status.NewDecoder(r)
		for {
			raw, err := dec.Next()
			select {
			case messages <- message{raw: raw, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	var serveErr error
loop:
	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("worker cancelled")
			break loop
		case msg, ok := <-messages:
			if !ok {
				break loop
			}
			if msg.err == io.EOF {
				logger.Debug().Msg("controller disconnected")
				break loop
			}
			if msg.err != nil {
				serveErr = errors.Errorf("reading messages: %w", msg.err)
				break loop
			}

			w.inflight.Add(1)
			go func(raw []byte) {
				defer w.inflight.Done()
				if err := w.HandleMessage(runCtx, raw); err != nil {
					logger.Warn().Err(err).Msg("handling message")
				}
			}(msg.raw)
		}
	}

	w.Wait()
	return serveErr
}

// Wait blocks until every batch started by Serve has sent its free event.
func (w *Worker) Wait() {
	w.inflight.Wait()
}

// 🔌 Standalone is the body of a worker process: build the worker, then
// serve messages from in until it is closed. A worker that cannot be built
// reports one fatal status on opts.Sink and the error is returned.
func Standalone(ctx context.Context, opts Options, in io.Reader) error {
	w, err := New(ctx, opts)
	if err != nil {
		if opts.Sink != nil {
			if rerr := ReportFatal(ctx, opts.Sink, err); rerr != nil {
				zerolog.Ctx(ctx).Error().Err(rerr).Msg("reporting fatal error")
			}
		}
		return err
	}
	return w.Serve(ctx, in)
}

// 💥 ReportFatal tells the controller that a worker could not be built. It
// sends a single error status and nothing else.
func ReportFatal(ctx context.Context, sink status.Sink, err error) error {
	return status.NewReporter(sink, "").Status(ctx, status.StatusError, "", fatalMessage(err), "")
}

func fatalMessage(err error) string {
	var label string
	switch fault.Classify(err) {
	case fault.KindConfiguration:
		label = "Configuration error"
	case fault.KindProtocol:
		label = "Protocol error"
	default:
		label = "Error"
	}
	return label + " (" + singleLine(err.Error()) + ")"
}
