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

// Package controller splits a run into batches, feeds them to workers and
// aggregates what the workers report.
package controller

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ElonVolo/evcodeshift/pkg/status"
	"github.com/ElonVolo/evcodeshift/pkg/transform"
	"github.com/ElonVolo/evcodeshift/pkg/worker"
)

// ⚙️ Options configure a run
type Options struct {
	// Transform and Dialect are handed to every worker
	Transform string
	Dialect   string
	// Workers is the number of workers, at least one
	Workers int
	// ChunkSize is the number of files per batch
	ChunkSize int
	// Batch options are sent with every batch
	Batch transform.Options
	// InProcess embeds workers instead of spawning processes
	InProcess bool
	// Executable runs worker processes, the current binary by default
	Executable string
	// Stdout receives the workers' printed sources
	Stdout io.Writer
	// OnEvent sees every event; calls are serialized
	OnEvent func(status.Event)
}

// 🎛️ Controller drives workers over a list of files
type Controller struct {
	opts Options

	mu      sync.Mutex
	summary status.Summary
}

// New creates a controller.
func New(opts Options) *Controller {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	return &Controller{opts: opts}
}

func (c *Controller) handle(ev status.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary.Add(ev)
	if c.opts.OnEvent != nil {
		c.opts.OnEvent(ev)
	}
}

// 🏃 Run processes files and returns the aggregated counts. Per file
// failures only show up in the summary; an error means a worker could not
// be started or died.
func (c *Controller) Run(ctx context.Context, files []string) (status.Summary, error) {
	start := time.Now()
	logger := zerolog.Ctx(ctx)

	chunks := Chunk(files, c.opts.ChunkSize)
	batches := make(chan worker.Batch, len(chunks))
	for _, chunk := range chunks {
		batches <- worker.Batch{
			ID:      uuid.NewString(),
			Files:   chunk,
			Options: c.opts.Batch,
		}
	}
	close(batches)

	n := min(c.opts.Workers, len(chunks))
	logger.Debug().Int("files", len(files)).Int("batches", len(chunks)).Int("workers", n).Msg("starting workers")

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			return c.drive(gctx, i, batches)
		})
	}
	err := g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary.Elapsed = time.Since(start)
	return c.summary, err
}

// drive starts one worker and keeps it busy until no batch is left.
func (c *Controller) drive(ctx context.Context, id int, batches <-chan worker.Batch) (err error) {
	logger := zerolog.Ctx(ctx).With().Int("worker", id).Logger()
	ctx = logger.WithContext(ctx)

	var cl client
	if c.opts.InProcess {
		cl, err = newInProcess(ctx, c.opts, c.handle)
	} else {
		cl, err = newProcess(ctx, c.opts, c.handle)
	}
	if err != nil {
		return errors.Errorf("starting worker %d: %w", id, err)
	}
	defer func() {
		if cerr := cl.Close(); cerr != nil && err == nil {
			err = errors.Errorf("closing worker %d: %w", id, cerr)
		}
	}()

	for batch := range batches {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Debug().Str("batch", batch.ID).Int("files", len(batch.Files)).Msg("sending batch")
		if err := cl.Send(ctx, batch); err != nil {
			return errors.Errorf("worker %d: %w", id, err)
		}
	}
	return nil
}
