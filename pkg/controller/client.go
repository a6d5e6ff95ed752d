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

package controller

import (
	"context"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/ElonVolo/evcodeshift/pkg/fault"
	"github.com/ElonVolo/evcodeshift/pkg/status"
	"github.com/ElonVolo/evcodeshift/pkg/worker"
)

// 🔗 client is the controller side of one worker
type client interface {
	// Send hands a batch to the worker and blocks until its free event
	Send(ctx context.Context, batch worker.Batch) error
	// Close releases the worker once it has no more work
	Close() error
}

// inProcess embeds a worker, talking to it through an emitter.
type inProcess struct {
	w  *worker.Worker
	em *status.Emitter
}

func newInProcess(ctx context.Context, opts Options, onEvent func(status.Event)) (*inProcess, error) {
	em := status.NewEmitter()
	em.On(onEvent)

	w, err := worker.New(ctx, worker.Options{
		Transform: opts.Transform,
		Dialect:   opts.Dialect,
		Sink:      em,
		Stdout:    opts.Stdout,
	})
	if err != nil {
		if rerr := worker.ReportFatal(ctx, em, err); rerr != nil {
			zerolog.Ctx(ctx).Error().Err(rerr).Msg("reporting worker failure")
		}
		return nil, err
	}
	return &inProcess{w: w, em: em}, nil
}

func (c *inProcess) Send(ctx context.Context, batch worker.Batch) error {
	return c.w.Run(ctx, batch)
}

func (c *inProcess) Close() error {
	c.w.Wait()
	c.em.Disconnect()
	return nil
}

// eventsFD is the descriptor a worker process writes events to.
const eventsFD = 3

// process runs `evcodeshift worker <transform> <dialect>` and exchanges JSON
// lines with it: batches on its stdin, events on fd 3.
type process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	out    *status.Stream
	frees  chan string
	exited chan struct{}

	mu      sync.Mutex
	lastErr string
}

func newProcess(ctx context.Context, opts Options, onEvent func(status.Event)) (*process, error) {
	exe := opts.Executable
	if exe == "" {
		self, err := os.Executable()
		if err != nil {
			return nil, errors.Errorf("finding worker executable: %w", err)
		}
		exe = self
	}

	events, eventsW, err := os.Pipe()
	if err != nil {
		return nil, errors.Errorf("creating event pipe: %w", err)
	}

	cmd := exec.CommandContext(ctx, exe, "worker", opts.Transform, opts.Dialect)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{eventsW} // becomes fd 3

	stdin, err := cmd.StdinPipe()
	if err != nil {
		events.Close()
		eventsW.Close()
		return nil, errors.Errorf("opening worker stdin: %w", err)
	}

	if err := cmd.Start(); err != nil {
		events.Close()
		eventsW.Close()
		return nil, errors.Errorf("starting worker: %w", err)
	}
	eventsW.Close()

	p := &process{
		cmd:    cmd,
		stdin:  stdin,
		out:    status.NewStream(stdin),
		frees:  make(chan string, 1),
		exited: make(chan struct{}),
	}

	go p.read(ctx, events, onEvent)
	return p, nil
}

func (p *process) read(ctx context.Context, r io.ReadCloser, onEvent func(status.Event)) {
	defer close(p.exited)
	defer r.Close()

	dec := status.NewDecoder(r)
	for {
		ev, err := dec.NextEvent()
		if err == io.EOF {
			return
		}
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("reading worker events")
			continue
		}

		if ev.Action == status.ActionStatus && ev.Status == status.StatusError && ev.File == "" {
			p.mu.Lock()
			p.lastErr = ev.Msg
			p.mu.Unlock()
		}

		onEvent(ev)
		if ev.Action == status.ActionFree {
			p.frees <- ev.Batch
		}
	}
}

func (p *process) Send(ctx context.Context, batch worker.Batch) error {
	if err := p.out.Encode(batch); err != nil {
		// the worker is gone; let the reader drain what it said before exiting
		select {
		case <-p.exited:
		case <-ctx.Done():
		}
		return p.exitError(errors.Errorf("sending batch %s: %w", batch.ID, err))
	}

	for {
		select {
		case id := <-p.frees:
			if id == batch.ID {
				return nil
			}
		case <-p.exited:
			return p.exitError(errors.Errorf("worker exited during batch %s", batch.ID))
		case <-ctx.Done():
			return errors.Errorf("waiting for batch %s: %w", batch.ID, ctx.Err())
		}
	}
}

// exitError prefers the fatal message the worker reported before exiting.
func (p *process) exitError(err error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastErr != "" {
		return fault.Configurationf("worker failed: %s", p.lastErr)
	}
	return err
}

func (p *process) Close() error {
	p.stdin.Close()
	<-p.exited
	if err := p.cmd.Wait(); err != nil {
		return p.exitError(errors.Errorf("worker exited: %w", err))
	}
	return nil
}
