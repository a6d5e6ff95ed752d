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

package status

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync"

	"gitlab.com/tozd/go/errors"
)

// ErrClosed is returned when sending on a disconnected sink.
var ErrClosed = errors.Base("sink closed")

// maxLine bounds one JSON line on the channel.
const maxLine = 16 * 1024 * 1024

// 📡 Sink carries events across the worker boundary. Implementations must be
// safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, ev Event) error
}

// 🔔 Emitter is the in-process transport: events are delivered synchronously
// to subscribers registered with On.
type Emitter struct {
	mu          sync.RWMutex
	handlers    []func(Event)
	disconnects []func()
	closed      bool
}

var _ Sink = (*Emitter)(nil)

// NewEmitter creates an emitter with no subscribers.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// On subscribes fn to every event.
func (e *Emitter) On(fn func(Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, fn)
}

// OnDisconnect subscribes fn to the disconnect notification.
func (e *Emitter) OnDisconnect(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disconnects = append(e.disconnects, fn)
}

func (e *Emitter) Send(ctx context.Context, ev Event) error {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return errors.Errorf("sending %s event: %w", ev.Action, ErrClosed)
	}
	handlers := append([]func(Event){}, e.handlers...)
	e.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
	return nil
}

// Disconnect closes the emitter and notifies disconnect subscribers once.
func (e *Emitter) Disconnect() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	fns := e.disconnects
	e.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// 🔌 Stream is the inter-process transport: newline delimited JSON on a
// writer, usually a pipe shared with the parent process.
type Stream struct {
	mu  sync.Mutex
	enc *json.Encoder
}

var _ Sink = (*Stream)(nil)

// NewStream creates a stream writing to w.
func NewStream(w io.Writer) *Stream {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Stream{enc: enc}
}

func (s *Stream) Send(ctx context.Context, ev Event) error {
	return s.Encode(ev)
}

// Encode writes any value as one line. Controllers use it to send batches.
func (s *Stream) Encode(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(v); err != nil {
		return errors.Errorf("writing message: %w", err)
	}
	return nil
}

// 📥 Decoder reads newline delimited messages from the other side of a Stream.
type Decoder struct {
	scanner *bufio.Scanner
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	return &Decoder{scanner: scanner}
}

// Next returns the next non-empty line. It returns io.EOF once the writer is closed.
func (d *Decoder) Next() ([]byte, error) {
	for d.scanner.Scan() {
		line := d.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		out := make([]byte, len(line))
		copy(out, line)
		return out, nil
	}
	if err := d.scanner.Err(); err != nil {
		return nil, errors.Errorf("reading message: %w", err)
	}
	return nil, io.EOF
}

// NextEvent decodes the next line as an Event.
func (d *Decoder) NextEvent() (Event, error) {
	line, err := d.Next()
	if err != nil {
		return Event{}, err
	}
	var ev Event
	if err := json.Unmarshal(line, &ev); err != nil {
		return Event{}, errors.Errorf("decoding event: %w", err)
	}
	return ev, nil
}
