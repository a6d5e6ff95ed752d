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
	"bytes"
	"encoding/json"
)

// 📨 Action names the kind of an event sent from a worker to its controller
type Action string

const (
	ActionStatus Action = "status" // terminal outcome of one file
	ActionReport Action = "report" // message from the transform about one file
	ActionUpdate Action = "update" // dry run statistic
	ActionFree   Action = "free"   // the batch is done, send more work
)

// 📊 Status is the terminal outcome of one file, as seen on the wire
type Status string

const (
	StatusOK       Status = "ok"
	StatusNoChange Status = "nochange"
	StatusSkip     Status = "skip"
	StatusError    Status = "error"
)

// String returns the wire value
func (s Status) String() string {
	return string(s)
}

// 📦 Event is one unit of the worker to controller protocol.
//
// For a given file a worker sends zero or more report/update events and then
// exactly one status event. A free event closes the batch.
type Event struct {
	Action   Action `json:"action"`
	Batch    string `json:"batch,omitempty"`
	Status   Status `json:"status,omitempty"`
	File     string `json:"file,omitempty"`
	Msg      string `json:"msg,omitempty"`
	Trace    string `json:"trace,omitempty"`
	Name     string `json:"name,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
}

// IsTerminal reports whether the event ends the processing of one file.
func (e Event) IsTerminal() bool {
	return e.Action == ActionStatus
}

// MarshalJSON always writes quantity on update events, zero included.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	var v any = plain(e)
	if e.Action == ActionUpdate {
		v = struct {
			plain
			Quantity int `json:"quantity"`
		}{plain(e), e.Quantity}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
