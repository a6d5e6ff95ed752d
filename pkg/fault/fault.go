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

// Package fault classifies the errors a worker can run into.
package fault

import (
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrIO marks a read or write failure on a single file.
	ErrIO = errors.Base("io error")
	// ErrTransform marks an error raised by a user transform.
	ErrTransform = errors.Base("transform error")
	// ErrConfiguration marks a bad parser name or an unresolvable transform.
	ErrConfiguration = errors.Base("configuration error")
	// ErrProtocol marks a malformed inbound message.
	ErrProtocol = errors.Base("protocol error")
)

// 🏷️ Kind is the short name of an error class, as shown to users
type Kind string

const (
	KindUnknown       Kind = "unknown"
	KindIO            Kind = "io"
	KindTransform     Kind = "transform"
	KindConfiguration Kind = "configuration"
	KindProtocol      Kind = "protocol"
)

// kindError attaches a class to an error without changing its message.
type kindError struct {
	kind error
	err  error
}

func (e *kindError) Error() string {
	return e.err.Error()
}

func (e *kindError) Unwrap() []error {
	return []error{e.err, e.kind}
}

// 🏷️ Mark tags err with one of the sentinel classes above
func Mark(kind error, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kind) {
		return err
	}
	return &kindError{kind: kind, err: err}
}

// Configurationf builds a configuration error with a recorded stack.
func Configurationf(format string, args ...interface{}) error {
	return Mark(ErrConfiguration, errors.Errorf(format, args...))
}

// Protocolf builds a protocol error with a recorded stack.
func Protocolf(format string, args ...interface{}) error {
	return Mark(ErrProtocol, errors.Errorf(format, args...))
}

// 🔍 Classify returns the class of err
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrProtocol):
		return KindProtocol
	case errors.Is(err, ErrTransform):
		return KindTransform
	case errors.Is(err, ErrIO):
		return KindIO
	default:
		return KindUnknown
	}
}

// IsFatal reports whether err should abort a whole batch instead of a single file.
func IsFatal(err error) bool {
	switch Classify(err) {
	case KindConfiguration, KindProtocol:
		return true
	default:
		return false
	}
}
