// Copyright 2018 Andrew Bates
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package relay

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"runtime"
)

var (
	ErrMalformedHex          = errors.New("malformed hex")
	ErrMalformedBinary       = errors.New("malformed binary")
	ErrMalformedFloat        = errors.New("malformed float")
	ErrMissingFloat          = errors.New("both float values must be set")
	ErrUnknownRepresentation = errors.New("unknown representation")

	ErrPersistenceRead  = errors.New("failed to read settings")
	ErrPersistenceWrite = errors.New("failed to write settings")

	ErrTransport     = errors.New("transport error")
	ErrPortClosed    = errors.New("serial port is not open")
	ErrNothingToSend = errors.New("no data to send, configure the command settings")

	ErrUnknownKey     = errors.New("unknown settings key")
	ErrUnstorableText = errors.New("text contains characters the settings document cannot hold")
	ErrInvalidChannel = errors.New("channel must be 1 or 2")
	ErrInvalidAction  = errors.New("action must be one of momentary, open, close or toggle")
)

// EncodingError is returned by the codec when a template cannot be
// turned into bytes.  Cause is one of the ErrMalformed* sentinels,
// ErrMissingFloat or ErrUnknownRepresentation.
type EncodingError struct {
	Representation Representation
	Input          string
	Cause          error
}

func (e *EncodingError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("%s: %v", e.Representation, e.Cause)
	}
	return fmt.Sprintf("%s %q: %v", e.Representation, e.Input, e.Cause)
}

func (e *EncodingError) Unwrap() error { return e.Cause }

// Error records the frame that produced Cause
type Error struct {
	Cause error
	Frame runtime.Frame
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d in %q: %s", path.Base(e.Frame.File), e.Frame.Line, e.Frame.Function, e.Cause.Error())
}

func (e *Error) Unwrap() error { return e.Cause }

// TraceError wraps cause with the caller's frame
func TraceError(cause error) error {
	if cause == nil {
		return nil
	}
	pc := make([]uintptr, 10)
	runtime.Callers(2, pc)
	frames := runtime.CallersFrames(pc)
	frame, _ := frames.Next()

	return &Error{
		Cause: cause,
		Frame: frame,
	}
}

// AggregateError collects several independent failures, such as one
// per invalid slot in a settings batch
type AggregateError struct {
	Errors []error
}

func NewAggregateError() *AggregateError {
	return &AggregateError{}
}

func (ae *AggregateError) Len() int {
	return len(ae.Errors)
}

func (ae *AggregateError) Append(err error) {
	if err != nil {
		ae.Errors = append(ae.Errors, err)
	}
}

// Err returns nil when nothing was appended
func (ae *AggregateError) Err() error {
	if ae.Len() == 0 {
		return nil
	}
	return ae
}

func (ae *AggregateError) Error() string {
	var buf bytes.Buffer
	for _, err := range ae.Errors {
		buf.WriteString(fmt.Sprintf("%s\n", err.Error()))
	}
	return buf.String()
}

// Is reports whether any collected error matches target
func (ae *AggregateError) Is(target error) bool {
	for _, err := range ae.Errors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
