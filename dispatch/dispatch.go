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

// Package dispatch resolves an operator's (channel, action,
// representation) request into the bytes for the relay board.
package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abates/relay"
	"github.com/abates/relay/codec"
	"github.com/abates/relay/settings"
)

// Outcome is the result of a single Dispatch.  Exactly one of Err or
// Bytes is meaningful; an Outcome with neither means the slot is unset.
type Outcome struct {
	Channel        relay.Channel
	Action         relay.Action
	Representation relay.Representation

	// Templates holds the slot text that was encoded, one entry per key
	Templates []string

	// Display is the template text as shown to the operator
	Display string

	Bytes []byte

	// Hex is Bytes rendered as 0xHH tokens
	Hex string

	Err error
}

// Empty reports whether the command resolved to zero bytes.  The
// caller should warn the operator instead of writing.
func (o Outcome) Empty() bool {
	return o.Err == nil && len(o.Bytes) == 0
}

// Button names the control that produced the outcome, for example
// "Channel 1 - Toggle - HEX"
func (o Outcome) Button() string {
	return fmt.Sprintf("Channel %d - %s - %s", o.Channel, o.Action.Title(), o.Representation.Label())
}

func (o Outcome) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Button [%s] clicked", o.Button())
	if o.Display != "" {
		fmt.Fprintf(&b, " - Data: %s", o.Display)
		if len(o.Bytes) > 0 {
			fmt.Fprintf(&b, " - Bytes: %s", o.Hex)
		}
	}

	if o.Err != nil {
		fmt.Fprintf(&b, " - Error: %v", o.Err)
	}
	return b.String()
}

// Dispatcher looks up slot templates and encodes them.  It holds no
// state of its own between calls and never touches the transport.
type Dispatcher struct {
	store settings.Getter
}

// New returns a Dispatcher reading templates from store
func New(store settings.Getter) *Dispatcher {
	return &Dispatcher{store: store}
}

// Dispatch resolves the slot(s) for the request and encodes them
func (d *Dispatcher) Dispatch(channel relay.Channel, action relay.Action, repr relay.Representation) Outcome {
	o := Outcome{Channel: channel, Action: action, Representation: repr}

	if !channel.Valid() {
		o.Err = fmt.Errorf("%w: %d", relay.ErrInvalidChannel, channel)
		return o
	}

	if !action.Valid() {
		o.Err = fmt.Errorf("%w: %q", relay.ErrInvalidAction, action)
		return o
	}

	for _, key := range relay.SlotKeys(channel, action, repr) {
		o.Templates = append(o.Templates, d.store.Get(key))
	}

	var primary, secondary string
	if repr == relay.FloatPair {
		primary, secondary = o.Templates[0], o.Templates[1]
		o.Display = fmt.Sprintf("Float1: %s, Float2: %s", primary, secondary)
	} else {
		primary = o.Templates[0]
		o.Display = primary
	}

	buf, err := codec.Encode(repr, primary, secondary)
	if err != nil {
		relay.Log.Infof("Error converting %s data for %s: %v", repr, o.Button(), err)
		o.Err = err
		return o
	}

	o.Bytes = buf
	o.Hex = codec.HexString(buf)
	relay.Log.Debugf("Command: %s Display: %s Bytes: %s", o.Button(), o.Display, o.Hex)
	return o
}

// Deliver applies the operator facing send policy to an Outcome:
// encoding failures are returned as is, nothing is written to a closed
// transport, and an empty command is reported with relay.ErrNothingToSend
// rather than written as zero bytes.
func Deliver(o Outcome, t relay.Transport) error {
	if o.Err != nil {
		return o.Err
	}

	if !t.IsOpen() {
		return relay.ErrPortClosed
	}

	if o.Empty() {
		return relay.ErrNothingToSend
	}

	err := t.Write(o.Bytes)
	if err != nil {
		if !errors.Is(err, relay.ErrTransport) {
			err = fmt.Errorf("%w: %v", relay.ErrTransport, err)
		}
		relay.Log.Infof("Error sending data: %v", err)
		return err
	}

	relay.Log.Infof("Sent %d bytes to serial port", len(o.Bytes))
	return nil
}
