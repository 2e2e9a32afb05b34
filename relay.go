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

// Package relay models the command slots of a two channel serial relay
// board. Each slot holds an operator supplied text template that the
// codec package turns into the bytes written to the board.
package relay

import (
	"fmt"
	"strconv"
	"strings"
)

// Channel is one of the two relay outputs
type Channel int

const (
	Channel1 Channel = 1
	Channel2 Channel = 2
)

func (c Channel) String() string { return strconv.Itoa(int(c)) }

// Valid reports whether c is one of the board's channels
func (c Channel) Valid() bool { return c == Channel1 || c == Channel2 }

// Set satisfies the pflag.Value interface
func (c *Channel) Set(str string) (err error) {
	*c, err = ParseChannel(str)
	return err
}

// Type satisfies the pflag.Value interface
func (c *Channel) Type() string { return "channel" }

// ParseChannel parses "1", "2", "ch1" or "ch2"
func ParseChannel(str string) (Channel, error) {
	str = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(str)), "ch")
	n, err := strconv.Atoi(str)
	if err != nil || !Channel(n).Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidChannel, str)
	}
	return Channel(n), nil
}

// Action is an operator triggerable relay behavior
type Action string

const (
	Momentary Action = "momentary"
	Open      Action = "open"
	Close     Action = "close"
	Toggle    Action = "toggle"
)

func (a Action) String() string { return string(a) }

// Title is the capitalized action name used in operator facing traces
func (a Action) Title() string {
	if a == "" {
		return ""
	}
	return strings.ToUpper(string(a[:1])) + string(a[1:])
}

// Valid reports whether a is one of the four known actions
func (a Action) Valid() bool {
	switch a {
	case Momentary, Open, Close, Toggle:
		return true
	}
	return false
}

// Set satisfies the pflag.Value interface
func (a *Action) Set(str string) (err error) {
	*a, err = ParseAction(str)
	return err
}

// Type satisfies the pflag.Value interface
func (a *Action) Type() string { return "action" }

// ParseAction parses an action name, ignoring case
func ParseAction(str string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(str)))
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, str)
	}
	return a, nil
}

// Representation selects how a slot's text is turned into bytes
type Representation string

const (
	Hex       Representation = "hex"
	Binary    Representation = "binary"
	FloatPair Representation = "float"
)

func (r Representation) String() string { return string(r) }

// Label is the upper case name shown to operators (HEX, BINARY, 32 BIT FLOAT)
func (r Representation) Label() string {
	if r == FloatPair {
		return "32 BIT FLOAT"
	}
	return strings.ToUpper(string(r))
}

// Set satisfies the pflag.Value interface
func (r *Representation) Set(str string) (err error) {
	*r, err = ParseRepresentation(str)
	return err
}

// Type satisfies the pflag.Value interface
func (r *Representation) Type() string { return "representation" }

// ParseRepresentation accepts hex, binary and the float pair aliases
// float, float-pair, c_float and "32 bit float"
func ParseRepresentation(str string) (Representation, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "hex":
		return Hex, nil
	case "binary", "bin":
		return Binary, nil
	case "float", "float-pair", "floatpair", "c_float", "32 bit float":
		return FloatPair, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRepresentation, str)
}

// FloatIndex addresses one of the two values of a float pair slot
type FloatIndex int

const (
	NoFloat FloatIndex = 0
	Float1  FloatIndex = 1
	Float2  FloatIndex = 2
)

// SlotKey identifies one configurable command template.  Float is only
// set when Representation is FloatPair.
type SlotKey struct {
	Channel        Channel
	Action         Action
	Representation Representation
	Float          FloatIndex
}

// Key is a convenience constructor for hex and binary slots
func Key(channel Channel, action Action, repr Representation) SlotKey {
	return SlotKey{Channel: channel, Action: action, Representation: repr}
}

// FloatKey is a convenience constructor for one half of a float pair slot
func FloatKey(channel Channel, action Action, index FloatIndex) SlotKey {
	return SlotKey{Channel: channel, Action: action, Representation: FloatPair, Float: index}
}

// String renders the key the way it appears in the settings editor:
// ch1_toggle_hex or ch1_toggle_c_float_2
func (k SlotKey) String() string {
	if k.Representation == FloatPair {
		return fmt.Sprintf("ch%d_%s_c_float_%d", k.Channel, k.Action, k.Float)
	}
	return fmt.Sprintf("ch%d_%s_%s", k.Channel, k.Action, k.Representation)
}

// Valid reports whether k is part of the slot enumeration
func (k SlotKey) Valid() bool {
	if !k.Channel.Valid() || !k.Action.Valid() {
		return false
	}
	switch k.Representation {
	case Hex, Binary:
		return k.Float == NoFloat
	case FloatPair:
		return k.Float == Float1 || k.Float == Float2
	}
	return false
}

// MarshalText satisfies encoding.TextMarshaler
func (k SlotKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText satisfies encoding.TextUnmarshaler
func (k *SlotKey) UnmarshalText(text []byte) (err error) {
	*k, err = ParseKey(string(text))
	return err
}

// ParseKey is the inverse of SlotKey.String
func ParseKey(str string) (SlotKey, error) {
	parts := strings.Split(strings.TrimSpace(str), "_")
	if len(parts) < 3 {
		return SlotKey{}, fmt.Errorf("%w: %q", ErrUnknownKey, str)
	}

	channel, err := ParseChannel(parts[0])
	if err != nil {
		return SlotKey{}, fmt.Errorf("%w: %q", ErrUnknownKey, str)
	}

	action, err := ParseAction(parts[1])
	if err != nil {
		return SlotKey{}, fmt.Errorf("%w: %q", ErrUnknownKey, str)
	}

	key := SlotKey{Channel: channel, Action: action}
	switch {
	case len(parts) == 3 && (parts[2] == string(Hex) || parts[2] == string(Binary)):
		key.Representation = Representation(parts[2])
	case len(parts) == 5 && parts[2] == "c" && parts[3] == "float":
		key.Representation = FloatPair
		n, _ := strconv.Atoi(parts[4])
		key.Float = FloatIndex(n)
	}

	if !key.Valid() {
		return SlotKey{}, fmt.Errorf("%w: %q", ErrUnknownKey, str)
	}
	return key, nil
}

// Channels lists the board's channels in display order
func Channels() []Channel { return []Channel{Channel1, Channel2} }

// Actions lists the actions in display order
func Actions() []Action { return []Action{Momentary, Open, Close, Toggle} }

// Representations lists the encodings in display order
func Representations() []Representation { return []Representation{Hex, Binary, FloatPair} }

// SlotKeys returns the keys backing one (channel, action, representation)
// command.  A float pair is backed by two keys, everything else by one.
func SlotKeys(channel Channel, action Action, repr Representation) []SlotKey {
	if repr == FloatPair {
		return []SlotKey{FloatKey(channel, action, Float1), FloatKey(channel, action, Float2)}
	}
	return []SlotKey{Key(channel, action, repr)}
}

// Keys returns every slot key in document order
func Keys() []SlotKey {
	keys := make([]SlotKey, 0, 32)
	for _, channel := range Channels() {
		for _, action := range Actions() {
			for _, repr := range Representations() {
				keys = append(keys, SlotKeys(channel, action, repr)...)
			}
		}
	}
	return keys
}
