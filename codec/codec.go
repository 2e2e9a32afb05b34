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

// Package codec converts command slot text into the bytes written to
// the relay board.  All functions are pure; a failure never yields a
// partially filled buffer.
package codec

import (
	"encoding/binary"
	"encoding/hex"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/abates/relay"
)

// FloatSize is the number of bytes produced for each value of a float pair
const FloatSize = 4

var decimalFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

func encodingError(repr relay.Representation, input string, cause error) error {
	return &relay.EncodingError{Representation: repr, Input: input, Cause: cause}
}

// clean removes any literal 0x tokens and then whitespace.  The
// tokens go first so that "0 x12" is not joined into a prefix.
func clean(text string) string {
	text = strings.ReplaceAll(text, "0x", "")
	text = strings.ReplaceAll(text, "0X", "")
	return strings.Join(strings.Fields(text), "")
}

// Encode converts the text of a slot into bytes.  secondary is only
// consulted for the float pair representation.
func Encode(repr relay.Representation, primary, secondary string) ([]byte, error) {
	switch repr {
	case relay.Hex:
		return Hex(primary)
	case relay.Binary:
		return Binary(primary)
	case relay.FloatPair:
		return FloatPair(primary, secondary)
	}
	return nil, encodingError(repr, "", relay.ErrUnknownRepresentation)
}

// Hex decodes pairs of hex digits.  Whitespace and 0x tokens are
// ignored, so "0x55 0x56", "55 56" and "5556" are equivalent.  The upper
// case 0X form is stripped as well.  An empty string decodes to an
// empty slice.
func Hex(text string) ([]byte, error) {
	str := clean(text)
	buf, err := hex.DecodeString(str)
	if err != nil {
		return nil, encodingError(relay.Hex, text, relay.ErrMalformedHex)
	}
	return buf, nil
}

// Binary decodes consecutive groups of 8 binary digits, one byte per
// group.  A trailing group shorter than 8 digits is dropped.
func Binary(text string) ([]byte, error) {
	str := strings.Join(strings.Fields(text), "")
	buf := make([]byte, 0, len(str)/8)
	for i := 0; i+8 <= len(str); i += 8 {
		b, err := strconv.ParseUint(str[i:i+8], 2, 8)
		if err != nil {
			return nil, encodingError(relay.Binary, text, relay.ErrMalformedBinary)
		}
		buf = append(buf, byte(b))
	}
	return buf, nil
}

// FloatPair encodes two 32 bit floats, little endian, first followed
// by second.  Both values are required.
func FloatPair(first, second string) ([]byte, error) {
	if strings.TrimSpace(first) == "" || strings.TrimSpace(second) == "" {
		return nil, encodingError(relay.FloatPair, "", relay.ErrMissingFloat)
	}

	buf := make([]byte, 0, 2*FloatSize)
	for _, text := range []string{first, second} {
		bits, err := FloatBits(text)
		if err != nil {
			return nil, err
		}
		buf = binary.LittleEndian.AppendUint32(buf, bits)
	}
	return buf, nil
}

// FloatBits resolves one float pair value to its IEEE-754 bit pattern.
// Exactly 8 hex digits (after removing whitespace and 0x) are taken as
// the bit pattern itself, so "3F800000" and "1.0" agree.  Anything else
// must be a plain finite decimal literal.
func FloatBits(text string) (uint32, error) {
	if str := clean(text); len(str) == 8 {
		if bits, err := strconv.ParseUint(str, 16, 32); err == nil {
			return uint32(bits), nil
		}
	}

	str := strings.TrimSpace(text)
	if !decimalFloat.MatchString(str) {
		return 0, encodingError(relay.FloatPair, text, relay.ErrMalformedFloat)
	}

	f, err := strconv.ParseFloat(str, 32)
	if err != nil || math.IsInf(f, 0) {
		return 0, encodingError(relay.FloatPair, text, relay.ErrMalformedFloat)
	}
	return math.Float32bits(float32(f)), nil
}

// ValidateFloat reports whether text can be used as one value of a
// float pair.  Empty text is accepted as an unset slot.
func ValidateFloat(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	_, err := FloatBits(text)
	return err
}
