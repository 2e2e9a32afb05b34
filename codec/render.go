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

package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/abates/relay"
)

func hexDump(format string, buf []byte, sep string) string {
	str := make([]string, len(buf))
	for i, b := range buf {
		str[i] = fmt.Sprintf(format, b)
	}
	return strings.Join(str, sep)
}

// HexString renders buf as space separated 0xHH tokens, the form shown
// to the operator after a command is resolved.  The result can be fed
// back into Hex.
func HexString(buf []byte) string {
	return hexDump("0x%02X", buf, " ")
}

// Dump renders buf as space separated lower case hex pairs for logging
func Dump(buf []byte) string {
	return hexDump("%02x", buf, " ")
}

// DecodeFloatPair splits an 8 byte command into the two little endian
// floats that FloatPair would encode back into the same bytes.
func DecodeFloatPair(text string) (first, second float32, err error) {
	buf, err := Hex(text)
	if err == nil && len(buf) != 2*FloatSize {
		err = &relay.EncodingError{
			Representation: relay.Hex,
			Input:          text,
			Cause:          fmt.Errorf("%w: need %d bytes got %d", relay.ErrMalformedHex, 2*FloatSize, len(buf)),
		}
	}

	if err == nil {
		first = math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4]))
		second = math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8]))
	}
	return first, second, err
}

// BitPattern renders f as the 8 hex digit form accepted by FloatBits
func BitPattern(f float32) string {
	return fmt.Sprintf("%08X", math.Float32bits(f))
}
