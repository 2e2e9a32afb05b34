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

package settings

import (
	"fmt"
	"sort"
	"strings"

	"github.com/abates/relay"
	"github.com/abates/relay/codec"
)

// Validate checks a batch before it is committed.  Every value must be
// storable in the settings document, and each non-empty float slot must
// be 8 hex digits or a decimal number.  All failures are reported
// together.
func Validate(values Values) error {
	ae := relay.NewAggregateError()
	for _, key := range sortedKeys(values) {
		if !key.Valid() {
			ae.Append(fmt.Errorf("%w: %v", relay.ErrUnknownKey, key))
			continue
		}

		if !storable(values[key]) {
			ae.Append(fmt.Errorf("%w: %v=%q", relay.ErrUnstorableText, key, values[key]))
			continue
		}

		if key.Representation != relay.FloatPair {
			continue
		}

		if err := codec.ValidateFloat(values[key]); err != nil {
			ae.Append(fmt.Errorf("invalid value for %v: %w (must be a valid float or 8-digit hex)", key, err))
		}
	}
	return ae.Err()
}

// ParseAssignments turns key=value arguments into a batch.  The value
// may be empty ("ch1_open_hex=") to clear a slot.
func ParseAssignments(args []string) (Values, error) {
	values := make(Values)
	for _, arg := range args {
		name, value, found := strings.Cut(arg, "=")
		if !found {
			return nil, fmt.Errorf("expected key=value got %q", arg)
		}

		key, err := relay.ParseKey(name)
		if err != nil {
			return nil, err
		}
		values[key] = value
	}
	return values, nil
}

func sortedKeys(values Values) []relay.SlotKey {
	order := make(map[relay.SlotKey]int)
	for i, key := range relay.Keys() {
		order[key] = i
	}

	keys := make([]relay.SlotKey, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		oi, iok := order[keys[i]]
		oj, jok := order[keys[j]]
		if iok && jok {
			return oi < oj
		}
		if iok != jok {
			return iok
		}
		return keys[i].String() < keys[j].String()
	})
	return keys
}
