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
	"errors"
	"reflect"
	"testing"

	"github.com/abates/relay"
)

func TestValidate(t *testing.T) {
	closeF2 := relay.FloatKey(relay.Channel1, relay.Close, relay.Float2)

	tests := []struct {
		name    string
		input   Values
		wantErr error
		wantLen int
	}{
		{"defaults", Defaults(), nil, 0},
		{"hex is not checked", Values{toggleHex: "zz"}, nil, 0},
		{"valid floats", Values{closeF1: "1.5", closeF2: "0x3F800000"}, nil, 0},
		{"one bad float", Values{closeF1: "abc", closeF2: "2"}, relay.ErrMalformedFloat, 1},
		{"two bad floats", Values{closeF1: "abc", closeF2: "(1)"}, relay.ErrMalformedFloat, 2},
		{"unknown key", Values{relay.SlotKey{Channel: 5}: "1"}, relay.ErrUnknownKey, 1},
		{"control character", Values{toggleHex: "a\x01b", closeF1: "1"}, relay.ErrUnstorableText, 1},
		{"invalid utf8 float", Values{closeF1: "1\xff"}, relay.ErrUnstorableText, 1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := Validate(test.input)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("Wanted error %v got %v", test.wantErr, err)
			}

			if err != nil {
				ae, ok := err.(*relay.AggregateError)
				if !ok {
					t.Fatalf("Wanted *relay.AggregateError got %T", err)
				}

				if ae.Len() != test.wantLen {
					t.Errorf("Wanted %d errors got %d", test.wantLen, ae.Len())
				}
			}
		})
	}
}

func TestParseAssignments(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    Values
		wantErr error
	}{
		{"one", []string{"ch1_toggle_hex=55 56"}, Values{toggleHex: "55 56"}, nil},
		{"clear", []string{"ch1_toggle_hex="}, Values{toggleHex: ""}, nil},
		{"value with equals", []string{"ch2_open_binary=a=b"}, Values{openBin: "a=b"}, nil},
		{"float", []string{"ch1_close_c_float_1=1.0"}, Values{closeF1: "1.0"}, nil},
		{"unknown key", []string{"ch3_toggle_hex=55"}, nil, relay.ErrUnknownKey},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ParseAssignments(test.input)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("Wanted error %v got %v", test.wantErr, err)
			}

			if err == nil && !reflect.DeepEqual(test.want, got) {
				t.Errorf("Wanted %v got %v", test.want, got)
			}
		})
	}

	if _, err := ParseAssignments([]string{"ch1_toggle_hex"}); err == nil {
		t.Errorf("Wanted error for missing '='")
	}
}
