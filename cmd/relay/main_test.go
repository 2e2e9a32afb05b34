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

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abates/relay"
	"github.com/abates/relay/settings"
	"github.com/tarm/serial"
)

func init() {
	relay.SetLogOutput(io.Discard)
}

type testDevice struct {
	bytes.Buffer
}

func (td *testDevice) Close() error { return nil }

type testEnv struct {
	dir    string
	device *testDevice
	opened *serial.Config
}

func newTestEnv(t *testing.T) *testEnv {
	return &testEnv{dir: t.TempDir(), device: &testDevice{}}
}

func writeScript(t *testing.T, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filename, []byte(content), 0755); err != nil {
		t.Fatalf("Unexpected error %v", err)
	}
}

func (env *testEnv) settingsFile() string {
	return filepath.Join(env.dir, "relay_settings.xml")
}

func (env *testEnv) app() *app {
	a := newApp()
	a.opener = func(config *serial.Config) (io.ReadWriteCloser, error) {
		c := *config
		env.opened = &c
		return env.device, nil
	}
	return a
}

func (env *testEnv) args(args ...string) []string {
	return append([]string{
		"--config", filepath.Join(env.dir, "missing.toml"),
		"--settings", env.settingsFile(),
	}, args...)
}

func (env *testEnv) run(args ...string) (string, error) {
	out := &bytes.Buffer{}
	err := env.app().execute(env.args(args...), out)
	return out.String(), err
}

func TestSendToggle(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.run("settings", "set", "ch1_toggle_hex=5556"); err != nil {
		t.Fatalf("Unexpected error %v", err)
	}

	out, err := env.run("--port", "/dev/ttyS3", "--baud", "19200", "send", "1", "toggle", "hex")
	if err != nil {
		t.Fatalf("Unexpected error %v", err)
	}

	want := "Button [Channel 1 - Toggle - HEX] clicked - Data: 5556 - Bytes: 0x55 0x56\n"
	if out != want {
		t.Errorf("Wanted output %q got %q", want, out)
	}

	if !bytes.Equal(env.device.Bytes(), []byte{0x55, 0x56}) {
		t.Errorf("Wanted bytes [55 56] got %v", env.device.Bytes())
	}

	if env.opened == nil || env.opened.Name != "/dev/ttyS3" || env.opened.Baud != 19200 {
		t.Errorf("Wanted port /dev/ttyS3 at 19200 got %+v", env.opened)
	}
}

func TestSendErrors(t *testing.T) {
	tests := []struct {
		name    string
		set     []string
		args    []string
		wantErr error
	}{
		{"empty slot", nil, []string{"2", "open", "binary"}, relay.ErrNothingToSend},
		{"missing float", []string{"ch1_close_c_float_1=1.0"}, []string{"1", "close", "float"}, relay.ErrMissingFloat},
		{"bad channel", nil, []string{"3", "open", "hex"}, relay.ErrInvalidChannel},
		{"bad action", nil, []string{"1", "flip", "hex"}, relay.ErrInvalidAction},
		{"bad representation", nil, []string{"1", "open", "octal"}, relay.ErrUnknownRepresentation},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			env := newTestEnv(t)
			if len(test.set) > 0 {
				if _, err := env.run(append([]string{"settings", "set"}, test.set...)...); err != nil {
					t.Fatalf("Unexpected error %v", err)
				}
			}

			_, err := env.run(append([]string{"send"}, test.args...)...)
			if !errors.Is(err, test.wantErr) {
				t.Errorf("Wanted error %v got %v", test.wantErr, err)
			}

			if env.device.Len() != 0 {
				t.Errorf("Wanted nothing written got %v", env.device.Bytes())
			}
		})
	}
}

func TestEncodeDoesNotOpenPort(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.run("settings", "set", "ch2_momentary_c_float_1=1.0", "ch2_momentary_c_float_2=2.0"); err != nil {
		t.Fatalf("Unexpected error %v", err)
	}

	out, err := env.run("encode", "ch2", "momentary", "c_float")
	if err != nil {
		t.Fatalf("Unexpected error %v", err)
	}

	want := "Bytes: 0x00 0x00 0x80 0x3F 0x00 0x00 0x00 0x40"
	if !strings.Contains(out, want) {
		t.Errorf("Wanted output containing %q got %q", want, out)
	}

	if env.opened != nil {
		t.Errorf("Wanted port to remain closed")
	}
}

func TestSettingsSetRejectsBatch(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run("settings", "set", "ch1_open_hex=AA", "ch1_open_c_float_1=abc")
	if !errors.Is(err, relay.ErrMalformedFloat) {
		t.Fatalf("Wanted error %v got %v", relay.ErrMalformedFloat, err)
	}

	store, _ := settings.Load(env.settingsFile())
	if got := store.Get(relay.Key(relay.Channel1, relay.Open, relay.Hex)); got != "" {
		t.Errorf("Wanted rejected batch to leave ch1_open_hex empty got %q", got)
	}
}

func TestSettingsShowAndReset(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.run("settings", "set", "ch2_close_binary=1010"); err != nil {
		t.Fatalf("Unexpected error %v", err)
	}

	out, err := env.run("settings", "show")
	if err != nil {
		t.Fatalf("Unexpected error %v", err)
	}

	if !strings.Contains(out, `ch2_close_binary           "1010"`) {
		t.Errorf("Wanted ch2_close_binary in output got %q", out)
	}

	if got := strings.Count(out, "\n"); got != 33 {
		t.Errorf("Wanted 33 lines got %d", got)
	}

	if _, err := env.run("settings", "reset"); err != nil {
		t.Fatalf("Unexpected error %v", err)
	}

	store, _ := settings.Load(env.settingsFile())
	if got := store.Get(relay.Key(relay.Channel2, relay.Close, relay.Binary)); got != "" {
		t.Errorf("Wanted empty slot after reset got %q", got)
	}
}

func TestSettingsEdit(t *testing.T) {
	env := newTestEnv(t)
	script := filepath.Join(env.dir, "editor.sh")
	writeScript(t, script, "#!/bin/sh\nsed -i 's|<format type=\"hex\"></format>|<format type=\"hex\">FF</format>|' \"$1\"\n")

	saved := EDITOR
	EDITOR = script
	defer func() { EDITOR = saved }()

	out, err := env.run("settings", "edit")
	if err != nil {
		t.Fatalf("Unexpected error %v", err)
	}

	if !strings.Contains(out, "Saved 8 setting(s)") {
		t.Errorf("Wanted 8 changed settings got %q", out)
	}

	store, _ := settings.Load(env.settingsFile())
	if got := store.Get(relay.Key(relay.Channel2, relay.Toggle, relay.Hex)); got != "FF" {
		t.Errorf("Wanted FF got %q", got)
	}
}

func TestFloats(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run("floats", "0000803F", "00000040")
	if err != nil {
		t.Fatalf("Unexpected error %v", err)
	}

	want := "Float1: 1 (3F800000)\nFloat2: 2 (40000000)\n"
	if out != want {
		t.Errorf("Wanted %q got %q", want, out)
	}

	if _, err := env.run("floats", "0000803F"); !errors.Is(err, relay.ErrMalformedHex) {
		t.Errorf("Wanted error %v got %v", relay.ErrMalformedHex, err)
	}
}

func TestSlots(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run("slots")
	if err != nil {
		t.Fatalf("Unexpected error %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 24 {
		t.Fatalf("Wanted 24 commands got %d", len(lines))
	}

	want := "1 momentary float   ch1_momentary_c_float_1 ch1_momentary_c_float_2"
	if lines[2] != want {
		t.Errorf("Wanted %q got %q", want, lines[2])
	}
}

func TestBridgeNeedsBroker(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.run("bridge"); !errors.Is(err, ErrNoBroker) {
		t.Errorf("Wanted error %v got %v", ErrNoBroker, err)
	}
}

func TestLogFileClosedOnError(t *testing.T) {
	env := newTestEnv(t)
	logfile := filepath.Join(env.dir, "relay.log")
	cfgfile := filepath.Join(env.dir, "config.toml")
	if err := os.WriteFile(cfgfile, []byte(fmt.Sprintf("[log]\nfile = %q\n", logfile)), 0o600); err != nil {
		t.Fatalf("Unexpected error %v", err)
	}

	a := env.app()
	err := a.execute(env.args("--config", cfgfile, "send", "1", "toggle", "hex"), io.Discard)
	if !errors.Is(err, relay.ErrNothingToSend) {
		t.Fatalf("Wanted error %v got %v", relay.ErrNothingToSend, err)
	}

	if a.logCloser != nil {
		t.Errorf("Wanted log file to be closed after a failed command")
	}

	if relay.Log.Out != io.Discard {
		t.Errorf("Wanted log output to be restored")
	}

	buf, err := os.ReadFile(logfile)
	if err != nil {
		t.Fatalf("Unexpected error %v", err)
	}

	if !strings.Contains(string(buf), "Opened /dev/ttyUSB0") {
		t.Errorf("Wanted port open in log file got %q", string(buf))
	}
}
