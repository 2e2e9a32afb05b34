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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abates/relay"
)

const tomlConfig = `
[serial]
device = "/dev/ttyS1"
baud = 19200
read_timeout = "250ms"

[settings]
file = "/tmp/relay/settings.xml"

[log]
level = "debug"

[mqtt]
broker = "tcp://localhost:1883"
topic = "lab/relay"
qos = 1
`

const yamlConfig = `
serial:
  device: /dev/ttyS1
  baud: 19200
  read_timeout: 250ms
settings:
  file: /tmp/relay/settings.xml
log:
  level: debug
mqtt:
  broker: tcp://localhost:1883
  topic: lab/relay
  qos: 1
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"toml", "config.toml", tomlConfig},
		{"yaml", "config.yaml", yamlConfig},
		{"yml", "config.yml", yamlConfig},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, test.file, test.content))
			if err != nil {
				t.Fatalf("Unexpected error %v", err)
			}

			if cfg.Serial.Device != "/dev/ttyS1" || cfg.Serial.Baud != 19200 {
				t.Errorf("Wanted /dev/ttyS1 at 19200 got %s at %d", cfg.Serial.Device, cfg.Serial.Baud)
			}

			if cfg.Serial.ReadTimeout.Duration != 250*time.Millisecond {
				t.Errorf("Wanted 250ms got %v", cfg.Serial.ReadTimeout)
			}

			if cfg.Settings.File != "/tmp/relay/settings.xml" {
				t.Errorf("Wanted settings file got %q", cfg.Settings.File)
			}

			if cfg.LogLevel() != relay.LevelDebug {
				t.Errorf("Wanted debug level got %v", cfg.LogLevel())
			}

			if cfg.MQTT.Broker != "tcp://localhost:1883" || cfg.MQTT.Topic != "lab/relay" || cfg.MQTT.QoS != 1 {
				t.Errorf("Unexpected mqtt config %+v", cfg.MQTT)
			}

			// omitted values keep their defaults
			if cfg.MQTT.ClientID != AppName || cfg.Log.MaxBackups != 3 {
				t.Errorf("Wanted defaults to be kept got %+v %+v", cfg.MQTT, cfg.Log)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Unexpected error %v", err)
	}

	def := Default()
	if cfg.Serial != def.Serial || cfg.Settings != def.Settings || cfg.Log != def.Log || cfg.MQTT != def.MQTT {
		t.Errorf("Wanted defaults got %+v", cfg)
	}

	if !strings.HasSuffix(cfg.Settings.File, "relay_settings.xml") {
		t.Errorf("Wanted default settings file got %q", cfg.Settings.File)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"bad toml", "config.toml", "[serial"},
		{"bad yaml", "config.yaml", "serial: [1"},
		{"bad duration", "config.toml", "[serial]\nread_timeout = \"soon\""},
		{"zero baud", "config.toml", "[serial]\nbaud = 0"},
		{"bad level", "config.toml", "[log]\nlevel = \"loud\""},
		{"bad qos", "config.yaml", "mqtt:\n  qos: 3"},
		{"empty topic", "config.yaml", "mqtt:\n  broker: tcp://localhost:1883\n  topic: \"\""},
		{"empty settings file", "config.toml", "[settings]\nfile = \"\""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, test.file, test.content)); err == nil {
				t.Errorf("Wanted error")
			}
		})
	}
}
