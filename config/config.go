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

// Package config loads the relay tool's configuration file.  Both TOML
// and YAML are accepted, selected by file extension.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/abates/relay"
	"github.com/kirsle/configdir"
	"gopkg.in/yaml.v3"
)

// AppName names the per-user configuration directory
const AppName = "relay"

// Duration is a time.Duration read from strings such as "1s" or "500ms"
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) (err error) {
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Config struct {
	Serial   SerialConfig   `toml:"serial" yaml:"serial"`
	Settings SettingsConfig `toml:"settings" yaml:"settings"`
	Log      LogConfig      `toml:"log" yaml:"log"`
	MQTT     MQTTConfig     `toml:"mqtt" yaml:"mqtt"`
}

type SerialConfig struct {
	Device      string   `toml:"device" yaml:"device"`
	Baud        int      `toml:"baud" yaml:"baud"`
	ReadTimeout Duration `toml:"read_timeout" yaml:"read_timeout"`
}

type SettingsConfig struct {
	// File is the XML command slot document
	File string `toml:"file" yaml:"file"`
}

type LogConfig struct {
	Level      string `toml:"level" yaml:"level"`
	File       string `toml:"file" yaml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" yaml:"max_backups"`
}

type MQTTConfig struct {
	// Broker such as tcp://localhost:1883, empty disables the bridge
	Broker   string `toml:"broker" yaml:"broker"`
	ClientID string `toml:"client_id" yaml:"client_id"`
	Username string `toml:"username" yaml:"username"`
	Password string `toml:"password" yaml:"password"`
	Topic    string `toml:"topic" yaml:"topic"`
	QoS      byte   `toml:"qos" yaml:"qos"`
}

// Dir is the per-user configuration directory
func Dir() string {
	return configdir.LocalConfig(AppName)
}

// DefaultPath is the configuration file used when none is given
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Default returns the configuration used for anything the file omits
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Device:      "/dev/ttyUSB0",
			Baud:        9600,
			ReadTimeout: Duration{time.Second},
		},
		Settings: SettingsConfig{
			File: filepath.Join(Dir(), "relay_settings.xml"),
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		MQTT: MQTTConfig{
			ClientID: AppName,
			Topic:    AppName,
		},
	}
}

// Load reads the configuration at path over the defaults.  A missing
// file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	buf, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		relay.Log.Debugf("Configuration %s not found, using defaults", path)
		return cfg, nil
	} else if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(buf, cfg)
	default:
		_, err = toml.Decode(string(buf), cfg)
	}

	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks values that would otherwise fail later at runtime
func (c *Config) Validate() error {
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("serial.baud must be positive, got %d", c.Serial.Baud)
	}

	if c.Settings.File == "" {
		return errors.New("settings.file must be set")
	}

	var level relay.LogLevel
	if err := level.Set(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}

	if c.MQTT.Broker != "" && c.MQTT.Topic == "" {
		return errors.New("mqtt.topic must be set when mqtt.broker is set")
	}
	return nil
}

// LogLevel is the parsed log.level
func (c *Config) LogLevel() relay.LogLevel {
	var level relay.LogLevel
	if err := level.Set(c.Log.Level); err != nil {
		return relay.LevelInfo
	}
	return level
}

// MakeDirs creates the directory holding the settings document
func (c *Config) MakeDirs() error {
	return configdir.MakePath(filepath.Dir(c.Settings.File))
}
