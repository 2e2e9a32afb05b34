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
	"fmt"
	"io"
	"os"
	"time"

	"github.com/abates/relay"
	"github.com/abates/relay/config"
	"github.com/abates/relay/dispatch"
	"github.com/abates/relay/port"
	"github.com/abates/relay/settings"
	"github.com/spf13/cobra"
)

type app struct {
	configFile   string
	logLevel     relay.LogLevel
	device       string
	baud         int
	timeout      time.Duration
	settingsFile string

	// opener is replaced in tests
	opener port.Opener

	cfg       *config.Config
	store     *settings.FileStore
	logCloser io.Closer
	logOut    io.Writer
}

func newApp() *app {
	return &app{logLevel: relay.LevelInfo}
}

func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:               "relay",
		Short:             "Send configured byte commands to a two channel serial relay board",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", config.DefaultPath(), "configuration file (.toml or .yaml)")
	flags.Var(&a.logLevel, "log", "Log Level {none|info|debug|trace}")
	flags.StringVar(&a.device, "port", "", "serial port connected to the relay board (overrides serial.device)")
	flags.IntVar(&a.baud, "baud", 0, "serial line speed (overrides serial.baud)")
	flags.DurationVar(&a.timeout, "timeout", 0, "serial read timeout (overrides serial.read_timeout)")
	flags.StringVar(&a.settingsFile, "settings", "", "command settings document (overrides settings.file)")

	root.AddCommand(
		a.sendCommand(),
		a.encodeCommand(),
		a.settingsCommand(),
		a.slotsCommand(),
		a.floatsCommand(),
		a.bridgeCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) (err error) {
	a.cfg, err = config.Load(a.configFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		a.cfg.Serial.Device = a.device
	}

	if flags.Changed("baud") {
		a.cfg.Serial.Baud = a.baud
	}

	if flags.Changed("timeout") {
		a.cfg.Serial.ReadTimeout.Duration = a.timeout
	}

	if flags.Changed("settings") {
		a.cfg.Settings.File = a.settingsFile
	}

	level := a.cfg.LogLevel()
	if flags.Changed("log") {
		level = a.logLevel
	}
	relay.SetLogLevel(level)

	if a.cfg.Log.File != "" {
		a.logOut = relay.Log.Out
		a.logCloser = relay.SetLogFile(relay.LogFile{
			Filename:   a.cfg.Log.File,
			MaxSizeMB:  a.cfg.Log.MaxSizeMB,
			MaxBackups: a.cfg.Log.MaxBackups,
		})
	}
	return nil
}

// execute runs the command line in args.  The log file is closed
// whether or not the command succeeded.
func (a *app) execute(args []string, out io.Writer) error {
	cmd := a.command()
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(out)
	defer a.closeLog()
	return cmd.Execute()
}

func (a *app) closeLog() {
	if a.logCloser == nil {
		return
	}
	a.logCloser.Close()
	a.logCloser = nil
	relay.SetLogOutput(a.logOut)
}

// loadStore opens the settings document, creating it on first use
func (a *app) loadStore() (*settings.FileStore, error) {
	if a.store != nil {
		return a.store, nil
	}

	if err := a.cfg.MakeDirs(); err != nil {
		return nil, err
	}

	store, err := settings.Load(a.cfg.Settings.File)
	if err != nil {
		relay.Log.Warnf("Settings will not survive a restart: %v", err)
	}
	a.store = store
	return store, nil
}

func (a *app) dispatcher() (*dispatch.Dispatcher, error) {
	store, err := a.loadStore()
	if err != nil {
		return nil, err
	}
	return dispatch.New(store), nil
}

func (a *app) openPort() (*port.Port, error) {
	options := []port.Option{
		port.Baud(a.cfg.Serial.Baud),
		port.ReadTimeout(a.cfg.Serial.ReadTimeout.Duration),
	}

	if a.opener != nil {
		options = append(options, port.WithOpener(a.opener))
	}

	p, err := port.New(a.cfg.Serial.Device, options...)
	if err == nil {
		err = p.Open()
	}
	return p, err
}

func main() {
	err := newApp().execute(os.Args[1:], os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
