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

package relay

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the global log object. The default level is set to Info
var Log = newLogger(os.Stderr)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	l.Formatter = &logrus.TextFormatter{
		TimestampFormat:  "2006-01-02 15:04:05.0000",
		FullTimestamp:    true,
		QuoteEmptyFields: true,
	}
	return l
}

// LogLevel indicates verbosity of logging
type LogLevel int

// Log levels are None, Info, Debug and Trace. Trace logging
// should only be used to display bytes as they are written
const (
	LevelNone LogLevel = iota
	LevelInfo
	LevelDebug
	LevelTrace
)

func (ll LogLevel) String() string {
	switch ll {
	case LevelNone:
		return "none"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	case LevelTrace:
		return "trace"
	}
	return ""
}

// Set satisfies the flag.Value interface
func (ll *LogLevel) Set(str string) error {
	switch strings.ToLower(str) {
	case "none":
		*ll = LevelNone
	case "info":
		*ll = LevelInfo
	case "debug":
		*ll = LevelDebug
	case "trace":
		*ll = LevelTrace
	default:
		return fmt.Errorf("invalid log level %q, want one of none|info|debug|trace", str)
	}
	return nil
}

// Type satisfies the pflag.Value interface
func (ll *LogLevel) Type() string { return "level" }

func (ll LogLevel) logrus() logrus.Level {
	switch ll {
	case LevelNone:
		return logrus.PanicLevel
	case LevelDebug:
		return logrus.DebugLevel
	case LevelTrace:
		return logrus.TraceLevel
	}
	return logrus.InfoLevel
}

// SetLogLevel changes the verbosity of Log
func SetLogLevel(level LogLevel) {
	Log.SetLevel(level.logrus())
}

// SetLogOutput redirects Log to out
func SetLogOutput(out io.Writer) {
	Log.SetOutput(out)
}

// LogFile describes a rotating log file
type LogFile struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
}

// SetLogFile sends Log output to a size rotated file.  The returned
// closer must be closed on shutdown.
func SetLogFile(lf LogFile) io.Closer {
	w := &lumberjack.Logger{
		Filename:   lf.Filename,
		MaxSize:    lf.MaxSizeMB,
		MaxBackups: lf.MaxBackups,
	}
	Log.SetOutput(w)
	return w
}
