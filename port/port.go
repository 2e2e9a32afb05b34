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

// Package port is the serial link to the relay board
package port

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/abates/relay"
	"github.com/abates/relay/codec"
	"github.com/tarm/serial"
)

const (
	DefaultBaud    = 9600
	DefaultTimeout = time.Second
)

var ErrNoDevice = errors.New("no serial device selected")

// Opener opens the underlying device.  The default uses tarm/serial.
type Opener func(config *serial.Config) (io.ReadWriteCloser, error)

func openSerial(config *serial.Config) (io.ReadWriteCloser, error) {
	return serial.OpenPort(config)
}

// The Option mechanism is based on the method described at https://dave.cheney.net/2014/10/17/functional-options-for-friendly-apis
type Option func(p *Port) error

// Baud sets the line speed
func Baud(baud int) Option {
	return func(p *Port) error {
		if baud <= 0 {
			return fmt.Errorf("invalid baud rate %d", baud)
		}
		p.config.Baud = baud
		return nil
	}
}

// ReadTimeout sets the read timeout passed to the serial driver
func ReadTimeout(d time.Duration) Option {
	return func(p *Port) error {
		p.config.ReadTimeout = d
		return nil
	}
}

// WithOpener replaces the function used to open the device
func WithOpener(opener Opener) Option {
	return func(p *Port) error {
		p.opener = opener
		return nil
	}
}

// Port is a relay.Transport over a serial device.  The board expects
// 8 data bits, no parity and one stop bit.
type Port struct {
	sync.Mutex
	config serial.Config
	opener Opener
	rwc    io.ReadWriteCloser
}

// New returns a closed Port for device
func New(device string, options ...Option) (*Port, error) {
	p := &Port{
		config: serial.Config{
			Name:        device,
			Baud:        DefaultBaud,
			ReadTimeout: DefaultTimeout,
			Size:        serial.DefaultSize,
			Parity:      serial.ParityNone,
			StopBits:    serial.Stop1,
		},
		opener: openSerial,
	}

	for _, o := range options {
		if err := o(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Name is the device path
func (p *Port) Name() string { return p.config.Name }

// Open opens the device.  Opening an open port is a no-op.
func (p *Port) Open() error {
	p.Lock()
	defer p.Unlock()

	if p.rwc != nil {
		return nil
	}

	if p.config.Name == "" {
		return ErrNoDevice
	}

	config := p.config
	rwc, err := p.opener(&config)
	if err != nil {
		return fmt.Errorf("error opening serial port %s: %w", p.config.Name, err)
	}
	p.rwc = rwc
	relay.Log.Infof("Opened %s", p.config.Name)
	return nil
}

// Close closes the device.  Closing a closed port is a no-op.
func (p *Port) Close() error {
	p.Lock()
	defer p.Unlock()

	if p.rwc == nil {
		return nil
	}

	err := p.rwc.Close()
	p.rwc = nil
	relay.Log.Infof("Closed %s", p.config.Name)
	return err
}

// IsOpen satisfies relay.Transport
func (p *Port) IsOpen() bool {
	p.Lock()
	defer p.Unlock()
	return p.rwc != nil
}

// Write sends buf in full.  Errors wrap relay.ErrTransport, except a
// write to a closed port which returns relay.ErrPortClosed.
func (p *Port) Write(buf []byte) error {
	p.Lock()
	defer p.Unlock()

	if p.rwc == nil {
		return relay.ErrPortClosed
	}

	n, err := p.rwc.Write(buf)
	if err != nil {
		return fmt.Errorf("%w: %v", relay.ErrTransport, err)
	}

	if n != len(buf) {
		return fmt.Errorf("%w: incomplete write: %s", relay.ErrTransport, codec.Dump(buf[:n]))
	}

	relay.Log.Tracef("TX %s", codec.Dump(buf))
	return nil
}
