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
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/abates/relay"
	"github.com/abates/relay/bridge"
	"github.com/spf13/cobra"
)

var ErrNoBroker = errors.New("mqtt.broker must be set to run the bridge")

func (a *app) bridgeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bridge",
		Short: "accept commands over MQTT until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.MQTT.Broker == "" {
				return ErrNoBroker
			}

			d, err := a.dispatcher()
			if err != nil {
				return err
			}

			p, err := a.openPort()
			if err != nil {
				return err
			}
			defer p.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			relay.Log.Infof("Bridge running on %s", a.cfg.Serial.Device)
			return serve(ctx, bridge.New(a.cfg.MQTT, d, p))
		},
	}
}

type service interface {
	Start(ctx context.Context) error
	Stop()
}

// serve runs s until ctx is done.  Cancellation, even while still
// connecting, is a normal shutdown.
func serve(ctx context.Context, s service) error {
	if err := s.Start(ctx); err != nil {
		if ctx.Err() != nil {
			relay.Log.Infof("Shutting down before the broker connected")
			return nil
		}
		return err
	}

	<-ctx.Done()
	relay.Log.Infof("Shutting down")
	s.Stop()
	return nil
}
