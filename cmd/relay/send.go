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

	"github.com/abates/relay"
	"github.com/abates/relay/dispatch"
	"github.com/spf13/cobra"
)

const commandUsage = "<channel> <action> <representation>"

func parseCommand(args []string) (channel relay.Channel, action relay.Action, repr relay.Representation, err error) {
	channel, err = relay.ParseChannel(args[0])
	if err == nil {
		action, err = relay.ParseAction(args[1])
	}

	if err == nil {
		repr, err = relay.ParseRepresentation(args[2])
	}
	return channel, action, repr, err
}

func (a *app) resolve(args []string) (dispatch.Outcome, error) {
	channel, action, repr, err := parseCommand(args)
	if err != nil {
		return dispatch.Outcome{}, err
	}

	d, err := a.dispatcher()
	if err != nil {
		return dispatch.Outcome{}, err
	}
	return d.Dispatch(channel, action, repr), nil
}

func (a *app) sendCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "send " + commandUsage,
		Short: "encode a configured command and write it to the relay board",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := a.resolve(args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), outcome)

			if outcome.Err != nil {
				return outcome.Err
			}

			p, err := a.openPort()
			if err != nil {
				return err
			}
			defer p.Close()

			return dispatch.Deliver(outcome, p)
		},
	}
}

func (a *app) encodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "encode " + commandUsage,
		Short: "show the bytes a command would send without opening the serial port",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := a.resolve(args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), outcome)

			if outcome.Err == nil && outcome.Empty() {
				return relay.ErrNothingToSend
			}
			return outcome.Err
		},
	}
}
