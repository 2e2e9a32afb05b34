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
	"strings"

	"github.com/abates/relay"
	"github.com/abates/relay/codec"
	"github.com/spf13/cobra"
)

func (a *app) slotsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "slots",
		Short: "list the settings keys for every command",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, channel := range relay.Channels() {
				for _, action := range relay.Actions() {
					for _, repr := range relay.Representations() {
						keys := []string{}
						for _, key := range relay.SlotKeys(channel, action, repr) {
							keys = append(keys, key.String())
						}
						fmt.Fprintf(out, "%d %-9s %-7s %s\n", channel, action, repr, strings.Join(keys, " "))
					}
				}
			}
			return nil
		},
	}
}

func (a *app) floatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "floats <8 byte hex>",
		Short: "split an 8 byte command into the two floats that produce it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			first, second, err := codec.DecodeFloatPair(strings.Join(args, ""))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Float1: %v (%s)\n", first, codec.BitPattern(first))
			fmt.Fprintf(out, "Float2: %v (%s)\n", second, codec.BitPattern(second))
			return nil
		},
	}
}
