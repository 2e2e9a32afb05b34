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

	"github.com/abates/relay"
	"github.com/abates/relay/settings"
	"github.com/spf13/cobra"
)

func (a *app) settingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "show and change the command templates",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "print every command slot and its template",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.loadStore()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Settings file: %s\n", store.Filename())
				printValues(cmd.OutOrStdout(), store.Values())
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key>=<value>...",
			Short: "change one or more slots, for example ch1_toggle_hex=5556",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				values, err := settings.ParseAssignments(args)
				if err != nil {
					return err
				}
				return a.update(cmd.OutOrStdout(), values)
			},
		},
		&cobra.Command{
			Use:   "edit",
			Short: "edit the settings document in $EDITOR",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.edit(cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "clear every slot",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.loadStore()
				if err == nil {
					err = store.Reset()
				}

				if err == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Settings cleared")
				}
				return err
			},
		},
	)
	return cmd
}

func printValues(out io.Writer, values settings.Values) {
	for _, key := range relay.Keys() {
		fmt.Fprintf(out, "%-26s %q\n", key, values[key])
	}
}

// update validates values as a batch and saves them.  Nothing is
// changed if any value is rejected.
func (a *app) update(out io.Writer, values settings.Values) error {
	if err := settings.Validate(values); err != nil {
		return err
	}

	store, err := a.loadStore()
	if err != nil {
		return err
	}

	if err := store.UpdateAll(values); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved %d setting(s) to %s\n", len(values), store.Filename())
	return nil
}

func (a *app) edit(out io.Writer) error {
	store, err := a.loadStore()
	if err != nil {
		return err
	}

	tmpfile, err := os.CreateTemp("", "relay_settings_*.xml")
	if err != nil {
		return err
	}
	defer os.Remove(tmpfile.Name())

	err = settings.WriteDocument(tmpfile, store.Values())
	if err == nil {
		err = tmpfile.Close()
	} else {
		tmpfile.Close()
	}

	if err == nil {
		err = editFile(tmpfile.Name())
	}

	if err != nil {
		return err
	}

	f, err := os.Open(tmpfile.Name())
	if err != nil {
		return err
	}
	defer f.Close()

	values, err := settings.ReadDocument(f)
	if err != nil {
		return err
	}
	return a.update(out, changed(store.Values(), values))
}

// changed returns the entries of next that differ from current
func changed(current, next settings.Values) settings.Values {
	diff := settings.Values{}
	for key, value := range next {
		if current[key] != value {
			diff[key] = value
		}
	}
	return diff
}
