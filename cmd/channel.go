/***************************************************************
 *
 * Copyright (C) 2025, MediaDepot Project
 *
 * Licensed under the Apache License, Version 2.0 (the "License"); you
 * may not use this file except in compliance with the License.  You may
 * obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 ***************************************************************/

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stationops/mediadepot/config"
	"github.com/stationops/mediadepot/database"
	"github.com/stationops/mediadepot/server_structs"
)

var (
	channelCmd = &cobra.Command{
		Use:   "channel",
		Short: "Manage broadcast channels",
		Long: `Manage the channels whose storage MediaDepot serves. Each channel
maps an integer id to a storage root on disk, plus any extra video
extensions accepted beyond the global Storage.Extensions list.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.InitServer(cmd.Context()); err != nil {
				return errors.Wrap(err, "Failure when configuring the server")
			}
			return database.InitServerDatabase()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return database.ShutdownDB(database.ServerDatabase)
		},
	}

	channelAddCmd = &cobra.Command{
		Use:          "add <name>",
		Short:        "Register a new channel",
		Args:         cobra.ExactArgs(1),
		RunE:         addChannel,
		SilenceUsage: true,
	}

	channelListCmd = &cobra.Command{
		Use:          "list",
		Short:        "List registered channels",
		Args:         cobra.NoArgs,
		RunE:         listChannels,
		Aliases:      []string{"ls"},
		SilenceUsage: true,
	}

	channelRmCmd = &cobra.Command{
		Use:          "rm <id|name>",
		Short:        "Delete a channel",
		Args:         cobra.ExactArgs(1),
		RunE:         removeChannel,
		SilenceUsage: true,
	}

	channelImportCmd = &cobra.Command{
		Use:          "import <manifest.yaml>",
		Short:        "Create channels from a YAML manifest",
		Args:         cobra.ExactArgs(1),
		RunE:         importChannels,
		SilenceUsage: true,
	}
)

// channelManifestEntry is one channel in the YAML manifest accepted by
// `mediadepot channel import`.
type channelManifestEntry struct {
	Name            string   `yaml:"name"`
	StorageRoot     string   `yaml:"storage_root"`
	ExtraExtensions []string `yaml:"extra_extensions"`
}

func init() {
	channelCmd.AddCommand(channelAddCmd)
	channelCmd.AddCommand(channelListCmd)
	channelCmd.AddCommand(channelRmCmd)
	channelCmd.AddCommand(channelImportCmd)

	channelAddCmd.Flags().String("root", "", "Storage root directory of the channel (required)")
	channelAddCmd.Flags().StringSlice("extensions", nil, "Extra video extensions served for this channel")
	if err := channelAddCmd.MarkFlagRequired("root"); err != nil {
		panic(err)
	}
}

func addChannel(cmd *cobra.Command, args []string) error {
	root, _ := cmd.Flags().GetString("root")
	extensions, _ := cmd.Flags().GetStringSlice("extensions")

	channel, err := database.CreateChannel(args[0], root, extensions)
	if err != nil {
		return errors.Wrapf(err, "Failed to create channel %s", args[0])
	}
	fmt.Printf("Created channel %d (%s) with storage root %s\n", channel.ID, channel.Name, channel.StorageRoot)
	return nil
}

func listChannels(cmd *cobra.Command, _ []string) error {
	channels, err := database.ListChannels()
	if err != nil {
		return errors.Wrap(err, "Failed to list channels")
	}

	if outputJSON {
		jsonBytes, err := json.MarshalIndent(channels, "", "  ")
		if err != nil {
			return errors.Wrap(err, "Failed to marshal channels into JSON")
		}
		fmt.Println(string(jsonBytes))
		return nil
	}

	if len(channels) == 0 {
		fmt.Println("No channels registered")
		return nil
	}

	fmt.Printf("%-6s %-24s %-40s %s\n", "ID", "Name", "Storage Root", "Extra Extensions")
	for _, channel := range channels {
		fmt.Printf("%-6d %-24s %-40s %s\n", channel.ID, channel.Name, channel.StorageRoot, channel.ExtraExtensions)
	}
	return nil
}

func removeChannel(cmd *cobra.Command, args []string) error {
	channel, err := lookupChannel(args[0])
	if err != nil {
		return err
	}
	if err := database.DeleteChannel(channel.ID); err != nil {
		return errors.Wrapf(err, "Failed to delete channel %s", args[0])
	}
	fmt.Printf("Deleted channel %d (%s)\n", channel.ID, channel.Name)
	return nil
}

// lookupChannel accepts either a numeric channel id or a channel name.
func lookupChannel(key string) (*server_structs.Channel, error) {
	if id, err := strconv.Atoi(key); err == nil {
		channel, err := database.GetChannel(id)
		if err != nil {
			return nil, errors.Wrapf(err, "No channel with id %d", id)
		}
		return channel, nil
	}
	channel, err := database.GetChannelByName(key)
	if err != nil {
		return nil, errors.Wrapf(err, "No channel named %s", key)
	}
	return channel, nil
}

func importChannels(cmd *cobra.Command, args []string) error {
	manifestBytes, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrapf(err, "Failed to read manifest %s", args[0])
	}

	entries := []channelManifestEntry{}
	if err := yaml.Unmarshal(manifestBytes, &entries); err != nil {
		return errors.Wrapf(err, "Failed to parse manifest %s", args[0])
	}

	for _, entry := range entries {
		if entry.Name == "" || entry.StorageRoot == "" {
			return errors.Errorf("Manifest entries need both a name and a storage_root; offending entry: %+v", entry)
		}
	}

	created := 0
	for _, entry := range entries {
		if _, err := database.CreateChannel(entry.Name, entry.StorageRoot, entry.ExtraExtensions); err != nil {
			return errors.Wrapf(err, "Failed to create channel %s after importing %d of %d entries", entry.Name, created, len(entries))
		}
		created++
	}
	fmt.Printf("Imported %d channels from %s\n", created, args[0])
	return nil
}
