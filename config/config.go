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

// Package config wires up the global viper instance behind the param
// accessors: defaults, the optional YAML config file, and MEDIADEPOT_*
// environment overrides.
package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stationops/mediadepot/logging"
	"github.com/stationops/mediadepot/param"
)

type ContextKey string

// EgrpKey is the context key the server's errgroup travels under.
const EgrpKey ContextKey = "egrp"

// setDefaults registers the default for every parameter that has one.
// docs/parameters.yaml documents the same values.
func setDefaults() {
	viper.SetDefault("Logging.Level", "info")
	viper.SetDefault("Server.WebHost", "0.0.0.0")
	viper.SetDefault("Server.WebPort", 8745)
	viper.SetDefault("Server.DbLocation", "/var/lib/mediadepot/mediadepot.sqlite")
	viper.SetDefault("Storage.MountPrefixes", []string{
		"/media",
		"/mnt",
		"/playlists",
		"/tv-media",
		"/usr/share/mediadepot",
		"/var/lib/mediadepot",
	})
	viper.SetDefault("Storage.Extensions", []string{"mp4", "mkv", "avi", "mov", "mpg", "webm"})
	viper.SetDefault("Storage.ConcurrentWrites", 8)
	viper.SetDefault("Storage.WebDavEnabled", true)
	viper.SetDefault("Storage.WebDavWrite", false)
	viper.SetDefault("Storage.UsageCheckInterval", "1m")
	viper.SetDefault("Probe.Command", "ffprobe")
	viper.SetDefault("Probe.Timeout", "10s")
	viper.SetDefault("Probe.CacheTTL", "5m")
	viper.SetDefault("Monitoring.EnablePrometheus", true)
}

// InitConfig loads defaults, the config file, and environment overrides
// into the global viper instance, then applies the logging level. A
// config file named via ConfigLocation must exist; the default search
// locations may be absent. Registered with cobra.OnInitialize, hence the
// CheckErr handling.
func InitConfig() {
	cobra.CheckErr(initConfig())
}

func initConfig() error {
	setDefaults()

	viper.SetEnvPrefix("MEDIADEPOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile := viper.GetString("ConfigLocation"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("mediadepot")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("/etc/mediadepot")
		viper.AddConfigPath("$HOME/.config/mediadepot")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errors.Wrap(err, "unable to read the configuration file")
		}
	}

	if viper.GetBool("Debug") {
		viper.Set("Logging.Level", "debug")
	}

	if err := logging.SetLogLevel(); err != nil {
		return err
	}
	return logging.FlushLogs(param.Logging_LogLocation.GetString() != "")
}

// InitServer prepares the on-disk layout the server needs before any
// module starts: today that is the directory holding the channel
// database.
func InitServer(ctx context.Context) error {
	dbLoc := param.Server_DbLocation.GetString()
	if dbLoc == "" {
		return errors.New("Server.DbLocation is not set")
	}
	if err := os.MkdirAll(filepath.Dir(dbLoc), 0755); err != nil {
		return errors.Wrap(err, "unable to create the database directory")
	}
	return nil
}
