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
	"context"
	"fmt"
	"os"
	"strconv"
	"syscall"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/stationops/mediadepot/config"
	"github.com/stationops/mediadepot/launchers"
)

type uint16Value uint16

var (
	outputJSON bool

	rootCmd = &cobra.Command{
		Use:   "mediadepot",
		Short: "Serve and manage broadcast channel media storage",
		Long: `MediaDepot exposes the media libraries of broadcast channels over a
sandboxed HTTP file-management API, with per-channel WebDAV exports and
storage monitoring for playout installations.`,
	}

	// We want the value of this port flag to correspond to the
	// Server.WebPort viper key, and only one flag pointer can correspond
	// to that key. Accordingly, the flag is defined once globally and
	// inserted into any command that wants to set the port.
	emptyPort = uint16(0)
	portFlag  = &pflag.Flag{
		Name:      "port",
		Shorthand: "p",
		Usage:     "Set the port at which the web server should be accessible",
		Value:     (*uint16Value)(&emptyPort),
	}
)

// The Value member of the portFlag object must implement the pflag.Value
// interface. The pflag module does not export any types implementing it,
// so we carry a small one here.
func (i *uint16Value) Set(s string) error {
	v, err := strconv.ParseUint(s, 0, 16)
	*i = uint16Value(v)
	return err
}

func (i *uint16Value) Type() string {
	return "uint16"
}

func (i *uint16Value) String() string { return strconv.FormatUint(uint64(*i), 10) }

func Execute() error {
	egrp, egrpCtx := errgroup.WithContext(context.Background())
	ctx := context.WithValue(egrpCtx, config.EgrpKey, egrp)
	exeErr := rootCmd.ExecuteContext(ctx)
	if exeErr != nil {
		log.Errorln("Fatal error occurred at the start of the program. Cleanup started:", exeErr)
	}
	// Wait until all goroutines in the errgroup finish their cleanup
	egrpErr := egrp.Wait()
	if egrpErr == launchers.ErrExitOnSignal {
		fmt.Println("MediaDepot is safely exited")
		return nil
	} else if egrpErr == launchers.ErrRestart {
		fmt.Println("Restarting server...")
		return restartProgram()
	}
	// Other errors we got from the errgroup
	if egrpErr != nil {
		log.Errorln("Fatal error occurred that lead to the shutdown of the process:", egrpErr)
		return egrpErr
	}
	return exeErr
}

func restartProgram() error {
	executable, err := os.Executable()
	if err != nil {
		return errors.Wrap(err, "Failed to determine executable path")
	}

	err = syscall.Exec(executable, os.Args, os.Environ())
	if err != nil {
		return errors.Wrap(err, "Failed to restart")
	}
	return nil
}

func init() {
	cobra.OnInitialize(config.InitConfig)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(channelCmd)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().String("config", "", "config file (default searches /etc/mediadepot and $HOME/.config/mediadepot)")

	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logs")

	rootCmd.PersistentFlags().StringP("log", "l", "", "Specified log output file")
	if err := viper.BindPFlag("Logging.LogLocation", rootCmd.PersistentFlags().Lookup("log")); err != nil {
		panic(err)
	}

	// Register the version flag here just so --help will show this flag;
	// the actual check is executed in main.go
	rootCmd.PersistentFlags().BoolP("version", "", false, "Print the version and exit")

	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "", false, "output results in JSON format")

	if err := viper.BindPFlag("ConfigLocation", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("Debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("Server.WebPort", portFlag); err != nil {
		panic(err)
	}
}
