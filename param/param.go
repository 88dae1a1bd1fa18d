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

// Package param provides typed accessors for every MediaDepot
// configuration parameter. Each parameter is declared once here, is
// documented in docs/parameters.yaml, and reads through the global viper
// instance, so config-file values, environment overrides, and defaults
// all resolve through one code path.
package param

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type (
	StringParam struct {
		name string
	}

	StringSliceParam struct {
		name string
	}

	BoolParam struct {
		name string
	}

	IntParam struct {
		name string
	}

	DurationParam struct {
		name string
	}
)

// paramNameToEnvVar converts a parameter name (e.g., "Server.WebPort") to
// its corresponding environment variable name (e.g.,
// "MEDIADEPOT_SERVER_WEBPORT").
func paramNameToEnvVar(paramName string) string {
	envVar := strings.ReplaceAll(paramName, ".", "_")
	envVar = strings.ToUpper(envVar)
	return "MEDIADEPOT_" + envVar
}

func (sP StringParam) GetString() string {
	return viper.GetString(sP.name)
}

func (sP StringParam) GetName() string {
	return sP.name
}

func (sP StringParam) IsSet() bool {
	return viper.IsSet(sP.name)
}

func (sP StringParam) GetEnvVarName() string {
	return paramNameToEnvVar(sP.name)
}

func (slP StringSliceParam) GetStringSlice() []string {
	return viper.GetStringSlice(slP.name)
}

func (slP StringSliceParam) GetName() string {
	return slP.name
}

func (slP StringSliceParam) IsSet() bool {
	return viper.IsSet(slP.name)
}

func (slP StringSliceParam) GetEnvVarName() string {
	return paramNameToEnvVar(slP.name)
}

func (bP BoolParam) GetBool() bool {
	return viper.GetBool(bP.name)
}

func (bP BoolParam) GetName() string {
	return bP.name
}

func (bP BoolParam) IsSet() bool {
	return viper.IsSet(bP.name)
}

func (bP BoolParam) GetEnvVarName() string {
	return paramNameToEnvVar(bP.name)
}

func (iP IntParam) GetInt() int {
	return viper.GetInt(iP.name)
}

func (iP IntParam) GetName() string {
	return iP.name
}

func (iP IntParam) IsSet() bool {
	return viper.IsSet(iP.name)
}

func (iP IntParam) GetEnvVarName() string {
	return paramNameToEnvVar(iP.name)
}

func (dP DurationParam) GetDuration() time.Duration {
	return viper.GetDuration(dP.name)
}

func (dP DurationParam) GetName() string {
	return dP.name
}

func (dP DurationParam) IsSet() bool {
	return viper.IsSet(dP.name)
}

func (dP DurationParam) GetEnvVarName() string {
	return paramNameToEnvVar(dP.name)
}

var (
	Logging_Level       = StringParam{"Logging.Level"}
	Logging_LogLocation = StringParam{"Logging.LogLocation"}

	Server_DbLocation = StringParam{"Server.DbLocation"}
	Server_WebHost    = StringParam{"Server.WebHost"}
	Server_WebPort    = IntParam{"Server.WebPort"}

	Storage_ConcurrentWrites   = IntParam{"Storage.ConcurrentWrites"}
	Storage_Extensions         = StringSliceParam{"Storage.Extensions"}
	Storage_MountPrefixes      = StringSliceParam{"Storage.MountPrefixes"}
	Storage_UsageCheckInterval = DurationParam{"Storage.UsageCheckInterval"}
	Storage_WebDavEnabled      = BoolParam{"Storage.WebDavEnabled"}
	Storage_WebDavWrite        = BoolParam{"Storage.WebDavWrite"}

	Probe_CacheTTL = DurationParam{"Probe.CacheTTL"}
	Probe_Command  = StringParam{"Probe.Command"}
	Probe_Timeout  = DurationParam{"Probe.Timeout"}

	Monitoring_EnablePrometheus = BoolParam{"Monitoring.EnablePrometheus"}
)

// allParameterNames lists every declared parameter, sorted, so tooling
// and tests can iterate the full surface.
var allParameterNames = []string{
	"Logging.Level",
	"Logging.LogLocation",
	"Monitoring.EnablePrometheus",
	"Probe.CacheTTL",
	"Probe.Command",
	"Probe.Timeout",
	"Server.DbLocation",
	"Server.WebHost",
	"Server.WebPort",
	"Storage.ConcurrentWrites",
	"Storage.Extensions",
	"Storage.MountPrefixes",
	"Storage.UsageCheckInterval",
	"Storage.WebDavEnabled",
	"Storage.WebDavWrite",
}

// AllParameterNames returns the sorted names of every declared parameter.
func AllParameterNames() []string {
	names := make([]string, len(allParameterNames))
	copy(names, allParameterNames)
	return names
}
