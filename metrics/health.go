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

package metrics

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type (
	// This is for API response so we want to display string representation of status
	ComponentStatus struct {
		Status     string `json:"status"`
		Message    string `json:"message,omitempty"`
		LastUpdate int64  `json:"last_update"`
	}

	componentStatusInternal struct {
		Status     HealthStatusEnum
		Message    string
		LastUpdate time.Time
	}

	HealthStatus struct {
		OverallStatus   string                     `json:"status"`
		ComponentStatus map[string]ComponentStatus `json:"components"`
	}

	HealthStatusEnum int

	HealthStatusComponent string
)

const (
	StatusCritical HealthStatusEnum = iota + 1
	StatusWarning
	StatusOK
	StatusUnknown // Do not abuse this enum. Use others when possible
)

const statusIndexErrorMessage = "Error: status string index out of range"

const (
	Server_WebAPI       HealthStatusComponent = "web-api"
	Server_Database     HealthStatusComponent = "database"
	Server_StorageUsage HealthStatusComponent = "storage"
	Server_WebDAV       HealthStatusComponent = "webdav"
)

var (
	healthStatus = sync.Map{}

	MediaDepotHealthStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mediadepot_component_health_status",
		Help: "The health status of various components",
	}, []string{"component"})

	MediaDepotHealthLastUpdate = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mediadepot_component_health_status_last_update",
		Help: "Last update timestamp of components health status",
	}, []string{"component"})
)

// Unfortunately we don't have a better way to ensure the enum constants always have
// matched string representation, so we will return "Error: status string index out of range"
// as an indicator
func (status HealthStatusEnum) String() string {
	strings := [...]string{"critical", "warning", "ok", "unknown"}

	if int(status) < 1 || int(status) > len(strings) {
		return statusIndexErrorMessage
	}
	return strings[status-1]
}

func (component HealthStatusComponent) String() string {
	return string(component)
}

// Add/update the component health status. If you have a new component to record,
// register it as a new constant of type HealthStatusComponent first. Note that
// StatusUnknown is mostly for internal use, avoid setting it as a component status
func SetComponentHealthStatus(name HealthStatusComponent, state HealthStatusEnum, msg string) {
	now := time.Now()
	healthStatus.Store(name.String(), componentStatusInternal{state, msg, now})

	MediaDepotHealthStatus.With(
		prometheus.Labels{"component": name.String()}).
		Set(float64(state))

	MediaDepotHealthLastUpdate.With(prometheus.Labels{"component": name.String()}).
		SetToCurrentTime()
}

func DeleteComponentHealthStatus(name HealthStatusComponent) {
	healthStatus.Delete(name.String())
}

// GetComponentStatus returns the string status of a single component, or an
// error if the component never reported one.
func GetComponentStatus(name HealthStatusComponent) (string, error) {
	compstat, ok := healthStatus.Load(name.String())
	if !ok {
		return "", errors.Errorf("component %s has no recorded health status", name.String())
	}
	internal, ok := compstat.(componentStatusInternal)
	if !ok {
		return "", errors.Errorf("component %s has a malformed health status entry", name.String())
	}
	return internal.Status.String(), nil
}

func GetHealthStatus() HealthStatus {
	status := HealthStatus{}
	status.OverallStatus = StatusUnknown.String()
	overallStatus := StatusUnknown
	healthStatus.Range(func(component, compstat any) bool {
		componentStatus, ok := compstat.(componentStatusInternal)
		if !ok {
			return true
		}
		componentString, ok := component.(string)
		if !ok {
			return true
		}
		if status.ComponentStatus == nil {
			status.ComponentStatus = make(map[string]ComponentStatus)
		}
		status.ComponentStatus[componentString] = ComponentStatus{
			componentStatus.Status.String(),
			componentStatus.Message,
			componentStatus.LastUpdate.Unix(),
		}
		if componentStatus.Status < overallStatus {
			overallStatus = componentStatus.Status
		}
		return true
	})
	status.OverallStatus = overallStatus.String()
	return status
}
