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

package server_structs

import (
	"strings"
	"time"
)

// Channel is one configured broadcast unit: a name, the storage root its
// media lives under, and any file extensions it accepts beyond the
// globally configured set. Maps to the `channels` table.
type Channel struct {
	ID              int       `gorm:"primaryKey;column:id;autoIncrement" json:"id"`
	Name            string    `gorm:"column:name;type:text;not null;unique" json:"name"`
	StorageRoot     string    `gorm:"column:storage_root;type:text;not null" json:"storage_root"`
	ExtraExtensions string    `gorm:"column:extra_extensions;type:text" json:"extra_extensions"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Channel) TableName() string {
	return "channels"
}

// ExtensionList splits the comma-separated ExtraExtensions field into a
// clean slice, dropping empty segments.
func (c Channel) ExtensionList() []string {
	var exts []string
	for _, e := range strings.Split(c.ExtraExtensions, ",") {
		if e = strings.TrimSpace(e); e != "" {
			exts = append(exts, e)
		}
	}
	return exts
}
