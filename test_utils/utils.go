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

package test_utils

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/sync/errgroup"

	"github.com/stationops/mediadepot/config"
)

func TestContext(ictx context.Context, t *testing.T) (ctx context.Context, cancel context.CancelFunc, egrp *errgroup.Group) {
	if deadline, ok := t.Deadline(); ok {
		ctx, cancel = context.WithDeadline(ictx, deadline)
	} else {
		ctx, cancel = context.WithCancel(ictx)
	}
	egrp, ctx = errgroup.WithContext(ctx)
	ctx = context.WithValue(ctx, config.EgrpKey, egrp)
	return
}

// SetupTestLogging redirects the global logger into a buffering hook so
// tests run quietly; the captured entries are replayed through t.Log only
// when the test fails. The returned cleanup restores the logger and is
// meant for t.Cleanup.
func SetupTestLogging(t *testing.T) (cleanup func()) {
	logger := logrus.StandardLogger()
	oldOut := logger.Out
	oldLevel := logger.GetLevel()

	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.DebugLevel)
	logger.ReplaceHooks(make(logrus.LevelHooks))
	hook := test.NewGlobal()

	return func() {
		if t.Failed() {
			for _, entry := range hook.AllEntries() {
				if line, err := entry.String(); err == nil {
					t.Log(strings.TrimRight(line, "\n"))
				}
			}
		}
		hook.Reset()
		logger.ReplaceHooks(make(logrus.LevelHooks))
		logger.SetOutput(oldOut)
		logger.SetLevel(oldLevel)
	}
}
