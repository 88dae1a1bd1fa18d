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
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stationops/mediadepot/config"
)

func TestTestContext(t *testing.T) {
	ctx, cancel, egrp := TestContext(context.Background(), t)
	defer cancel()

	require.NotNil(t, egrp)
	assert.Equal(t, egrp, ctx.Value(config.EgrpKey), "errgroup should travel inside the context")

	cancel()
	select {
	case <-ctx.Done():
	default:
		t.Fatal("context should be canceled after cancel()")
	}
}

func TestSetupTestLogging(t *testing.T) {
	t.Cleanup(SetupTestLogging(t))

	// Captured by the test hook; replayed only if the test fails.
	logrus.Info("This message should only appear if the test fails")
	logrus.Warn("This warning should only appear if the test fails")

	assert.Equal(t, 1, len(logrus.StandardLogger().Hooks[logrus.InfoLevel]), "Expected one hook to be installed")
}
