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

// Package logging buffers log output emitted before the configuration is
// parsed, then flushes it to the configured sink. Startup messages land
// in Logging.LogLocation (or stderr) instead of disappearing.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/go-kit/log/term"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/stationops/mediadepot/param"
)

// BufferedLogHook collects entries until FlushLogs decides where they
// belong.
type BufferedLogHook struct {
	entries []*log.Entry
	flushed atomic.Bool
}

var (
	bufferedHook atomic.Pointer[BufferedLogHook]
	flushOnce    sync.Once
	logFHandle   *os.File
)

// ResetLogFlush rearms the one-shot flush; intended for unit tests.
func ResetLogFlush() {
	flushOnce = sync.Once{}
}

func NewBufferedLogHook() *BufferedLogHook {
	return &BufferedLogHook{
		entries: make([]*log.Entry, 0),
	}
}

// Fire buffers the entry until the first flush; afterwards entries pass
// straight through to the logger output.
func (hook *BufferedLogHook) Fire(entry *log.Entry) error {
	if hook.flushed.Load() {
		return nil
	}
	hook.entries = append(hook.entries, entry)
	return nil
}

func (hook *BufferedLogHook) Levels() []log.Level {
	return log.AllLevels
}

func removeBufferedHook() {
	log.StandardLogger().ReplaceHooks(make(log.LevelHooks))
}

// SetupLogBuffering discards direct log output and installs the buffering
// hook. Call before any configuration is read.
func SetupLogBuffering() {
	log.SetOutput(io.Discard)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
		DisableColors: true,
	})

	hook := NewBufferedLogHook()
	if bufferedHook.CompareAndSwap(nil, hook) {
		log.AddHook(hook)
	}
}

// SetLogLevel applies Logging.Level to the standard logger.
func SetLogLevel() error {
	levelStr := param.Logging_Level.GetString()
	level, err := log.ParseLevel(levelStr)
	if err != nil {
		return errors.Wrapf(err, "unknown Logging.Level %q", levelStr)
	}
	log.SetLevel(level)
	return nil
}

// FlushLogs replays everything buffered since SetupLogBuffering into the
// final sink and switches to direct logging. With pushToFile set and
// Logging.LogLocation configured, the sink is that file; otherwise
// stderr, colorized when it is a terminal.
func FlushLogs(pushToFile bool) (err error) {
	flushOnce.Do(func() {
		hook := bufferedHook.Load()
		if hook == nil {
			log.SetOutput(os.Stderr)
			return
		}
		if hook.flushed.Load() {
			return
		}
		hook.flushed.Store(true)

		logLocation := param.Logging_LogLocation.GetString()
		if pushToFile && logLocation != "" {
			if dir := filepath.Dir(logLocation); dir != "" {
				if err = os.MkdirAll(dir, 0750); err != nil {
					err = errors.Wrap(err, "unable to create the log directory")
					return
				}
			}
			f, openErr := os.OpenFile(logLocation, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0640)
			if openErr != nil {
				err = errors.Wrap(openErr, "unable to open the log file")
				return
			}
			logFHandle = f
			fmt.Fprintf(os.Stderr, "Logging.LogLocation is set to %s. All logs are redirected to the log file.\n", logLocation)
			log.SetOutput(f)
			log.SetFormatter(&log.TextFormatter{
				FullTimestamp:          true,
				DisableColors:          true,
				DisableLevelTruncation: true,
			})
		} else {
			log.SetOutput(os.Stderr)
			log.SetFormatter(&log.TextFormatter{
				FullTimestamp:          true,
				ForceColors:            term.IsTerminal(log.StandardLogger().Out),
				DisableLevelTruncation: true,
			})
		}

		for _, entry := range hook.entries {
			formatted, fmtErr := entry.String()
			if fmtErr == nil {
				_, _ = log.StandardLogger().Out.Write([]byte(formatted))
			}
		}
		hook.entries = nil

		removeBufferedHook()

		if out, ok := log.StandardLogger().Out.(*os.File); ok {
			_ = out.Sync()
		}
	})
	return
}

// CloseLogger closes the redirected log file handle so tests can clean up
// after themselves. Outside tests the OS reclaims the handle at process
// exit; calling this earlier stops further writes from landing.
func CloseLogger() {
	if logFHandle != nil {
		_ = logFHandle.Close()
	}
}
