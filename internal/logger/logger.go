// Copyright 2023 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger provides the structured, severity-leveled logging used
// throughout the write-behind engine. It wraps log/slog with a custom
// handler that emits the fixed text/JSON line shapes operators already
// parse, and layers asyncLogger + lumberjack on top when logging to a
// rotating file so that log I/O never blocks a request-path caller.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/amarts/writeback/cfg"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Custom slog levels. TRACE sits below slog's built-in Debug; OFF sits
// above Error so that every standard level compares less than it.
const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelOff   = slog.Level(12)
)

const textTimeLayout = "02/01/2006 15:04:05.000000"

func severityName(level slog.Level) string {
	switch {
	case level < LevelDebug:
		return "TRACE"
	case level < LevelInfo:
		return "DEBUG"
	case level < LevelWarn:
		return "INFO"
	case level < LevelError:
		return "WARNING"
	default:
		return "ERROR"
	}
}

func severityToSlogLevel(level cfg.LogSeverity) slog.Level {
	switch level {
	case cfg.TraceLogSeverity:
		return LevelTrace
	case cfg.DebugLogSeverity:
		return LevelDebug
	case cfg.WarningLogSeverity:
		return LevelWarn
	case cfg.ErrorLogSeverity:
		return LevelError
	case cfg.OffLogSeverity:
		return LevelOff
	default:
		return LevelInfo
	}
}

// textOrJSONHandler is a slog.Handler emitting either
//
//	time="02/01/2006 15:04:05.000000" severity=INFO message="..."
//
// or
//
//	{"timestamp":{"seconds":...,"nanos":...},"severity":"INFO","message":"..."}
//
// depending on format. prefix is prepended to every message, matching the
// per-test-suite / per-component message tagging the teacher's logger
// supports.
type textOrJSONHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  *slog.LevelVar
	format cfg.LogFormat
	prefix string
}

func (h *textOrJSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *textOrJSONHandler) Handle(_ context.Context, r slog.Record) error {
	sev := severityName(r.Level)
	msg := h.prefix + r.Message

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.format == cfg.JSONLogFormat {
		_, err := fmt.Fprintf(h.w, "{\"timestamp\":{\"seconds\":%d,\"nanos\":%d},\"severity\":%q,\"message\":%q}\n",
			r.Time.Unix(), r.Time.Nanosecond(), sev, msg)
		return err
	}
	_, err := fmt.Fprintf(h.w, "time=%q severity=%s message=%q\n", r.Time.Format(textTimeLayout), sev, msg)
	return err
}

func (h *textOrJSONHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *textOrJSONHandler) WithGroup(_ string) slog.Handler      { return h }

// loggerFactory holds the mutable state backing the package-level logger:
// where it writes, at what severity, and in which wire format.
type loggerFactory struct {
	file            *os.File
	sysWriter       io.Writer
	format          cfg.LogFormat
	level           cfg.LogSeverity
	logRotateConfig cfg.LogRotateConfig
}

func (lf *loggerFactory) createJsonOrTextHandler(w io.Writer, programLevel *slog.LevelVar, prefix string) slog.Handler {
	return &textOrJSONHandler{
		mu:     &sync.Mutex{},
		w:      w,
		level:  programLevel,
		format: lf.format,
		prefix: prefix,
	}
}

var (
	defaultLoggerFactory = &loggerFactory{
		sysWriter:       os.Stdout,
		format:          cfg.TextLogFormat,
		level:           cfg.InfoLogSeverity,
		logRotateConfig: cfg.LogRotateConfig{MaxFileSizeMB: 512, BackupFileCount: 10, Compress: true},
	}
	defaultLevelVar = newLevelVar(cfg.InfoLogSeverity)
	defaultLogger   = slog.New(defaultLoggerFactory.createJsonOrTextHandler(os.Stdout, defaultLevelVar, ""))
)

func newLevelVar(sev cfg.LogSeverity) *slog.LevelVar {
	lv := new(slog.LevelVar)
	setLoggingLevel(sev, lv)
	return lv
}

func setLoggingLevel(level cfg.LogSeverity, programLevel *slog.LevelVar) {
	programLevel.Set(severityToSlogLevel(level))
}

func rebuildDefaultLogger() {
	var w io.Writer = defaultLoggerFactory.sysWriter
	if defaultLoggerFactory.file != nil {
		w = NewAsyncLogger(&lumberjack.Logger{
			Filename:   defaultLoggerFactory.file.Name(),
			MaxSize:    defaultLoggerFactory.logRotateConfig.MaxFileSizeMB,
			MaxBackups: defaultLoggerFactory.logRotateConfig.BackupFileCount,
			Compress:   defaultLoggerFactory.logRotateConfig.Compress,
		}, 1024)
	}
	defaultLevelVar = newLevelVar(defaultLoggerFactory.level)
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(w, defaultLevelVar, ""))
}

// InitLogFile redirects the package logger to write to the file named by
// cfg.LogRotate.FilePath, rotating it per cfg.LogRotate, at the configured
// severity and format. Passing an empty FilePath is a no-op — the logger
// keeps writing to its current writer (stdout by default).
func InitLogFile(c cfg.LoggingConfig) error {
	if c.LogRotate.FilePath == "" {
		return nil
	}

	f, err := os.OpenFile(string(c.LogRotate.FilePath), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening log file %q: %w", c.LogRotate.FilePath, err)
	}

	defaultLoggerFactory.file = f
	defaultLoggerFactory.sysWriter = nil
	defaultLoggerFactory.format = c.Format
	defaultLoggerFactory.level = c.Severity
	defaultLoggerFactory.logRotateConfig = c.LogRotate

	rebuildDefaultLogger()
	return nil
}

// SetLogFormat switches the package logger's wire format at runtime. An
// empty format defaults to JSON, matching the teacher's fail-safe-to-the-
// more-parseable-format behavior.
func SetLogFormat(format cfg.LogFormat) {
	if format == "" {
		format = cfg.JSONLogFormat
	}
	defaultLoggerFactory.format = format
	rebuildDefaultLogger()
}

func logf(ctx context.Context, level slog.Level, format string, v ...interface{}) {
	if !defaultLogger.Enabled(ctx, level) {
		return
	}
	defaultLogger.Log(ctx, level, fmt.Sprintf(format, v...))
}

func Tracef(format string, v ...interface{}) { logf(context.Background(), LevelTrace, format, v...) }
func Debugf(format string, v ...interface{}) { logf(context.Background(), LevelDebug, format, v...) }
func Infof(format string, v ...interface{})  { logf(context.Background(), LevelInfo, format, v...) }
func Warnf(format string, v ...interface{})  { logf(context.Background(), LevelWarn, format, v...) }
func Errorf(format string, v ...interface{}) { logf(context.Background(), LevelError, format, v...) }

// logAt logs msg at level with the timestamp at instead of time.Now(), for
// tests and replay tooling that need deterministic timestamps.
func logAt(ctx context.Context, level slog.Level, at time.Time, msg string) {
	if !defaultLogger.Enabled(ctx, level) {
		return
	}
	r := slog.NewRecord(at, level, msg, 0)
	_ = defaultLogger.Handler().Handle(ctx, r)
}
