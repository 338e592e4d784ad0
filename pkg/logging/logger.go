// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for covenant components.
//
// Built on log/slog with a layered output model: human-readable text
// on stderr for CLI usage (Unix convention: stdout stays clean for
// results), plus an optional JSON log file per service and day.
//
// Basic usage:
//
//	logger := logging.New(logging.Config{
//	    Level:   logging.LevelInfo,
//	    LogDir:  "~/.covenant/logs",
//	    Service: "covenant",
//	})
//	defer logger.Close()
//	logger.SetAsDefault()
//
// After SetAsDefault, package-level slog calls anywhere in the process
// route through this logger.
//
// This package does NOT redact sensitive data. Callers must keep API
// keys and document contents out of log attributes.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents log severity, ordered Debug < Info < Warn < Error.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel reads a level name, case-insensitive. Unknown names
// default to Info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config controls logger construction.
type Config struct {
	// Level is the minimum severity emitted.
	Level Level

	// LogDir enables JSON file logging when non-empty. Supports a
	// leading ~ for the home directory; created if missing.
	LogDir string

	// Service names the component; used in the log file name.
	Service string
}

// Logger is a layered slog logger.
//
// Thread Safety: Logger is safe for concurrent use.
type Logger struct {
	slogger *slog.Logger

	mu   sync.Mutex
	file *os.File
}

// New builds a logger from config.
//
// Description:
//
//	Always attaches a text handler on stderr. When LogDir is set, also
//	attaches a JSON handler on {service}_{date}.log in that directory;
//	a file that cannot be opened degrades to stderr-only with a
//	warning rather than failing construction.
func New(config Config) *Logger {
	level := config.Level.toSlogLevel()
	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	}

	var file *os.File
	if config.LogDir != "" {
		service := config.Service
		if service == "" {
			service = "covenant"
		}
		dir := expandPath(config.LogDir)
		name := fmt.Sprintf("%s_%s.log", service, time.Now().Format("2006-01-02"))

		if err := os.MkdirAll(dir, 0o755); err == nil {
			f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err == nil {
				file = f
				handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
			} else {
				fmt.Fprintf(os.Stderr, "logging: cannot open log file: %v\n", err)
			}
		} else {
			fmt.Fprintf(os.Stderr, "logging: cannot create log dir: %v\n", err)
		}
	}

	return &Logger{
		slogger: slog.New(&multiHandler{handlers: handlers}),
		file:    file,
	}
}

// Default returns a stderr-only logger at Info level.
func Default() *Logger {
	return New(Config{Level: LevelInfo})
}

func (l *Logger) Debug(msg string, args ...any) { l.slogger.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slogger.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slogger.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slogger.Error(msg, args...) }

// With returns a logger carrying additional attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slogger: l.slogger.With(args...), file: l.file}
}

// Slog exposes the underlying slog.Logger for libraries that take one.
func (l *Logger) Slog() *slog.Logger {
	return l.slogger
}

// SetAsDefault installs this logger as the process-wide slog default.
func (l *Logger) SetAsDefault() {
	slog.SetDefault(l.slogger)
}

// Close flushes and closes the log file, if any. Safe to call on a
// stderr-only logger and safe to call twice.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// multiHandler fans one record out to every attached handler.
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: next}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: next}
}

// expandPath resolves a leading ~ to the home directory.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
		}
	}
	return path
}
