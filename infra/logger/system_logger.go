package logger

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/mstgnz/payone-bridge/infra/opensearch"
)

// LogLevel represents the severity level of a log entry
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
	LevelFatal LogLevel = "fatal"
)

// SystemLog represents a structured system log entry
type SystemLog struct {
	Timestamp   time.Time      `json:"timestamp"`
	Level       LogLevel       `json:"level"`
	Message     string         `json:"message"`
	Component   string         `json:"component"`
	Function    string         `json:"function"`
	File        string         `json:"file"`
	Line        int            `json:"line"`
	RequestType string         `json:"request_type,omitempty"`
	Error       string         `json:"error,omitempty"`
	Fields      map[string]any `json:"fields,omitempty"`
	Environment string         `json:"environment"`
	Service     string         `json:"service"`
	Version     string         `json:"version"`
}

// SystemLogger handles structured logging to console and OpenSearch
type SystemLogger struct {
	openSearchLogger *opensearch.Logger
	enableConsole    bool
	enableOpenSearch bool
	minLevel         LogLevel
	service          string
	version          string
	environment      string
}

// SystemLoggerConfig represents configuration for system logger
type SystemLoggerConfig struct {
	EnableConsole    bool
	EnableOpenSearch bool
	MinLevel         LogLevel
	Service          string
	Version          string
	Environment      string
}

// NewSystemLogger creates a new system logger
func NewSystemLogger(openSearchLogger *opensearch.Logger, config SystemLoggerConfig) *SystemLogger {
	return &SystemLogger{
		openSearchLogger: openSearchLogger,
		enableConsole:    config.EnableConsole,
		enableOpenSearch: config.EnableOpenSearch && openSearchLogger != nil,
		minLevel:         config.MinLevel,
		service:          config.Service,
		version:          config.Version,
		environment:      config.Environment,
	}
}

// LogContext holds contextual information for logging
type LogContext struct {
	RequestType string
	Fields      map[string]any
}

// Debug logs a debug message
func (sl *SystemLogger) Debug(message string, ctx ...LogContext) {
	sl.log(LevelDebug, message, ctx...)
}

// Info logs an info message
func (sl *SystemLogger) Info(message string, ctx ...LogContext) {
	sl.log(LevelInfo, message, ctx...)
}

// Warn logs a warning message
func (sl *SystemLogger) Warn(message string, ctx ...LogContext) {
	sl.log(LevelWarn, message, ctx...)
}

// Error logs an error message
func (sl *SystemLogger) Error(message string, err error, ctx ...LogContext) {
	logCtx := LogContext{}
	if len(ctx) > 0 {
		logCtx = ctx[0]
	}

	if logCtx.Fields == nil {
		logCtx.Fields = make(map[string]any)
	}

	if err != nil {
		logCtx.Fields["error"] = err.Error()
	}

	sl.log(LevelError, message, logCtx)
}

// Fatal logs a fatal message and exits
func (sl *SystemLogger) Fatal(message string, err error, ctx ...LogContext) {
	sl.Error(message, err, ctx...)
	os.Exit(1)
}

// log is the core logging function
func (sl *SystemLogger) log(level LogLevel, message string, ctx ...LogContext) {
	if !sl.shouldLog(level) {
		return
	}

	// Get caller information
	pc, file, line, ok := runtime.Caller(3)
	if !ok {
		file = "unknown"
		line = 0
	}

	function := "unknown"
	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			function = fn.Name()
			if idx := strings.LastIndex(function, "."); idx != -1 {
				function = function[idx+1:]
			}
		}
	}

	component := sl.extractComponent(file)

	logEntry := SystemLog{
		Timestamp:   time.Now().UTC(),
		Level:       level,
		Message:     message,
		Component:   component,
		Function:    function,
		File:        file,
		Line:        line,
		Environment: sl.environment,
		Service:     sl.service,
		Version:     sl.version,
	}

	if len(ctx) > 0 {
		logEntry.RequestType = ctx[0].RequestType
		logEntry.Fields = ctx[0].Fields
	}
	if errVal, ok := logEntry.Fields["error"].(string); ok {
		logEntry.Error = errVal
	}

	if sl.enableConsole {
		sl.writeConsole(logEntry)
	}

	if sl.enableOpenSearch {
		sl.shipToOpenSearch(logEntry)
	}
}

// writeConsole prints the entry via the standard logger
func (sl *SystemLogger) writeConsole(entry SystemLog) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s: %s", strings.ToUpper(string(entry.Level)), entry.Component, entry.Message))

	if entry.RequestType != "" {
		sb.WriteString(fmt.Sprintf(" request_type=%s", entry.RequestType))
	}
	for key, value := range entry.Fields {
		sb.WriteString(fmt.Sprintf(" %s=%v", key, value))
	}

	log.Println(sb.String())
}

// shipToOpenSearch forwards the entry without blocking the caller
func (sl *SystemLogger) shipToOpenSearch(entry SystemLog) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		doc := opensearch.SystemLogDocument{
			Timestamp:   entry.Timestamp,
			Level:       string(entry.Level),
			Message:     entry.Message,
			Component:   entry.Component,
			Function:    entry.Function,
			RequestType: entry.RequestType,
			Error:       entry.Error,
			Fields:      entry.Fields,
			Service:     entry.Service,
			Environment: entry.Environment,
		}

		if err := sl.openSearchLogger.IndexSystemLog(ctx, doc); err != nil {
			log.Printf("Failed to ship log to OpenSearch: %v", err)
		}
	}()
}

// shouldLog reports whether the level passes the configured minimum
func (sl *SystemLogger) shouldLog(level LogLevel) bool {
	levels := map[LogLevel]int{
		LevelDebug: 0,
		LevelInfo:  1,
		LevelWarn:  2,
		LevelError: 3,
		LevelFatal: 4,
	}

	min, ok := levels[sl.minLevel]
	if !ok {
		min = 1
	}
	return levels[level] >= min
}

// extractComponent derives a component name from the caller's file path
func (sl *SystemLogger) extractComponent(file string) string {
	parts := strings.Split(file, "/")
	if len(parts) >= 2 {
		return parts[len(parts)-2]
	}
	return strings.TrimSuffix(parts[len(parts)-1], ".go")
}

// ContextLogger carries a fixed LogContext across calls
type ContextLogger struct {
	logger *SystemLogger
	ctx    LogContext
}

// WithContext creates a context logger bound to the given context
func (sl *SystemLogger) WithContext(ctx LogContext) *ContextLogger {
	return &ContextLogger{logger: sl, ctx: ctx}
}

// Debug logs a debug message with the bound context
func (cl *ContextLogger) Debug(message string) {
	cl.logger.Debug(message, cl.ctx)
}

// Info logs an info message with the bound context
func (cl *ContextLogger) Info(message string) {
	cl.logger.Info(message, cl.ctx)
}

// Warn logs a warning message with the bound context
func (cl *ContextLogger) Warn(message string) {
	cl.logger.Warn(message, cl.ctx)
}

// Error logs an error message with the bound context
func (cl *ContextLogger) Error(message string, err error) {
	cl.logger.Error(message, err, cl.ctx)
}
