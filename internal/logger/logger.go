package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Logger is the global application logger instance
	Logger *log.Logger

	// commandLogger writes the append-only JSON command log
	commandLogger *log.Logger
)

// Config holds logger configuration
type Config struct {
	Debug        bool
	WorkspaceDir string
}

// Init initializes the global loggers with the given configuration
func Init(cfg Config) error {
	logDir := filepath.Join(cfg.WorkspaceDir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	// Create rotating file handler
	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "pomblock.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	level := log.WarnLevel
	if cfg.Debug {
		level = log.DebugLevel
	}

	// In debug mode, write to both stderr and file
	var writer io.Writer
	if cfg.Debug {
		writer = io.MultiWriter(os.Stderr, fileWriter)
	} else {
		writer = fileWriter
	}

	Logger = log.NewWithOptions(writer, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          "pomblock",
	})

	// The command log is line-delimited JSON with stable keys:
	// {timestamp, level, command, message}. Hosts tail this file.
	log.TimestampKey = "timestamp"
	log.MessageKey = "message"
	commandLogger = log.NewWithOptions(&lumberjack.Logger{
		Filename:   filepath.Join(logDir, "commands.log"),
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}, log.Options{
		ReportTimestamp: true,
		Level:           log.InfoLevel,
		Formatter:       log.JSONFormatter,
	})

	return nil
}

// Debug logs a debug message
func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

// Info logs an info message
func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

// Warn logs a warning message
func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

// Error logs an error message
func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

// Fatal logs a fatal error and exits
func Fatal(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Fatal(msg, keyvals...)
	}
	os.Exit(1)
}

// CommandInfo appends an info entry to the JSON command log
func CommandInfo(command, message string) {
	if commandLogger != nil {
		commandLogger.Info(message, "command", command)
	}
}

// CommandError appends an error entry to the JSON command log.
// Every error surfaced to the host produces exactly one such entry.
func CommandError(command, message string) {
	if commandLogger != nil {
		commandLogger.Error(message, "command", command)
	}
}
