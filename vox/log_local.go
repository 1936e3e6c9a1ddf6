package vox

import (
	"fmt"
	"log"

	"github.com/natefinch/lumberjack"
)

type stdLogger struct {
	*lumberjack.Logger
}

var logger stdLogger

// LogConfig configures the rotating log file.
type LogConfig struct {
	Logfile string `toml:"logfile"`
	MaxSize int    `toml:"max_log_size"`
	MaxAge  int    `toml:"max_log_age"`
}

// SetLogger creates a logger that saves to a rotating log file.
func (c *LogConfig) SetLogger() {
	if c == nil || c.Logfile == "" {
		Infof("Sending log messages to stdout since no log file specified.")
		return
	}
	fmt.Printf("Sending log messages to: %s\n", c.Logfile)
	l := &lumberjack.Logger{
		Filename: c.Logfile,
		MaxSize:  c.MaxSize, // megabytes
		MaxAge:   c.MaxAge,  // days
	}
	log.SetOutput(l)
	logger = stdLogger{l}
}

func (slog stdLogger) write(level, format string, args ...interface{}) {
	msg := level + " " + fmt.Sprintf(format, args...)
	if slog.Logger != nil {
		slog.Write([]byte(msg))
	} else {
		log.Print(msg)
	}
}

func (slog stdLogger) Debugf(format string, args ...interface{}) {
	slog.write("DEBUG", format, args...)
}

func (slog stdLogger) Infof(format string, args ...interface{}) {
	slog.write("INFO", format, args...)
}

func (slog stdLogger) Warningf(format string, args ...interface{}) {
	slog.write("WARNING", format, args...)
}

func (slog stdLogger) Errorf(format string, args ...interface{}) {
	slog.write("ERROR", format, args...)
}

func (slog stdLogger) Criticalf(format string, args ...interface{}) {
	slog.write("CRITICAL", format, args...)
}

// Shutdown closes any open log file.
func (slog stdLogger) Shutdown() {
	if slog.Logger != nil {
		slog.Close()
	}
}
