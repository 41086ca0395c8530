package logging

import (
	"log"
	"os"
	"strings"

	"github.com/hashicorp/logutils"
)

// levels are the log levels the filter understands, ordered from least to
// most severe.
var levels = []logutils.LogLevel{"DEBUG", "INFO", "WARN", "ERR"}

var logFilter = &logutils.LevelFilter{
	Levels:   levels,
	MinLevel: logutils.LogLevel("INFO"),
	Writer:   os.Stderr,
}

func init() {
	log.SetOutput(logFilter)
}

// SetLevel updates the minimum log level that will be written to the log
// output. Unrecognized levels fall back to INFO.
func SetLevel(level string) {
	min := logutils.LogLevel(strings.ToUpper(level))

	// Accept the long-form aliases used in older configuration files.
	switch min {
	case "WARNING":
		min = "WARN"
	case "ERROR":
		min = "ERR"
	}

	if !validLevel(min) {
		log.Printf("[WARN] logging: unknown log level %q, defaulting to INFO", level)
		min = "INFO"
	}

	logFilter.SetMinLevel(min)
}

func validLevel(level logutils.LogLevel) bool {
	for _, l := range levels {
		if l == level {
			return true
		}
	}
	return false
}

// Debug writes a debug level message to the log output.
func Debug(format string, v ...interface{}) {
	log.Printf("[DEBUG] "+format, v...)
}

// Info writes an info level message to the log output.
func Info(format string, v ...interface{}) {
	log.Printf("[INFO] "+format, v...)
}

// Warning writes a warning level message to the log output.
func Warning(format string, v ...interface{}) {
	log.Printf("[WARN] "+format, v...)
}

// Error writes an error level message to the log output.
func Error(format string, v ...interface{}) {
	log.Printf("[ERR] "+format, v...)
}
