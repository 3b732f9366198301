// Package logger provides centralized logging functionality for the query compiler.
package logger

import (
	"log"
	"os"
	"sync/atomic"
)

// Logger provides structured logging for the query compiler.
var logger = log.New(os.Stderr, "[QueryCompiler] ", log.LstdFlags|log.Lshortfile)

var debugEnabled atomic.Bool

// SetDebug toggles LogDebug output. Debug output is off by default because the compiler
// logs every generated script fragment at that level.
func SetDebug(enabled bool) {
	debugEnabled.Store(enabled)
}

// LogError logs an error with context information.
//
// Parameters:
//   - context: A description of where/when the error occurred
//   - err: The error that occurred
func LogError(context string, err error) {
	if err != nil {
		logger.Printf("ERROR: %s: %v", context, err)
	}
}

// LogInfo logs an informational message.
//
// Parameters:
//   - message: The message to log
func LogInfo(message string) {
	logger.Printf("INFO: %s", message)
}

// LogWarning logs a warning message.
//
// Parameters:
//   - message: The warning message to log
func LogWarning(message string) {
	logger.Printf("WARN: %s", message)
}

// LogDebug logs a debug message when debug output is enabled.
//
// Parameters:
//   - message: The debug message to log
func LogDebug(message string) {
	if debugEnabled.Load() {
		logger.Printf("DEBUG: %s", message)
	}
}

// LogCompileFailure logs a rejected clause together with the entity type it targeted.
//
// Parameters:
//   - entityType: The entity type the clause was compiled against
//   - err: The compilation error
func LogCompileFailure(entityType string, err error) {
	logger.Printf("ERROR: compiling clause for %s: %v", entityType, err)
}
