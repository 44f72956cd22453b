package core

import (
	"log"
	"os"
	"strings"
)

type logLevel int

const (
	logSilent logLevel = iota
	logError
	logInfo
	logDebug
)

var currentLevel = logInfo

func SetLogLevel(levelStr string) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "silent":
		currentLevel = logSilent
	case "error":
		currentLevel = logError
	case "info", "":
		currentLevel = logInfo
	case "debug":
		currentLevel = logDebug
	default:
		currentLevel = logInfo
	}
}

func Debugf(format string, v ...interface{}) {
	if currentLevel >= logDebug {
		log.Printf("[DEBUG] "+format, v...)
	}
}

func Infof(format string, v ...interface{}) {
	if currentLevel >= logInfo {
		log.Printf("[INFO] "+format, v...)
	}
}

func Errorf(format string, v ...interface{}) {
	if currentLevel >= logError {
		log.Printf("[ERROR] "+format, v...)
	}
}

// AttachLoggerOutput redirects the process log, e.g. to a file under DATA_DIR.
func AttachLoggerOutput(file *os.File) {
	log.SetOutput(file)
}
