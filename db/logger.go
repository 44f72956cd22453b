package db

import "log"

// Minimal leveled logging for the db package so it does not depend on core.
var verbose bool

// SetVerbose enables connection and schema logging.
func SetVerbose(v bool) {
	verbose = v
}

func logInfof(format string, v ...interface{}) {
	if verbose {
		log.Printf("[db] "+format, v...)
	}
}
