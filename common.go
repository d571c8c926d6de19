package gridwalk

import (
	"log"
)

var debugFlag = false

// SetDebug turns wire-level tracing of waits and page-navigation verdicts on
// or off.
func SetDebug(debug bool) {
	debugFlag = debug
}

func debugLog(format string, args ...interface{}) {
	if !debugFlag {
		return
	}
	log.Printf(format+"\n", args...)
}
