/*
Copyright © 2023 sanix-darker <s4nixd@gmail.com>
*/
package common

import (
	"fmt"
	"io"
)

// LogError prints an error message to the given writer.
func LogError(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format+"\n", args...)
}

// LogDebug prints a debug message when debug mode is enabled.
func LogDebug(w io.Writer, enabled bool, format string, args ...interface{}) {
	if !enabled {
		return
	}
	fmt.Fprintf(w, "> "+format+"\n", args...)
}
