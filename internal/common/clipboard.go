package common

import (
	"github.com/atotto/clipboard"
)

// SetClipboardValue copies the rendered review to the system clipboard.
func SetClipboardValue(value string) error {
	return clipboard.WriteAll(value)
}
