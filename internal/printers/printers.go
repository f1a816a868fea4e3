// Package printers holds the interactive prompt helpers used by the CLI.
package printers

import (
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
)

// Confirm prompts a y/n question on the terminal.
//
// Returns true only when the user entered y/Y.
func Confirm(message string) bool {
	validate := func(input string) error {
		input = strings.ToLower(strings.TrimSpace(input))
		if input != "y" && input != "n" {
			return fmt.Errorf("wrong input %s, was expecting `y` or `n`", input)
		}
		return nil
	}

	prompt := promptui.Prompt{
		Label:    message + " Press (y/n)",
		Validate: validate,
	}

	result, err := prompt.Run()
	if err != nil {
		return false
	}
	return strings.ToLower(strings.TrimSpace(result)) == "y"
}
