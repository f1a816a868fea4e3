// Package lint runs the project's configured lint command and captures its
// outcome. The output is opaque to the rest of the pipeline: synthesis
// attaches it to the final review without interpretation.
package lint

import (
	"context"
	"os/exec"
	"strings"

	"github.com/sanix-darker/quorum/internal/review"
)

// Run executes the configured lint command in dir, split on whitespace
// without shell interpretation. An empty command disables linting and
// returns nil. A non-zero exit is a lint failure, not an execution error;
// only a command that cannot run at all surfaces as an error.
func Run(ctx context.Context, command, dir string) (*review.LintResult, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, nil
	}

	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()

	result := &review.LintResult{
		Tool:   fields[0],
		Output: strings.TrimSpace(string(out)),
	}

	if err == nil {
		result.Passed = true
		return result, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	return nil, err
}
