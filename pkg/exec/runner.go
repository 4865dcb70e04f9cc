// Package exec provides utilities for running external commands
// with consistent output handling and logging.
package exec

import (
	"bytes"
	"io"
	"os"
	"os/exec"
)

// RunCmd runs a command with output handling based on verbose mode.
// In verbose mode, output is shown in real-time. In quiet mode, output
// is captured and only shown if the command fails.
func RunCmd(cmd *exec.Cmd, verbose bool) error {
	return runCmd(cmd, verbose, os.Stdout, os.Stderr)
}

func runCmd(cmd *exec.Cmd, verbose bool, stdout, stderr io.Writer) error {
	if verbose {
		cmd.Stdout = stdout
		cmd.Stderr = stderr

		return cmd.Run()
	}

	// Quiet mode: capture output, only show if command fails
	var output bytes.Buffer

	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		if output.Len() > 0 {
			_, _ = stderr.Write(output.Bytes())
		}

		return err
	}

	return nil
}
