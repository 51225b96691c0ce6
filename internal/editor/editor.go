// Package editor runs the user's text editor as a blocking subprocess on a
// card content file.
package editor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Editor invokes an external editor command on a file path. Suspend and
// Resume, when set, bracket the subprocess so a terminal UI can hand over the
// display; Resume runs via defer and is therefore called even when the editor
// exits abnormally.
type Editor struct {
	Command string // e.g. "nvim"; may include arguments
	Suspend func()
	Resume  func()
}

// Edit opens the file in the configured editor and blocks until it exits.
// Only the post-invocation file content matters to callers; the editor's
// output is not consumed.
func (e *Editor) Edit(path string) (err error) {
	if e.Command == "" {
		return fmt.Errorf("no editor configured")
	}

	if e.Suspend != nil {
		e.Suspend()
	}
	if e.Resume != nil {
		defer e.Resume()
	}

	parts := strings.Fields(e.Command)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor %q failed: %w", parts[0], err)
	}
	return nil
}
