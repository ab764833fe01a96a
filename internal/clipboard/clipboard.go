// Package clipboard copies text to the system clipboard, normalizing a
// primary library path and a platform-command fallback into a single
// success/failure outcome. Nothing here ever returns an error: callers
// render transient UI feedback from the boolean instead.
package clipboard

import (
	"log"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
)

// Copier copies text to the system clipboard.
type Copier struct {
	primary  func(string) error
	fallback func(string) error
}

// New returns a Copier using the clipboard library as the primary path and
// a platform copy command as the fallback.
func New() *Copier {
	return &Copier{
		primary:  clipboard.WriteAll,
		fallback: commandCopy,
	}
}

// NewWith returns a Copier with injected paths, for tests.
func NewWith(primary, fallback func(string) error) *Copier {
	return &Copier{primary: primary, fallback: fallback}
}

// Copy attempts the primary path, then the fallback. It reports success and
// never propagates an error past this boundary.
func (c *Copier) Copy(text string) bool {
	if c.primary != nil {
		if err := c.primary(text); err == nil {
			return true
		} else {
			log.Printf("clipboard: primary copy failed: %v", err)
		}
	}
	if c.fallback != nil {
		if err := c.fallback(text); err == nil {
			return true
		} else {
			log.Printf("clipboard: fallback copy failed: %v", err)
		}
	}
	return false
}

// commandCopy pipes text into the platform's copy command.
func commandCopy(text string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("pbcopy")
	case "windows":
		cmd = exec.Command("clip")
	default:
		if _, err := exec.LookPath("wl-copy"); err == nil {
			cmd = exec.Command("wl-copy")
		} else {
			cmd = exec.Command("xclip", "-selection", "clipboard")
		}
	}
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}
