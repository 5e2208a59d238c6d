// Package output copies translated text to the system clipboard.
package output

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// Clipboard writes text through a configurable external command (wl-copy,
// xclip, ...), keeping the core free of display-server specifics.
type Clipboard struct {
	argv []string
}

// NewClipboard constructs a clipboard writer from a parsed command argv.
func NewClipboard(argv []string) *Clipboard {
	return &Clipboard{argv: argv}
}

// Copy writes text to the clipboard via the configured command's stdin.
func (c *Clipboard) Copy(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	if len(c.argv) == 0 {
		return fmt.Errorf("clipboard command is not configured")
	}

	cmdCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, c.argv[0], c.argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", c.argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", c.argv[0], err)
	}

	if _, err := stdin.Write([]byte(text)); err != nil {
		_ = stdin.Close()
		_ = cmd.Wait()
		return fmt.Errorf("write stdin for %s: %w", c.argv[0], err)
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", c.argv[0], err)
	}
	return nil
}
