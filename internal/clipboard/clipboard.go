// Package clipboard copies text to the system clipboard through the
// platform's copy utility.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrUnavailable is returned when no copy utility is installed.
var ErrUnavailable = errors.New("no clipboard utility found")

const copyTimeout = 2 * time.Second

// tool is a copy utility and its arguments.
type tool struct {
	name string
	args []string
}

// candidates lists copy utilities in order of preference for goos.
// Wayland sessions prefer wl-copy.
func candidates(goos string, wayland bool) []tool {
	switch goos {
	case "darwin":
		return []tool{{name: "pbcopy"}}
	case "windows":
		return []tool{{name: "clip"}}
	}

	x11 := []tool{
		{name: "xclip", args: []string{"-selection", "clipboard"}},
		{name: "xsel", args: []string{"--clipboard", "--input"}},
	}
	if wayland {
		return append([]tool{{name: "wl-copy"}}, x11...)
	}
	return append(x11, tool{name: "wl-copy"})
}

// find returns the first candidate lookPath resolves.
func find(goos string, wayland bool, lookPath func(string) (string, error)) (tool, bool) {
	for _, t := range candidates(goos, wayland) {
		if _, err := lookPath(t.name); err == nil {
			return t, true
		}
	}
	return tool{}, false
}

func detect() (tool, bool) {
	return find(runtime.GOOS, os.Getenv("WAYLAND_DISPLAY") != "", exec.LookPath)
}

// Available reports whether a copy utility is installed.
func Available() bool {
	_, ok := detect()
	return ok
}

// Write copies text to the clipboard.
func Write(ctx context.Context, text string) error {
	t, ok := detect()
	if !ok {
		return ErrUnavailable
	}

	cmd := exec.CommandContext(ctx, t.name, t.args...)
	cmd.Stdin = strings.NewReader(text)
	if out, err := cmd.CombinedOutput(); err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s: %w: %s", t.name, err, msg)
		}
		return fmt.Errorf("%s: %w", t.name, err)
	}
	return nil
}

// CopiedMsg reports the outcome of Copy.
type CopiedMsg struct {
	Err error
}

// Copy returns a command that copies text off the update loop.
func Copy(text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), copyTimeout)
		defer cancel()
		return CopiedMsg{Err: Write(ctx, text)}
	}
}
