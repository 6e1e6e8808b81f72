package automation

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"al.essio.dev/pkg/shellescape"
	"github.com/castanaut/castanaut/utils"
)

// ScriptExecutor runs AppleScript source by writing it to a well-known
// temporary file and handing that file to osascript. The file is rewritten
// on every call and removed once the call returns.
type ScriptExecutor struct {
	runner Runner
	path   string
	binary string

	// one temp file, one script at a time
	mu sync.Mutex
}

// NewScriptExecutor returns an executor writing its source to path.
func NewScriptExecutor(runner Runner, path string) *ScriptExecutor {
	return &ScriptExecutor{
		runner: runner,
		path:   path,
		binary: "osascript",
	}
}

// Path returns the temp file location.
func (e *ScriptExecutor) Path() string {
	return e.path
}

// Execute runs source and returns the script result with surrounding
// whitespace trimmed.
func (e *ScriptExecutor) Execute(ctx context.Context, source string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := os.WriteFile(e.path, []byte(source), 0600); err != nil {
		return "", fmt.Errorf("failed to write applescript file %s: %w", e.path, err)
	}
	defer func() {
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			utils.Verbose("failed to remove applescript file %s: %v", e.path, err)
		}
	}()

	utils.Verbose("applescript:\n%s", source)
	out, err := e.runner.Run(ctx, e.binary+" "+shellescape.Quote(e.path))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// EscapeDoubleQuotes escapes backslashes and double quotes for embedding s
// in a double-quoted shell or AppleScript string.
func EscapeDoubleQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
