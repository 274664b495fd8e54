package testsupport

import (
	"context"
	"sync"

	"hifidel/internal/services/pbtools"
)

// ScriptedExecutor records every command it receives and delegates behaviour
// to an optional handler, letting stage tests simulate external tools
// (including the files they would produce) without real binaries.
type ScriptedExecutor struct {
	mu       sync.Mutex
	commands []pbtools.Command

	// Handler is invoked for each command; a nil handler succeeds without
	// side effects. Handlers that model tool output should create the files
	// the real tool would write.
	Handler func(cmd pbtools.Command) error
}

func (e *ScriptedExecutor) Run(_ context.Context, cmd pbtools.Command) error {
	e.mu.Lock()
	e.commands = append(e.commands, cmd)
	e.mu.Unlock()

	if e.Handler != nil {
		return e.Handler(cmd)
	}
	return nil
}

// Commands returns a snapshot of the recorded invocations.
func (e *ScriptedExecutor) Commands() []pbtools.Command {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]pbtools.Command, len(e.commands))
	copy(out, e.commands)
	return out
}

// CallCount returns how many commands have been executed.
func (e *ScriptedExecutor) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.commands)
}
