package cli

import (
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := ""
	if a.userName != "" {
		s = a.userName + " "
	}
	if a.current != nil {
		s = s + "[" + a.current.Name + "] "
	}
	if a.mode != "" {
		s = s + string(a.mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root prints the banner and runs the REPL on the app's input.
func (a *App) Root(ctx context.Context) {
	a.printf("Welcome to Afterlight (type 'help' for commands)\n")
	runREPL(ctx, a, a.getStatus, a.reader)
}
