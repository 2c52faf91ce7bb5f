package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Vaults(ctx context.Context) error
	NewVault(ctx context.Context) error
	Unlock(ctx context.Context, ref string) error
	Lock(ctx context.Context) error
	List(ctx context.Context) error
	AddText(ctx context.Context) error
	AddFile(ctx context.Context, path string) error
	Reveal(ctx context.Context, ref string) error
	Download(ctx context.Context, ref string) error
}

const (
	helpLoggedOut = "Available commands: register, login, exit"
	helpLoggedIn  = "Available commands: (v)aults, newvault, unlock <vault>, lock, (l)ist, addtext, addfile <path>, reveal <n>, download <n>, logout, exit"
)

// runREPL reads commands from reader and dispatches them to a until EOF,
// "exit" or "quit". Commands that prompt for more input read from the same
// reader, so no input is buffered ahead here.
//
//	Not logged in:
//	  - help           : show available commands
//	  - register       : create an account
//	  - login          : authenticate (falls back to offline login)
//	  - exit | quit    : leave the program
//
//	Logged in:
//	  - vaults | v     : list vaults
//	  - newvault       : create a vault and unlock it
//	  - unlock <vault> : unlock a vault (number, name or id) and select it
//	  - lock           : lock the selected vault
//	  - list | l       : list sealed artifacts of the selected vault
//	  - addtext        : store a text secret
//	  - addfile <path> : store an encrypted file
//	  - reveal <n>     : decrypt and show an artifact
//	  - download <n>   : decrypt a file artifact to the downloads directory
//	  - logout         : lock everything and drop local data
//
// Errors returned by command handlers are ignored here; handlers report
// them to the user themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("al %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}
			continue
		case "register":
			_ = a.Register(ctx)
			continue
		case "login":
			_ = a.Login(ctx)
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		if !a.isLoggedIn() {
			if isKnownCommand(cmd) {
				printlnFn("Please log in first")
			} else {
				printlnFn("Unknown command:", cmd)
			}
			continue
		}

		switch cmd {
		case "v", "vaults":
			_ = a.Vaults(ctx)
		case "newvault":
			_ = a.NewVault(ctx)
		case "unlock":
			if len(args) == 0 {
				printlnFn("Usage: unlock <vault>")
				continue
			}
			_ = a.Unlock(ctx, strings.Join(args, " "))
		case "lock":
			_ = a.Lock(ctx)
		case "l", "list":
			_ = a.List(ctx)
		case "addtext":
			_ = a.AddText(ctx)
		case "addfile":
			if len(args) == 0 {
				printlnFn("Usage: addfile <path>")
				continue
			}
			_ = a.AddFile(ctx, strings.Join(args, " "))
		case "reveal":
			if len(args) != 1 {
				printlnFn("Usage: reveal <n>")
				continue
			}
			_ = a.Reveal(ctx, args[0])
		case "download":
			if len(args) != 1 {
				printlnFn("Usage: download <n>")
				continue
			}
			_ = a.Download(ctx, args[0])
		case "logout":
			_ = a.Logout(ctx)
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func isKnownCommand(cmd string) bool {
	switch cmd {
	case "v", "vaults", "newvault", "unlock", "lock", "l", "list", "addtext", "addfile", "reveal", "download", "logout":
		return true
	}
	return false
}
