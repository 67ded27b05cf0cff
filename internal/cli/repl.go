package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	context_ "github.com/mkrupp/chatapp/internal/infra/context"
	"github.com/mkrupp/chatapp/internal/shell"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// errQuit ends the loop.
var errQuit = errors.New("quit")

// execIface is the command surface the loop drives. *App satisfies it; tests
// can provide a lightweight stub.
type execIface interface {
	Screen() shell.Screen
	Login(ctx context.Context) error
	Register(ctx context.Context) error
	Show(screen shell.Screen) error
	Logout(ctx context.Context) error
	Say(ctx context.Context, text string) error
	Photo(ctx context.Context) error
	Location(ctx context.Context) error
	Image(ctx context.Context, id string, width int) error
	History() error
}

// runREPL reads lines from reader and dispatches them until EOF, "exit" or
// "/exit". Each command runs with its own trace id. Errors returned by command
// handlers are not fatal; handlers report to the user themselves.
//
//	Login / Register:
//	  login            sign in (on Register: back to Login)
//	  register         open the Register screen (on Register: sign up)
//	  help, exit
//
//	Home:
//	  <text>           send a message
//	  /photo           send a photo
//	  /location        share the current location
//	  /image <id> [w]  show where a sent photo is stored, optionally scaled to w
//	  /history         print the conversation
//	  /logout, /help, /exit
func runREPL(ctx context.Context, a execIface, reader *bufio.Reader) error {
	for {
		printlnFn(fmt.Sprintf("chat> %s >", strings.ToLower(string(a.Screen()))))

		line, err := readLine(reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}

			return fmt.Errorf("read command: %w", err)
		}

		cmdCtx := context_.WithTraceID(ctx, context_.NewTraceID())

		if err := dispatch(cmdCtx, a, line); err != nil {
			if errors.Is(err, errQuit) {
				printlnFn("Bye!")

				return nil
			}
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

//nolint:cyclop
func dispatch(ctx context.Context, a execIface, line string) error {
	if line == "" {
		return nil
	}

	if a.Screen() == shell.ScreenHome {
		if !strings.HasPrefix(line, "/") {
			return a.Say(ctx, line)
		}

		line = line[1:]
	}

	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	cmd, args := parts[0], parts[1:]

	switch a.Screen() {
	case shell.ScreenLogin, shell.ScreenRegister:
		switch cmd {
		case "help":
			printlnFn("Available commands: login, register, exit")

			return nil
		case "login":
			if a.Screen() == shell.ScreenRegister {
				return a.Show(shell.ScreenLogin)
			}

			return a.Login(ctx)
		case "register":
			if a.Screen() == shell.ScreenLogin {
				return a.Show(shell.ScreenRegister)
			}

			return a.Register(ctx)
		case "exit", "quit":
			return errQuit
		}

	case shell.ScreenHome:
		switch cmd {
		case "help":
			printlnFn("Type to send a message. Commands: /photo, /location, /image <id> [width], /history, /logout, /exit")

			return nil
		case "photo":
			return a.Photo(ctx)
		case "location":
			return a.Location(ctx)
		case "image":
			return image(ctx, a, args)
		case "history":
			return a.History()
		case "logout":
			return a.Logout(ctx)
		case "exit", "quit":
			return errQuit
		}

	case shell.ScreenLoading:
		printlnFn("Please wait...")

		return nil
	}

	printlnFn("Unknown command:", cmd)

	return nil
}

func image(ctx context.Context, a execIface, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		printlnFn("Usage: /image <id> [width]")

		return nil
	}

	width := 0

	if len(args) == 2 {
		if _, err := fmt.Sscanf(args[1], "%d", &width); err != nil || width < 0 {
			printlnFn("Width must be a positive number")

			return nil
		}
	}

	return a.Image(ctx, args[0], width)
}
