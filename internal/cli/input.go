package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword and isTerminal are test seams for the x/term calls.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// GetSimpleText prints a prompt to w and reads a single line of input from reader.
// The line is trimmed. If EOF occurs after some input was read, the partial
// line is returned.
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", fmt.Errorf("write prompt: %w", err)
	}

	return readLine(reader)
}

// GetPassword prints prompt to w and reads a password. On a terminal the input
// is not echoed; otherwise a line is read from reader.
func GetPassword(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", fmt.Errorf("write prompt: %w", err)
	}

	fd := int(os.Stdin.Fd()) //nolint:gosec
	if !isTerminal(fd) {
		return readLine(reader)
	}

	pw, err := readPassword(fd)
	_, _ = fmt.Fprintln(w)

	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	return string(pw), nil
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}

		return "", err //nolint:wrapcheck
	}

	return strings.TrimSpace(line), nil
}
