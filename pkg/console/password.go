package console

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// TerminalPasswordReader returns a PasswordReader that disables echo on f,
// or nil when f is not a terminal.
func TerminalPasswordReader(f *os.File, out io.Writer) PasswordReader {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	return func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
}
