// Package prompt reads interactive answers for the admin commands.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"golang.org/x/term"
)

// maxAttempts bounds re-prompting on invalid input.
const maxAttempts = 3

// Reader prompts on out and reads answers from in. When in is a terminal,
// passwords are read without echo.
type Reader struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
	tty bool
}

// NewReader prompts on stdout and reads from stdin.
func NewReader() *Reader {
	fd := int(os.Stdin.Fd())
	return &Reader{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
		fd:  fd,
		tty: term.IsTerminal(fd),
	}
}

// NewReaderFrom reads from in without terminal handling.
func NewReaderFrom(in io.Reader, out io.Writer) *Reader {
	return &Reader{in: bufio.NewReader(in), out: out}
}

func (r *Reader) line() (string, error) {
	s, err := r.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(s), nil
}

// String prompts for a value, returning def when the answer is empty.
func (r *Reader) String(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(r.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(r.out, "%s: ", label)
	}
	s, err := r.line()
	if err != nil {
		return "", err
	}
	if s == "" {
		return def, nil
	}
	return s, nil
}

// Email prompts until a valid address is entered.
func (r *Reader) Email(label string) (string, error) {
	for range maxAttempts {
		fmt.Fprintf(r.out, "%s: ", label)
		s, err := r.line()
		if err != nil {
			return "", err
		}
		if err := validation.Validate(s, validation.Required, is.EmailFormat); err != nil {
			fmt.Fprintln(r.out, "Please enter a valid email address.")
			continue
		}
		return strings.ToLower(s), nil
	}
	return "", fmt.Errorf("no valid email after %d attempts", maxAttempts)
}

// Password reads a password, hidden when reading from a terminal.
func (r *Reader) Password(label string) (string, error) {
	fmt.Fprintf(r.out, "%s: ", label)
	if !r.tty {
		return r.line()
	}
	b, err := term.ReadPassword(r.fd)
	fmt.Fprintln(r.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

// ConfirmPassword asks for password again, up to three times.
func (r *Reader) ConfirmPassword(label, password string) error {
	for i := range maxAttempts {
		confirm, err := r.Password(label)
		if err != nil {
			return err
		}
		if confirm == password {
			return nil
		}
		if i < maxAttempts-1 {
			fmt.Fprintln(r.out, "Passwords do not match. Please try again.")
		}
	}
	return fmt.Errorf("password confirmation failed after %d attempts", maxAttempts)
}

// Confirm asks a yes/no question. Anything but y or yes is no.
func (r *Reader) Confirm(label string) (bool, error) {
	fmt.Fprintf(r.out, "%s [y/N]: ", label)
	s, err := r.line()
	if err != nil {
		return false, err
	}
	s = strings.ToLower(s)
	return s == "y" || s == "yes", nil
}
