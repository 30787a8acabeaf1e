package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/lethanhdatit/bocmenh/pkg/client"
)

const loginPath = "/api/auth/login"

// terminal reads credentials from the user.
type terminal interface {
	ReadLine(prompt string) (string, error)
	ReadPassword(prompt string) ([]byte, error)
}

type ttyTerminal struct {
	in  *os.File
	out io.Writer
	r   *bufio.Reader
}

func newTerminal(in *os.File, out io.Writer) *ttyTerminal {
	return &ttyTerminal{in: in, out: out, r: bufio.NewReader(in)}
}

func (t *ttyTerminal) ReadLine(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)
	line, err := t.r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ReadPassword reads without echo. Piped input is read as a plain line.
func (t *ttyTerminal) ReadPassword(prompt string) ([]byte, error) {
	fd := int(t.in.Fd())
	if !term.IsTerminal(fd) {
		line, err := t.ReadLine(prompt)
		return []byte(line), err
	}
	fmt.Fprint(t.out, prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(t.out)
	return pw, err
}

// loginPrompter answers login challenges by asking for a password and
// calling the login endpoint through the same client, so the session
// cookie lands in its jar.
type loginPrompter struct {
	client *client.Client
	term   terminal
	out    io.Writer
	email  string
}

func (p *loginPrompter) PromptLogin(ctx context.Context, ch client.Challenge) error {
	if ch.Message != "" {
		fmt.Fprintln(p.out, ch.Message)
	}
	if p.email == "" {
		email, err := p.term.ReadLine("Email: ")
		if err != nil {
			return fmt.Errorf("reading email: %w", err)
		}
		p.email = email
	}
	if p.email == "" {
		return errors.New("email is required")
	}

	pw, err := p.term.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	defer clear(pw)

	body := map[string]string{"email": p.email, "password": string(pw)}
	return p.client.Do(ctx, http.MethodPost, loginPath, body, nil)
}
