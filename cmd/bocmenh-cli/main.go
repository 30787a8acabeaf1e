// bocmenh-cli calls the Bói Mệnh API from a terminal. It speaks the same
// encrypted envelope as the browser and logs in interactively when a
// command needs an account.
//
// Usage:
//
//	bocmenh-cli [global flags] <command> [command flags] [args]
//
// Commands: lucky-box, zodiac, destiny, dreams, login.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/lethanhdatit/bocmenh/pkg/client"
	"github.com/lethanhdatit/bocmenh/pkg/envelope"
)

// errUsage is returned after usage has been printed.
var errUsage = errors.New("usage")

func main() {
	// .env is optional; it usually holds ENCRYPTION_SECRET.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, newTerminal(os.Stdin, os.Stderr))
	if err == nil {
		return
	}
	if !errors.Is(err, errUsage) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}

// globals are the flags shared by every command.
type globals struct {
	url      string
	secret   string
	lang     string
	timeZone string
	email    string
	verbose  bool
}

// env is what a command runs with.
type env struct {
	client *client.Client
	stdout io.Writer
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = []command{
	{"lucky-box", "draw today's lucky number", runLuckyBox},
	{"zodiac", "look up zodiac and can chi for a birth date", runZodiac},
	{"destiny", "request a destiny reading (login required)", runDestiny},
	{"dreams", "search the dream dictionary", runDreams},
	{"login", "log in and keep the session for this invocation", nil},
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, term terminal) error {
	var g globals
	flagSet := pflag.NewFlagSet("bocmenh-cli", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&g.url, "url", envOr("BOCMENH_URL", "http://localhost:3000"), "site base URL")
	flagSet.StringVar(&g.secret, "secret", os.Getenv("ENCRYPTION_SECRET"), "envelope secret (default $ENCRYPTION_SECRET)")
	flagSet.StringVar(&g.lang, "lang", "vi", "response language")
	flagSet.StringVar(&g.timeZone, "tz", "Asia/Ho_Chi_Minh", "IANA time zone sent as X-Timezone")
	flagSet.StringVar(&g.email, "email", os.Getenv("BOCMENH_EMAIL"), "account email used when a login is needed")
	flagSet.BoolVarP(&g.verbose, "verbose", "v", false, "log requests to stderr")
	flagSet.Usage = func() { printUsage(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return errUsage
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printUsage(stderr, flagSet)
		return errUsage
	}

	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if g.secret == "" {
		return errors.New("no envelope secret: set --secret or ENCRYPTION_SECRET")
	}
	codec, err := envelope.New(g.secret)
	if err != nil {
		return err
	}
	c, err := client.New(codec, client.Options{
		BaseURL:  g.url,
		Language: func() string { return g.lang },
		TimeZone: g.timeZone,
	})
	if err != nil {
		return err
	}

	prompter := &loginPrompter{client: c, term: term, out: stderr, email: g.email}
	c.SetLoginPrompter(prompter)
	c.OnLogout(func() { logger.Debug("session cleared by server") })

	name, cmdArgs := rest[0], rest[1:]
	logger.Debug("running command", slog.String("command", name), slog.String("url", g.url))

	if name == "login" {
		if err := prompter.PromptLogin(ctx, client.Challenge{Method: http.MethodPost, Path: loginPath}); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "logged in as %s\n", prompter.email)
		return nil
	}
	for _, cmd := range commands {
		if cmd.name == name && cmd.run != nil {
			return cmd.run(ctx, &env{client: c, stdout: stdout}, cmdArgs)
		}
	}
	fmt.Fprintf(stderr, "unknown command %q\n\n", name)
	printUsage(stderr, flagSet)
	return errUsage
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintln(w, "Usage: bocmenh-cli [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprint(w, flagSet.FlagUsages())
}

func runLuckyBox(ctx context.Context, e *env, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("lucky-box takes no arguments")
	}
	var out json.RawMessage
	if err := e.client.Do(ctx, http.MethodGet, "/api/lucky-box", nil, &out); err != nil {
		return err
	}
	return e.print(out)
}

func runZodiac(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: zodiac <YYYY-MM-DD>")
	}
	var out json.RawMessage
	path := "/api/zodiac?" + url.Values{"birthDate": {args[0]}}.Encode()
	if err := e.client.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return err
	}
	return e.print(out)
}

func runDestiny(ctx context.Context, e *env, args []string) error {
	var body struct {
		Name      string `json:"name"`
		BirthDate string `json:"birthDate"`
		BirthTime string `json:"birthTime,omitempty"`
		Gender    string `json:"gender"`
	}
	fs := pflag.NewFlagSet("destiny", pflag.ContinueOnError)
	fs.StringVar(&body.Name, "name", "", "full name")
	fs.StringVar(&body.BirthDate, "birth-date", "", "birth date, YYYY-MM-DD")
	fs.StringVar(&body.BirthTime, "birth-time", "", "birth time, HH:mm")
	fs.StringVar(&body.Gender, "gender", "", "male or female")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var out json.RawMessage
	if err := e.client.Do(ctx, http.MethodPost, "/api/destiny", body, &out); err != nil {
		return err
	}
	return e.print(out)
}

func runDreams(ctx context.Context, e *env, args []string) error {
	fs := pflag.NewFlagSet("dreams", pflag.ContinueOnError)
	page := fs.Int("page", 1, "result page")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: dreams [--page N] <query>")
	}

	q := url.Values{"q": {fs.Arg(0)}, "page": {strconv.Itoa(*page)}}
	var out json.RawMessage
	if err := e.client.Do(ctx, http.MethodGet, "/api/dreams?"+q.Encode(), nil, &out); err != nil {
		return err
	}
	return e.print(out)
}

func (e *env) print(raw json.RawMessage) error {
	var v any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
	}
	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
