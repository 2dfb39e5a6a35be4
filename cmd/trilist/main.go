// Command trilist counts and lists the triangles of graphs that do not fit
// in memory, on one machine or across a cluster of servers.
//
//	trilist count  [flags] input maxDeg outputFlag memoryMB instances
//	trilist master [flags] input maxDeg memoryMB instances outputFlag (ip port mem instances)+
//	trilist server [flags] port delete
//	trilist prep   parse|undirect|orient [flags] input output [memoryMB threads]
//	trilist verify [flags] input
//
// A maxDeg of 0 orients input into input-oriented first.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/hupe1980/trilist"
	"github.com/hupe1980/trilist/internal/vertex"
)

const usage = `usage: trilist <command> [flags] args...

commands:
  count   input maxDeg outputFlag memoryMB instances
  master  input maxDeg memoryMB instances outputFlag (ip port mem instances)+
  server  port delete
  prep    parse|undirect|orient|peel input output [memoryMB threads | maxDeg outputFlag]
  verify  input

Run "trilist <command> -h" for the flags of a command.
`

// usageError is a malformed command line. It prints the usage and exits 1.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// exitError ends the process with a specific status.
type exitError struct{ code int }

func (e *exitError) Error() string { return "exit status " + strconv.Itoa(e.code) }

// env is what a command writes to.
type env struct {
	stdout io.Writer
	stderr io.Writer
	logger *trilist.Logger
}

type command func(ctx context.Context, e *env, args []string) error

var commands = map[string]command{
	"count":  runCount,
	"master": runMaster,
	"server": runServer,
	"prep":   runPrep,
	"verify": runVerify,
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command line and returns the exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 1
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 1
	}

	e := &env{stdout: stdout, stderr: stderr}
	err := cmd(ctx, e, args[1:])

	var ue *usageError
	var ee *exitError
	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.As(err, &ue):
		fmt.Fprintf(stderr, "%s\n\n%s", ue.msg, usage)
		return 1
	case errors.As(err, &ee):
		return ee.code
	default:
		fmt.Fprintf(stderr, "trilist %s: %v\n", args[0], err)
		return 2
	}
}

// newFlagSet returns a flag set that reports errors instead of exiting.
func newFlagSet(name string, e *env) *flag.FlagSet {
	fset := flag.NewFlagSet(name, flag.ContinueOnError)
	fset.SetOutput(e.stderr)
	return fset
}

// parse parses args and turns flag errors into usage errors.
func parse(fset *flag.FlagSet, args []string) error {
	if err := fset.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usagef("%s: %v", fset.Name(), err)
	}
	return nil
}

// logFlags configure the logger of a command.
type logFlags struct {
	level string
	json  bool
}

func (l *logFlags) register(fset *flag.FlagSet) {
	fset.StringVar(&l.level, "log-level", "info", "log level (debug, info, warn, error)")
	fset.BoolVar(&l.json, "log-json", false, "log JSON records instead of text")
}

func (l *logFlags) logger(w io.Writer) (*trilist.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.level)); err != nil {
		return nil, usagef("invalid -log-level %q", l.level)
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.json {
		return trilist.NewLogger(slog.NewJSONHandler(w, opts)), nil
	}
	return trilist.NewLogger(slog.NewTextHandler(w, opts)), nil
}

func parseID(name, s string) (trilist.ID, error) {
	v, err := strconv.ParseUint(s, 10, vertex.Width*8)
	if err != nil {
		return 0, usagef("invalid %s %q", name, s)
	}
	return trilist.ID(v), nil
}

func parseUint(name, s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, usagef("invalid %s %q", name, s)
	}
	return v, nil
}

func parseInt(name, s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, usagef("invalid %s %q", name, s)
	}
	return v, nil
}

// parseBool accepts 0 and 1 as well as true and false.
func parseBool(name, s string) (bool, error) {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, usagef("invalid %s %q", name, s)
	}
	return v, nil
}
