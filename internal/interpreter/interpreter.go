package interpreter

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/erg0nix/sessgraph/internal/graph"
)

// Result lines written to the output.
const (
	MsgCreated        = "Created"
	MsgHandlerExists  = "Handler already exists"
	MsgTargetNotFound = "Target handler does not exist"
	MsgErased         = "Handler erased"
	MsgNotFound       = "Handler does not exist"
	MsgUnrecognized   = "???"
	deletedPrefix     = "deleted session "
	echoPrefix        = "> "
)

type Options struct {
	// Echo writes each input line, prefixed with "> ", before its result.
	Echo bool
	// CheckInvariants verifies the registry after every command and stops
	// with graph.ErrInvariant on the first violation.
	CheckInvariants bool
	Logger          *slog.Logger
}

// Interpreter owns one registry for the lifetime of one input stream.
type Interpreter struct {
	registry *graph.Registry
	out      io.Writer
	opts     Options
	logger   *slog.Logger
	line     int
	err      error
}

func New(out io.Writer, opts Options) *Interpreter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	in := &Interpreter{
		out:    out,
		opts:   opts,
		logger: logger,
	}
	in.registry = graph.NewRegistry(
		graph.WithDestroyHook(in.sessionDestroyed),
		graph.WithLogger(logger),
	)
	return in
}

func (in *Interpreter) Registry() *graph.Registry {
	return in.registry
}

// Run executes commands from r until end of input, then tears the registry
// down. Malformed commands are reported and skipped; only I/O failures,
// cancellation and invariant violations stop the loop early.
func (in *Interpreter) Run(ctx context.Context, r io.Reader) error {
	reader := bufio.NewReader(r)

	for {
		line, readErr := reader.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return fmt.Errorf("read input: %w", readErr)
		}
		if readErr == io.EOF && line == "" {
			break
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		if err := in.Execute(trimLineEnding(line)); err != nil {
			return err
		}
		if readErr == io.EOF {
			break
		}
	}

	return in.Close()
}

// trimLineEnding strips one trailing "\n" or "\r\n". Other carriage returns
// are left in place and are not field separators.
func trimLineEnding(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

// Execute runs a single command line and writes its result. The returned
// error is non-nil only for failures that should end the session.
func (in *Interpreter) Execute(line string) error {
	in.line++
	if in.opts.Echo {
		in.println(echoPrefix + line)
	}

	cmd, err := Parse(line)
	if err != nil {
		in.logger.Debug("unrecognized command", "line", in.line, "input", line)
		in.println(MsgUnrecognized)
		return in.err
	}

	in.logger.Debug("command", "line", in.line, "op", cmd.Op, "handler", cmd.Handler, "target", cmd.Target)

	switch cmd.Op {
	case OpCreateSession:
		err = in.report(in.registry.CreateSession(cmd.Handler, cmd.Target), MsgCreated)
	case OpAddStrong:
		err = in.report(in.registry.AddStrong(cmd.Handler, cmd.Target), MsgCreated)
	case OpAddWeak:
		err = in.report(in.registry.AddWeak(cmd.Handler, cmd.Target), MsgCreated)
	case OpErase:
		err = in.report(in.registry.Erase(cmd.Handler), MsgErased)
	case OpDisplay:
		for _, e := range in.registry.Display() {
			in.println(e.String())
		}
	}
	if err != nil {
		return err
	}

	if in.opts.CheckInvariants {
		if err := in.registry.CheckInvariants(); err != nil {
			return fmt.Errorf("line %d: %w", in.line, err)
		}
	}
	return in.err
}

// Close releases every remaining handler, which prints the destruction of
// the sessions they still own.
func (in *Interpreter) Close() error {
	stats := in.registry.Stats()
	in.registry.Close()
	in.logger.Debug("registry closed",
		"handlers", stats.Handlers,
		"live_sessions", stats.LiveSessions,
		"sessions_created", stats.SessionsCreated,
		"sessions_destroyed", stats.SessionsDestroyed)
	return in.err
}

func (in *Interpreter) report(err error, success string) error {
	switch {
	case err == nil:
		in.println(success)
	case errors.Is(err, graph.ErrHandlerExists):
		in.println(MsgHandlerExists)
	case errors.Is(err, graph.ErrTargetNotFound):
		in.println(MsgTargetNotFound)
	case errors.Is(err, graph.ErrHandlerNotFound):
		in.println(MsgNotFound)
	default:
		return err
	}
	return nil
}

func (in *Interpreter) sessionDestroyed(s graph.Session) {
	in.println(deletedPrefix + s.Name)
}

// println keeps the first write error; later writes are dropped.
func (in *Interpreter) println(text string) {
	if in.err != nil {
		return
	}
	if _, err := fmt.Fprintln(in.out, text); err != nil {
		in.err = fmt.Errorf("write output: %w", err)
	}
}
