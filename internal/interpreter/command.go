// Package interpreter reads handler/session commands line by line and runs
// them against a graph.Registry.
package interpreter

import (
	"errors"
	"strings"
)

var ErrUnrecognizedCommand = errors.New("unrecognized command")

type Op int

const (
	OpCreateSession Op = iota
	OpAddStrong
	OpAddWeak
	OpErase
	OpDisplay
)

func (o Op) String() string {
	switch o {
	case OpCreateSession:
		return "create_session"
	case OpAddStrong:
		return "add_strong"
	case OpAddWeak:
		return "add_weak"
	case OpErase:
		return "erase"
	case OpDisplay:
		return "display"
	default:
		return "unknown"
	}
}

// Command is one parsed input line. Target is the session name for
// OpCreateSession and the target handler for OpAddStrong and OpAddWeak.
type Command struct {
	Op      Op
	Handler string
	Target  string
}

// Tokenize splits a line on runs of spaces and tabs.
func Tokenize(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t'
	})
}

// Parse recognizes the five command shapes:
//
//	H + S     create session S owned by new handler H
//	H1 => H2  new handler H1 sharing ownership of H2's session
//	H1 -> H2  new handler H1 observing H2's session
//	! H       erase handler H
//	?         list handlers
func Parse(line string) (Command, error) {
	tokens := Tokenize(line)

	switch len(tokens) {
	case 3:
		cmd := Command{Handler: tokens[0], Target: tokens[2]}
		switch tokens[1] {
		case "+":
			cmd.Op = OpCreateSession
		case "=>":
			cmd.Op = OpAddStrong
		case "->":
			cmd.Op = OpAddWeak
		default:
			return Command{}, ErrUnrecognizedCommand
		}
		return cmd, nil
	case 2:
		if tokens[0] == "!" {
			return Command{Op: OpErase, Handler: tokens[1]}, nil
		}
	case 1:
		if tokens[0] == "?" {
			return Command{Op: OpDisplay}, nil
		}
	}

	return Command{}, ErrUnrecognizedCommand
}
