package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mrdg/sampler/audio"
	"github.com/mrdg/sampler/dub"
)

type env struct {
	host      *audio.Host
	props     *audio.Props
	sequencer *audio.Sequencer
	out       io.Writer
}

func newEnv(host *audio.Host, props *audio.Props, seq *audio.Sequencer, out io.Writer) *env {
	return &env{
		host:      host,
		props:     props,
		sequencer: seq,
		out:       out,
	}
}

func (e *env) eval(input string) (dub.Node, error) {
	command, err := dub.Parse(input)
	if err != nil {
		return nil, err
	}
	name := string(command.Name)
	for _, cmd := range commands {
		if name != cmd.name {
			continue
		}
		if cmd.arity < 0 {
			arity := -cmd.arity
			if len(command.Args) < arity {
				return nil, fmt.Errorf("%s: wrong number of arguments: need at least %v, got %v",
					cmd.name, arity, len(command.Args))
			}
		} else if len(command.Args) != cmd.arity {
			return nil, fmt.Errorf("%s: wrong number of arguments: want %v, got %v",
				cmd.name, cmd.arity, len(command.Args))
		}
		result, err := cmd.run(e, command.Args)
		if err != nil {
			return result, fmt.Errorf("%s error: %w", cmd.name, err)
		}
		return result, nil
	}
	return nil, fmt.Errorf("unknown command: %s", name)
}

// runFile evaluates every line of file. Empty lines and lines starting with
// '#' are skipped.
func (e *env) runFile(file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, err := e.eval(line); err != nil {
			return fmt.Errorf("%s:%d: %w", file, n, err)
		}
	}
	return scanner.Err()
}

func repl(ctx context.Context, env *env) error {
	rl, err := readline.New("> ")
	if err != nil {
		return err
	}
	defer rl.Close()
	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	for {
		line, err := rl.Readline()
		if err == io.EOF {
			return nil
		}
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return nil
			}
			continue
		}
		if err != nil {
			fmt.Println(err)
			continue
		}
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		if result, err := env.eval(line); err != nil {
			fmt.Fprintln(env.out, err)
		} else if result != nil {
			fmt.Fprintln(env.out, format(result))
		}
	}
}

func format(n dub.Node) string {
	switch v := n.(type) {
	case dub.String:
		return string(v)
	case dub.Identifier:
		return string(v)
	case dub.Int:
		return strconv.Itoa(int(v))
	case dub.Float:
		return strconv.FormatFloat(float64(v), 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

type command struct {
	name  string
	help  string
	run   func(*env, []dub.Node) (dub.Node, error)
	arity int // -n means len(args) must be >= n
}

var commands []command

func init() {
	commands = []command{
		{"load", `load <part> "file.wav" ["name"]`, loadCommand, -2},
		{"unload", "unload <part> '<samples>", unloadCommand, 2},
		{"set", "set <part> '<samples> <key> <value>", setCommand, 4},
		{"get", "get <part> <sample> <key>", getCommand, 3},
		{"preset", "preset <part> '<samples> <name>", presetCommand, 3},
		{"presets", "presets", presetsCommand, 0},
		{"list", "list", listCommand, 0},
		{"select", "select <part> '<samples>", selectCommand, 2},
		{"note", "note <part> <note> [velocity]", noteCommand, -2},
		{"off", "off <part> <note>", offCommand, 2},
		{"bend", "bend <part> <-1..1>", bendCommand, 2},
		{"cc", "cc <part> <controller> <0..1>", ccCommand, 3},
		{"prop", "prop <key> [value]", propCommand, -1},
		{"loop", "loop <name> <part> <beats> '<steps> <note> [velocity]", loopCommand(false), -5},
		{"tloop", "tloop <name> <part> <beats> '<steps> <note> [velocity]", loopCommand(true), -5},
		{"unloop", "unloop <name>", unloopCommand, 1},
		{"save", `save "file.json"`, saveCommand, 1},
		{"open", `open "file.json"`, openCommand, 1},
		{"bounce", `bounce "file.wav" <seconds>`, bounceCommand, 2},
		{"help", "help", helpCommand, 0},
	}
}

func readArgs(args []dub.Node, slots ...interface{}) error {
	if len(args) != len(slots) {
		return errors.New("not enough arguments")
	}
	for n, arg := range args {
		dest := slots[n]
		switch p := dest.(type) {
		case *string:
			switch s := arg.(type) {
			case dub.String:
				*p = string(s)
			case dub.Identifier:
				*p = string(s)
			default:
				return fmt.Errorf("argument error: expected a string or identifier")
			}
		case *float64:
			switch f := arg.(type) {
			case dub.Float:
				*p = float64(f)
			case dub.Int:
				*p = float64(f)
			default:
				return fmt.Errorf("argument error: expected a number")
			}
		case *int:
			n, ok := arg.(dub.Int)
			if !ok {
				return fmt.Errorf("argument error: expected an integer")
			}
			*p = int(n)
		case *dub.MatchExpr:
			expr, ok := arg.(dub.MatchExpr)
			if !ok {
				return fmt.Errorf("argument error: expected a match expression")
			}
			*p = expr
		case *value:
			if _, ok := arg.(dub.MatchExpr); ok {
				return fmt.Errorf("argument error: expected a value")
			}
			*p = value(format(arg))
		default:
			panic("readArgs: unhandled destination type: " + fmt.Sprint(p))
		}
	}
	return nil
}

// value is any scalar argument in its text form.
type value string
