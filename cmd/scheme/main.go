// Command scheme is a thin REPL and script runner over package vm,
// grounded on the teacher's cmd/retro/main.go: the same flag-driven
// configuration, the same atExit/-debug error reporting split between
// a short message and a %+v stack trace, and the same raw-terminal
// setup/teardown dance around the input loop.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/chayleaf/marwood/asm"
	"github.com/chayleaf/marwood/compile"
	"github.com/chayleaf/marwood/internal/errwriter"
	"github.com/chayleaf/marwood/vm"
)

type fileList []string

func (f *fileList) String() string     { return "" }
func (f *fileList) Set(s string) error { *f = append(*f, s); return nil }

var (
	debug      bool
	noRaw      bool
	disasm     bool
	loadFiles  fileList
	promptText string
)

func main() {
	flag.BoolVar(&debug, "debug", false, "print a full error stack trace instead of a one-line message")
	flag.BoolVar(&noRaw, "noraw", false, "disable raw terminal input (line editing falls back to the tty driver)")
	flag.BoolVar(&disasm, "disasm", false, "print disassembled bytecode for every form evaluated, to stderr")
	flag.Var(&loadFiles, "load", "evaluate `filename` before starting the REPL (can be specified multiple times)")
	flag.StringVar(&promptText, "prompt", "> ", "REPL prompt string")
	flag.Parse()

	out := errwriter.New(bufio.NewWriter(os.Stdout))
	defer func() {
		if bw, ok := out.W().(*bufio.Writer); ok {
			bw.Flush()
		}
	}()

	v := vm.New()

	for _, name := range loadFiles {
		if err := runFile(v, name, out); err != nil {
			atExit(err)
		}
	}

	if flag.NArg() > 0 {
		for _, name := range flag.Args() {
			if err := runFile(v, name, out); err != nil {
				atExit(err)
			}
		}
		return
	}

	runREPL(v, out)
}

func runFile(v *vm.VM, name string, out io.Writer) error {
	src, err := os.ReadFile(name)
	if err != nil {
		return errors.Wrapf(err, "reading %s", name)
	}
	if err := evalAndReport(v, string(src), out); err != nil {
		return errors.Wrapf(err, "evaluating %s", name)
	}
	return nil
}

func runREPL(v *vm.VM, out io.Writer) {
	var restore func()
	if !noRaw {
		var err error
		restore, err = setRawIO()
		if err != nil {
			// Not fatal: piped input or a non-tty stdout both fail here
			// harmlessly, so fall back to cooked-mode line reading.
			restore = nil
		}
	}
	if restore != nil {
		defer restore()
	}

	rl := newLineReader(os.Stdin, out, restore != nil)
	for {
		fmt.Fprint(out, promptText)
		form, err := readForm(rl)
		if err == io.EOF {
			fmt.Fprintln(out)
			return
		}
		if err != nil {
			fmt.Fprintf(out, "\n%v\n", err)
			continue
		}
		if strings.TrimSpace(form) == "" {
			continue
		}
		if err := evalAndReport(v, form, out); err != nil {
			reportError(err)
		}
	}
}

// readForm accumulates input lines until parentheses balance, so a
// multi-line (define ...) or (lambda ...) at the REPL doesn't need to
// be typed on one line.
func readForm(rl *lineReader) (string, error) {
	var sb strings.Builder
	depth := 0
	sawToken := false
	for {
		line, err := rl.ReadLine()
		if err != nil {
			if sb.Len() > 0 {
				return sb.String(), nil
			}
			return "", err
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
		inString := false
		for i := 0; i < len(line); i++ {
			switch line[i] {
			case '"':
				inString = !inString
			case '(', '[':
				if !inString {
					depth++
					sawToken = true
				}
			case ')', ']':
				if !inString {
					depth--
				}
			default:
				if !inString && line[i] != ' ' && line[i] != '\t' {
					sawToken = true
				}
			}
		}
		if sawToken && depth <= 0 {
			return sb.String(), nil
		}
	}
}

func evalAndReport(v *vm.VM, src string, out io.Writer) error {
	if disasm {
		code, err := compile.Compile(src, v)
		if err != nil {
			return err
		}
		if err := asm.Disassemble(v, code, os.Stderr); err != nil {
			return err
		}
		result, err := v.Run(code)
		if err != nil {
			return err
		}
		printResult(v, result, out)
		return nil
	}
	result, err := v.Eval(src, compile.Compile)
	if err != nil {
		return err
	}
	printResult(v, result, out)
	return nil
}

func printResult(v *vm.VM, result vm.VCell, out io.Writer) {
	if result.IsVoid() {
		return
	}
	fmt.Fprintln(out, v.Write(result))
}

func reportError(err error) {
	if debug {
		fmt.Fprintf(os.Stderr, "\n%+v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "\n%v\n", err)
}

func atExit(err error) {
	reportError(err)
	os.Exit(1)
}
