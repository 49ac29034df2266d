// Package repl implements the interactive XDL session.
package repl

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/peterh/liner"
	"github.com/xdl-lang/xdl/config"
	xdlerrors "github.com/xdl-lang/xdl/pkg/xdl/errors"
	"github.com/xdl-lang/xdl/pkg/xdl/evaluator"
	"github.com/xdl-lang/xdl/pkg/xdl/lexer"
	"github.com/xdl-lang/xdl/pkg/xdl/parser"
	"github.com/xdl-lang/xdl/pkg/xdl/xdl"
)

const LOGO = `
▀▄▀ █▀▄ █░░
█░█ █▄▀ █▄▄ `

// XDL keywords and standard routines for tab completion
var completionWords = []string{
	// Keywords
	"begin", "end", "if", "then", "else", "endif", "for", "do", "endfor",
	"foreach", "endforeach", "while", "endwhile", "repeat", "until", "endrep",
	"case", "of", "endcase", "switch", "endswitch", "break", "continue",
	"goto", "pro", "function", "return", "common", "compile_opt",
	"and", "or", "not", "xor", "mod", "eq", "ne", "lt", "gt", "le", "ge",
	// Standard routines
	"print", "help", "exit", "n_elements", "size", "indgen", "lindgen",
	"findgen", "dindgen", "bytarr", "intarr", "lonarr", "fltarr", "dblarr",
	"reform", "transpose", "total", "min", "max", "mean", "abs", "sin",
	"cos", "tan", "sqrt", "exp", "alog", "alog10", "byte", "fix", "long",
	"float", "double", "complex", "string", "strlen", "strupcase",
	"strlowcase", "strtrim", "strmid", "ptr_new", "ptr_valid", "ptr_free",
	"keyword_set",
}

// Start runs the REPL with line editing, history, and tab completion
func Start(out io.Writer, cfg *config.Config, version string) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(filterCompletions)

	historyFile := cfg.ResolvePath(cfg.REPL.HistoryFile)
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	session := xdl.NewSession(
		evaluator.WithLogger(xdl.NewWriterLogger(out)),
		evaluator.WithMaxDepth(cfg.Interpreter.MaxRecursionDepth),
		evaluator.WithMaxElements(cfg.Interpreter.MaxArrayElements),
	)

	if !cfg.REPL.NoBanner {
		fmt.Fprintln(out, LOGO)
		fmt.Fprintln(out, "v", version)
		fmt.Fprintln(out, "")
		fmt.Fprintln(out, "Type 'exit' or Ctrl+D to quit")
		fmt.Fprintln(out, "Use Tab for completion, ↑↓ for history")
		fmt.Fprintln(out, "Type ':help' for REPL commands")
		fmt.Fprintln(out, "")
	}

	var inputBuffer strings.Builder

	for {
		prompt := cfg.REPL.Prompt
		if inputBuffer.Len() > 0 {
			prompt = cfg.REPL.ContinuationPrompt
		}
		input, err := line.Prompt(prompt)
		if err != nil {
			if err == liner.ErrPromptAborted {
				if inputBuffer.Len() > 0 {
					fmt.Fprintln(out, "^C (cleared)")
				} else {
					fmt.Fprintln(out, "^C")
				}
				inputBuffer.Reset()
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			continue
		}

		trimmed := strings.TrimSpace(input)

		if inputBuffer.Len() == 0 && strings.HasPrefix(trimmed, ":") {
			handleReplCommand(trimmed, session, cfg, out)
			continue
		}

		if inputBuffer.Len() == 0 && trimmed == "" {
			continue
		}

		if inputBuffer.Len() > 0 {
			inputBuffer.WriteString("\n")
		}
		inputBuffer.WriteString(input)

		fullInput := inputBuffer.String()
		if needsMoreInput(fullInput) {
			continue
		}
		inputBuffer.Reset()

		if trimmed != "" {
			line.AppendHistory(fullInput)
		}

		result, runErr := session.Run(fullInput)
		if runErr != nil {
			printError(out, runErr)
			continue
		}
		if session.Interp().ExitRequested() {
			fmt.Fprintln(out, "Goodbye!")
			return
		}
		if result != nil && result.Type() != evaluator.UNDEFINED_OBJ {
			fmt.Fprintln(out, result.Inspect())
		}
	}
}

// handleReplCommand handles meta-commands that start with ':'
func handleReplCommand(cmd string, session *xdl.Session, cfg *config.Config, out io.Writer) {
	switch cmd {
	case ":help", ":h", ":?":
		fmt.Fprintln(out, "REPL Commands:")
		fmt.Fprintln(out, "  :help, :h, :?   Show this help")
		fmt.Fprintln(out, "  :vars           Show variables in scope")
		fmt.Fprintln(out, "  :clear          Clear all variables")
		fmt.Fprintln(out, "  exit, Ctrl+D    Exit the REPL")

	case ":vars":
		printVariables(session, out)

	case ":clear":
		*session = *xdl.NewSession(
			evaluator.WithLogger(session.Interp().Logger()),
			evaluator.WithMaxDepth(cfg.Interpreter.MaxRecursionDepth),
			evaluator.WithMaxElements(cfg.Interpreter.MaxArrayElements),
		)
		fmt.Fprintln(out, "Variables cleared")

	default:
		fmt.Fprintf(out, "Unknown command: %s (type :help for commands)\n", cmd)
	}
}

// printVariables lists the top-level variables, sorted by name
func printVariables(session *xdl.Session, out io.Writer) {
	names := session.Env().Names()
	if len(names) == 0 {
		fmt.Fprintln(out, "(no variables)")
		return
	}
	sort.Strings(names)

	for _, name := range names {
		obj, _ := session.Env().Get(name)
		value := obj.Inspect()
		if len(value) > 60 {
			value = value[:57] + "..."
		}
		fmt.Fprintf(out, "  %-16s %-12s %s\n", name, obj.Type(), value)
	}
}

// printError reports a structured error with its source position
func printError(out io.Writer, err *xdlerrors.XdlError) {
	if err.Line > 0 {
		fmt.Fprintf(out, "%% %s: %s (line %d, column %d)\n", err.Code, err.Message, err.Line, err.Column)
	} else if err.Code != "" {
		fmt.Fprintf(out, "%% %s: %s\n", err.Code, err.Message)
	} else {
		fmt.Fprintf(out, "%% %s\n", err.Message)
	}
	for _, hint := range err.Hints {
		fmt.Fprintf(out, "  hint: %s\n", hint)
	}
}

// filterCompletions returns suggestions for the word being typed
func filterCompletions(line string) []string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}
	if line[len(line)-1] == ' ' || line[len(line)-1] == '\t' {
		return nil
	}

	words := strings.Fields(line)
	lastWord := strings.ToLower(words[len(words)-1])
	prefix := line[:len(line)-len(words[len(words)-1])]

	var matches []string
	for _, word := range completionWords {
		if strings.HasPrefix(word, lastWord) {
			matches = append(matches, prefix+word)
		}
	}
	return matches
}

// needsMoreInput reports whether the buffered input is an incomplete
// construct: a trailing line continuation or a block still waiting for
// its closer
func needsMoreInput(input string) bool {
	trimmed := strings.TrimRight(input, " \t")
	if strings.HasSuffix(trimmed, "$") {
		return true
	}

	l := lexer.New(input)
	p := parser.New(l)
	p.ParseProgram()
	errs := p.Errors()
	if len(errs) == 0 {
		return false
	}
	// Only unclosed blocks ask for more lines; real mistakes surface now
	for _, e := range errs {
		if e.Code != "PARSE-0002" {
			return false
		}
	}
	return true
}
