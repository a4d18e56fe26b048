// Package cli provides the interactive shell and script runner for tabql.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/razeghi71/tabql/engine"
	"github.com/razeghi71/tabql/internal/config"
	"github.com/razeghi71/tabql/internal/logger"
	"github.com/razeghi71/tabql/internal/output"
)

// REPL implements the Read-Eval-Print Loop for tabql.
type REPL struct {
	config *config.Config
	log    *logger.Logger
	runner *Runner
	out    io.Writer
}

// NewREPL creates a REPL that writes to out.
func NewREPL(cfg *config.Config, session *engine.Session, out io.Writer, log *logger.Logger) *REPL {
	if log == nil {
		log = logger.NewNop()
	}
	return &REPL{
		config: cfg,
		log:    log.Named("repl"),
		runner: &Runner{Session: session, Out: out, MaxRows: cfg.Display.MaxRows},
		out:    out,
	}
}

// Run reads statements until \q or end of input. A statement may span
// several lines and ends with a semicolon.
func (r *REPL) Run() error {
	prompt := r.config.REPL.Prompt
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     ExpandHome(r.config.REPL.HistoryFile),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    newCompleter(),
		Stdout:          r.out,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(r.out, "tabql: type \\help for commands, \\q to quit")

	continuation := strings.Repeat(" ", max(len(prompt)-3, 0)) + "-> "
	var buf strings.Builder
	for {
		if buf.Len() > 0 {
			rl.SetPrompt(continuation)
		} else {
			rl.SetPrompt(prompt)
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if buf.Len() > 0 {
				buf.Reset()
				fmt.Fprintln(r.out, "^C")
			}
			continue
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if buf.Len() == 0 && strings.HasPrefix(line, "\\") {
			if r.handleBackslashCommand(line) == commandExit {
				return nil
			}
			continue
		}

		buf.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			buf.WriteString("\n")
			continue
		}
		r.processStatements(buf.String())
		buf.Reset()
	}
}

type commandResult int

const (
	commandOK commandResult = iota
	commandExit
	commandError
)

func (r *REPL) processStatements(input string) commandResult {
	if err := r.runner.Run(input); err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return commandError
	}
	return commandOK
}

func (r *REPL) handleBackslashCommand(input string) commandResult {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return commandOK
	}

	store := r.runner.Session.Store
	switch cmd := strings.ToLower(parts[0]); cmd {
	case "\\q", "\\quit", "\\exit":
		return commandExit

	case "\\?", "\\help":
		r.printHelp()
		return commandOK

	case "\\dt", "\\tables":
		if store.Len() == 0 {
			fmt.Fprintln(r.out, "No tables loaded")
			return commandOK
		}
		output.WriteNames(r.out, store)
		return commandOK

	case "\\d", "\\schema":
		if len(parts) < 2 {
			fmt.Fprintf(r.out, "Usage: %s <table>\n", cmd)
			return commandError
		}
		t, ok := store.Get(parts[1])
		if !ok {
			fmt.Fprintf(r.out, "Error: table %q not found\n", parts[1])
			return commandError
		}
		output.WriteSchema(r.out, t)
		return commandOK

	case "\\drop":
		if len(parts) < 2 {
			fmt.Fprintln(r.out, "Usage: \\drop <table>")
			return commandError
		}
		if _, ok := store.Get(parts[1]); !ok {
			fmt.Fprintf(r.out, "Error: table %q not found\n", parts[1])
			return commandError
		}
		store.Delete(parts[1])
		r.log.Debug("table removed", "table", parts[1])
		return commandOK

	case "\\config":
		r.printConfig()
		return commandOK

	case "\\clear":
		fmt.Fprint(r.out, "\033[H\033[2J")
		return commandOK

	default:
		fmt.Fprintf(r.out, "Unknown command: %s\n", cmd)
		fmt.Fprintln(r.out, "Type \\? for help")
		return commandError
	}
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.out, `
Statements (end with ;):
  LOAD 'file' AS t                         Load csv, json, jsonl, avro or parquet
  SELECT cols FROM t [WHERE cond]
         [GROUP BY cols] [ORDER BY col [ASC|DESC]] [AS name]
  FILL NA t col WITH MEAN|MEDIAN|MODE|value
  DROP NA t [ROWS|COLUMNS] [WHERE ANY|ALL] [IN cols]
  DROP ROW n FROM t
  DROP COLUMN col FROM t
  CLEAN NUMERIC|TEXT t [cols] REMOVE STRINGS|NUMBERS
  REPLACE t ROW n COLUMN col WITH value
  FILTER OUTLIERS t col [WITH IQR|ZSCORE [(k)]]
  NORMALIZE t col [WITH MINMAX|ZSCORE]
  PLOT cols FROM t AS HIST|SCATTER|BOX|LINE|BAR

Backslash commands:
  \dt, \tables                List loaded tables
  \d, \schema <table>         Describe a table
  \drop <table>               Forget a table
  \config                     Show configuration
  \clear                      Clear screen
  \?, \help                   Show this help
  \q, \quit                   Exit`)
}

func (r *REPL) printConfig() {
	fmt.Fprintln(r.out, "\nCurrent Configuration")
	fmt.Fprintln(r.out, "=====================")
	fmt.Fprintf(r.out, "Log:      level=%s format=%s output=%s\n", r.config.Log.Level, r.config.Log.Format, r.config.Log.Output)
	fmt.Fprintf(r.out, "History:  %s\n", r.config.REPL.HistoryFile)
	fmt.Fprintf(r.out, "Max rows: %d\n", r.config.Display.MaxRows)
	fmt.Fprintf(r.out, "Plot:     bins=%d width=%d height=%d\n", r.config.Plot.Bins, r.config.Plot.Width, r.config.Plot.Height)
	fmt.Fprintln(r.out)
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

func newCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("LOAD"),
		readline.PcItem("SELECT"),
		readline.PcItem("FILL", readline.PcItem("NA")),
		readline.PcItem("DROP",
			readline.PcItem("NA"),
			readline.PcItem("ROW"),
			readline.PcItem("COLUMN"),
		),
		readline.PcItem("CLEAN",
			readline.PcItem("NUMERIC"),
			readline.PcItem("TEXT"),
		),
		readline.PcItem("REPLACE"),
		readline.PcItem("FILTER", readline.PcItem("OUTLIERS")),
		readline.PcItem("NORMALIZE"),
		readline.PcItem("PLOT"),
		readline.PcItem("\\dt"),
		readline.PcItem("\\tables"),
		readline.PcItem("\\d"),
		readline.PcItem("\\schema"),
		readline.PcItem("\\drop"),
		readline.PcItem("\\config"),
		readline.PcItem("\\clear"),
		readline.PcItem("\\help"),
		readline.PcItem("\\q"),
	)
}
