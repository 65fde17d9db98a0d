package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/agenthands/nlogo/pkg/compiler/lexer"
	"github.com/agenthands/nlogo/pkg/compiler/parser"
	"github.com/agenthands/nlogo/pkg/host"
	"github.com/agenthands/nlogo/pkg/store"
	"github.com/agenthands/nlogo/pkg/vm"
)

const (
	historyFile = ".nlogo_history"
	promptMain  = "logo> "
	promptCont  = "....> "
	replHelp    = `Type turtle commands, or:
  :quit          leave
  :clear         clear the canvas
  :forget        drop all variables and procedures
  :svg <path>    write the canvas to a file
  :save <name>   save everything typed so far
  :load <name>   run a saved program
  :list          list saved programs`
)

func cmdRepl(args []string) int {
	o, err := parseOptions(args, "c:o:v")
	if err != nil {
		return fail(err)
	}
	cfg, log, err := o.load()
	if err != nil {
		return fail(err)
	}

	session := host.NewSession(cfg, log)
	session.Pacer = vm.NoDelay{}
	session.OnStatus = func(s string) {
		if strings.HasPrefix(s, "Oops!") {
			fmt.Fprintln(os.Stderr, red(s))
		}
	}

	// The store is optional here; the REPL works without a database.
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Warn("program store unavailable: %v", err)
		st = nil
	} else {
		defer st.Close()
	}

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Println("nlogo: type :help for commands")
	r := &repl{session: session, store: st, outPath: o.outPath}
	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			return 0
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			if quit := r.command(trimmed); quit {
				return 0
			}
			continue
		}
		r.run(code)
	}
}

// readByParseProbe keeps prompting while the input leaves a '[' or a DEF
// open.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			b.Reset()
			continue
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") || !parser.Incomplete(lexer.Tokenize(src)) {
			return src, true
		}
	}
}

type repl struct {
	session *host.Session
	store   *store.Store
	outPath string
	// successful input since start, for :save
	transcript []string
}

func (r *repl) run(code string) {
	if _, err := r.session.Run(context.Background(), code); err != nil {
		return
	}
	r.transcript = append(r.transcript, code)
	if r.outPath != "" {
		if err := writeSVG(r.session, r.outPath); err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
		}
	}
}

func (r *repl) command(line string) (quit bool) {
	fields := strings.Fields(line)
	cmd, arg := strings.ToLower(fields[0]), ""
	if len(fields) > 1 {
		arg = strings.Join(fields[1:], " ")
	}

	ctx := context.Background()
	switch cmd {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Println(replHelp)
	case ":clear":
		r.session.Clear()
		fmt.Println(yellow(host.StatusCleared))
	case ":forget":
		if err := r.session.Forget(); err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			return false
		}
		r.transcript = nil
	case ":svg":
		if arg == "" {
			fmt.Fprintln(os.Stderr, "usage: :svg <path>")
			return false
		}
		if err := writeSVG(r.session, arg); err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
		}
	case ":save", ":load", ":list":
		if r.store == nil {
			fmt.Fprintln(os.Stderr, red("program store is unavailable"))
			return false
		}
		r.storeCommand(ctx, cmd, arg)
	default:
		fmt.Println("unknown command. Type :help for a list.")
	}
	return false
}

func (r *repl) storeCommand(ctx context.Context, cmd, arg string) {
	switch cmd {
	case ":save":
		if err := r.store.Save(ctx, arg, strings.Join(r.transcript, "\n")); err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			return
		}
		fmt.Println(green(fmt.Sprintf("Saved %q!", arg)))
	case ":load":
		p, err := r.store.Load(ctx, arg)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			return
		}
		r.run(p.Source)
	case ":list":
		names, err := r.store.List(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			return
		}
		for _, name := range names {
			fmt.Println(name)
		}
	}
}
