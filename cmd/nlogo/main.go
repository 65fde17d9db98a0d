package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"git.sr.ht/~sircmpwn/getopt"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/agenthands/nlogo/pkg/config"
	"github.com/agenthands/nlogo/pkg/host"
	"github.com/agenthands/nlogo/pkg/logger"
	"github.com/agenthands/nlogo/pkg/server"
	"github.com/agenthands/nlogo/pkg/store"
	"github.com/agenthands/nlogo/pkg/vm"
)

var (
	red    = color.New(color.FgRed).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

const usage = `Usage: nlogo <command> [options]

Commands:
  run [-c config] [-o out.svg] [-d delay] [-v] <file>
  repl [-c config] [-o out.svg]
  serve [-c config] [-a addr] [-v]
  save [-c config] <name> <file>
  show [-c config] <name>
  list [-c config]
  delete [-c config] <name>
  samples
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	args := os.Args[1:]
	var code int
	switch os.Args[1] {
	case "run":
		code = cmdRun(args)
	case "repl":
		code = cmdRepl(args)
	case "serve":
		code = cmdServe(args)
	case "save":
		code = cmdSave(args)
	case "show":
		code = cmdShow(args)
	case "list":
		code = cmdList(args)
	case "delete":
		code = cmdDelete(args)
	case "samples":
		code = cmdSamples()
	case "help", "-h":
		fmt.Print(usage)
	default:
		fmt.Fprintln(os.Stderr, "Unknown command:", os.Args[1])
		fmt.Fprint(os.Stderr, usage)
		code = 1
	}
	os.Exit(code)
}

// options holds every flag any subcommand understands.
type options struct {
	configPath string
	outPath    string
	addr       string
	delay      time.Duration
	hasDelay   bool
	verbose    bool
	rest       []string
}

// parseOptions runs getopt over args, where args[0] is the subcommand.
func parseOptions(args []string, spec string) (*options, error) {
	opts, optind, err := getopt.Getopts(args, spec)
	if err != nil {
		return nil, err
	}
	o := &options{rest: args[optind:]}
	for _, opt := range opts {
		switch opt.Option {
		case 'c':
			o.configPath = opt.Value
		case 'o':
			o.outPath = opt.Value
		case 'a':
			o.addr = opt.Value
		case 'd':
			d, err := time.ParseDuration(opt.Value)
			if err != nil || d < 0 {
				return nil, fmt.Errorf("invalid -d parameter %q", opt.Value)
			}
			o.delay, o.hasDelay = d, true
		case 'v':
			o.verbose = true
		}
	}
	return o, nil
}

func (o *options) load() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	if color.NoColor {
		cfg.Log.Color = false
	}
	return cfg, cfg.NewLogger(os.Stderr), nil
}

func fail(err error) int {
	fmt.Fprintln(os.Stderr, red(err.Error()))
	return 1
}

func cmdRun(args []string) int {
	o, err := parseOptions(args, "c:o:d:v")
	if err != nil {
		return fail(err)
	}
	if len(o.rest) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: nlogo run [-c config] [-o out.svg] [-d delay] [-v] <file>")
		return 1
	}
	cfg, log, err := o.load()
	if err != nil {
		return fail(err)
	}

	src, err := os.ReadFile(o.rest[0])
	if err != nil {
		return fail(fmt.Errorf("reading %s: %w", o.rest[0], err))
	}

	session := host.NewSession(cfg, log)
	session.Pacer = vm.NoDelay{}
	if o.hasDelay {
		session.Pacer = vm.NewTicker(o.delay)
	}
	session.OnStatus = printStatus

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	steps, runErr := session.Run(ctx, string(src))

	// Whatever was drawn before a failure is still written out.
	if err := writeSVG(session, o.outPath); err != nil {
		return fail(err)
	}
	if runErr != nil {
		return 1
	}
	fmt.Fprintf(os.Stderr, "%s segments, %s steps\n",
		humanize.Comma(int64(len(session.Turtle.Segments()))), humanize.Comma(int64(steps)))
	return 0
}

func printStatus(s string) {
	if strings.HasPrefix(s, "Oops!") {
		fmt.Fprintln(os.Stderr, red(s))
		return
	}
	fmt.Fprintln(os.Stderr, yellow(s))
}

func writeSVG(session *host.Session, path string) error {
	var w io.Writer = os.Stdout
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}
	return session.WriteSVG(w)
}

func cmdServe(args []string) int {
	o, err := parseOptions(args, "c:a:v")
	if err != nil {
		return fail(err)
	}
	cfg, log, err := o.load()
	if err != nil {
		return fail(err)
	}
	addr := cfg.Server.Addr
	if o.addr != "" {
		addr = o.addr
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fail(err)
	}
	defer st.Close()

	session := host.NewSession(cfg, log)
	status := log.WithPrefix("status")
	session.OnStatus = func(s string) { status.Info("%s", s) }

	srv := server.New(cfg, session, st, log)
	if err := srv.StartPurge(); err != nil {
		return fail(err)
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe(addr) }()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigc)

	select {
	case err := <-errc:
		if serr := srv.Shutdown(); serr != nil {
			log.Warn("shutdown: %v", serr)
		}
		return fail(err)
	case sig := <-sigc:
		log.Info("received %v, shutting down", sig)
	}
	if err := srv.Shutdown(); err != nil {
		return fail(err)
	}
	return 0
}

func openStore(args []string, want int, usageLine string) (*store.Store, []string, int) {
	o, err := parseOptions(args, "c:")
	if err != nil {
		return nil, nil, fail(err)
	}
	if len(o.rest) != want {
		fmt.Fprintln(os.Stderr, "Usage: nlogo "+usageLine)
		return nil, nil, 1
	}
	cfg, _, err := o.load()
	if err != nil {
		return nil, nil, fail(err)
	}
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, nil, fail(err)
	}
	return st, o.rest, 0
}

func cmdSave(args []string) int {
	st, rest, code := openStore(args, 2, "save [-c config] <name> <file>")
	if st == nil {
		return code
	}
	defer st.Close()

	src, err := os.ReadFile(rest[1])
	if err != nil {
		return fail(fmt.Errorf("reading %s: %w", rest[1], err))
	}
	if err := st.Save(context.Background(), rest[0], string(src)); err != nil {
		return fail(err)
	}
	fmt.Println(green(fmt.Sprintf("Saved %q!", rest[0])))
	return 0
}

func cmdShow(args []string) int {
	st, rest, code := openStore(args, 1, "show [-c config] <name>")
	if st == nil {
		return code
	}
	defer st.Close()

	p, err := st.Load(context.Background(), rest[0])
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(os.Stderr, "%s, saved %s, %s\n",
		p.Name, humanize.Time(time.Unix(p.UpdatedAt, 0)), p.Fingerprint[:12])
	fmt.Println(strings.TrimRight(p.Source, "\n"))
	return 0
}

func cmdList(args []string) int {
	st, _, code := openStore(args, 0, "list [-c config]")
	if st == nil {
		return code
	}
	defer st.Close()

	names, err := st.List(context.Background())
	if err != nil {
		return fail(err)
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return 0
}

func cmdDelete(args []string) int {
	st, rest, code := openStore(args, 1, "delete [-c config] <name>")
	if st == nil {
		return code
	}
	defer st.Close()

	if err := st.Delete(context.Background(), rest[0]); err != nil {
		return fail(err)
	}
	fmt.Println(green(fmt.Sprintf("Deleted %q", rest[0])))
	return 0
}

func cmdSamples() int {
	for _, s := range host.Samples {
		fmt.Printf("%-10s %s\n", s.Name, s.Title)
	}
	return 0
}
