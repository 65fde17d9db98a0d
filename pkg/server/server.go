// Package server exposes a session, the program store and a stateless
// renderer over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/golang/groupcache/lru"
	"github.com/tevino/abool/v2"
	"github.com/valyala/fasthttp"

	"github.com/agenthands/nlogo/pkg/config"
	"github.com/agenthands/nlogo/pkg/core/diag"
	"github.com/agenthands/nlogo/pkg/host"
	"github.com/agenthands/nlogo/pkg/logger"
	"github.com/agenthands/nlogo/pkg/store"
	"github.com/agenthands/nlogo/pkg/turtle"
	"github.com/agenthands/nlogo/pkg/vm"
)

const contentTypeSVG = "image/svg+xml"

type Server struct {
	Session *host.Session
	Store   *store.Store

	cfg *config.Config
	log *logger.Logger

	base   context.Context
	cancel context.CancelFunc

	cacheMu sync.Mutex
	cache   *lru.Cache // fingerprint -> []byte

	purgeRunning *abool.AtomicBool
	scheduler    gocron.Scheduler
	srv          *fasthttp.Server
}

// New builds a server. st may be nil, in which case the program routes
// answer 503.
func New(cfg *config.Config, session *host.Session, st *store.Store, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	base, cancel := context.WithCancel(context.Background())
	s := &Server{
		Session:      session,
		Store:        st,
		cfg:          cfg,
		log:          log.WithPrefix("server"),
		base:         base,
		cancel:       cancel,
		purgeRunning: abool.New(),
	}
	if cfg.Server.CacheEntries > 0 {
		s.cache = lru.New(cfg.Server.CacheEntries)
	}
	s.srv = &fasthttp.Server{
		Handler:            s.Handler,
		Name:               "nlogo",
		ReadTimeout:        time.Minute,
		WriteTimeout:       15 * time.Minute,
		MaxRequestBodySize: cfg.Server.MaxBodyBytes,
	}
	return s
}

// Handler routes a request.
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	switch {
	case path == "/run":
		s.only(ctx, fasthttp.MethodPost, s.handleRun)
	case path == "/clear":
		s.only(ctx, fasthttp.MethodPost, s.handleClear)
	case path == "/canvas.svg":
		s.only(ctx, fasthttp.MethodGet, s.handleCanvas)
	case path == "/render":
		s.only(ctx, fasthttp.MethodPost, s.handleRender)
	case path == "/samples":
		s.only(ctx, fasthttp.MethodGet, s.handleSamples)
	case strings.HasPrefix(path, "/samples/"):
		name, ok := strings.CutSuffix(strings.TrimPrefix(path, "/samples/"), "/run")
		if !ok {
			ctx.Error("not found", fasthttp.StatusNotFound)
			return
		}
		s.only(ctx, fasthttp.MethodPost, func(ctx *fasthttp.RequestCtx) { s.handleRunSample(ctx, name) })
	case path == "/programs":
		s.only(ctx, fasthttp.MethodGet, s.handleListPrograms)
	case strings.HasPrefix(path, "/programs/"):
		rest := strings.TrimPrefix(path, "/programs/")
		if name, ok := strings.CutSuffix(rest, "/run"); ok {
			s.only(ctx, fasthttp.MethodPost, func(ctx *fasthttp.RequestCtx) { s.handleRunProgram(ctx, name) })
			return
		}
		s.handleProgram(ctx, rest)
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

func (s *Server) only(ctx *fasthttp.RequestCtx, method string, h fasthttp.RequestHandler) {
	if string(ctx.Method()) != method {
		ctx.Response.Header.Set("Allow", method)
		ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
		return
	}
	h(ctx)
}

type runResult struct {
	Status string `json:"status"`
	Steps  int    `json:"steps"`
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Line  int    `json:"line,omitempty"`
}

func (s *Server) handleRun(ctx *fasthttp.RequestCtx) {
	s.runOnSession(ctx, func(c context.Context) (int, error) {
		return s.Session.Run(c, string(ctx.PostBody()))
	}, host.StatusFinished)
}

func (s *Server) handleRunSample(ctx *fasthttp.RequestCtx, name string) {
	sample, ok := host.FindSample(name)
	if !ok {
		ctx.Error(fmt.Sprintf("unknown sample %q", name), fasthttp.StatusNotFound)
		return
	}
	s.runOnSession(ctx, func(c context.Context) (int, error) {
		return s.Session.RunSample(c, sample.Name)
	}, sample.Title+" finished!")
}

func (s *Server) handleRunProgram(ctx *fasthttp.RequestCtx, name string) {
	if !s.hasStore(ctx) {
		return
	}
	p, err := s.Store.Load(s.base, name)
	if err != nil {
		s.storeError(ctx, err)
		return
	}
	s.runOnSession(ctx, func(c context.Context) (int, error) {
		return s.Session.Run(c, p.Source)
	}, host.StatusFinished)
}

func (s *Server) runOnSession(ctx *fasthttp.RequestCtx, run func(context.Context) (int, error), status string) {
	steps, err := run(s.base)
	if err != nil {
		s.runError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, runResult{Status: status, Steps: steps})
}

func (s *Server) runError(ctx *fasthttp.RequestCtx, err error) {
	var d *diag.Error
	switch {
	case errors.Is(err, host.ErrBusy):
		writeJSON(ctx, fasthttp.StatusConflict, errorBody{Error: err.Error()})
	case errors.As(err, &d):
		writeJSON(ctx, fasthttp.StatusUnprocessableEntity, errorBody{Error: d.Error(), Kind: d.Kind.String(), Line: d.Line})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSON(ctx, fasthttp.StatusServiceUnavailable, errorBody{Error: err.Error()})
	default:
		s.log.Error("run: %v", err)
		writeJSON(ctx, fasthttp.StatusInternalServerError, errorBody{Error: err.Error()})
	}
}

func (s *Server) handleClear(ctx *fasthttp.RequestCtx) {
	s.Session.Clear()
	writeJSON(ctx, fasthttp.StatusOK, runResult{Status: host.StatusCleared})
}

func (s *Server) handleCanvas(ctx *fasthttp.RequestCtx) {
	var buf bytes.Buffer
	if err := s.Session.WriteSVG(&buf); err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.Response.Header.Set("Cache-Control", "no-store")
	ctx.Success(contentTypeSVG, buf.Bytes())
}

// handleRender draws the body on a fresh turtle without pacing and without
// touching the shared session.
func (s *Server) handleRender(ctx *fasthttp.RequestCtx) {
	src := string(ctx.PostBody())
	key := store.Fingerprint(src)
	if svg, ok := s.cached(key); ok {
		ctx.Response.Header.Set("X-Cache", "hit")
		ctx.Success(contentTypeSVG, svg)
		return
	}

	t := turtle.New(s.cfg.TurtleOptions())
	m := vm.NewMachine(t)
	m.MaxDepth = s.cfg.Run.MaxDepth
	c, cancel := context.WithTimeout(s.base, s.cfg.Server.RenderTimeout)
	defer cancel()
	if err := m.Run(c, src, vm.NoDelay{}); err != nil {
		s.runError(ctx, err)
		return
	}

	var buf bytes.Buffer
	if err := t.WriteSVG(&buf); err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	s.remember(key, buf.Bytes())
	ctx.Response.Header.Set("X-Cache", "miss")
	ctx.Success(contentTypeSVG, buf.Bytes())
}

func (s *Server) cached(key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

func (s *Server) remember(key string, svg []byte) {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cache.Add(key, svg)
}

func (s *Server) handleSamples(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, host.Samples)
}

func (s *Server) handleListPrograms(ctx *fasthttp.RequestCtx) {
	if !s.hasStore(ctx) {
		return
	}
	names, err := s.Store.List(s.base)
	if err != nil {
		s.storeError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, names)
}

func (s *Server) handleProgram(ctx *fasthttp.RequestCtx, name string) {
	if !s.hasStore(ctx) {
		return
	}
	switch string(ctx.Method()) {
	case fasthttp.MethodGet:
		p, err := s.Store.Load(s.base, name)
		if err != nil {
			s.storeError(ctx, err)
			return
		}
		writeJSON(ctx, fasthttp.StatusOK, p)
	case fasthttp.MethodPut:
		if err := s.Store.Save(s.base, name, string(ctx.PostBody())); err != nil {
			s.storeError(ctx, err)
			return
		}
		writeJSON(ctx, fasthttp.StatusOK, runResult{Status: fmt.Sprintf("Saved %q!", name)})
	case fasthttp.MethodDelete:
		if err := s.Store.Delete(s.base, name); err != nil {
			s.storeError(ctx, err)
			return
		}
		ctx.SetStatusCode(fasthttp.StatusNoContent)
	default:
		ctx.Response.Header.Set("Allow", "GET, PUT, DELETE")
		ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
	}
}

func (s *Server) hasStore(ctx *fasthttp.RequestCtx) bool {
	if s.Store == nil {
		ctx.Error("program store is disabled", fasthttp.StatusServiceUnavailable)
		return false
	}
	return true
}

func (s *Server) storeError(ctx *fasthttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		ctx.Error(err.Error(), fasthttp.StatusNotFound)
	case errors.Is(err, store.ErrEmptyName):
		ctx.Error(err.Error(), fasthttp.StatusBadRequest)
	default:
		s.log.Error("%v", err)
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
	}
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	buf, err := json.Marshal(v)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(buf)
}

// StartPurge schedules the removal of programs that have been deleted for
// longer than the retention period.
func (s *Server) StartPurge() error {
	if s.Store == nil {
		return nil
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("server: scheduler: %w", err)
	}
	job, err := sched.NewJob(gocron.DurationJob(s.cfg.Store.PurgeInterval), gocron.NewTask(s.purge))
	if err != nil {
		return fmt.Errorf("server: purge job: %w", err)
	}
	s.log.Debug("purge job %s every %v", job.ID(), s.cfg.Store.PurgeInterval)
	sched.Start()
	s.scheduler = sched
	return nil
}

func (s *Server) purge() {
	if !s.purgeRunning.SetToIf(false, true) {
		return
	}
	defer s.purgeRunning.UnSet()
	n, err := s.Store.Purge(s.base, time.Now().Add(-s.cfg.Store.Retention))
	if err != nil {
		s.log.Error("purge: %v", err)
		return
	}
	if n > 0 {
		s.log.Info("purged %d deleted programs", n)
	}
}

// ListenAndServe blocks serving addr until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	s.log.Info("listening on %s", addr)
	if err := s.srv.ListenAndServe(addr); err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return nil
}

// Shutdown stops the purge job, cancels running programs and closes the
// listener.
func (s *Server) Shutdown() error {
	s.cancel()
	var errs []error
	if s.scheduler != nil {
		if err := s.scheduler.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("server: scheduler: %w", err))
		}
	}
	if err := s.srv.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("server: shutdown: %w", err))
	}
	return errors.Join(errs...)
}
