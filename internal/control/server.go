// Package control exposes the running screen over HTTP so harnesses can
// drive it. Mutations are forwarded into the bubbletea program as Invoke
// messages and executed on the UI goroutine; reads are served from the last
// published snapshot.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"strconv"
	"time"

	"vulnboard/internal/dashboard"
	"vulnboard/internal/logging"
	"vulnboard/internal/wizard"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

const (
	ScreenDashboard = "dashboard"
	ScreenWizard    = "wizard"
)

// ErrScreenInactive is replied when an operation targets a screen that is
// not running.
var ErrScreenInactive = errors.New("screen not running")

// Invoke asks the UI to run one exported operation. The UI must send exactly
// one Result on Reply.
type Invoke struct {
	Screen string
	Op     string
	Arg    int
	Reply  chan Result
}

// Result is the outcome of an Invoke.
type Result struct {
	Changed bool
	Err     error
}

// Respond delivers r without blocking. Reply is buffered by the server.
func (i Invoke) Respond(r Result) {
	if i.Reply == nil {
		return
	}
	select {
	case i.Reply <- r:
	default:
	}
}

// Sender delivers messages into the UI event loop. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Response is the JSON envelope of every API reply.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Server is the control HTTP surface.
type Server struct {
	addr    string
	sender  Sender
	store   *Store
	timeout time.Duration
	router  chi.Router
}

// NewServer creates a server that forwards operations to sender and serves
// snapshots from store.
func NewServer(addr string, sender Sender, store *Store) *Server {
	s := &Server{
		addr:    addr,
		sender:  sender,
		store:   store,
		timeout: 2 * time.Second,
	}
	s.router = s.newRouter()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) newRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Post("/dashboard/{op}", s.handleInvoke(ScreenDashboard, dashboard.Ops, "id"))
		r.Post("/wizard/{op}", s.handleInvoke(ScreenWizard, wizard.Ops, "step"))
	})

	return r
}

// requestLogger replaces chi's stdout logger, which would draw over the TUI.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logging.Control("%s %s -> %d in %v [%s]", r.Method, r.URL.Path, ww.Status(), time.Since(start), chimiddleware.GetReqID(r.Context()))
	})
}

func sendJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st := s.store.Load()
	if st == nil {
		sendJSON(w, http.StatusServiceUnavailable, Response{Message: "no state published yet"})
		return
	}
	sendJSON(w, http.StatusOK, Response{Success: true, Data: st})
}

func (s *Server) handleInvoke(screen string, ops []string, argName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		op := chi.URLParam(r, "op")
		if !slices.Contains(ops, op) {
			sendJSON(w, http.StatusNotFound, Response{Message: fmt.Sprintf("unknown %s operation %q", screen, op)})
			return
		}

		arg := 0
		if raw := r.URL.Query().Get(argName); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				sendJSON(w, http.StatusBadRequest, Response{Message: fmt.Sprintf("invalid %s: %v", argName, err)})
				return
			}
			arg = v
		}

		inv := Invoke{Screen: screen, Op: op, Arg: arg, Reply: make(chan Result, 1)}
		s.sender.Send(inv)

		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()

		select {
		case res := <-inv.Reply:
			switch {
			case errors.Is(res.Err, ErrScreenInactive):
				sendJSON(w, http.StatusConflict, Response{Message: res.Err.Error()})
			case res.Err != nil:
				sendJSON(w, http.StatusBadRequest, Response{Message: res.Err.Error()})
			default:
				sendJSON(w, http.StatusOK, Response{Success: true, Data: map[string]bool{"changed": res.Changed}})
			}
		case <-ctx.Done():
			logging.Get(logging.CategoryControl).Warn("Invoke %s/%s timed out", screen, op)
			sendJSON(w, http.StatusGatewayTimeout, Response{Message: "ui did not respond"})
		}
	}
}

// Run serves on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Control("Control server listening on %s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("control server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("control server shutdown: %w", err)
	}
	<-errCh
	logging.Control("Control server stopped")
	return nil
}
