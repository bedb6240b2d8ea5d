package web

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
)

type HTTPServer struct {
	Addr    string
	Handler http.Handler
	Logger  sysLogger

	mu     sync.Mutex
	srv    *http.Server
	ln     net.Listener
	closed bool
	// done is closed by Stop; watched is closed once the ctx watcher exits.
	done    chan struct{}
	watched chan struct{}
}

func NewHTTPServer(addr string, handler http.Handler) *HTTPServer {
	return &HTTPServer{Addr: addr, Handler: handler, Logger: noopLogger{}}
}

// Start binds the listener and serves in the background. It returns once the
// socket is bound; the server stops when ctx is done or Stop is called.
func (s *HTTPServer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("web server already stopped")
	}
	if s.srv != nil {
		return nil
	}
	if s.Logger == nil {
		s.Logger = noopLogger{}
	}

	addr := s.Addr
	if addr == "" {
		addr = ":80"
	}
	handler := s.Handler
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.srv = nil
		return errors.Wrapf(err, "listen %s", addr)
	}
	s.ln = ln
	s.Logger.Infof("web", "listening on %s", ln.Addr())

	s.done = make(chan struct{})
	s.watched = make(chan struct{})
	done, watched := s.done, s.watched
	go func() {
		defer close(watched)
		select {
		case <-ctx.Done():
			_ = s.Stop()
		case <-done:
		}
	}()

	srv := s.srv
	go func() {
		err := srv.Serve(ln)
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return
		}
		s.Logger.Errorf("web", "serve failed: %v", err)
	}()

	return nil
}

// ListenAddr reports the bound address, or "" before Start.
func (s *HTTPServer) ListenAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (s *HTTPServer) Stop() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.done != nil {
		close(s.done)
	}
	srv := s.srv
	ln := s.ln
	s.srv = nil
	s.ln = nil
	s.mu.Unlock()

	if srv == nil {
		if ln != nil {
			_ = ln.Close()
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
