// Copyright (c) 2012-2016 The Revel Framework Authors, All rights reserved.
// Revel Framework source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package harness

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/campsite/cmd/model"
	"github.com/campsite/cmd/utils"
	"github.com/campsite/cmd/watcher"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// ErrAlreadyStarted is returned by Start on a server that is not stopped.
var ErrAlreadyStarted = errors.New("harness: server already started")

// Start runs the configured server until ctx is cancelled or, for the console
// and mcp servers, until their input ends.
func (s *Server) Start(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(Stopped), int32(Starting)) {
		return ErrAlreadyStarted
	}
	defer s.setState(Stopped)

	switch s.container.Server {
	case model.ServerHTTP, model.ServerH2C:
		ln, err := s.Listen()
		if err != nil {
			return err
		}
		return s.Serve(ctx, ln)
	case model.ServerConsole:
		return s.console(ctx)
	case model.ServerMCP:
		return s.serveMCP(ctx)
	}
	return utils.NewStartupError("Unable to start", "server", s.container.Server, "error", model.ErrUnknownServer)
}

// Listen binds the configured address.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.container.Addr())
	if err != nil {
		return nil, utils.NewStartupIfError(err, "Unable to bind", "addr", s.container.Addr())
	}
	return ln, nil
}

// Serve answers requests on ln until ctx is cancelled. The watcher, when watch
// mode is on, runs alongside.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.backend(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if s.container.Watch {
		g.Go(func() error {
			return s.watch(gctx)
		})
	}

	s.setState(Running)
	defer s.setState(Stopped)
	utils.Logger.Info("Listening", "server", s.container.Server, "addr", ln.Addr().String(), "paths", s.container.Paths)
	err := g.Wait()
	utils.Logger.Info("Stopped", "server", s.container.Server)
	return err
}

// backend returns the handler the listener serves. h2c accepts cleartext HTTP/2
// next to HTTP/1.1.
func (s *Server) backend() http.Handler {
	if s.container.Server == model.ServerH2C {
		return h2c.NewHandler(s, &http2.Server{})
	}
	return s
}

// watch reloads eagerly on file system changes until ctx is done. A watcher that
// cannot be set up only disables watch mode, requests still reload.
func (s *Server) watch(ctx context.Context) error {
	w := watcher.NewWatcher(s.container)
	if err := w.Listen(s, s.container.Paths...); err != nil {
		utils.Logger.Warn("Watch mode disabled", "error", err)
		return nil
	}
	defer w.Close()
	if err := w.Notify(); err != nil {
		utils.Logger.Error("Unit failed to load", "error", err)
	}
	<-ctx.Done()
	return nil
}
