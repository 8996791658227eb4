// Copyright (c) 2012-2016 The Revel Framework Authors, All rights reserved.
// Revel Framework source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package harness

import (
	"errors"
	"net/http"
	"strings"

	"github.com/campsite/cmd/middleware"
	"github.com/campsite/cmd/multiplexer"
	"github.com/campsite/cmd/reloader"
	"github.com/campsite/cmd/utils"
)

// App reloads the units and returns the routing table wrapped in the response
// middleware. Units failing under isolation are logged and served as diagnostic
// pages; in strict mode the load error is returned instead.
func (s *Server) App() (http.Handler, error) {
	h, err := s.rebuild()
	var rerr *reloader.ReloadError
	if errors.As(err, &rerr) {
		utils.Logger.Error("Some units failed to load", "error", rerr)
		return h, nil
	}
	return h, err
}

// rebuild is the reload critical section. It returns the table built from the
// published snapshot along with the reload error, if any.
func (s *Server) rebuild() (http.Handler, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.Reload()
	var rerr *reloader.ReloadError
	if err != nil && !errors.As(err, &rerr) {
		return nil, err
	}
	return middleware.Chain(multiplexer.Build(s.registry.Apps())), err
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) error {
	app, err := s.App()
	if err != nil {
		return err
	}
	app.ServeHTTP(w, r)
	return nil
}

// ServeHTTP reloads and serves a request, rendering failures as diagnostic pages.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.serve.ServeHTTP(w, r)
}

// Refresh is invoked by the watcher when a unit source changed.
func (s *Server) Refresh() *utils.SourceError {
	_, err := s.App()
	if err == nil {
		return nil
	}
	var serr *utils.SourceError
	if errors.As(err, &serr) {
		return serr
	}
	return utils.NewError("unit", "Reload Error", "", err.Error())
}

// WatchFile reports whether a changed file may be a unit source.
func (s *Server) WatchFile(name string) bool {
	return strings.HasSuffix(name, s.container.Extension)
}
