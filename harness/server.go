// Copyright (c) 2012-2016 The Revel Framework Authors, All rights reserved.
// Revel Framework source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

// Package harness runs the host.
//
// It has a following responsibilities:
// 1. Find the unit sources and reload them on every request
// 2. Build the routing table and the middleware around it
// 3. Serve it through the configured backend: http, h2c, console or mcp
package harness

import (
	"database/sql"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"

	"github.com/campsite/cmd/middleware"
	"github.com/campsite/cmd/model"
	"github.com/campsite/cmd/reloader"
	"github.com/campsite/cmd/unit"
)

// State is the lifecycle state of a Server.
type State int32

const (
	Stopped State = iota
	Starting
	Running
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	}
	return "stopped"
}

// Server owns the unit registry and serves the units it holds.
type Server struct {
	container *model.HostContainer
	loader    *unit.Loader
	registry  *reloader.Registry
	db        *sql.DB

	mu    sync.Mutex // Reloading and rebuilding the routing table is one critical section
	serve http.Handler
	state atomic.Int32

	In  io.Reader // Read by the console and mcp servers
	Out io.Writer // Written by the console and mcp servers
}

// NewServer prepares a server for the container. The database, when one is
// configured, is connected here; failing to reach it is a startup error.
func NewServer(hc *model.HostContainer) (*Server, error) {
	db, err := openDatabase(hc.Database)
	if err != nil {
		return nil, err
	}

	loader := unit.NewLoader(db)
	s := &Server{
		container: hc,
		loader:    loader,
		registry:  reloader.NewRegistry(loader, hc.Extension, hc.Isolate),
		db:        db,
		In:        os.Stdin,
		Out:       os.Stdout,
	}
	s.serve = middleware.ShowExceptions(s.dispatch)
	return s, nil
}

// Close releases the database.
func (s *Server) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// State returns the lifecycle state.
func (s *Server) State() State {
	return State(s.state.Load())
}

func (s *Server) setState(state State) {
	s.state.Store(int32(state))
}

// FindScripts hands the configured paths to the registry.
func (s *Server) FindScripts() {
	s.registry.Update(s.container.Paths...)
}

// Reload finds the unit sources again and reloads every one of them.
func (s *Server) Reload() error {
	s.FindScripts()
	return s.registry.Reload()
}

// Apps returns the units published by the last reload.
func (s *Server) Apps() reloader.Apps {
	return s.registry.Apps()
}
