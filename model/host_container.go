// This package holds the resolved configuration the host runs with.
package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/campsite/cmd/utils"
	"github.com/revel/config"
)

// Error is used for constant errors.
type Error string

// Error implements the error interface.
func (e Error) Error() string {
	return string(e)
}

const (
	ErrUnknownServer Error = "unknown server"
	ErrInvalidPort   Error = "invalid port"
	ErrNoConfig      Error = "no config found at path"
	ErrNotFound      Error = "not found"
)

// The server choices.
const (
	ServerHTTP    = "http"
	ServerH2C     = "h2c"
	ServerConsole = "console"
	ServerMCP     = "mcp"
)

// Servers lists every accepted value of the server setting.
var Servers = []string{ServerHTTP, ServerH2C, ServerConsole, ServerMCP}

const (
	// ConfigName is the file looked up in the home and working directories.
	ConfigName = "campsite.conf"

	DefaultHost      = "0.0.0.0"
	DefaultPort      = 3301
	DefaultExtension = ".hcl"
)

type (
	// HostContainer describes everything the host needs to start.
	HostContainer struct {
		RunMode    string          // The config section applied on top of DEFAULT
		BasePath   string          // The working directory, log files are relative to it
		ConfPaths  []string        // The files the config was read from
		Config     *config.Context // The merged config
		Server     string          // http, h2c, console or mcp
		Host       string          // The bind address
		Port       int             // The bind port
		Paths      []string        // Unit source files or directories, in order
		Extension  string          // The unit source file extension
		Database   *DatabaseConfig // nil when no database is configured
		Watch      bool            // True to reload eagerly on file system events
		WatchDelay int             // Milliseconds to wait for more events before reloading
		Isolate    bool            // True to keep working units live when another fails to load
	}

	DatabaseConfig struct {
		Driver string
		DSN    string
	}
)

// Addr returns the host:port pair to listen on.
func (hc *HostContainer) Addr() string {
	return fmt.Sprintf("%s:%d", hc.Host, hc.Port)
}

// NewHostContainer reads campsite.conf and applies the command line on top of it.
func NewHostContainer(c *CommandConfig) (hc *HostContainer, err error) {
	hc = &HostContainer{RunMode: c.Run.Mode}
	hc.BasePath, _ = os.Getwd()

	hc.Config, hc.ConfPaths, err = loadConfig(c.ConfigFile, hc.BasePath)
	if err != nil {
		return
	}

	if mode := c.Run.Mode; mode != "" {
		if !hc.Config.HasSection(mode) {
			return hc, fmt.Errorf("%s: %w %s %s", ConfigName, ErrNotFound, "run-mode", mode)
		}
		hc.Config.SetSection(mode)
	}

	hc.Server = firstOf(c.Run.Server, hc.Config.StringDefault("server", ServerHTTP))
	if !utils.ContainsString(Servers, hc.Server) {
		return hc, fmt.Errorf("%w %q, expected one of %s", ErrUnknownServer, hc.Server, strings.Join(Servers, ", "))
	}

	hc.Host = firstOf(c.Run.Host, hc.Config.StringDefault("http.host", DefaultHost))
	hc.Port = hc.Config.IntDefault("http.port", DefaultPort)
	if c.Run.Port > -1 {
		hc.Port = c.Run.Port
	}
	if hc.Port < 0 || hc.Port > 65535 {
		return hc, fmt.Errorf("%w %d", ErrInvalidPort, hc.Port)
	}

	hc.Paths = c.Paths()
	if len(c.Run.Args.Paths) == 0 {
		if configured := hc.Config.StringDefault("paths", ""); configured != "" {
			hc.Paths = filepath.SplitList(configured)
		}
	}

	hc.Extension = hc.Config.StringDefault("unit.ext", DefaultExtension)
	if !strings.HasPrefix(hc.Extension, ".") {
		hc.Extension = "." + hc.Extension
	}

	if dsn := firstOf(c.Run.Database, hc.Config.StringDefault("db.dsn", "")); dsn != "" {
		hc.Database = &DatabaseConfig{
			Driver: hc.Config.StringDefault("db.driver", "sqlite"),
			DSN:    dsn,
		}
	}

	hc.Watch = hc.Config.BoolDefault("watch", true)
	hc.WatchDelay = hc.Config.IntDefault("watch.delay", 200)
	hc.Isolate = hc.Config.BoolDefault("reload.isolate", true)
	return
}

// Config load order
// 1. $HOME/campsite.conf
// 2. ./campsite.conf
// or only the file given with --config, which must exist
func loadConfig(explicit, basePath string) (*config.Context, []string, error) {
	var confPaths []string
	if home, err := os.UserHomeDir(); err == nil {
		confPaths = append(confPaths, home)
	}
	confPaths = append(confPaths, basePath)

	name := ConfigName
	if explicit != "" {
		if !utils.Exists(explicit) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNoConfig, explicit)
		}
		// LoadContext joins a single name with every path
		name = filepath.Base(explicit)
		confPaths = []string{filepath.Dir(explicit)}
	}

	var found []string
	for _, p := range confPaths {
		if utils.Exists(filepath.Join(p, name)) {
			found = append(found, p)
		}
	}
	if len(found) == 0 {
		return config.NewContext(), nil, nil
	}

	ctx, err := config.LoadContext(name, found)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to load configuration file %w", err)
	}
	read := make([]string, len(found))
	for i, p := range found {
		read[i] = filepath.Join(p, name)
	}
	return ctx, read, nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
