// Package command holds the options of each campsite command.
package command

type (
	// Run hosts the units found in Args.Paths.
	Run struct {
		Mode     string `short:"m" long:"run-mode" description:"The config section to apply on top of [DEFAULT]"`
		Server   string `short:"s" long:"server" description:"How to serve the units: http, h2c, console or mcp"`
		Host     string `short:"o" long:"host" description:"The address to bind to"`
		Port     int    `short:"p" long:"port" default:"-1" description:"The port to listen on"`
		Database string `short:"d" long:"database" description:"Database DSN opened at startup (sqlite)"`
		Args     struct {
			Paths []string `positional-arg-name:"path" description:"Unit source files or directories"`
		} `positional-args:"yes"`
	}
)
