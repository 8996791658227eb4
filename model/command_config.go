package model

import "github.com/campsite/cmd/model/command"

type (
	// The campsite command type
	COMMAND int

	// The Command config for the line input
	CommandConfig struct {
		Index      COMMAND `no-flag:"true"` // The index
		Verbose    bool    `short:"v" long:"debug" description:"If set the logger is set to verbose"`
		ConfigFile string  `short:"c" long:"config" description:"Path to a config file used instead of campsite.conf in the home and working directories"`
		// The run command
		Run command.Run `command:"run"`
		// The version command
		Version command.Version `command:"version"`
	}
)

// Paths returns the unit paths given on the command line, defaulting to the working directory.
func (c *CommandConfig) Paths() []string {
	if len(c.Run.Args.Paths) == 0 {
		return []string{"."}
	}
	return c.Run.Args.Paths
}
