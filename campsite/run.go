// Copyright (c) 2012-2016 The Revel Framework Authors, All rights reserved.
// Revel Framework source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/agtorre/gocolorize"
	"github.com/campsite/cmd/harness"
	"github.com/campsite/cmd/logger"
	"github.com/campsite/cmd/model"
	"github.com/campsite/cmd/utils"
)

var cmdRun = &Command{
	UsageLine: "run [-m run-mode] [-s server] [-o host] [-p port] [-d dsn] [paths...]",
	Short:     "host the units found in the given paths",
	Long: `
Host every unit source (*.hcl) found in the given files and directories.
Directories are not searched recursively. The paths default to the working
directory.

For example, to serve the units of ./apps on port 8080 with HTTP/2 cleartext:

    campsite run -s h2c -p 8080 apps

Units are reloaded on every request, and eagerly when their source changes
unless watch = false is set in campsite.conf.

The server is one of http (default), h2c, console or mcp. The console server
reads commands from the terminal, the mcp server answers MCP requests on
stdin and stdout.`,
}

func init() {
	cmdRun.RunWith = runApp
}

func runApp(c *model.CommandConfig) error {
	hc, err := model.NewHostContainer(c)
	if err != nil {
		return utils.NewStartupIfError(err, "Invalid configuration", "config", c.ConfigFile)
	}

	level := logger.LvlInfo
	if c.Verbose {
		level = logger.LvlDebug
	}
	utils.InitLoggerFromConfig(hc.BasePath, level, hc.Config, hc.Server == model.ServerMCP)

	s, err := harness.NewServer(hc)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			utils.Logger.Warn("Closing the database failed", "error", err)
		}
	}()

	if hc.Server != model.ServerMCP {
		fmt.Fprint(os.Stdout, gocolorize.NewColor("blue").Paint(header))
		utils.Logger.Info("Starting campsite", "server", hc.Server, "addr", hc.Addr(), "paths", hc.Paths,
			"config", hc.ConfPaths, "isolate", hc.Isolate, "watch", hc.Watch)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Start(ctx)
}
