// Copyright (c) 2012-2016 The Revel Framework Authors, All rights reserved.
// Revel Framework source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

// The command line tool for hosting campsite units.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"text/template"

	"github.com/agtorre/gocolorize"
	"github.com/campsite/cmd/logger"
	"github.com/campsite/cmd/model"
	"github.com/campsite/cmd/utils"
	"github.com/jessevdk/go-flags"
)

// Command structure cribbed from the genius organization of the "go" command.
type Command struct {
	RunWith                func(c *model.CommandConfig) error
	UsageLine, Short, Long string
}

// Name returns command name from usage line
func (cmd *Command) Name() string {
	name := cmd.UsageLine
	i := strings.Index(name, " ")
	if i >= 0 {
		name = name[:i]
	}
	return name
}

// The constants
const (
	RUN model.COMMAND = iota + 1
	VERSION
)

// The commands
var commands = []*Command{
	nil, // Safety net, prevent missing index from running
	cmdRun,
	cmdVersion,
}

func main() {
	if runtime.GOOS == "windows" {
		gocolorize.SetPlain(true)
	}
	wd, _ := os.Getwd()
	utils.InitLogger(wd, logger.LvlError)

	c, err := ParseArgs(os.Args[1:])
	if err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, ferr.Message)
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "Command line error:", err)
		tmpl(os.Stderr, usageTemplate, commands[1:])
		os.Exit(1)
	}

	// Switch based on the verbose flag
	if c.Verbose {
		utils.InitLogger(wd, logger.LvlDebug)
	} else {
		utils.InitLogger(wd, logger.LvlInfo)
	}

	if err := commands[c.Index].RunWith(c); err != nil {
		utils.Logger.Error("Abort", "command", commands[c.Index].Name(), "error", err)
		os.Exit(1)
	}
}

// ParseArgs reads the command line into a CommandConfig and selects the command.
func ParseArgs(args []string) (*model.CommandConfig, error) {
	c := &model.CommandConfig{}
	parser := flags.NewParser(c, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	switch parser.Active.Name {
	case "run":
		c.Index = RUN
	case "version":
		c.Index = VERSION
	}
	return c, nil
}

const header = `~
~ campsite! You are Camping
~
`

const usageTemplate = `usage: campsite command [arguments]

The commands are:
{{range .}}
    {{.Name | printf "%-11s"}} {{.Short}}{{end}}
`

func tmpl(w io.Writer, text string, data interface{}) {
	t := template.New("top")
	template.Must(t.Parse(text))
	if err := t.Execute(w, data); err != nil {
		panic(err)
	}
}
