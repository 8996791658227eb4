// Copyright (c) 2012-2016 The Revel Framework Authors, All rights reserved.
// Revel Framework source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package harness

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/agtorre/gocolorize"
	"github.com/campsite/cmd/reloader"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

const consoleHelp = `Commands:
  reload   reload every unit and list them (also reload!)
  apps     list the loaded units
  help     show this help
  exit     leave the console (also quit)
`

// console runs the interactive command loop. It loads the units once, then reads
// commands until exit or the end of input.
func (s *Server) console(ctx context.Context) error {
	s.setState(Running)
	report, _ := s.reloadReport()
	fmt.Fprint(s.Out, report)

	prompt := "campsite> "
	if isTerminal(s.Out) {
		prompt = gocolorize.NewColor("green").Paint(prompt)
	}

	scanner := bufio.NewScanner(s.In)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(s.Out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(s.Out)
			return scanner.Err()
		}
		if quit := s.command(strings.TrimSpace(scanner.Text())); quit {
			return nil
		}
	}
}

// command runs one console line and reports whether the console should stop.
func (s *Server) command(line string) bool {
	switch line {
	case "":
	case "reload", "reload!":
		report, _ := s.reloadReport()
		fmt.Fprint(s.Out, report)
	case "apps":
		fmt.Fprint(s.Out, describeApps(s.Apps()))
	case "help":
		fmt.Fprint(s.Out, consoleHelp)
	case "exit", "quit":
		return true
	default:
		fmt.Fprintf(s.Out, "Unknown command %q, type help for the list of commands\n", line)
	}
	return false
}

// reloadReport reloads the units and describes the outcome, for the console and
// mcp servers. The second result is false when a unit failed to load.
func (s *Server) reloadReport() (string, bool) {
	_, err := s.rebuild()
	var b strings.Builder
	if err != nil {
		fmt.Fprintf(&b, "Reload failed: %v\n", err)
	}
	b.WriteString(describeApps(s.Apps()))
	return b.String(), err == nil
}

// describeApps lists a snapshot, one unit per line.
func describeApps(apps reloader.Apps) string {
	if len(apps) == 0 {
		return "No units loaded.\n"
	}
	var b strings.Builder
	for _, mount := range apps.Names() {
		h := apps[mount]
		status := ""
		if h.Broken() {
			status = "  [failed: " + h.Err.Description + "]"
		}
		fmt.Fprintf(&b, "/%s  %s  %s (%s)%s\n", mount, h.Name, h.SourcePath, humanize.Bytes(uint64(h.Size)), status)
	}
	return b.String()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
