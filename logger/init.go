package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/revel/config"
	"github.com/revel/log15"
	"gopkg.in/natefinch/lumberjack.v2"
)

// levelNames maps the config key fragment (log.<name>.output) to a level.
var levelNames = []struct {
	name  string
	level LogLevel
}{
	{"debug", LvlDebug},
	{"info", LvlInfo},
	{"warn", LvlWarn},
	{"error", LvlError},
	{"crit", LvlCrit},
}

// InitializeFromConfig builds a handler from the log.* options of the context.
//
// Each level reads log.<level>.output, which is one of "stdout", "stderr", "off"
// or a file path. Relative file paths are resolved against basePath and rotated
// with lumberjack using log.maxsize (MB), log.maxbackups and log.maxage (days).
func InitializeFromConfig(basePath string, c *config.Context) LogHandler {
	handlers := []log15.Handler{}
	files := map[string]io.Writer{}

	for _, lvl := range levelNames {
		output := c.StringDefault("log."+lvl.name+".output", "off")
		if output == "" || output == "off" {
			continue
		}

		var h log15.Handler
		switch output {
		case "stdout":
			h = log15.StreamHandler(consoleWriter(os.Stdout), consoleFormat(os.Stdout))
		case "stderr":
			h = log15.StreamHandler(consoleWriter(os.Stderr), consoleFormat(os.Stderr))
		default:
			if !filepath.IsAbs(output) {
				output = filepath.Join(basePath, output)
			}
			w, found := files[output]
			if !found {
				w = &lumberjack.Logger{
					Filename:   output,
					MaxSize:    c.IntDefault("log.maxsize", 10),
					MaxBackups: c.IntDefault("log.maxbackups", 3),
					MaxAge:     c.IntDefault("log.maxage", 14),
				}
				files[output] = w
			}
			h = log15.StreamHandler(w, log15.LogfmtFormat())
		}
		handlers = append(handlers, levelOnly(lvl.level, h))
	}

	if len(handlers) == 0 {
		return log15.DiscardHandler()
	}
	return log15.MultiHandler(handlers...)
}

func levelOnly(level LogLevel, h log15.Handler) log15.Handler {
	return log15.FilterHandler(func(r *log15.Record) bool {
		return r.Lvl == level
	}, h)
}

func consoleWriter(f *os.File) io.Writer {
	if isatty.IsTerminal(f.Fd()) {
		return colorable.NewColorable(f)
	}
	return f
}

func consoleFormat(f *os.File) log15.Format {
	if isatty.IsTerminal(f.Fd()) {
		return log15.TerminalFormat()
	}
	return log15.LogfmtFormat()
}
