package utils

import (
	"github.com/campsite/cmd/logger"
	"github.com/revel/config"
)

var Logger = logger.New("module", "campsite")

var logLevels = []string{"debug", "info", "warn", "error", "crit"}

func InitLogger(basePath string, logLevel logger.LogLevel) {
	Logger.SetHandler(logger.InitializeFromConfig(basePath, logContext(logLevel)))
}

// InitLoggerFromConfig starts from the defaults of logLevel and applies the log.*
// options of c on top. With stdoutReserved set nothing is logged to stdout, the
// mcp server speaks its protocol there.
func InitLoggerFromConfig(basePath string, logLevel logger.LogLevel, c *config.Context, stdoutReserved bool) {
	newContext := logContext(logLevel)
	for _, key := range []string{"log.maxsize", "log.maxbackups", "log.maxage"} {
		if v := c.StringDefault(key, ""); v != "" {
			newContext.SetOption(key, v)
		}
	}
	for _, lvl := range logLevels {
		key := "log." + lvl + ".output"
		if v := c.StringDefault(key, ""); v != "" {
			newContext.SetOption(key, v)
		}
		if stdoutReserved && newContext.StringDefault(key, "") == "stdout" {
			newContext.SetOption(key, "stderr")
		}
	}
	Logger.SetHandler(logger.InitializeFromConfig(basePath, newContext))
}

func logContext(logLevel logger.LogLevel) *config.Context {
	newContext := config.NewContext()
	if logLevel == logger.LvlDebug {
		newContext.SetOption("log.debug.output", "stdout")
	} else {
		newContext.SetOption("log.debug.output", "off")
	}
	if logLevel >= logger.LvlInfo {
		newContext.SetOption("log.info.output", "stdout")
	} else {
		newContext.SetOption("log.info.output", "off")
	}

	newContext.SetOption("log.warn.output", "stderr")
	newContext.SetOption("log.error.output", "stderr")
	newContext.SetOption("log.crit.output", "stderr")
	return newContext
}
