package utils

import (
	"errors"
	"fmt"

	"github.com/campsite/cmd/logger"
)

type (
	// StartupError is raised when the host cannot be brought up: bad configuration,
	// unreachable database, port already bound.
	StartupError struct {
		Stack   interface{}
		Message string
		Args    []interface{}
	}
)

// Returns a new startup error.
func NewStartupError(message string, args ...interface{}) (b *StartupError) {
	Logger.Info(message, args...)
	b = &StartupError{}
	b.Message = message
	b.Args = args
	b.Stack = logger.NewCallStack()
	return b
}

// Returns a new StartupError if err is not nil.
func NewStartupIfError(err error, message string, args ...interface{}) (b error) {
	if err != nil {
		var serr *StartupError
		if errors.As(err, &serr) {
			// Already a startup error so just append the args
			serr.Args = append(serr.Args, args...)
			return serr
		}

		args = append(args, "error", err.Error())
		b = NewStartupError(message, args...)
	}

	return
}

// StartupError implements Error() string.
func (b *StartupError) Error() string {
	return fmt.Sprint(b.Message, b.Args)
}
