package eventlog

import (
	"os"

	"github.com/rs/zerolog"
)

// Console logs every event to stdout via zerolog, one structured line
// per call.
type Console struct {
	logger zerolog.Logger
}

// NewConsole builds a Console sink writing to stdout.
func NewConsole() *Console {
	return &Console{
		logger: zerolog.New(os.Stdout).With().Timestamp().Logger(),
	}
}

func (c *Console) Log(severity Severity, server, message string) {
	event := c.logger.Info()
	switch severity {
	case Warning:
		event = c.logger.Warn()
	case Error:
		event = c.logger.Error()
	}
	event.Str("server", server).Msg(message)
}

func (c *Console) Close() error {
	return nil
}
