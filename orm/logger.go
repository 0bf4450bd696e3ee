package orm

import (
	"context"

	"github.com/rs/zerolog"
)

// ZerologLogger logs every query at debug level.
type ZerologLogger struct {
	L zerolog.Logger
}

// NewZerologLogger returns a Logger writing to l under the "orm" component.
func NewZerologLogger(l zerolog.Logger) ZerologLogger {
	return ZerologLogger{L: l.With().Str("component", "orm").Logger()}
}

func (z ZerologLogger) Log(_ context.Context, query string, args ...any) {
	z.L.Debug().Str("query", query).Interface("args", args).Msg("exec")
}

var _ Logger = ZerologLogger{}
