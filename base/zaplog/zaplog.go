package zaplog

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	logger atomic.Pointer[zap.Logger]
	nop    = zap.NewNop()
)

// Logger returns the process logger, or a no-op logger until SetLogger has
// been called.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return nop
}

func SetLogger(l *zap.Logger) { logger.Store(l) }
