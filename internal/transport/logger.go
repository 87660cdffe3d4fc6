package transport

import "go.uber.org/zap"

// leveledLogger adapts zap to retryablehttp.LeveledLogger.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, keysAndValues ...any) { l.s.Errorw(msg, keysAndValues...) }

func (l leveledLogger) Info(msg string, keysAndValues ...any) { l.s.Debugw(msg, keysAndValues...) }

func (l leveledLogger) Debug(msg string, keysAndValues ...any) { l.s.Debugw(msg, keysAndValues...) }

func (l leveledLogger) Warn(msg string, keysAndValues ...any) { l.s.Warnw(msg, keysAndValues...) }
