package bus

import (
	"context"

	"github.com/sirupsen/logrus"

	"gitlab.com/d21d3q/goktmcan/internal/frame"
)

// NewLoggedSource wraps inner and logs every received frame at level and
// every receive error at error level.
func NewLoggedSource(inner Source, logger logrus.FieldLogger, level logrus.Level) Source {
	return &loggedSource{inner: inner, logger: logger, level: level}
}

type loggedSource struct {
	inner  Source
	logger logrus.FieldLogger
	level  logrus.Level
}

func (l *loggedSource) Receive(ctx context.Context) (frame.Frame, error) {
	f, err := l.inner.Receive(ctx)
	if err != nil {
		if !IsEndOfStream(err) {
			l.logger.WithError(err).Error("can receive error")
		}
		return f, err
	}
	entry := l.logger.WithFields(logrus.Fields{
		"id":       f.ID,
		"extended": f.Extended,
		"rtr":      f.RTR,
		"len":      int(f.Len),
		"frame":    f.String(),
	})
	entry.Log(l.level, "can receive")
	return f, nil
}

func (l *loggedSource) Close() error {
	return l.inner.Close()
}
