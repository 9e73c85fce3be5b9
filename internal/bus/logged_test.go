package bus

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"gitlab.com/d21d3q/goktmcan/internal/frame"
)

func TestLoggedSourceLogsFrames(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	src := NewLoggedSource(NewLogSource(strings.NewReader("129#3000000000000030\n")), logger, logrus.DebugLevel)
	defer src.Close()

	f, err := src.Receive(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint32(0x129), f.ID)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, logrus.DebugLevel, entry.Level)
	require.Equal(t, "can receive", entry.Message)
	require.Equal(t, "129#3000000000000030", entry.Data["frame"])

	hook.Reset()
	_, err = src.Receive(context.Background())
	require.ErrorIs(t, err, io.EOF)
	require.Empty(t, hook.AllEntries())
}

type failingSource struct{}

func (failingSource) Receive(context.Context) (frame.Frame, error) {
	return frame.Frame{}, errors.New("bus off")
}

func (failingSource) Close() error { return nil }

func TestLoggedSourceLogsErrors(t *testing.T) {
	logger, hook := test.NewNullLogger()
	src := NewLoggedSource(failingSource{}, logger, logrus.InfoLevel)

	_, err := src.Receive(context.Background())
	require.Error(t, err)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, logrus.ErrorLevel, entry.Level)
	require.Equal(t, "can receive error", entry.Message)
}
