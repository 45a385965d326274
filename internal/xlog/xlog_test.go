package xlog_test

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lam2003/netreactor/internal/xlog"
)

func TestDefaultIsNoOpUntilSet(t *testing.T) {
	xlog.SetDefault(nil)
	assert.False(t, xlog.Default().Enabled(xlog.LevelError))
	// Must not panic even though nothing was configured.
	xlog.Error("reactor", "boom", errors.New("x"), nil)
}

func TestZerologWritesMessage(t *testing.T) {
	r, w, err := os.Pipe()
	assert.NoError(t, err)
	defer r.Close()

	l := xlog.NewZerolog(w, xlog.LevelInfo)
	assert.True(t, l.Enabled(xlog.LevelInfo))
	assert.False(t, l.Enabled(xlog.LevelDebug))

	l.Log(xlog.LevelWarn, "reactor", "callback panic", errors.New("oops"), xlog.Fields{"fd": 7})
	w.Close()

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	assert.Contains(t, buf.String(), "callback panic")
	assert.Contains(t, buf.String(), "oops")
}
