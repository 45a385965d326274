package socket

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromoteWaitingMergesSameAddress(t *testing.T) {
	s := &Socket{kind: KindUDP}
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 9000}
	s.waiting = []waitingEntry{
		{bufs: [][]byte{[]byte("a")}, addr: addr},
		{bufs: [][]byte{[]byte("b")}, addr: addr},
	}

	s.promoteWaiting()

	require.Len(t, s.sending, 1)
	assert.Equal(t, 0, len(s.waiting))
	assert.Equal(t, 2, s.sending[0].remaining())
}

func TestPromoteWaitingStopsAtDifferentAddress(t *testing.T) {
	s := &Socket{kind: KindUDP}
	a1 := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 9000}
	a2 := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 9001}
	s.waiting = []waitingEntry{
		{bufs: [][]byte{[]byte("a")}, addr: a1},
		{bufs: [][]byte{[]byte("b")}, addr: a2},
	}

	s.promoteWaiting()

	require.Len(t, s.sending, 1)
	require.Len(t, s.waiting, 1)
	assert.Equal(t, 1, s.sending[0].remaining())
	assert.Equal(t, a2, s.waiting[0].addr)
}

func TestPromoteWaitingMergesAllForTCP(t *testing.T) {
	s := &Socket{kind: KindTCP}
	s.waiting = []waitingEntry{
		{bufs: [][]byte{[]byte("abc")}},
		{bufs: [][]byte{[]byte("de")}},
		{bufs: [][]byte{[]byte("f")}},
	}

	s.promoteWaiting()

	require.Len(t, s.sending, 1)
	assert.Empty(t, s.waiting)
	assert.Equal(t, 6, s.sending[0].remaining())
}
