package socket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketAdvanceWithinOneIov(t *testing.T) {
	p := newPacket([][]byte{[]byte("hello"), []byte("world")}, nil)
	require.Equal(t, 10, p.remaining())

	p.advance(2)
	assert.Equal(t, 8, p.remaining())
	assert.Equal(t, "llo", string(p.iov[0]))
}

func TestPacketAdvanceAcrossIovBoundary(t *testing.T) {
	p := newPacket([][]byte{[]byte("hi"), []byte("there")}, nil)
	p.advance(3)
	assert.Equal(t, "here", string(p.iov[0]))
	assert.Equal(t, 4, p.remaining())
}

func TestPacketAdvanceExactlyConsumesPacket(t *testing.T) {
	p := newPacket([][]byte{[]byte("abc"), []byte("de")}, nil)
	p.advance(5)
	assert.True(t, p.empty())
}

func TestPacketCappedLimitsIovCount(t *testing.T) {
	p := newPacket([][]byte{[]byte("a"), []byte("b"), []byte("c")}, nil)
	capped := p.capped(2)
	assert.Len(t, capped, 2)

	uncapped := p.capped(10)
	assert.Len(t, uncapped, 3)
}

func TestPacketCursorSumEqualsOriginalLength(t *testing.T) {
	bufs := [][]byte{[]byte("0123456789"), []byte("abcdefghij")}
	p := newPacket(bufs, nil)
	total := p.remaining()

	written := 0
	for !p.empty() {
		n := 3
		if n > p.remaining() {
			n = p.remaining()
		}
		p.advance(n)
		written += n
	}
	assert.Equal(t, total, written)
}
