package socket_test

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lam2003/netreactor/executor"
	"github.com/lam2003/netreactor/netutil"
	"github.com/lam2003/netreactor/reactor"
	"github.com/lam2003/netreactor/socket"
)

func startReactor(t *testing.T) (*reactor.Reactor, func()) {
	t.Helper()
	r, err := reactor.New()
	require.NoError(t, err)
	done := make(chan struct{})
	go func() {
		r.Run()
		close(done)
	}()
	return r, func() {
		r.Shutdown()
		<-done
		_ = r.Close()
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestListenAcceptEchoRoundTrip(t *testing.T) {
	r, stop := startReactor(t)
	defer stop()

	port := freePort(t)
	listener := socket.New(r, socket.KindTCP, nil)

	accepted := make(chan *socket.Socket, 1)
	listener.OnAccept(func(child *socket.Socket) {
		child.OnRead(func(data []byte, _ net.Addr) {
			buf := make([]byte, len(data))
			copy(buf, data)
			child.Send(buf, nil)
		})
		accepted <- child
	})
	require.NoError(t, listener.Listen(port, false, "", 16))

	conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", itoa(port)))
	require.NoError(t, err)
	defer conn.Close()

	select {
	case <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("listener never accepted a connection")
	}

	_, err = conn.Write([]byte("ping"))
	require.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reply := make([]byte, 4)
	_, err = conn.Read(reply)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(reply))
}

func TestConnectRefusedReportsRefused(t *testing.T) {
	r, stop := startReactor(t)
	defer stop()

	worker := executor.NewWorker(executor.PriorityNormal, "dial")
	go worker.Run()
	defer worker.Shutdown()

	port := freePort(t) // nothing listens on this port

	cli := socket.New(r, socket.KindTCP, nil)
	result := make(chan netutil.Code, 1)
	cli.Connect(worker, "127.0.0.1", port, func(code netutil.Code, _ error) {
		result <- code
	}, 2*time.Second, "", 0)

	select {
	case code := <-result:
		assert.Equal(t, netutil.Refused, code)
	case <-time.After(3 * time.Second):
		t.Fatal("connect never completed")
	}
}

func TestConnectTimeoutFiresWhenUnreachable(t *testing.T) {
	r, stop := startReactor(t)
	defer stop()

	worker := executor.NewWorker(executor.PriorityNormal, "dial")
	go worker.Run()
	defer worker.Shutdown()

	cli := socket.New(r, socket.KindTCP, nil)
	result := make(chan netutil.Code, 1)
	// 10.255.255.1 is a non-routable address commonly used to force a
	// connect timeout rather than an immediate refusal.
	cli.Connect(worker, "10.255.255.1", 9, func(code netutil.Code, _ error) {
		result <- code
	}, 200*time.Millisecond, "", 0)

	select {
	case code := <-result:
		assert.NotEqual(t, netutil.Success, code)
	case <-time.After(3 * time.Second):
		t.Fatal("connect never completed")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	r, stop := startReactor(t)
	defer stop()

	port := freePort(t)
	listener := socket.New(r, socket.KindTCP, nil)
	require.NoError(t, listener.Listen(port, false, "", 16))

	listener.Close()
	listener.Close()
	assert.Equal(t, socket.StateClosed, listener.State())
}

func TestBindUDPReceivesDatagram(t *testing.T) {
	r, stop := startReactor(t)
	defer stop()

	port := freePort(t)
	srv := socket.New(r, socket.KindUDP, nil)

	got := make(chan string, 1)
	srv.OnRead(func(data []byte, _ net.Addr) {
		got <- string(data)
	})
	require.NoError(t, srv.Bind(port, false, ""))

	conn, err := net.Dial("udp", net.JoinHostPort("127.0.0.1", itoa(port)))
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte("hello"))
	require.NoError(t, err)

	select {
	case msg := <-got:
		assert.Equal(t, "hello", msg)
	case <-time.After(2 * time.Second):
		t.Fatal("udp datagram never arrived")
	}
}

func itoa(p int) string {
	return strconv.Itoa(p)
}
