// Command echoserver wires together a reactor and the socket state
// machine into the echo scenario of spec.md 8.4: accept a
// connection, echo back whatever it sends, and log the EOF when the peer
// disconnects.
package main

import (
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/lam2003/netreactor/internal/xlog"
	"github.com/lam2003/netreactor/netutil"
	"github.com/lam2003/netreactor/reactor"
	"github.com/lam2003/netreactor/socket"
)

func main() {
	port := flag.Int("port", 9090, "TCP port to listen on")
	iface := flag.String("bind", "", "local interface name or IP to bind, empty means any")
	flag.Parse()

	xlog.SetDefault(xlog.NewZerolog(os.Stdout, xlog.LevelInfo))

	r, err := reactor.New(reactor.WithName("echo"))
	if err != nil {
		xlog.Error("echoserver", "failed to create reactor", err, nil)
		os.Exit(1)
	}

	loopDone := make(chan struct{})
	go func() {
		r.Run()
		close(loopDone)
	}()

	listener := socket.New(r, socket.KindTCP, nil)
	listener.OnAccept(func(child *socket.Socket) {
		xlog.Info("echoserver", "accepted connection", nil)
		child.OnRead(func(data []byte, _ net.Addr) {
			buf := make([]byte, len(data))
			copy(buf, data)
			child.Send(buf, nil)
		})
		child.OnError(func(code netutil.Code, err error) {
			xlog.Info("echoserver", "connection closed: "+code.String(), nil)
			child.Close()
		})
	})

	if err := listener.Listen(*port, false, *iface, 128); err != nil {
		xlog.Error("echoserver", "failed to listen", err, nil)
		os.Exit(1)
	}
	xlog.Info("echoserver", "listening", xlog.Fields{"port": *port})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	listener.Close()
	r.Shutdown()
	<-loopDone
	_ = r.Close()
}
