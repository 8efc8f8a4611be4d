package transport_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/momentics/weblet/api"
	"github.com/momentics/weblet/transport"
)

func TestListenerAcceptRoundTrip(t *testing.T) {
	ln := transport.NewListener("127.0.0.1:0", 4, -1, nil)
	if err := ln.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ln.Close()

	accepted := make(chan api.TransportConn, 1)
	errs := make(chan error, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			errs <- err
			return
		}
		accepted <- c
	}()

	client, err := net.Dial("tcp", ln.Addr())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	if _, err := client.Write([]byte("ping")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	select {
	case c := <-accepted:
		defer c.Close()
		buf := make([]byte, 16)
		n, status, err := c.Recv(buf)
		for status == api.RecvWouldBlock {
			n, status, err = c.Recv(buf)
		}
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		if string(buf[:n]) != "ping" {
			t.Fatalf("Recv = %q", buf[:n])
		}
	case err := <-errs:
		t.Fatalf("Accept: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for accept")
	}
}

func TestConnRecvWouldBlockOnIdleSocket(t *testing.T) {
	ln := transport.NewListener("127.0.0.1:0", 4, -1, nil)
	if err := ln.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ln.Close()

	accepted := make(chan api.TransportConn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	client, err := net.Dial("tcp", ln.Addr())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	c := <-accepted
	defer c.Close()

	buf := make([]byte, 16)
	_, status, err := c.Recv(buf)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if status != api.RecvWouldBlock {
		t.Fatalf("status = %v, want RecvWouldBlock", status)
	}
}

func TestConnRecvSendAfterCloseReturnErrTransportClosed(t *testing.T) {
	ln := transport.NewListener("127.0.0.1:0", 4, -1, nil)
	if err := ln.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ln.Close()

	accepted := make(chan api.TransportConn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	client, err := net.Dial("tcp", ln.Addr())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	c := <-accepted
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close should be idempotent, got: %v", err)
	}

	if _, _, err := c.Recv(make([]byte, 16)); !errors.Is(err, api.ErrTransportClosed) {
		t.Fatalf("Recv after Close = %v, want ErrTransportClosed", err)
	}
	if _, err := c.Send([]byte("x")); !errors.Is(err, api.ErrTransportClosed) {
		t.Fatalf("Send after Close = %v, want ErrTransportClosed", err)
	}
}
