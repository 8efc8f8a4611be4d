package server_test

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/momentics/weblet/api"
	"github.com/momentics/weblet/server"
)

// dialRetry connects to addr, retrying briefly while Run's Open() call is
// still racing to bind the listening socket.
func dialRetry(t *testing.T, addr string) net.Conn {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c, err := net.Dial("tcp", addr)
		if err == nil {
			return c
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("could not dial %s", addr)
	return nil
}

func TestServerServesStaticGET(t *testing.T) {
	cfg := server.DefaultConfig()
	cfg.ServerTCPPort = 0

	s, err := server.NewServer(cfg, server.WithStaticData("hello", "/hello", "text/plain", []byte("Hi!")))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	addr := waitAddr(t, s)
	conn := dialRetry(t, addr)
	defer conn.Close()

	if _, err := conn.Write([]byte("GET /hello HTTP/1.1\r\nHost: x\r\n\r\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	out := readAll(t, conn)
	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("response = %q, want 200 OK prefix", out)
	}
	if !strings.Contains(out, "Hi!") {
		t.Fatalf("response missing body: %q", out)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestServerReturns404ForUnmatchedPath(t *testing.T) {
	cfg := server.DefaultConfig()
	cfg.ServerTCPPort = 0

	s, err := server.NewServer(cfg, server.WithStaticData("hello", "/hello", "text/plain", []byte("Hi!")))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = s.Run(ctx) }()

	addr := waitAddr(t, s)
	conn := dialRetry(t, addr)
	defer conn.Close()

	if _, err := conn.Write([]byte("GET /missing HTTP/1.1\r\n\r\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	out := readAll(t, conn)
	if !strings.HasPrefix(out, "HTTP/1.1 404 Not Found\r\n") {
		t.Fatalf("response = %q, want 404 prefix", out)
	}
}

func TestServerRunTwiceReturnsErrAlreadyRunning(t *testing.T) {
	cfg := server.DefaultConfig()
	cfg.ServerTCPPort = 0

	s, err := server.NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	waitAddr(t, s)

	if err := s.Run(context.Background()); !errors.Is(err, api.ErrAlreadyRunning) {
		t.Fatalf("second Run = %v, want ErrAlreadyRunning", err)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

// waitAddr polls Server.Addr() until the listener has actually bound a
// concrete port (i.e. no longer the unresolved ":0" configured address).
func waitAddr(t *testing.T, s *server.Server) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		addr := s.Addr()
		if addr != "" && addr != ":0" {
			return addr
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("listener never bound a concrete address")
	return ""
}

func readAll(t *testing.T, conn net.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf, err := io.ReadAll(conn)
	if err != nil && !strings.Contains(err.Error(), "timeout") {
		t.Fatalf("ReadAll: %v", err)
	}
	return string(buf)
}
