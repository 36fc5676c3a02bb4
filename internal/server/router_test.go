package server

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/celerix-dev/celerix-abtest/internal/engine"
)

// startRouter runs a router on a random port and returns its address.
func startRouter(t *testing.T, store *engine.MemStore) (*Router, string) {
	t.Helper()
	router := NewRouter(store)

	go router.Listen("0")

	var addr string
	for i := 0; i < 20; i++ {
		time.Sleep(25 * time.Millisecond)
		if a := router.Addr(); a != nil {
			addr = "127.0.0.1:" + portOf(a)
			break
		}
	}
	if addr == "" {
		t.Fatalf("Server did not start in time")
	}
	t.Cleanup(func() { router.Stop() })
	return router, addr
}

func portOf(a net.Addr) string {
	_, port, _ := net.SplitHostPort(a.String())
	return port
}

type session struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func dial(t *testing.T, addr string) *session {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &session{t: t, conn: conn, reader: bufio.NewReader(conn)}
}

func (s *session) do(cmd string) string {
	s.t.Helper()
	if _, err := s.conn.Write([]byte(cmd + "\n")); err != nil {
		s.t.Fatalf("write %q: %v", cmd, err)
	}
	line, err := s.reader.ReadString('\n')
	if err != nil {
		s.t.Fatalf("read reply to %q: %v", cmd, err)
	}
	return line
}

func TestRouter_TCP_Commands(t *testing.T) {
	_, addr := startRouter(t, engine.NewMemStore(nil, nil))
	s := dial(t, addr)

	if line := s.do("PING"); line != "PONG\n" {
		t.Errorf("Expected PONG, got %q", line)
	}

	if line := s.do(`SET p1 gas_url "https://example.com/exec"`); line != "OK\n" {
		t.Errorf("Expected OK, got %q", line)
	}

	if line := s.do("GET p1 gas_url"); line != "OK \"https://example.com/exec\"\n" {
		t.Errorf("Expected OK with value, got %q", line)
	}

	if line := s.do("DEL p1 gas_url"); line != "OK\n" {
		t.Errorf("Expected OK, got %q", line)
	}

	if line := s.do("GET p1 gas_url"); line != "ERR key not found\n" {
		t.Errorf("Expected ERR key not found, got %q", line)
	}
}

func TestRouter_ListAndDump(t *testing.T) {
	store := engine.NewMemStore(nil, nil)
	store.Set("p1", "uid", "u-1")
	_, addr := startRouter(t, store)
	s := dial(t, addr)

	if line := s.do("LIST"); line != "OK [\"p1\"]\n" {
		t.Errorf("Expected OK [\"p1\"], got %q", line)
	}

	if line := s.do("DUMP p1"); line != "OK {\"uid\":\"u-1\"}\n" {
		t.Errorf("Expected OK {\"uid\":\"u-1\"}, got %q", line)
	}

	if line := s.do("DUMP nobody"); line != "ERR profile not found\n" {
		t.Errorf("Expected ERR profile not found, got %q", line)
	}
}

func TestRouter_SetKeepsInnerWhitespace(t *testing.T) {
	store := engine.NewMemStore(nil, nil)
	_, addr := startRouter(t, store)
	s := dial(t, addr)

	if line := s.do(`SET p1 note "two  spaces"`); line != "OK\n" {
		t.Fatalf("Expected OK, got %q", line)
	}
	if got, _ := store.Get("p1", "note"); got != "two  spaces" {
		t.Errorf("Expected value with double space, got %q", got)
	}
}

func TestRouter_MalformedCommands(t *testing.T) {
	_, addr := startRouter(t, engine.NewMemStore(nil, nil))
	s := dial(t, addr)

	for _, cmd := range []string{
		"GET p1",
		"SET p1 k1",
		"SET p1 k1 not-json",
		"DEL p1",
		"DUMP",
		"BOGUS",
	} {
		if line := s.do(cmd); !strings.HasPrefix(line, "ERR") {
			t.Errorf("%q: expected ERR, got %q", cmd, line)
		}
	}

	// The connection is still usable after errors.
	if line := s.do("PING"); line != "PONG\n" {
		t.Errorf("Expected PONG, got %q", line)
	}
}

func TestRouter_ConcurrentConnections(t *testing.T) {
	_, addr := startRouter(t, engine.NewMemStore(nil, nil))

	conns := make([]net.Conn, 0)
	for i := 0; i < 110; i++ {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err == nil {
			conns = append(conns, conn)
		}
	}

	for _, c := range conns {
		c.Close()
	}

	// The server still answers once the burst is gone.
	s := dial(t, addr)
	if line := s.do("PING"); line != "PONG\n" {
		t.Errorf("Expected PONG, got %q", line)
	}
}
