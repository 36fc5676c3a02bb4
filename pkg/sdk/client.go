// Package sdk provides the client-side library for reaching a profile store.
// It supports both remote connections to the daemon over TCP and the local
// embedded engine.
package sdk

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/celerix-dev/celerix-abtest/internal/engine"
)

const maxAttempts = 3

// Client is a remote client for the profile store daemon.
// It implements the Store interface.
type Client struct {
	addr   string
	conn   net.Conn
	reader *bufio.Reader
	mu     sync.Mutex // Protects concurrent access to the connection
	logger *slog.Logger
}

// Connect establishes a TCP connection to a profile store daemon.
func Connect(addr string) (*Client, error) {
	c := &Client{addr: addr, logger: slog.Default()}
	if err := c.reconnect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) reconnect() error {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 60 * time.Second,
	}
	conn, err := dialer.Dial("tcp", c.addr)
	if err != nil {
		return err
	}

	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return nil
}

// sendAndReceive writes one command line and reads one response line,
// reconnecting on transport errors.
func (c *Client) sendAndReceive(cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	for i := 0; i < maxAttempts; i++ {
		if c.conn == nil {
			if reconnectErr := c.reconnect(); reconnectErr != nil {
				err = fmt.Errorf("reconnect failed: %w", reconnectErr)
				time.Sleep(time.Duration((i+1)*100) * time.Millisecond)
				continue
			}
		}

		c.conn.SetDeadline(time.Now().Add(30 * time.Second))

		var resp string
		if _, err = fmt.Fprint(c.conn, cmd+"\n"); err == nil {
			resp, err = c.reader.ReadString('\n')
			if err == nil {
				resp = strings.TrimSpace(resp)
				if msg, ok := strings.CutPrefix(resp, "ERR"); ok {
					return "", remoteError(strings.TrimSpace(msg))
				}
				return resp, nil
			}
		}

		c.logger.Warn("store request failed, reconnecting", "attempt", i+1, "error", err)
		if closeErr := c.reconnect(); closeErr != nil {
			c.logger.Warn("store reconnect failed", "error", closeErr)
		}
		time.Sleep(time.Duration((i+1)*200) * time.Millisecond)
	}

	return "", fmt.Errorf("failed after %d attempts: %w", maxAttempts, err)
}

// remoteError maps a daemon error line back onto the store's sentinels so
// callers can use errors.Is regardless of where the store lives.
func remoteError(msg string) error {
	for _, known := range []error{
		engine.ErrKeyNotFound,
		engine.ErrProfileNotFound,
		engine.ErrInvalidProfile,
		engine.ErrInvalidKey,
	} {
		if msg == known.Error() {
			return known
		}
	}
	return errors.New(msg)
}

func payload(resp string) []byte {
	return []byte(strings.TrimPrefix(resp, "OK "))
}

func (c *Client) Get(profileID, key string) (string, error) {
	resp, err := c.sendAndReceive(fmt.Sprintf("GET %s %s", profileID, key))
	if err != nil {
		return "", err
	}
	var val string
	err = json.Unmarshal(payload(resp), &val)
	return val, err
}

func (c *Client) Set(profileID, key, val string) error {
	if !engine.ValidProfileID(profileID) {
		return engine.ErrInvalidProfile
	}
	if !engine.ValidKey(key) {
		return engine.ErrInvalidKey
	}
	jsonData, err := json.Marshal(val)
	if err != nil {
		return err
	}
	_, err = c.sendAndReceive(fmt.Sprintf("SET %s %s %s", profileID, key, jsonData))
	return err
}

func (c *Client) Delete(profileID, key string) error {
	_, err := c.sendAndReceive(fmt.Sprintf("DEL %s %s", profileID, key))
	return err
}

func (c *Client) GetProfiles() ([]string, error) {
	resp, err := c.sendAndReceive("LIST")
	if err != nil {
		return nil, err
	}
	var list []string
	err = json.Unmarshal(payload(resp), &list)
	return list, err
}

func (c *Client) GetProfile(profileID string) (map[string]string, error) {
	resp, err := c.sendAndReceive(fmt.Sprintf("DUMP %s", profileID))
	if err != nil {
		return nil, err
	}
	var data map[string]string
	err = json.Unmarshal(payload(resp), &data)
	return data, err
}

// Ping checks that the daemon is answering.
func (c *Client) Ping() error {
	resp, err := c.sendAndReceive("PING")
	if err != nil {
		return err
	}
	if resp != "PONG" {
		return fmt.Errorf("unexpected ping reply %q", resp)
	}
	return nil
}

// Profile returns a scope pinned to profileID.
func (c *Client) Profile(profileID string) Scope {
	return engine.BindProfile(c, profileID)
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	fmt.Fprintln(c.conn, "QUIT")
	err := c.conn.Close()
	c.conn = nil
	return err
}
