// Package server implements the line-oriented TCP protocol of the profile
// store daemon.
//
//	GET <profile> <key>          -> OK <json string> | ERR <msg>
//	SET <profile> <key> <json>   -> OK | ERR <msg>
//	DEL <profile> <key>          -> OK
//	LIST                         -> OK <json array>
//	DUMP <profile>               -> OK <json object> | ERR <msg>
//	PING                         -> PONG
//	QUIT
package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/celerix-dev/celerix-abtest/pkg/sdk"
)

const maxConnections = 100

type Router struct {
	store    sdk.Store
	logger   *slog.Logger
	mu       sync.Mutex
	listener net.Listener
}

func NewRouter(s sdk.Store) *Router {
	return &Router{store: s, logger: slog.Default()}
}

// Listen starts the TCP server and blocks until Stop is called.
func (r *Router) Listen(port string) error {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.listener = listener
	r.mu.Unlock()
	defer listener.Close()

	semaphore := make(chan struct{}, maxConnections)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return err
		}

		// Set aggressive timeouts for light traffic to prevent resource exhaustion
		conn.SetDeadline(time.Now().Add(5 * time.Minute))

		go func(c net.Conn) {
			semaphore <- struct{}{}
			defer func() {
				<-semaphore
				c.Close()
			}()
			r.HandleConnection(c)
		}(conn)
	}
}

// Addr returns the bound listener address, or nil before Listen has bound.
func (r *Router) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

// Stop closes the listener, which makes Listen return.
func (r *Router) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return nil
	}
	return r.listener.Close()
}

// HandleConnection serves commands from conn until QUIT, EOF or idle timeout.
func (r *Router) HandleConnection(conn net.Conn) {
	reader := bufio.NewReader(conn)

	for {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))

		line, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				r.logger.Debug("connection closed", "remote", conn.RemoteAddr(), "error", err)
			}
			return
		}

		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) < 1 {
			continue
		}

		switch strings.ToUpper(parts[0]) {
		case "GET":
			if len(parts) < 3 {
				fmt.Fprintln(conn, "ERR usage: GET <profile> <key>")
				continue
			}
			val, err := r.store.Get(parts[1], parts[2])
			reply(conn, val, err)

		case "SET":
			// Split on single spaces so whitespace inside the JSON value survives.
			setParts := strings.SplitN(strings.TrimSpace(line), " ", 4)
			if len(setParts) < 4 {
				fmt.Fprintln(conn, "ERR usage: SET <profile> <key> <json>")
				continue
			}
			valueStr := setParts[3]
			var val string
			if err := json.Unmarshal([]byte(valueStr), &val); err != nil {
				fmt.Fprintln(conn, "ERR invalid json string value")
				continue
			}
			replyOK(conn, r.store.Set(setParts[1], setParts[2], val))

		case "DEL":
			if len(parts) < 3 {
				fmt.Fprintln(conn, "ERR usage: DEL <profile> <key>")
				continue
			}
			replyOK(conn, r.store.Delete(parts[1], parts[2]))

		case "LIST":
			list, err := r.store.GetProfiles()
			if list == nil {
				list = []string{}
			}
			reply(conn, list, err)

		case "DUMP":
			if len(parts) < 2 {
				fmt.Fprintln(conn, "ERR usage: DUMP <profile>")
				continue
			}
			data, err := r.store.GetProfile(parts[1])
			reply(conn, data, err)

		case "PING":
			fmt.Fprintln(conn, "PONG")

		case "QUIT":
			return

		default:
			fmt.Fprintln(conn, "ERR unknown command")
		}
	}
}

func reply(w io.Writer, v any, err error) {
	if err != nil {
		fmt.Fprintln(w, "ERR", err)
		return
	}
	res, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintln(w, "ERR internal error")
		return
	}
	fmt.Fprintln(w, "OK", string(res))
}

func replyOK(w io.Writer, err error) {
	if err != nil {
		fmt.Fprintln(w, "ERR", err)
		return
	}
	fmt.Fprintln(w, "OK")
}
