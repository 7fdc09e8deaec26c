package server

import (
	"bufio"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/celerix-dev/celerix-extract/pkg/cpf"
)

const maxConnections = 100

// Router serves the line-based CPF protocol:
//
//	VALIDATE <cpf>   OK true|false
//	NORMALIZE <cpf>  OK <digits> | ERR invalid cpf
//	FORMAT <cpf>     OK <000.000.000-00> | ERR invalid cpf
//	PING             PONG
//	QUIT
//
// Connections beyond the limit get "ERR too many connections" and are closed.
type Router struct {
	mu       sync.Mutex
	listener net.Listener
	cert     *tls.Certificate
	maxConns int
}

func NewRouter() *Router {
	return &Router{maxConns: maxConnections}
}

// SetCertificate sets the TLS certificate for the router
func (r *Router) SetCertificate(cert tls.Certificate) {
	r.cert = &cert
}

// Listen starts the TCP server and blocks until Stop is called.
func (r *Router) Listen(port string) error {
	var listener net.Listener
	var err error

	if r.cert != nil {
		config := &tls.Config{Certificates: []tls.Certificate{*r.cert}}
		listener, err = tls.Listen("tcp", ":"+port, config)
	} else {
		listener, err = net.Listen("tcp", ":"+port)
	}
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.listener = listener
	r.mu.Unlock()
	defer listener.Close()

	semaphore := make(chan struct{}, r.maxConns)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			slog.Warn("accept failed", "error", err)
			continue
		}

		// Set aggressive timeouts for light traffic to prevent resource exhaustion
		conn.SetDeadline(time.Now().Add(5 * time.Minute))

		select {
		case semaphore <- struct{}{}:
		default:
			slog.Warn("connection limit reached", "remote", conn.RemoteAddr().String())
			conn.SetDeadline(time.Now().Add(time.Second))
			fmt.Fprintln(conn, "ERR too many connections")
			conn.Close()
			continue
		}

		go func(c net.Conn) {
			defer func() {
				<-semaphore
				c.Close()
			}()
			r.handleConnection(c)
		}(conn)
	}
}

// Addr returns the listening address, or nil before Listen has bound.
func (r *Router) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

// Stop closes the listener; Listen then returns nil.
func (r *Router) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return nil
	}
	return r.listener.Close()
}

func (r *Router) handleConnection(conn net.Conn) {
	reader := bufio.NewReader(conn)

	for {
		// Set a deadline for the next command
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))

		line, err := reader.ReadString('\n')
		if err != nil {
			return // Connection closed or timeout
		}

		parts := strings.Fields(line)
		if len(parts) < 1 {
			continue
		}

		command := strings.ToUpper(parts[0])

		switch command {
		case "VALIDATE":
			if len(parts) < 2 {
				fmt.Fprintln(conn, "ERR missing cpf")
				continue
			}
			fmt.Fprintln(conn, "OK", cpf.Valid(parts[1]))

		case "NORMALIZE":
			if len(parts) < 2 {
				fmt.Fprintln(conn, "ERR missing cpf")
				continue
			}
			if !cpf.Valid(parts[1]) {
				fmt.Fprintln(conn, "ERR invalid cpf")
				continue
			}
			fmt.Fprintln(conn, "OK", cpf.Normalize(parts[1]))

		case "FORMAT":
			if len(parts) < 2 {
				fmt.Fprintln(conn, "ERR missing cpf")
				continue
			}
			if !cpf.Valid(parts[1]) {
				fmt.Fprintln(conn, "ERR invalid cpf")
				continue
			}
			fmt.Fprintln(conn, "OK", cpf.Format(parts[1]))

		case "PING":
			fmt.Fprintln(conn, "PONG")

		case "QUIT":
			return

		default:
			fmt.Fprintln(conn, "ERR unknown command")
		}
	}
}
