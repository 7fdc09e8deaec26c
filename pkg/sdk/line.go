package sdk

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
)

// ErrInvalidCPF is returned by LineClient when the daemon rejects a CPF.
var ErrInvalidCPF = errors.New("invalid cpf")

// LineClient speaks the daemon's line-based TCP protocol.
type LineClient struct {
	addr   string
	useTLS bool
	conn   net.Conn
	reader *bufio.Reader
	mu     sync.Mutex // Protects concurrent access to the connection
}

// DialLine connects to the daemon's TCP port. With useTLS the connection is
// encrypted; the daemon's certificate is self-signed and is not verified.
func DialLine(addr string, useTLS bool) (*LineClient, error) {
	c := &LineClient{addr: addr, useTLS: useTLS}
	if err := c.reconnect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *LineClient) reconnect() error {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	var conn net.Conn
	var err error

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 60 * time.Second,
	}

	if c.useTLS {
		config := &tls.Config{
			InsecureSkipVerify: true, // We use self-signed certs for internal traffic
		}
		conn, err = tls.DialWithDialer(dialer, "tcp", c.addr, config)
	} else {
		conn, err = dialer.Dial("tcp", c.addr)
	}

	if err != nil {
		return err
	}

	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return nil
}

// Internal helper for TCP communication
func (c *LineClient) sendAndReceive(cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	var resp string

	// Try up to 3 times with backoff
	for i := 0; i < 3; i++ {
		// Ensure we have a connection
		if c.conn == nil {
			if reconnectErr := c.reconnect(); reconnectErr != nil {
				err = fmt.Errorf("reconnect failed: %w", reconnectErr)
				time.Sleep(time.Duration((i+1)*100) * time.Millisecond)
				continue
			}
		}

		// Set deadlines for the operation
		c.conn.SetDeadline(time.Now().Add(30 * time.Second))

		_, err = fmt.Fprint(c.conn, cmd+"\n")
		if err == nil {
			resp, err = c.reader.ReadString('\n')
			if err == nil {
				resp = strings.TrimSpace(resp)
				if msg, ok := strings.CutPrefix(resp, "ERR "); ok {
					if msg == ErrInvalidCPF.Error() {
						return "", ErrInvalidCPF
					}
					return "", errors.New(msg)
				}
				return resp, nil
			}
		}

		slog.Warn("tcp request failed, reconnecting", "addr", c.addr, "attempt", i+1, "error", err)

		// Force a reconnect on the next iteration
		if closeErr := c.reconnect(); closeErr != nil {
			slog.Warn("reconnect failed", "addr", c.addr, "error", closeErr)
		}

		time.Sleep(time.Duration((i+1)*200) * time.Millisecond)
	}

	return "", fmt.Errorf("failed after 3 attempts. last error: %v", err)
}

func (c *LineClient) Ping() error {
	resp, err := c.sendAndReceive("PING")
	if err != nil {
		return err
	}
	if resp != "PONG" {
		return fmt.Errorf("unexpected reply %q", resp)
	}
	return nil
}

func (c *LineClient) Validate(value string) (bool, error) {
	resp, err := c.command("VALIDATE", value)
	if err != nil {
		return false, err
	}
	switch resp {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("unexpected reply %q", resp)
}

// Normalize returns the digits of a valid CPF, or ErrInvalidCPF.
func (c *LineClient) Normalize(value string) (string, error) {
	return c.command("NORMALIZE", value)
}

// Format returns a valid CPF as 000.000.000-00, or ErrInvalidCPF.
func (c *LineClient) Format(value string) (string, error) {
	return c.command("FORMAT", value)
}

// command sends verb with a single argument and returns the text after "OK ".
func (c *LineClient) command(verb, arg string) (string, error) {
	if arg == "" || strings.ContainsAny(arg, " \t\r\n") {
		return "", ErrInvalidCPF
	}
	resp, err := c.sendAndReceive(verb + " " + arg)
	if err != nil {
		return "", err
	}
	out, ok := strings.CutPrefix(resp, "OK ")
	if !ok {
		return "", fmt.Errorf("unexpected reply %q", resp)
	}
	return out, nil
}

func (c *LineClient) Close() error {
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
