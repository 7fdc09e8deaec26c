package server

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/celerix-dev/celerix-extract/internal/vault"
)

// startRouter runs router on a random port and returns that port.
func startRouter(t *testing.T, router *Router) string {
	t.Helper()

	errc := make(chan error, 1)
	go func() { errc <- router.Listen("0") }()

	var port string
	for i := 0; i < 20; i++ {
		time.Sleep(50 * time.Millisecond)
		if addr := router.Addr(); addr != nil {
			port = fmt.Sprintf("%d", addr.(*net.TCPAddr).Port)
			break
		}
	}
	if port == "" {
		t.Fatalf("Server did not start in time")
	}

	t.Cleanup(func() {
		router.Stop()
		if err := <-errc; err != nil {
			t.Errorf("Listen returned %v after Stop", err)
		}
	})
	return port
}

func TestRouter_TCP_Commands(t *testing.T) {
	router := NewRouter()
	port := startRouter(t, router)

	// Client
	conn, err := net.Dial("tcp", "127.0.0.1:"+port)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)

	tests := []struct {
		send string
		want string
	}{
		{"PING", "PONG"},
		{"VALIDATE 52998224725", "OK true"},
		{"validate 529.982.247-25", "OK true"},
		{"VALIDATE 52998224726", "OK false"},
		{"VALIDATE 11111111111", "OK false"},
		{"NORMALIZE 529.982.247-25", "OK 52998224725"},
		{"NORMALIZE 123", "ERR invalid cpf"},
		{"FORMAT 11144477735", "OK 111.444.777-35"},
		{"FORMAT 11144477730", "ERR invalid cpf"},
		{"VALIDATE", "ERR missing cpf"},
		{"GET p1 a1 k1", "ERR unknown command"},
	}

	for _, tt := range tests {
		fmt.Fprintf(conn, "%s\n", tt.send)
		line, _ := reader.ReadString('\n')
		if line != tt.want+"\n" {
			t.Errorf("%s: expected %q, got %q", tt.send, tt.want, line)
		}
	}
}

func TestRouter_BlankLinesAndQuit(t *testing.T) {
	router := NewRouter()
	port := startRouter(t, router)

	conn, err := net.Dial("tcp", "127.0.0.1:"+port)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()
	reader := bufio.NewReader(conn)

	// Blank lines are ignored, so the first reply belongs to PING.
	fmt.Fprintf(conn, "\n   \nPING\n")
	line, _ := reader.ReadString('\n')
	if line != "PONG\n" {
		t.Errorf("Expected PONG, got %q", line)
	}

	fmt.Fprintf(conn, "QUIT\n")
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := reader.ReadString('\n'); err != io.EOF {
		t.Errorf("Expected connection to close after QUIT, got %v", err)
	}
}

func TestRouter_ConcurrentConnections(t *testing.T) {
	router := NewRouter()
	port := startRouter(t, router)

	// Try to open more connections than the router serves at once
	conns := make([]net.Conn, 0)
	for i := 0; i < maxConnections+10; i++ {
		conn, err := net.DialTimeout("tcp", "127.0.0.1:"+port, 100*time.Millisecond)
		if err == nil {
			conns = append(conns, conn)
		}
	}

	for _, c := range conns {
		c.Close()
	}

	// The router keeps serving once the burst is gone.
	if line := pingUntilServed(t, port); line != "PONG\n" {
		t.Errorf("Expected PONG, got %q", line)
	}
}

// pingUntilServed retries PING until a connection slot is free.
func pingUntilServed(t *testing.T, port string) string {
	t.Helper()
	var line string
	for i := 0; i < 20; i++ {
		conn, err := net.Dial("tcp", "127.0.0.1:"+port)
		if err != nil {
			t.Fatalf("Failed to dial: %v", err)
		}
		fmt.Fprintf(conn, "PING\n")
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		line, _ = bufio.NewReader(conn).ReadString('\n')
		conn.Close()
		if line == "PONG\n" {
			return line
		}
		time.Sleep(50 * time.Millisecond)
	}
	return line
}

func TestRouter_RefusesOverLimit(t *testing.T) {
	router := NewRouter()
	router.maxConns = 1
	port := startRouter(t, router)

	held, err := net.Dial("tcp", "127.0.0.1:"+port)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	heldReader := bufio.NewReader(held)
	fmt.Fprintf(held, "PING\n")
	held.SetReadDeadline(time.Now().Add(5 * time.Second))
	if line, _ := heldReader.ReadString('\n'); line != "PONG\n" {
		t.Fatalf("Expected PONG, got %q", line)
	}

	extra, err := net.Dial("tcp", "127.0.0.1:"+port)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer extra.Close()
	extra.SetReadDeadline(time.Now().Add(5 * time.Second))
	reader := bufio.NewReader(extra)
	if line, _ := reader.ReadString('\n'); line != "ERR too many connections\n" {
		t.Errorf("Expected refusal, got %q", line)
	}
	if _, err := reader.ReadString('\n'); err != io.EOF {
		t.Errorf("Expected refused connection to be closed, got %v", err)
	}

	held.Close()
	if line := pingUntilServed(t, port); line != "PONG\n" {
		t.Errorf("Expected PONG after the slot was released, got %q", line)
	}
}

func TestRouter_TLS(t *testing.T) {
	cert, err := vault.GenerateSelfSignedCert()
	if err != nil {
		t.Fatalf("GenerateSelfSignedCert failed: %v", err)
	}

	router := NewRouter()
	router.SetCertificate(cert)
	port := startRouter(t, router)

	conn, err := tls.Dial("tcp", "127.0.0.1:"+port, &tls.Config{InsecureSkipVerify: true})
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()

	fmt.Fprintf(conn, "VALIDATE 52998224725\n")
	line, _ := bufio.NewReader(conn).ReadString('\n')
	if line != "OK true\n" {
		t.Errorf("Expected OK true, got %q", line)
	}
}

func TestRouter_StopBeforeListen(t *testing.T) {
	if err := NewRouter().Stop(); err != nil {
		t.Errorf("Stop on idle router returned %v", err)
	}
}
