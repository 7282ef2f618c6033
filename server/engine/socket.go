// socket creating and dialing
// only low level socket functional, no protocol logic
package engine

import (
	"fmt"
	"net"
	"os"
	"syscall"
)

const (
	backlog = 16 // backlog for listening
)

// create new socket, bind and start listening;
// the raw descriptor is handed to the runtime poller as net.Listener
func Listen(addr [4]byte, port int) (net.Listener, error) {
	fd, err := listenSocket(addr, port)
	if err != nil {
		return nil, err
	}

	// FileListener dups fd, so our copy is closed right after
	f := os.NewFile(uintptr(fd), fmt.Sprintf("tcp4:%d", port))
	defer f.Close()

	ln, err := net.FileListener(f)
	if err != nil {
		return nil, fmt.Errorf("file listener: %w", err)
	}
	return ln, nil
}

func listenSocket(addr [4]byte, port int) (int, error) {
	// SOCK_STREAM = TCP
	fd, err := syscall.Socket(syscall.AF_INET, syscall.SOCK_STREAM, 0)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}

	// restart without waiting for TIME_WAIT sockets
	if err := syscall.SetsockoptInt(fd, syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1); err != nil {
		syscall.Close(fd)
		return -1, fmt.Errorf("setsockopt: %w", err)
	}

	if err := syscall.Bind(fd, &syscall.SockaddrInet4{ // bind socket to addr:port
		Port: port,
		Addr: addr,
	}); err != nil {
		syscall.Close(fd)
		return -1, fmt.Errorf("bind: %w", err)
	}
	if err := syscall.Listen(fd, backlog); err != nil { // start listening on addr:port
		syscall.Close(fd)
		return -1, fmt.Errorf("listen: %w", err)
	}

	return fd, nil
}

// Dial connects to host:port over TCP,
// Nagle is off because both protocols flush line by line
func Dial(host string, port int) (net.Conn, error) {
	conn, err := net.Dial("tcp", net.JoinHostPort(host, fmt.Sprint(port)))
	if err != nil {
		return nil, err
	}

	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.SetNoDelay(true); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return conn, nil
}
