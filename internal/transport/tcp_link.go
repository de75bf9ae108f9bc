// internal/transport/tcp_link.go
package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

// Conn is the byte stream a transport drives. net.Conn satisfies it.
type Conn interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// Dialer opens the connection described by an endpoint within timeout
type Dialer func(ctx context.Context, ep Endpoint, timeout time.Duration) (Conn, error)

// DefaultDialer dispatches on endpoint mode
func DefaultDialer(ctx context.Context, ep Endpoint, timeout time.Duration) (Conn, error) {
	switch ep.Mode {
	case ModeClient:
		return dialTCP(ctx, ep, timeout)
	case ModeSerial:
		return openSerial(ep.Serial)
	default:
		return nil, fmt.Errorf("no dialer for %s mode", ep.Mode)
	}
}

func dialTCP(ctx context.Context, ep Endpoint, timeout time.Duration) (Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ip, err := resolveHost(dialCtx, ep.Host)
	if err != nil {
		return nil, err
	}

	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}

	address := net.JoinHostPort(ip, strconv.Itoa(ep.Port))
	conn, err := dialer.DialContext(dialCtx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetNoDelay(true)
	}
	return conn, nil
}

// resolveHost returns an IPv4 address for host when one exists, else the first address
func resolveHost(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}

	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", host, err)
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("no addresses for %s", host)
	}

	for _, a := range addrs {
		if v4 := a.IP.To4(); v4 != nil {
			return v4.String(), nil
		}
	}
	return addrs[0].IP.String(), nil
}
