package domain

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"strconv"
)

const compactHostLen = 6

var ErrCompactHosts = errors.New("compact peer list length is not a multiple of 6")

type Host struct {
	IP   net.IP
	Port uint16
}

func (h Host) Equal(another Host) bool {
	return h.Port == another.Port && h.IP.Equal(another.IP)
}

func (h Host) String() string {
	return net.JoinHostPort(h.IP.String(), strconv.Itoa(int(h.Port)))
}

// ParseHost reads an "ip:port" address.
func ParseHost(s string) (Host, error) {
	hostStr, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return Host{}, err
	}
	ip := net.ParseIP(hostStr)
	if ip == nil {
		return Host{}, fmt.Errorf("invalid ip %q", hostStr)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return Host{}, fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}
	return Host{IP: ip, Port: uint16(port)}, nil
}

// ParseCompactHosts decodes 6-byte records: 4 bytes of IPv4 address then a
// big-endian port.
func ParseCompactHosts(b []byte) ([]Host, error) {
	if len(b)%compactHostLen != 0 {
		return nil, fmt.Errorf("%w: got %d bytes", ErrCompactHosts, len(b))
	}
	hosts := make([]Host, 0, len(b)/compactHostLen)
	for i := 0; i < len(b); i += compactHostLen {
		ip := make(net.IP, net.IPv4len)
		copy(ip, b[i:i+4])
		hosts = append(hosts, Host{
			IP:   ip,
			Port: binary.BigEndian.Uint16(b[i+4 : i+6]),
		})
	}
	return hosts, nil
}
