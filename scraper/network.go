package scraper

import (
	"encoding/hex"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// TCP4Entry is the iterator program that walks IPv4 TCP sockets.
const TCP4Entry = "dump_tcp4"

// TCPState is a socket state as in include/net/tcp_states.h.
type TCPState uint8

const (
	TCPEstablished TCPState = iota + 1
	TCPSynSent
	TCPSynRecv
	TCPFinWait1
	TCPFinWait2
	TCPTimeWait
	TCPClose
	TCPCloseWait
	TCPLastAck
	TCPListen
	TCPClosing
	TCPNewSynRecv
)

var tcpStateNames = map[TCPState]string{
	TCPEstablished: "ESTABLISHED",
	TCPSynSent:     "SYN_SENT",
	TCPSynRecv:     "SYN_RECV",
	TCPFinWait1:    "FIN_WAIT1",
	TCPFinWait2:    "FIN_WAIT2",
	TCPTimeWait:    "TIME_WAIT",
	TCPClose:       "CLOSE",
	TCPCloseWait:   "CLOSE_WAIT",
	TCPLastAck:     "LAST_ACK",
	TCPListen:      "LISTEN",
	TCPClosing:     "CLOSING",
	TCPNewSynRecv:  "NEW_SYN_RECV",
}

func (s TCPState) String() string {
	if name, ok := tcpStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("TCPState(%d)", uint8(s))
}

// MarshalText encodes the state by name.
func (s TCPState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Connection is a TCP socket seen by dump_tcp4.
type Connection struct {
	Local      netip.Addr `json:"local"`
	LocalPort  uint16     `json:"local_port"`
	Remote     netip.Addr `json:"remote"`
	RemotePort uint16     `json:"remote_port"`
	State      TCPState   `json:"state"`
}

// ParseConnection parses one line in the /proc/net/tcp layout:
//
//	sl local_address rem_address st ...
//
// Endpoints are <hex address>:<hex port>. An 8 digit address is an IPv4
// address read as a big-endian 32-bit number; anything else up to 32 digits
// is IPv6, read as a big-endian 128-bit number. An unparseable state is 0.
// The column header yields [SkipLine].
func ParseConnection(line string) (Connection, error) {
	fields := strings.Fields(line)
	if len(fields) > 0 && fields[0] == "sl" {
		return Connection{}, SkipLine
	}
	if len(fields) < 4 {
		return Connection{}, &DecodeError{Input: line, Err: fmt.Errorf("want at least 4 fields, got %d", len(fields))}
	}

	local, localPort, err := parseEndpoint(fields[1])
	if err != nil {
		return Connection{}, &DecodeError{Input: line, Err: fmt.Errorf("local address: %w", err)}
	}
	remote, remotePort, err := parseEndpoint(fields[2])
	if err != nil {
		return Connection{}, &DecodeError{Input: line, Err: fmt.Errorf("remote address: %w", err)}
	}

	state, err := strconv.ParseUint(fields[3], 16, 8)
	if err != nil {
		state = 0
	}

	return Connection{
		Local:      local,
		LocalPort:  localPort,
		Remote:     remote,
		RemotePort: remotePort,
		State:      TCPState(state),
	}, nil
}

// parseEndpoint parses "<hex address>[:<hex port>]".
func parseEndpoint(raw string) (netip.Addr, uint16, error) {
	addrHex, portHex, hasPort := strings.Cut(raw, ":")

	addr, err := parseHexAddr(addrHex)
	if err != nil {
		return netip.Addr{}, 0, err
	}
	if !hasPort {
		return addr, 0, nil
	}
	port, err := strconv.ParseUint(portHex, 16, 16)
	if err != nil {
		return netip.Addr{}, 0, fmt.Errorf("port %q: %w", portHex, err)
	}
	return addr, uint16(port), nil
}

func parseHexAddr(s string) (netip.Addr, error) {
	if len(s) == 8 {
		var b [4]byte
		if _, err := hex.Decode(b[:], []byte(s)); err != nil {
			return netip.Addr{}, fmt.Errorf("address %q: %w", s, err)
		}
		return netip.AddrFrom4(b), nil
	}
	if s == "" || len(s) > 32 {
		return netip.Addr{}, fmt.Errorf("address %q: want 8 or up to 32 hex digits", s)
	}

	var b [16]byte
	padded := strings.Repeat("0", 32-len(s)) + s
	if _, err := hex.Decode(b[:], []byte(padded)); err != nil {
		return netip.Addr{}, fmt.Errorf("address %q: %w", s, err)
	}
	return netip.AddrFrom16(b), nil
}

// DecodeConnections decodes a dump_tcp4 session.
var DecodeConnections = Lines(ParseConnection)

// NewNetworkScraper returns a scraper listing IPv4 TCP connections.
func NewNetworkScraper(obj Object, opts ...Option) *Scraper[Connection] {
	return New(obj, TCP4Entry, DecodeConnections, opts...)
}
