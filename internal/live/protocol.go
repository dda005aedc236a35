package live

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Engine.IO v4 packet types (first byte of a text frame).
const (
	engineOpen    = '0'
	engineClose   = '1'
	enginePing    = '2'
	enginePong    = '3'
	engineMessage = '4'
)

// Socket.IO v5 packet types (second byte, after engineMessage).
const (
	socketConnect      = '0'
	socketDisconnect   = '1'
	socketEvent        = '2'
	socketAck          = '3'
	socketConnectError = '4'
)

var errShortPacket = errors.New("short packet")

// handshake is the payload of the Engine.IO open packet.
type handshake struct {
	SID          string `json:"sid"`
	PingInterval int    `json:"pingInterval"`
	PingTimeout  int    `json:"pingTimeout"`
	MaxPayload   int    `json:"maxPayload"`
}

// packet is one decoded Socket.IO message.
type packet struct {
	Type      byte
	Namespace string
	Data      json.RawMessage
}

// Endpoint holds where to dial and which namespace to join.
type Endpoint struct {
	URL       string
	Namespace string
}

// ParseEndpoint maps a live channel address such as http://host:5500/ws to the
// websocket URL of the Engine.IO transport and the namespace (/ws) carried in its path.
func ParseEndpoint(raw, enginePath string) (Endpoint, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, fmt.Errorf("parse live url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return Endpoint{}, fmt.Errorf("unsupported live url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return Endpoint{}, fmt.Errorf("live url %q has no host", raw)
	}

	ns := strings.TrimRight(u.Path, "/")
	if ns == "" {
		ns = "/"
	}

	if enginePath == "" {
		enginePath = "/socket.io/"
	}
	if !strings.HasSuffix(enginePath, "/") {
		enginePath += "/"
	}
	u.Path = enginePath
	q := u.Query()
	q.Set("EIO", "4")
	q.Set("transport", "websocket")
	u.RawQuery = q.Encode()

	return Endpoint{URL: u.String(), Namespace: ns}, nil
}

// encodeConnect builds the namespace connect packet.
func encodeConnect(ns string) string {
	return string([]byte{engineMessage, socketConnect}) + nsPrefix(ns)
}

// encodeEvent builds an event packet: 42/ns,["name",arg]
func encodeEvent(ns, name string, arg any) (string, error) {
	body, err := json.Marshal([]any{name, arg})
	if err != nil {
		return "", err
	}
	return string([]byte{engineMessage, socketEvent}) + nsPrefix(ns) + string(body), nil
}

func nsPrefix(ns string) string {
	if ns == "" || ns == "/" {
		return ""
	}
	return ns + ","
}

// decodePacket parses the part of a text frame after the Engine.IO message byte.
func decodePacket(s string) (packet, error) {
	if s == "" {
		return packet{}, errShortPacket
	}
	p := packet{Type: s[0], Namespace: "/"}
	rest := s[1:]

	if strings.HasPrefix(rest, "/") {
		end := strings.IndexByte(rest, ',')
		if end < 0 {
			p.Namespace = rest
			return p, nil
		}
		p.Namespace = rest[:end]
		rest = rest[end+1:]
	}

	// skip an optional ack id
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	rest = rest[i:]

	if rest != "" {
		if !json.Valid([]byte(rest)) {
			return packet{}, fmt.Errorf("packet data is not JSON: %.40q", rest)
		}
		p.Data = json.RawMessage(rest)
	}
	return p, nil
}

// eventArgs splits an event payload ["name", args...] into its parts.
func eventArgs(data json.RawMessage) (string, []json.RawMessage, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return "", nil, fmt.Errorf("decode event: %w", err)
	}
	if len(parts) == 0 {
		return "", nil, errors.New("decode event: empty array")
	}
	var name string
	if err := json.Unmarshal(parts[0], &name); err != nil {
		return "", nil, fmt.Errorf("decode event name: %w", err)
	}
	return name, parts[1:], nil
}

// flatten turns event arguments into a list of objects: array arguments
// contribute each element, in order.
func flatten(args []json.RawMessage) []json.RawMessage {
	var out []json.RawMessage
	for _, a := range args {
		trimmed := strings.TrimSpace(string(a))
		if strings.HasPrefix(trimmed, "[") {
			var items []json.RawMessage
			if err := json.Unmarshal(a, &items); err == nil {
				out = append(out, items...)
				continue
			}
		}
		out = append(out, a)
	}
	return out
}
