// Package mcpquic carries MCP JSON-RPC over a single bidirectional QUIC
// stream: the client opens the stream, sends the MCP1 magic, then both
// sides exchange newline-delimited JSON messages.
package mcpquic

import (
	"crypto/tls"
	"time"

	"github.com/quic-go/quic-go"
)

const (
	// ALPNProtocolMCP is negotiated by MCP clients; HTTP/3 clients use "h3".
	ALPNProtocolMCP  = "cardinal-mcp-v1"
	MagicBytesMCP    = "MCP1"
	MaxMessageSize   = 1 << 20
	DialTimeout      = 10 * time.Second
	IdleTimeout      = 5 * time.Minute
	KeepAlivePeriod  = 30 * time.Second
	notificationSize = 64
)

// QUICConfig is shared by the chassis listener and the client.
func QUICConfig() *quic.Config {
	return &quic.Config{
		MaxStreamReceiveWindow:     4 << 20,
		MaxConnectionReceiveWindow: 16 << 20,
		HandshakeIdleTimeout:       DialTimeout,
		MaxIdleTimeout:             IdleTimeout,
		KeepAlivePeriod:            KeepAlivePeriod,
	}
}

// ClientTLSConfig offers only the MCP ALPN. insecure skips certificate
// verification for self-signed development servers.
func ClientTLSConfig(insecure bool) *tls.Config {
	return &tls.Config{
		NextProtos:         []string{ALPNProtocolMCP},
		MinVersion:         tls.VersionTLS13,
		InsecureSkipVerify: insecure,
	}
}
