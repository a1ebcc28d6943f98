// Package chassis serves the API over TLS on one port with two listeners:
//
//   - TCP: HTTP/1.1 and HTTP/2
//   - UDP: QUIC, demultiplexed by ALPN into HTTP/3 ("h3") and MCP
//     JSON-RPC (mcpquic.ALPNProtocolMCP)
//
// HTTP responses advertise HTTP/3 through Alt-Svc.
package chassis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/mark3labs/mcp-go/server"
	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"

	"github.com/hazyhaar/cardinal-itn/pkg/mcpquic"
)

// Config holds configuration for the chassis server.
type Config struct {
	Addr string // TCP and UDP listen address, e.g. ":8443"
	// CertFile and KeyFile select a real certificate; when empty a
	// self-signed one is generated.
	CertFile  string
	KeyFile   string
	Handler   http.Handler
	MCPServer *server.MCPServer // nil disables MCP over QUIC
	Logger    *slog.Logger
}

// Server is the dual-transport server.
type Server struct {
	cfg    Config
	logger *slog.Logger
	tlsCfg *tls.Config
	mcp    *mcpquic.Handler

	mu      sync.Mutex
	tcpSrv  *http.Server
	tcpLn   net.Listener
	h3Srv   *http3.Server
	quicLn  *quic.Listener
	started bool
}

// New validates cfg and prepares the TLS configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Handler == nil {
		return nil, errors.New("chassis: nil handler")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	tlsCfg, err := tlsConfig(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, err
	}
	if cfg.CertFile == "" {
		cfg.Logger.Warn("chassis: using a self-signed certificate")
	}

	s := &Server{cfg: cfg, logger: cfg.Logger, tlsCfg: tlsCfg}
	if cfg.MCPServer != nil {
		s.mcp = mcpquic.NewHandler(cfg.MCPServer, cfg.Logger)
	}
	return s, nil
}

// Start opens both listeners and serves until ctx is done or one of them
// fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("chassis: already started")
	}

	tcpTLS := s.tlsCfg.Clone()
	tcpTLS.NextProtos = []string{"h2", "http/1.1"}
	tcpLn, err := tls.Listen("tcp", s.cfg.Addr, tcpTLS)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("tcp listen: %w", err)
	}
	quicLn, err := quic.ListenAddr(s.cfg.Addr, s.tlsCfg, mcpquic.QUICConfig())
	if err != nil {
		tcpLn.Close()
		s.mu.Unlock()
		return fmt.Errorf("quic listen: %w", err)
	}

	handler := withAltSvc(quicLn.Addr(), s.cfg.Handler)
	s.tcpLn, s.quicLn = tcpLn, quicLn
	s.tcpSrv = &http.Server{Handler: handler}
	s.h3Srv = &http3.Server{Handler: handler}
	s.started = true
	s.mu.Unlock()

	s.logger.Info("chassis listening", "tcp", tcpLn.Addr().String(), "udp", quicLn.Addr().String(), "mcp", s.mcp != nil)

	errCh := make(chan error, 2)
	go func() {
		if err := s.tcpSrv.Serve(tcpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("tcp: %w", err)
		}
	}()
	go func() {
		if err := s.acceptQUIC(ctx, quicLn); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) acceptQUIC(ctx context.Context, ln *quic.Listener) error {
	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, quic.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("quic accept: %w", err)
		}

		switch alpn := conn.ConnectionState().TLS.NegotiatedProtocol; {
		case alpn == http3.NextProtoH3:
			go func() {
				if err := s.h3Srv.ServeQUICConn(conn); err != nil {
					s.logger.Debug("http3 connection done", "remote", conn.RemoteAddr(), "error", err)
				}
			}()
		case alpn == mcpquic.ALPNProtocolMCP && s.mcp != nil:
			go s.mcp.ServeConn(ctx, conn)
		default:
			s.logger.Warn("unsupported ALPN", "alpn", alpn, "remote", conn.RemoteAddr())
			conn.CloseWithError(mcpquic.ConnErrorUnsupportedALPN, "unsupported ALPN: "+alpn)
		}
	}
}

// Addrs returns the bound TCP and UDP addresses once Start has run.
func (s *Server) Addrs() (tcp, udp net.Addr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tcpLn != nil {
		tcp = s.tcpLn.Addr()
	}
	if s.quicLn != nil {
		udp = s.quicLn.Addr()
	}
	return tcp, udp
}

// Stop shuts down both listeners.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.tcpSrv != nil {
		errs = append(errs, s.tcpSrv.Shutdown(ctx))
	}
	if s.h3Srv != nil {
		errs = append(errs, s.h3Srv.Close())
	}
	if s.quicLn != nil {
		errs = append(errs, s.quicLn.Close())
	}
	s.logger.Info("chassis stopped")
	return errors.Join(errs...)
}

// withAltSvc advertises HTTP/3 on the UDP port.
func withAltSvc(udp net.Addr, next http.Handler) http.Handler {
	port := "443"
	if a, ok := udp.(*net.UDPAddr); ok {
		port = fmt.Sprint(a.Port)
	}
	altSvc := fmt.Sprintf(`h3=":%s"; ma=86400`, port)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Alt-Svc", altSvc)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}
