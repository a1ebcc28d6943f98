package chassis

import (
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/cardinal-itn/pkg/api"
	"github.com/hazyhaar/cardinal-itn/pkg/mcpquic"
	"github.com/hazyhaar/cardinal-itn/pkg/registry"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "en")
	os.MkdirAll(dir, 0o755)
	os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte("lang: en\nname: english\n"+
		"multipliers:\n  hundred: [hundred]\n  thousand: [thousand]\nminus: [minus]\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "digit.tsv"),
		[]byte("zero\t0\none\t1\ntwo\t2\nthree\t3\nfour\t4\nfive\t5\nsix\t6\nseven\t7\neight\t8\nnine\t9\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "tens.tsv"), []byte("ten\t10\ntwenty\t20\n"), 0o644)

	reg := registry.New(filepath.Dir(dir))
	if err := reg.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return reg
}

func startChassis(t *testing.T) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := testRegistry(t)
	mcpSrv := server.NewMCPServer("cardinal-itn-test", "test", server.WithToolCapabilities(false))
	api.RegisterMCPTools(mcpSrv, reg, logger)

	s, err := New(Config{
		Addr:      "127.0.0.1:0",
		Handler:   api.NewRouter(reg, api.RouterOptions{Logger: logger}),
		MCPServer: mcpSrv,
		Logger:    logger,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		s.Stop(context.Background())
		<-done
	})

	deadline := time.Now().Add(5 * time.Second)
	for {
		if tcp, udp := s.Addrs(); tcp != nil && udp != nil {
			return s
		}
		if time.Now().After(deadline) {
			t.Fatal("chassis never started")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestChassisHTTPS(t *testing.T) {
	s := startChassis(t)
	tcp, _ := s.Addrs()

	client := &http.Client{
		Timeout:   5 * time.Second,
		Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}},
	}
	resp, err := client.Get("https://" + tcp.String() + "/v1/normalize/en?text=two+hundred")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"digits":"200"`) {
		t.Errorf("status = %d, body = %s", resp.StatusCode, body)
	}
	if !strings.HasPrefix(resp.Header.Get("Alt-Svc"), `h3=":`) {
		t.Errorf("Alt-Svc = %q", resp.Header.Get("Alt-Svc"))
	}
}

func TestChassisMCPOverQUIC(t *testing.T) {
	s := startChassis(t)
	_, udp := s.Addrs()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c := mcpquic.NewClient(udp.String(), nil)
	if err := c.Connect(ctx, "chassis-test"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	tools, err := c.ListTools(ctx)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(tools.Tools) != 3 {
		t.Errorf("tools = %d, want 3", len(tools.Tools))
	}

	var res struct {
		Status string `json:"status"`
		Tagged string `json:"tagged"`
	}
	if err := c.Call(ctx, "normalize_cardinal", map[string]any{"lang": "en", "text": "minus two thousand twenty"}, &res); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if res.Status != "match" || res.Tagged != `negative: "-" integer: "2020"` {
		t.Errorf("result = %+v", res)
	}

	if err := c.Call(ctx, "normalize_cardinal", map[string]any{"lang": "xx", "text": "one"}, &res); err == nil {
		t.Error("unknown language: want error")
	}
}

func TestTLSConfigErrors(t *testing.T) {
	if _, err := tlsConfig("cert.pem", ""); err == nil {
		t.Error("cert without key accepted")
	}
	if _, err := tlsConfig(filepath.Join(t.TempDir(), "a.pem"), filepath.Join(t.TempDir(), "b.pem")); err == nil {
		t.Error("missing files accepted")
	}
	cfg, err := tlsConfig("", "")
	if err != nil {
		t.Fatalf("self-signed: %v", err)
	}
	if len(cfg.Certificates) != 1 || len(cfg.NextProtos) != 2 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestNewRequiresHandler(t *testing.T) {
	if _, err := New(Config{Addr: ":0"}); err == nil {
		t.Error("nil handler accepted")
	}
}
