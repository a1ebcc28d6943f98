package importer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// checkConcurrency bounds the HEAD requests in flight.
const checkConcurrency = 4

// Checker periodically sends HEAD requests to every lexicon source and
// records whether it is reachable.
type Checker struct {
	sources  *SourceDB
	logger   *slog.Logger
	interval time.Duration
	client   *http.Client
}

// CheckReport summarizes one CheckAll pass.
type CheckReport struct {
	Total  int
	OK     int
	Failed []string // langs whose source did not answer 2xx/3xx
}

// NewChecker creates a Checker that will verify source URLs every interval.
func NewChecker(sources *SourceDB, logger *slog.Logger, interval time.Duration) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		sources:  sources,
		logger:   logger,
		interval: interval,
		client: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Start runs an immediate check then repeats every interval until ctx is cancelled.
func (c *Checker) Start(ctx context.Context) {
	c.CheckAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckAll(ctx)
		}
	}
}

// CheckAll checks every source URL and persists each result.
func (c *Checker) CheckAll(ctx context.Context) CheckReport {
	var report CheckReport
	sources, err := c.sources.ListSources()
	if err != nil {
		c.logger.Error("source check: list sources", "error", err)
		return report
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(checkConcurrency)
	for _, src := range sources {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			status, checkErr := c.checkOne(ctx, src.SourceURL)
			errMsg := ""
			if checkErr != nil {
				errMsg = checkErr.Error()
			}
			if err := c.sources.UpdateCheck(src.Lang, status, errMsg); err != nil {
				c.logger.Error("source check: update", "lang", src.Lang, "error", err)
			}

			mu.Lock()
			defer mu.Unlock()
			report.Total++
			if status >= 200 && status < 400 {
				report.OK++
				return nil
			}
			report.Failed = append(report.Failed, src.Lang)
			c.logger.Warn("source unreachable", "lang", src.Lang, "url", src.SourceURL, "status", status, "error", errMsg)
			return nil
		})
	}
	g.Wait()

	if report.Total > 0 {
		c.logger.Info("source check complete", "total", report.Total, "ok", report.OK, "failed", len(report.Failed))
	}
	return report
}

// checkOne performs a single HEAD request and returns the HTTP status code.
// On network error, status is 0.
func (c *Checker) checkOne(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HEAD %s: %w", url, err)
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
