package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/cardinal-itn/pkg/cardinal"
	"github.com/hazyhaar/cardinal-itn/pkg/kit"
	"github.com/hazyhaar/cardinal-itn/pkg/registry"
)

// MaxBatch is the largest number of phrases one batch call may carry.
const MaxBatch = 100

// Shared request/response types used by both HTTP and MCP transports.

type normalizeReq struct {
	Lang string
	Text string
}

type normalizeBatchReq struct {
	Lang  string
	Texts []string
}

type normalizeResponse struct {
	Lang string `json:"lang"`
	Text string `json:"text"`
	*cardinal.Result
	// Tagged and Token are set on a match.
	Tagged string `json:"tagged,omitempty"`
	Token  string `json:"token,omitempty"`
}

type batchResponse struct {
	Lang    string              `json:"lang"`
	Results []normalizeResponse `json:"results"`
}

type languagesResponse struct {
	Languages []registry.LanguageInfo `json:"languages"`
}

func newNormalizeResponse(lang, text string, res *cardinal.Result) normalizeResponse {
	out := normalizeResponse{Lang: lang, Text: text, Result: res}
	if res.Value != nil {
		out.Tagged = res.Value.Tagged()
		out.Token = res.Value.Token()
	}
	return out
}

func normalizeEndpoint(reg *registry.Registry) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*normalizeReq)
		res, err := reg.Normalize(req.Lang, req.Text)
		if err != nil {
			return nil, err
		}
		return newNormalizeResponse(req.Lang, req.Text, res), nil
	}
}

func normalizeBatchEndpoint(reg *registry.Registry) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*normalizeBatchReq)
		if len(req.Texts) == 0 {
			return nil, fmt.Errorf("texts array is empty")
		}
		if len(req.Texts) > MaxBatch {
			return nil, fmt.Errorf("too many texts (max %d, got %d)", MaxBatch, len(req.Texts))
		}
		results := make([]normalizeResponse, len(req.Texts))
		for i, text := range req.Texts {
			res, err := reg.Normalize(req.Lang, text)
			if err != nil {
				return nil, err
			}
			results[i] = newNormalizeResponse(req.Lang, text, res)
		}
		return batchResponse{Lang: req.Lang, Results: results}, nil
	}
}

func listLanguagesEndpoint(reg *registry.Registry) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		return languagesResponse{Languages: reg.Languages()}, nil
	}
}

// endpoints holds the three endpoints, each wrapped with call logging.
type endpoints struct {
	normalize      kit.Endpoint
	normalizeBatch kit.Endpoint
	listLanguages  kit.Endpoint
}

func newEndpoints(reg *registry.Registry, logger *slog.Logger) endpoints {
	if logger == nil {
		logger = slog.Default()
	}
	return endpoints{
		normalize:      kit.Logging(logger, "normalize")(normalizeEndpoint(reg)),
		normalizeBatch: kit.Logging(logger, "normalize_batch")(normalizeBatchEndpoint(reg)),
		listLanguages:  kit.Logging(logger, "list_languages")(listLanguagesEndpoint(reg)),
	}
}
