package api

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/cardinal-itn/pkg/kit"
	"github.com/hazyhaar/cardinal-itn/pkg/registry"
)

// RegisterMCPTools registers the three normalization MCP tools on the server.
func RegisterMCPTools(srv *server.MCPServer, reg *registry.Registry, logger *slog.Logger) {
	e := newEndpoints(reg, logger)

	kit.RegisterMCPTool(srv, mcp.NewTool("normalize_cardinal",
		mcp.WithDescription("Convert a spoken-form cardinal number (e.g. \"two hundred and fifty\") to digits in the given language."),
		mcp.WithString("lang", mcp.Required(), mcp.Description("Language code of a loaded lexicon (e.g. en, en-IN)")),
		mcp.WithString("text", mcp.Required(), mcp.Description("The spoken-form number, words separated by spaces")),
	), e.normalize, decodeNormalize)

	kit.RegisterMCPTool(srv, mcp.NewTool("normalize_batch",
		mcp.WithDescription(fmt.Sprintf("Convert up to %d spoken-form cardinal numbers to digits.", MaxBatch)),
		mcp.WithString("lang", mcp.Required(), mcp.Description("Language code of a loaded lexicon")),
		mcp.WithString("texts", mcp.Required(), mcp.Description("Comma-separated list of spoken-form numbers")),
	), e.normalizeBatch, decodeNormalizeBatch)

	kit.RegisterMCPTool(srv, mcp.NewTool("list_languages",
		mcp.WithDescription("List all loaded lexicons with metadata (tiers, form count, grammar size)."),
	), e.listLanguages, kit.NoArgs)
}

func decodeNormalize(req mcp.CallToolRequest) (any, error) {
	args := req.GetArguments()
	lang, _ := args["lang"].(string)
	text, _ := args["text"].(string)
	if lang == "" || text == "" {
		return nil, fmt.Errorf("lang and text are required")
	}
	return &normalizeReq{Lang: lang, Text: text}, nil
}

func decodeNormalizeBatch(req mcp.CallToolRequest) (any, error) {
	args := req.GetArguments()
	lang, _ := args["lang"].(string)
	if lang == "" {
		return nil, fmt.Errorf("lang is required")
	}
	textsStr, _ := args["texts"].(string)
	var texts []string
	for _, t := range strings.Split(textsStr, ",") {
		if t = strings.TrimSpace(t); t != "" {
			texts = append(texts, t)
		}
	}
	return &normalizeBatchReq{Lang: lang, Texts: texts}, nil
}
