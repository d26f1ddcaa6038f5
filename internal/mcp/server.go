// Package mcp serves memex operations as Model Context Protocol tools over
// JSON-RPC 2.0 on stdio, so that agents can read their own long-term memory.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

const (
	protocolVersion = "2024-11-05"
	serverName      = "memex"
)

// Server is a minimal MCP server. It only implements initialize, ping,
// tools/list and tools/call.
type Server struct {
	handler *ToolHandler
	version string
	in      io.Reader
	out     io.Writer
}

// NewServer creates a server reading requests from in and writing
// responses to out.
func NewServer(handler *ToolHandler, version string, in io.Reader, out io.Writer) *Server {
	return &Server{
		handler: handler,
		version: version,
		in:      in,
		out:     out,
	}
}

type jsonrpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *jsonrpcError   `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Run handles one request per line until ctx is cancelled or in is closed.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req jsonrpcRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeError(nil, -32700, "parse error")
			continue
		}

		// Notifications (no ID) don't get responses
		if req.ID == nil {
			continue
		}

		result, rpcErr := s.dispatch(ctx, req)
		if rpcErr != nil {
			s.writeError(req.ID, rpcErr.Code, rpcErr.Message)
			continue
		}
		s.writeResult(req.ID, result)
	}

	return scanner.Err()
}

func (s *Server) dispatch(ctx context.Context, req jsonrpcRequest) (any, *jsonrpcError) {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(), nil
	case "tools/list":
		return map[string]any{"tools": AllTools()}, nil
	case "tools/call":
		result, err := s.handleToolsCall(ctx, req.Params)
		if err != nil {
			return nil, &jsonrpcError{Code: -32602, Message: err.Error()}
		}
		return result, nil
	case "ping":
		return map[string]any{}, nil
	default:
		return nil, &jsonrpcError{Code: -32601, Message: "method not found: " + req.Method}
	}
}

func (s *Server) handleInitialize() any {
	return map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    serverName,
			"version": s.version,
		},
	}
}

// handleToolsCall reports tool failures inside the result, as MCP expects,
// and only returns an error for malformed params.
func (s *Server) handleToolsCall(ctx context.Context, params json.RawMessage) (any, error) {
	var call struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(params, &call); err != nil {
		return nil, fmt.Errorf("parse tool call params: %w", err)
	}
	if len(call.Arguments) == 0 {
		call.Arguments = json.RawMessage("{}")
	}

	result, err := s.handler.Call(ctx, call.Name, call.Arguments)
	if err != nil {
		return map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": fmt.Sprintf("Error: %s", err.Error())},
			},
			"isError": true,
		}, nil
	}

	text, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}

	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": string(text)},
		},
	}, nil
}

func (s *Server) writeResult(id json.RawMessage, result any) {
	s.writeJSON(jsonrpcResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) writeError(id json.RawMessage, code int, message string) {
	s.writeJSON(jsonrpcResponse{JSONRPC: "2.0", ID: id, Error: &jsonrpcError{Code: code, Message: message}})
}

func (s *Server) writeJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = s.out.Write(data)
}
