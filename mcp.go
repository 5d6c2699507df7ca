package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// mcpProtocolVersion is the MCP revision the server speaks.
const mcpProtocolVersion = "2024-11-05"

// maxMCPMessageSize is the maximum size for a single MCP message (1MB).
const maxMCPMessageSize = 1024 * 1024

// Standard JSON-RPC error codes
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// MCPMessage represents a JSON-RPC 2.0 message for MCP
type MCPMessage struct {
	Jsonrpc string      `json:"jsonrpc"`
	Id      interface{} `json:"id,omitempty"`
	Method  string      `json:"method,omitempty"`
	Params  interface{} `json:"params,omitempty"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC 2.0 error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *MCPError) Error() string {
	return e.Message
}

// NewErrorMessage creates a new error response message
func NewErrorMessage(id interface{}, code int, message string) *MCPMessage {
	return &MCPMessage{
		Jsonrpc: "2.0",
		Id:      id,
		Error:   &MCPError{Code: code, Message: message},
	}
}

// NewResultMessage creates a new result response message
func NewResultMessage(id interface{}, result interface{}) *MCPMessage {
	return &MCPMessage{
		Jsonrpc: "2.0",
		Id:      id,
		Result:  result,
	}
}

// IsRequest checks if the message is a request
func (m *MCPMessage) IsRequest() bool {
	return m.Method != "" && m.Id != nil
}

// IsNotification checks if the message is a notification
func (m *MCPMessage) IsNotification() bool {
	return m.Method != "" && m.Id == nil
}

// Tool describes one callable tool in tools/list.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// ToolHandler runs a tool with its decoded arguments and returns its text output.
type ToolHandler func(params map[string]interface{}) (string, error)

// ToolContent is one content block of a tool result.
type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the result of tools/call. Tool failures are reported with IsError
// rather than as JSON-RPC errors.
type ToolResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// errMessageParse marks a line that is not valid JSON-RPC.
var errMessageParse = errors.New("error parsing JSON-RPC message")

// MCPServer serves the skinny-jeans tools over newline-delimited JSON-RPC on stdio.
type MCPServer struct {
	stdin   io.Reader
	stdout  io.Writer
	scanner *bufio.Scanner
	logger  *slog.Logger
	version string
	tools   map[string]ToolHandler
	batch   BatchArgs // Walk settings applied to toon_batch_estimate
}

// NewMCPServer creates a server on os.Stdin/os.Stdout. batchDefaults supplies the
// walk settings that the batch tool does not take as arguments.
func NewMCPServer(version string, logger *slog.Logger, batchDefaults BatchArgs) *MCPServer {
	s := &MCPServer{
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		logger:  logger,
		version: version,
		batch:   batchDefaults,
	}
	s.tools = map[string]ToolHandler{
		"toon_read_file":       s.toolReadFile,
		"toon_read_json":       s.toolReadJSON,
		"toon_estimate_tokens": s.toolEstimateTokens,
		"toon_list_files":      s.toolListFiles,
		"toon_batch_estimate":  s.toolBatchEstimate,
	}
	return s
}

// SetStdin replaces the input stream (used in tests).
func (s *MCPServer) SetStdin(r io.Reader) {
	s.stdin = r
	s.scanner = nil
}

// SetStdout replaces the output stream (used in tests).
func (s *MCPServer) SetStdout(w io.Writer) {
	s.stdout = w
}

// Start processes messages until the input is closed.
func (s *MCPServer) Start() error {
	s.logger.Info("MCP server starting", "version", s.version)

	for {
		msg, err := s.readMessage()
		if err != nil {
			if err == io.EOF {
				s.logger.Info("MCP server shutting down (EOF)")
				return nil
			}
			if errors.Is(err, errMessageParse) {
				s.logger.Warn("Dropping malformed message", "error", err.Error())
				if werr := s.writeMessage(NewErrorMessage(nil, ParseError, err.Error())); werr != nil {
					return werr
				}
				continue
			}
			return err
		}

		response := s.handleMessage(msg)
		if response == nil {
			continue
		}
		if err := s.writeMessage(response); err != nil {
			s.logger.Error("Error writing response", "error", err.Error())
			return err
		}
	}
}

func (s *MCPServer) readMessage() (*MCPMessage, error) {
	if s.scanner == nil {
		s.scanner = bufio.NewScanner(s.stdin)
		s.scanner.Buffer(make([]byte, 64*1024), maxMCPMessageSize)
	}

	for s.scanner.Scan() {
		line := s.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		s.logger.Debug("Received message", "raw", string(line))

		var msg MCPMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, fmt.Errorf("%w: %v", errMessageParse, err)
		}
		return &msg, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from stdin: %w", err)
	}
	return nil, io.EOF
}

func (s *MCPServer) writeMessage(msg *MCPMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("error marshaling JSON-RPC message: %w", err)
	}
	s.logger.Debug("Sending message", "raw", string(data))

	if _, err := fmt.Fprintf(s.stdout, "%s\n", data); err != nil {
		return fmt.Errorf("error writing to stdout: %w", err)
	}
	return nil
}

// handleMessage returns the response to msg, or nil for notifications.
func (s *MCPServer) handleMessage(msg *MCPMessage) *MCPMessage {
	if msg.IsNotification() {
		s.logger.Debug("Handling notification", "method", msg.Method)
		return nil
	}
	if !msg.IsRequest() {
		return NewErrorMessage(msg.Id, InvalidRequest, "Invalid message: not a request or notification")
	}

	s.logger.Debug("Handling request", "method", msg.Method, "id", msg.Id)

	switch msg.Method {
	case "initialize":
		return NewResultMessage(msg.Id, map[string]interface{}{
			"protocolVersion": mcpProtocolVersion,
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "skinny-jeans",
				"version": s.version,
			},
		})
	case "ping":
		return NewResultMessage(msg.Id, map[string]interface{}{})
	case "tools/list":
		return NewResultMessage(msg.Id, map[string]interface{}{"tools": toolDefinitions()})
	case "tools/call":
		return s.handleCallToolRequest(msg)
	default:
		return NewErrorMessage(msg.Id, MethodNotFound, fmt.Sprintf("Method not found: %s", msg.Method))
	}
}

func (s *MCPServer) handleCallToolRequest(msg *MCPMessage) *MCPMessage {
	params, ok := msg.Params.(map[string]interface{})
	if !ok {
		return NewErrorMessage(msg.Id, InvalidParams, "Invalid params: expected object")
	}
	toolName, ok := params["name"].(string)
	if !ok || toolName == "" {
		return NewErrorMessage(msg.Id, InvalidParams, "Invalid params: missing tool name")
	}
	handler, exists := s.tools[toolName]
	if !exists {
		return NewErrorMessage(msg.Id, InvalidParams, fmt.Sprintf("Unknown tool: %s", toolName))
	}
	arguments, ok := params["arguments"].(map[string]interface{})
	if !ok {
		arguments = make(map[string]interface{})
	}

	s.logger.Info("Calling tool", "tool", toolName)
	text, err := handler(arguments)
	if err != nil {
		s.logger.Warn("Tool failed", "tool", toolName, "error", err.Error())
		return NewResultMessage(msg.Id, ToolResult{
			Content: []ToolContent{{Type: "text", Text: "Error: " + err.Error()}},
			IsError: true,
		})
	}
	return NewResultMessage(msg.Id, ToolResult{Content: []ToolContent{{Type: "text", Text: text}}})
}

func (s *MCPServer) toolReadFile(params map[string]interface{}) (string, error) {
	path, err := requireString(params, "path")
	if err != nil {
		return "", err
	}
	return readFileTool(ReadFileArgs{
		Path:      path,
		MaxTokens: intParam(params, "maxTokens"),
		Raw:       boolParam(params, "raw", false),
	})
}

func (s *MCPServer) toolReadJSON(params map[string]interface{}) (string, error) {
	path, err := requireString(params, "path")
	if err != nil {
		return "", err
	}
	delimiter, _ := params["delimiter"].(string)
	folding, _ := params["keyFolding"].(string)
	return readJSONTool(ReadJSONArgs{
		Path:          path,
		Delimiter:     delimiter,
		KeyFolding:    folding,
		LengthMarkers: boolParam(params, "lengthMarkers", false),
		MaxTokens:     intParam(params, "maxTokens"),
	})
}

func (s *MCPServer) toolEstimateTokens(params map[string]interface{}) (string, error) {
	path, _ := params["path"].(string)
	text, _ := params["text"].(string)
	return estimateTokensTool(EstimateArgs{Path: path, Text: text})
}

func (s *MCPServer) toolListFiles(params map[string]interface{}) (string, error) {
	path, err := requireString(params, "path")
	if err != nil {
		return "", err
	}
	pattern, _ := params["pattern"].(string)
	return listFilesTool(ListArgs{
		Path:      path,
		Recursive: boolParam(params, "recursive", false),
		Pattern:   pattern,
	})
}

func (s *MCPServer) toolBatchEstimate(params map[string]interface{}) (string, error) {
	raw, ok := params["paths"].([]interface{})
	if !ok || len(raw) == 0 {
		return "", errors.New("paths must be a non-empty array of strings")
	}
	args := s.batch
	args.Paths = make([]string, 0, len(raw))
	for _, p := range raw {
		str, ok := p.(string)
		if !ok {
			return "", errors.New("paths must be a non-empty array of strings")
		}
		args.Paths = append(args.Paths, str)
	}
	args.Recursive = boolParam(params, "recursive", true)

	report, err := batchEstimateTool(args)
	if err != nil {
		return "", err
	}
	return formatReportText(report), nil
}

func requireString(params map[string]interface{}, key string) (string, error) {
	value, ok := params[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("missing required argument: %s", key)
	}
	return value, nil
}

func boolParam(params map[string]interface{}, key string, fallback bool) bool {
	if value, ok := params[key].(bool); ok {
		return value
	}
	return fallback
}

// intParam reads a JSON number argument; absent or non-numeric values give 0.
func intParam(params map[string]interface{}, key string) int {
	if value, ok := params[key].(float64); ok {
		return int(value)
	}
	return 0
}

func toolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "toon_read_file",
			Description: "Read any file in token-optimized form. Auto-detects type: JSON→TOON, markdown→minified, code→comments stripped. Reports token savings.",
			InputSchema: objectSchema(map[string]interface{}{
				"path":      prop("string", "File path or http(s) URL to read"),
				"maxTokens": prop("number", "Maximum tokens to return (truncates if exceeded)"),
				"raw":       prop("boolean", "If true, return raw content without optimization"),
			}, "path"),
		},
		{
			Name:        "toon_read_json",
			Description: "Read a JSON or JSONL file encoded as TOON format (~40-60% fewer tokens). Supports delimiter and key folding options.",
			InputSchema: objectSchema(map[string]interface{}{
				"path":          prop("string", "Path to JSON or JSONL file"),
				"delimiter":     enumProp("Delimiter for tabular rows (default: tab)", "comma", "tab", "pipe"),
				"keyFolding":    enumProp("Collapse single-key wrappers into dotted paths (default: safe)", "off", "safe"),
				"lengthMarkers": prop("boolean", "Prefix array lengths with # (default: false)"),
				"maxTokens":     prop("number", "Maximum tokens to return"),
			}, "path"),
		},
		{
			Name:        "toon_estimate_tokens",
			Description: "Estimate token count for a file or text string. Helps decide whether to use toon_read_file.",
			InputSchema: objectSchema(map[string]interface{}{
				"path": prop("string", "File path to estimate"),
				"text": prop("string", "Text string to estimate"),
			}),
		},
		{
			Name:        "toon_list_files",
			Description: "Compact directory listing as indented tree. No verbose metadata, skips hidden files and node_modules.",
			InputSchema: objectSchema(map[string]interface{}{
				"path":      prop("string", "Directory path to list"),
				"recursive": prop("boolean", "List files recursively (default: false)"),
				"pattern":   prop("string", "Filter by glob pattern (e.g. '*.ts')"),
			}, "path"),
		},
		{
			Name:        "toon_batch_estimate",
			Description: "Batch token savings report across files and directories. Shows estimated savings by file type.",
			InputSchema: objectSchema(map[string]interface{}{
				"paths": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "File, directory or Git repository paths to analyze",
				},
				"recursive": prop("boolean", "Recurse into directories (default: true)"),
			}, "paths"),
		},
	}
}

func objectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "description": description}
}

func enumProp(description string, values ...string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "enum": values, "description": description}
}
