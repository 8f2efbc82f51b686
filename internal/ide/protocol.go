// Package ide implements the MCP server that lets an external coding agent
// (e.g. Claude Code) discover a running crit session, query review state,
// and navigate the diff viewer.
//
// Transport is JSON-RPC 2.0 over a loopback WebSocket. Discovery happens
// through a lock file at ~/.crit/ide/<port>.lock.
package ide

import (
	"encoding/json"
	"fmt"
)

// JSONRPCVersion is the only protocol version accepted on the wire.
const JSONRPCVersion = "2.0"

// ProtocolVersion is the MCP protocol revision advertised during initialize.
const ProtocolVersion = "2024-11-05"

// Reserved JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// RequestID is a JSON-RPC id, which may be a number or a string. A nil
// *RequestID means the message is a notification and expects no response.
type RequestID struct {
	raw json.RawMessage
}

// UnmarshalJSON accepts a JSON number or string.
func (id *RequestID) UnmarshalJSON(data []byte) error {
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	switch probe.(type) {
	case float64, string:
		id.raw = append(json.RawMessage(nil), data...)
		return nil
	default:
		return fmt.Errorf("request id must be a number or string, got %s", data)
	}
}

// MarshalJSON writes the id back exactly as it was received.
func (id RequestID) MarshalJSON() ([]byte, error) {
	if id.raw == nil {
		return []byte("null"), nil
	}
	return id.raw, nil
}

// String returns the id's wire form, for logging.
func (id RequestID) String() string {
	return string(id.raw)
}

// NumberID builds a numeric request id. Used by tests and by clients.
func NumberID(n int64) *RequestID {
	return &RequestID{raw: json.RawMessage(fmt.Sprintf("%d", n))}
}

// StringID builds a string request id.
func StringID(s string) *RequestID {
	raw, _ := json.Marshal(s)
	return &RequestID{raw: raw}
}

// Request is a JSON-RPC 2.0 request or, when ID is nil, a notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *RequestID      `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request expects no response.
func (r Request) IsNotification() bool {
	return r.ID == nil
}

// Response is a JSON-RPC 2.0 response carrying exactly one of Result or Error.
type Response struct {
	JSONRPC string     `json:"jsonrpc"`
	ID      *RequestID `json:"id,omitempty"`
	Result  any        `json:"result,omitempty"`
	Error   *RPCError  `json:"error,omitempty"`
}

// Notification is a server-to-client message with no id and no reply.
type Notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// NewNotification builds a notification envelope for the given method.
func NewNotification(method string, params any) Notification {
	return Notification{JSONRPC: JSONRPCVersion, Method: method, Params: params}
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// ErrParse is returned when the inbound frame is not valid JSON.
func ErrParse() *RPCError {
	return &RPCError{Code: CodeParseError, Message: "Parse error"}
}

// ErrInvalidRequest is returned for structurally invalid envelopes.
func ErrInvalidRequest(msg string) *RPCError {
	return &RPCError{Code: CodeInvalidRequest, Message: "Invalid request: " + msg}
}

// ErrMethodNotFound is returned for unrecognized method names.
func ErrMethodNotFound(method string) *RPCError {
	return &RPCError{Code: CodeMethodNotFound, Message: "Method not found: " + method}
}

// ErrInvalidParams is returned when method parameters are missing or malformed.
func ErrInvalidParams(msg string) *RPCError {
	return &RPCError{Code: CodeInvalidParams, Message: "Invalid params: " + msg}
}

// ErrInternal is returned for server-side failures.
func ErrInternal(msg string) *RPCError {
	return &RPCError{Code: CodeInternalError, Message: "Internal error: " + msg}
}

// SuccessResponse wraps a result value in a response envelope.
func SuccessResponse(id *RequestID, result any) *Response {
	return &Response{JSONRPC: JSONRPCVersion, ID: id, Result: result}
}

// ErrorResponse wraps an RPC error in a response envelope.
func ErrorResponse(id *RequestID, rpcErr *RPCError) *Response {
	return &Response{JSONRPC: JSONRPCVersion, ID: id, Error: rpcErr}
}

// DecodeRequest parses a raw text frame into a request envelope. It returns
// an *RPCError with the reserved parse-error code for malformed JSON, and
// invalid-request for a missing or mismatched protocol version tag.
func DecodeRequest(data []byte) (Request, *RPCError) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, ErrParse()
	}
	if req.JSONRPC != JSONRPCVersion {
		return req, ErrInvalidRequest("expected jsonrpc version " + JSONRPCVersion)
	}
	return req, nil
}

// EncodeNotification serializes a notification envelope to a text frame.
func EncodeNotification(n Notification) ([]byte, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("encode notification: %w", err)
	}
	return data, nil
}

// EncodeResponse serializes a response envelope to a text frame.
func EncodeResponse(resp *Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return data, nil
}

// InitializeParams is the client's half of the MCP handshake.
type InitializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      ClientInfo         `json:"clientInfo"`
}

// ClientCapabilities declares what the connecting client supports.
type ClientCapabilities struct {
	Roots    *RootsCapability `json:"roots,omitempty"`
	Sampling any              `json:"sampling,omitempty"`
}

// RootsCapability is the client's workspace-roots capability.
type RootsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ClientInfo identifies the connecting client.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// InitializeResult is the server's half of the MCP handshake.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

// ServerCapabilities declares what this server supports: tools only.
type ServerCapabilities struct {
	Tools     *ToolsCapability `json:"tools,omitempty"`
	Resources any              `json:"resources,omitempty"`
	Prompts   any              `json:"prompts,omitempty"`
}

// ToolsCapability is the server's tool-listing capability.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ServerInfo identifies this server to the client.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// Tool describes one invokable capability: a name, a human description, and
// a JSON Schema object for its arguments.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ToolsListResult is the payload of a tools/list response.
type ToolsListResult struct {
	Tools []Tool `json:"tools"`
}

// ToolsCallParams is the payload of a tools/call request.
type ToolsCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ToolsCallResult is the payload of a tools/call response. Tool-level
// failures set IsError; they are never surfaced as protocol errors.
type ToolsCallResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// ToolContent is a single content item in a tool result.
type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TextContent builds a text content item.
func TextContent(text string) ToolContent {
	return ToolContent{Type: "text", Text: text}
}

// textResult wraps a JSON-serializable payload as a successful tool result.
func textResult(v any) ToolsCallResult {
	data, err := json.Marshal(v)
	if err != nil {
		return ToolsCallResult{
			Content: []ToolContent{TextContent(`{}`)},
		}
	}
	return ToolsCallResult{Content: []ToolContent{TextContent(string(data))}}
}

// errorResult wraps a JSON-serializable payload as a failed tool result.
func errorResult(v any) ToolsCallResult {
	res := textResult(v)
	res.IsError = true
	return res
}

// Position is a zero-character line position, IDE style.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// LineRange is a start/end position pair.
type LineRange struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// SelectionResult is the payload of getCurrentSelection.
type SelectionResult struct {
	FilePath  string    `json:"filePath"`
	Text      string    `json:"text"`
	Selection LineRange `json:"selection"`
}

// OpenEditor is one entry in the getOpenEditors payload.
type OpenEditor struct {
	FilePath   string `json:"filePath"`
	LanguageID string `json:"languageId"`
	IsDirty    bool   `json:"isDirty"`
	IsActive   bool   `json:"isActive"`
}

// WorkspaceFolder is one entry in the getWorkspaceFolders payload.
type WorkspaceFolder struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

// Severity is an IDE diagnostic severity.
type Severity string

// The four IDE severities.
const (
	SeverityError       Severity = "error"
	SeverityWarning     Severity = "warning"
	SeverityInformation Severity = "information"
	SeverityHint        Severity = "hint"
)

// ParseSeverity maps a severity tag to one of the four IDE severities.
// Unknown tags map to information.
func ParseSeverity(tag string) Severity {
	switch tag {
	case "error":
		return SeverityError
	case "warning":
		return SeverityWarning
	case "hint":
		return SeverityHint
	default:
		return SeverityInformation
	}
}

// DiagnosticResult is one entry in the getDiagnostics payload.
type DiagnosticResult struct {
	FilePath string    `json:"filePath"`
	Range    LineRange `json:"range"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	Source   string    `json:"source,omitempty"`
}

// OpenFileResult is the payload of openFile.
type OpenFileResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
