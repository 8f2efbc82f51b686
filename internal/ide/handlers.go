package ide

import (
	"encoding/json"
)

// Method names on the fixed dispatch surface. Tools are invoked through
// tools/call and are distinct from methods.
const (
	MethodInitialize    = "initialize"
	MethodInitialized   = "initialized"
	MethodPing          = "ping"
	MethodToolsList     = "tools/list"
	MethodToolsCall     = "tools/call"
	MethodCancelled     = "notifications/cancelled"
	MethodToolsChanged  = "notifications/tools/list_changed"
	serverInstructions  = "crit is a terminal code review tool. You can query the current selection, open files, workspace, and review comments (diagnostics). Use openFile to navigate to specific files in the diff viewer."
)

// Dispatcher routes protocol methods to the handshake handlers or the tool
// registry. It is stateless per exchange: every request is validated and
// handled independently.
type Dispatcher struct {
	registry *Registry
	version  string
}

// NewDispatcher creates a dispatcher over the given tool registry. version
// is reported in the initialize result's serverInfo.
func NewDispatcher(registry *Registry, version string) *Dispatcher {
	return &Dispatcher{registry: registry, version: version}
}

// Handle processes one decoded request. A nil response means the request was
// a notification and nothing should be written back.
func (d *Dispatcher) Handle(req Request) *Response {
	switch req.Method {
	case MethodInitialize:
		return d.handleInitialize(req)
	case MethodInitialized, MethodCancelled:
		// Acknowledgment notifications, no response.
		return nil
	case MethodPing:
		return SuccessResponse(req.ID, map[string]any{})
	case MethodToolsList:
		return SuccessResponse(req.ID, ToolsListResult{Tools: d.registry.List()})
	case MethodToolsCall:
		return d.handleToolsCall(req)
	default:
		return ErrorResponse(req.ID, ErrMethodNotFound(req.Method))
	}
}

func (d *Dispatcher) handleInitialize(req Request) *Response {
	if len(req.Params) == 0 {
		return ErrorResponse(req.ID, ErrInvalidParams("missing initialize params"))
	}

	var params InitializeParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return ErrorResponse(req.ID, ErrInvalidParams("failed to parse initialize params: "+err.Error()))
	}
	if params.ClientInfo.Name == "" {
		return ErrorResponse(req.ID, ErrInvalidParams("clientInfo.name is required"))
	}

	result := InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: ServerCapabilities{
			Tools: &ToolsCapability{ListChanged: false},
		},
		ServerInfo: ServerInfo{
			Name:    IDEName,
			Version: d.version,
		},
		Instructions: serverInstructions,
	}

	return SuccessResponse(req.ID, result)
}

func (d *Dispatcher) handleToolsCall(req Request) *Response {
	if len(req.Params) == 0 {
		return ErrorResponse(req.ID, ErrInvalidParams("missing tools/call params"))
	}

	var params ToolsCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return ErrorResponse(req.ID, ErrInvalidParams("failed to parse tools/call params: "+err.Error()))
	}
	if params.Name == "" {
		return ErrorResponse(req.ID, ErrInvalidParams("tool name is required"))
	}

	// Tool-level failures ride inside a successful protocol response as
	// isError, keeping the protocol and tool error channels independent.
	result := d.registry.Call(params.Name, params.Arguments)
	return SuccessResponse(req.ID, result)
}
