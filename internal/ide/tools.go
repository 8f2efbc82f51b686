package ide

import (
	"fmt"
)

// Tool names exposed through tools/list.
const (
	ToolGetCurrentSelection = "getCurrentSelection"
	ToolGetOpenEditors      = "getOpenEditors"
	ToolGetWorkspaceFolders = "getWorkspaceFolders"
	ToolGetDiagnostics      = "getDiagnostics"
	ToolOpenFile            = "openFile"
)

// diagnosticSource tags diagnostics as originating from crit review comments.
const diagnosticSource = "crit"

// Registry executes the fixed set of tools against the shared state store.
// Mutating tools emit commands over the bridge instead of touching state.
type Registry struct {
	state  *StateStore
	bridge *Bridge
}

// NewRegistry creates a tool registry bound to a state store and bridge.
func NewRegistry(state *StateStore, bridge *Bridge) *Registry {
	return &Registry{state: state, bridge: bridge}
}

func emptyObjectSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
		"required":   []string{},
	}
}

// List returns the declared tool set. The schemas double as documentation
// for the remote client.
func (r *Registry) List() []Tool {
	return []Tool{
		{
			Name: ToolGetCurrentSelection,
			Description: "Get the currently selected text in the diff viewer. Returns the " +
				"file path, selected text, and line range of the selection.",
			InputSchema: emptyObjectSchema(),
		},
		{
			Name: ToolGetOpenEditors,
			Description: "Get the list of files open in the current code review session. " +
				"Each file includes its path, status (added/modified/deleted), and review state.",
			InputSchema: emptyObjectSchema(),
		},
		{
			Name:        ToolGetWorkspaceFolders,
			Description: "Get the workspace folders (repository roots) for the current review session.",
			InputSchema: emptyObjectSchema(),
		},
		{
			Name: ToolGetDiagnostics,
			Description: "Get review comments as diagnostics. Issue comments are returned as " +
				"errors, suggestions as warnings, and notes as information.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"filePath": map[string]any{
						"type":        "string",
						"description": "Optional file path to filter diagnostics. If not provided, returns all diagnostics.",
					},
				},
				"required": []string{},
			},
		},
		{
			Name:        ToolOpenFile,
			Description: "Navigate to a specific file in the diff viewer. Optionally jump to a specific line.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"filePath": map[string]any{
						"type":        "string",
						"description": "Path to the file to open",
					},
					"line": map[string]any{
						"type":        "integer",
						"description": "Optional line number to jump to",
					},
				},
				"required": []string{"filePath"},
			},
		},
	}
}

// Call executes a tool by name. Unknown names produce a tool-level error,
// never a protocol error: tools/call already validated its envelope.
func (r *Registry) Call(name string, args map[string]any) ToolsCallResult {
	switch name {
	case ToolGetCurrentSelection:
		return r.getCurrentSelection()
	case ToolGetOpenEditors:
		return r.getOpenEditors()
	case ToolGetWorkspaceFolders:
		return r.getWorkspaceFolders()
	case ToolGetDiagnostics:
		return r.getDiagnostics(args)
	case ToolOpenFile:
		return r.openFile(args)
	default:
		return errorResult(map[string]string{
			"error": fmt.Sprintf("Unknown tool: %s", name),
		})
	}
}

func (r *Registry) getCurrentSelection() ToolsCallResult {
	snap := r.state.Read()
	sel := snap.Selection
	if sel == nil {
		return textResult(map[string]string{
			"error":   "No selection",
			"message": "No text is currently selected in the diff viewer",
		})
	}

	return textResult(SelectionResult{
		FilePath: sel.FilePath,
		Text:     sel.Text,
		Selection: LineRange{
			Start: Position{Line: sel.StartLine},
			End:   Position{Line: sel.EndLine},
		},
	})
}

func (r *Registry) getOpenEditors() ToolsCallResult {
	snap := r.state.Read()

	editors := make([]OpenEditor, 0, len(snap.OpenFiles))
	for _, f := range snap.OpenFiles {
		editors = append(editors, OpenEditor{
			FilePath:   f.FilePath,
			LanguageID: f.LanguageID,
			IsDirty:    f.IsDirty,
			IsActive:   f.IsActive,
		})
	}

	return textResult(editors)
}

func (r *Registry) getWorkspaceFolders() ToolsCallResult {
	snap := r.state.Read()
	folders := snap.WorkspaceFolders()
	if folders == nil {
		folders = []WorkspaceFolder{}
	}
	return textResult(folders)
}

func (r *Registry) getDiagnostics(args map[string]any) ToolsCallResult {
	var filter string
	if v, ok := args["filePath"].(string); ok {
		filter = v
	}

	snap := r.state.Read()

	diags := make([]DiagnosticResult, 0)
	for _, d := range snap.DiagnosticsFor(filter) {
		diags = append(diags, DiagnosticResult{
			FilePath: d.FilePath,
			Range: LineRange{
				Start: Position{Line: d.StartLine},
				End:   Position{Line: d.EndLine},
			},
			Message:  d.Message,
			Severity: ParseSeverity(d.Severity),
			Source:   diagnosticSource,
		})
	}

	return textResult(diags)
}

func (r *Registry) openFile(args map[string]any) ToolsCallResult {
	path, ok := args["filePath"].(string)
	if !ok || path == "" {
		return errorResult(OpenFileResult{
			Success: false,
			Error:   "Missing required parameter: filePath",
		})
	}

	var line *int
	if v, ok := args["line"].(float64); ok {
		n := int(v)
		line = &n
	}

	if !r.bridge.TrySend(OpenFileCommand{Path: path, Line: line}) {
		return errorResult(OpenFileResult{
			Success: false,
			Error:   "Failed to send command: host loop is not accepting commands",
		})
	}

	return textResult(OpenFileResult{Success: true})
}
