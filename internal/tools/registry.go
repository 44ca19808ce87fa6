package tools

import (
	"charm.land/fantasy"
)

// RegistryConfig holds configuration for creating a tool registry.
type RegistryConfig struct {
	WorkingDir string

	// OnFileCreated is notified when a tool creates a file outside the
	// write path, so session file-tracking state stays complete.
	OnFileCreated FileCreatedObserver
}

// ToolMetadata holds metadata about a tool.
type ToolMetadata struct {
	Name        string
	Category    string
	Description string
	Safe        bool // Safe tools don't modify files or execute commands
}

// Registry manages a collection of agent tools.
type Registry struct {
	tools    map[string]fantasy.AgentTool
	metadata map[string]ToolMetadata
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:    make(map[string]fantasy.AgentTool),
		metadata: make(map[string]ToolMetadata),
	}
}

// Register adds a tool to the registry with its metadata.
func (r *Registry) Register(tool fantasy.AgentTool, meta ToolMetadata) {
	r.tools[meta.Name] = tool
	r.metadata[meta.Name] = meta
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (fantasy.AgentTool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// All returns all registered tools.
func (r *Registry) All() []fantasy.AgentTool {
	tools := make([]fantasy.AgentTool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	return tools
}

// SafeTools returns all tools marked as safe.
func (r *Registry) SafeTools() []fantasy.AgentTool {
	tools := make([]fantasy.AgentTool, 0)
	for name, tool := range r.tools {
		if meta, ok := r.metadata[name]; ok && meta.Safe {
			tools = append(tools, tool)
		}
	}
	return tools
}

// Metadata returns the metadata for a tool by name.
func (r *Registry) Metadata(name string) (ToolMetadata, bool) {
	meta, ok := r.metadata[name]
	return meta, ok
}

// Names returns the names of all registered tools.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// NewDefaultRegistry creates a registry with the default set of tools.
func NewDefaultRegistry(cfg RegistryConfig) *Registry {
	r := NewRegistry()

	r.Register(NewReadTool(cfg.WorkingDir), ToolMetadata{
		Name:        ReadToolName,
		Category:    "file",
		Description: "Read file contents with line numbers",
		Safe:        true,
	})

	r.Register(NewWriteTool(cfg.WorkingDir), ToolMetadata{
		Name:        WriteToolName,
		Category:    "file",
		Description: "Write or create files",
		Safe:        false,
	})

	r.Register(NewEditTool(cfg.WorkingDir, cfg.OnFileCreated), ToolMetadata{
		Name:        EditToolName,
		Category:    "file",
		Description: "Edit file contents",
		Safe:        false,
	})

	r.Register(NewDeleteTool(cfg.WorkingDir), ToolMetadata{
		Name:        DeleteToolName,
		Category:    "file",
		Description: "Delete files",
		Safe:        false,
	})

	r.Register(NewBashTool(cfg.WorkingDir), ToolMetadata{
		Name:        BashToolName,
		Category:    "system",
		Description: "Execute shell commands",
		Safe:        false,
	})

	return r
}
