package tools

import (
	"fmt"
	"sort"

	"domark/internal/logging"
)

// Builder collects tools before the registry is frozen. Each tool module
// contributes its tools to the builder at startup; Build then produces the
// immutable lookup table the dispatcher works against.
type Builder struct {
	tools []*Tool
	errs  []error
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add records a tool for registration. Validation problems are collected and
// surface from Build, so call sites can chain Adds without error plumbing.
func (b *Builder) Add(tool *Tool) *Builder {
	if err := tool.Validate(); err != nil {
		b.errs = append(b.errs, fmt.Errorf("invalid tool %q: %w", tool.Name, err))
		return b
	}
	b.tools = append(b.tools, tool)
	return b
}

// Build freezes the collected tools into a Registry. Duplicate names and
// invalid definitions fail the build.
func (b *Builder) Build() (*Registry, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}

	byName := make(map[string]*Tool, len(b.tools))
	for _, tool := range b.tools {
		if _, exists := byName[tool.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, tool.Name)
		}
		byName[tool.Name] = tool
		logging.ToolsDebug("registered tool: %s", tool.Name)
	}

	logging.Tools("tool registry built: %d tools", len(byName))
	return &Registry{tools: byName}, nil
}

// MustBuild is Build for static startup wiring, panicking on error.
func (b *Builder) MustBuild() *Registry {
	reg, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build tool registry: %v", err))
	}
	return reg
}

// Registry is the immutable name-to-tool lookup table. Safe for concurrent
// reads; there is no way to mutate it after Build.
type Registry struct {
	tools map[string]*Tool
}

// Get returns a tool by name, or nil if not registered.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// Has returns true if a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	return len(r.tools)
}
