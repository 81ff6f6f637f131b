// Package mcp exposes the simulation over the Model Context Protocol
// so an agent can inspect templates, step the world, and read entity
// state through stdio JSON-RPC.
package mcp

import (
	"context"
	"fmt"
	"sync"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"automaton/internal/asset"
	"automaton/internal/logging"
	"automaton/internal/sim"
	"automaton/pkg/engine"
)

// Server wraps the MCP SDK server around a live world.
type Server struct {
	MCPServer *sdkmcp.Server

	mu       sync.Mutex
	world    *sim.World
	registry *engine.Registry
	cache    *asset.Cache
}

// NewServer creates an MCP server exposing the given world. The cache
// should be the same one the world loads templates through, so
// inspection and execution see identical graphs.
func NewServer(world *sim.World, registry *engine.Registry, cache *asset.Cache) *Server {
	s := &Server{world: world, registry: registry, cache: cache}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "automaton", Version: "dev"},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_tasks",
		Description: "List the task identifiers registered with the engine.",
	}, s.handleListTasks)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "load_template",
		Description: "Load and validate a task-graph template file. Returns a summary; composites are already compiled to flat transitions.",
	}, s.handleLoadTemplate)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "inspect_template",
		Description: "Return the full node table and variable declarations of a loaded template.",
	}, s.handleInspectTemplate)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "step_world",
		Description: "Advance the simulation by a number of ticks and report progress.",
	}, s.handleStepWorld)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_entity",
		Description: "Read one entity's execution state: cursor, timers, last status, and blackboard values.",
	}, s.handleGetEntity)
}

// --- Tool input/output types ---

type listTasksInput struct{}

type listTasksOutput struct {
	Tasks []string `json:"tasks"`
}

type loadTemplateInput struct {
	Path string `json:"path" jsonschema:"template file path (.json, .yaml)"`
}

type loadTemplateOutput struct {
	Name      string `json:"name"`
	Root      string `json:"root"`
	Nodes     int    `json:"nodes"`
	Variables int    `json:"variables"`
}

type inspectTemplateInput struct {
	Path string `json:"path" jsonschema:"template file path (.json, .yaml)"`
}

type nodeInfo struct {
	ID        string            `json:"id"`
	Task      string            `json:"task"`
	Params    map[string]string `json:"params,omitempty"`
	OnSuccess string            `json:"on_success"`
	OnFailure string            `json:"on_failure"`
}

type variableInfo struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default string `json:"default"`
}

type inspectTemplateOutput struct {
	Name      string         `json:"name"`
	Root      string         `json:"root"`
	Nodes     []nodeInfo     `json:"nodes"`
	Variables []variableInfo `json:"variables"`
}

type stepWorldInput struct {
	Ticks int     `json:"ticks,omitempty" jsonschema:"ticks to advance (default 1)"`
	DT    float64 `json:"dt,omitempty" jsonschema:"seconds per tick (default: scenario rate)"`
}

type stepWorldOutput struct {
	TicksRun   int  `json:"ticks_run"`
	TotalTicks int  `json:"total_ticks"`
	Finished   bool `json:"finished"`
}

type getEntityInput struct {
	Entity uint64 `json:"entity" jsonschema:"entity id"`
}

type getEntityOutput struct {
	Entity     uint64            `json:"entity"`
	Template   string            `json:"template"`
	Current    string            `json:"current"`
	Elapsed    float64           `json:"elapsed"`
	LastStatus string            `json:"last_status"`
	Running    bool              `json:"running"`
	Finished   bool              `json:"finished"`
	Variables  map[string]string `json:"variables"`
}

// --- Tool handlers ---

func (s *Server) handleListTasks(ctx context.Context, _ *sdkmcp.CallToolRequest, _ listTasksInput) (*sdkmcp.CallToolResult, listTasksOutput, error) {
	return nil, listTasksOutput{Tasks: s.registry.TaskIDs()}, nil
}

func (s *Server) handleLoadTemplate(ctx context.Context, _ *sdkmcp.CallToolRequest, input loadTemplateInput) (*sdkmcp.CallToolResult, loadTemplateOutput, error) {
	tmpl, err := s.loadTemplate(input.Path)
	if err != nil {
		return nil, loadTemplateOutput{}, err
	}
	return nil, loadTemplateOutput{
		Name:      tmpl.Name,
		Root:      string(tmpl.RootNode),
		Nodes:     len(tmpl.Nodes),
		Variables: len(tmpl.Variables),
	}, nil
}

func (s *Server) handleInspectTemplate(ctx context.Context, _ *sdkmcp.CallToolRequest, input inspectTemplateInput) (*sdkmcp.CallToolResult, inspectTemplateOutput, error) {
	tmpl, err := s.loadTemplate(input.Path)
	if err != nil {
		return nil, inspectTemplateOutput{}, err
	}

	out := inspectTemplateOutput{
		Name: tmpl.Name,
		Root: string(tmpl.RootNode),
	}
	for _, n := range tmpl.Nodes {
		info := nodeInfo{
			ID:        string(n.ID),
			Task:      n.TaskID,
			OnSuccess: string(n.NextOnSuccess),
			OnFailure: string(n.NextOnFailure),
		}
		if len(n.Params) > 0 {
			info.Params = make(map[string]string, len(n.Params))
			for key, binding := range n.Params {
				if binding.IsVariable() {
					info.Params[key] = "$" + binding.FromVariable
				} else {
					info.Params[key] = binding.Literal.String()
				}
			}
		}
		out.Nodes = append(out.Nodes, info)
	}
	for _, v := range tmpl.Variables {
		out.Variables = append(out.Variables, variableInfo{
			Name:    v.Name,
			Type:    v.Type.String(),
			Default: v.Default.String(),
		})
	}
	return nil, out, nil
}

func (s *Server) handleStepWorld(ctx context.Context, _ *sdkmcp.CallToolRequest, input stepWorldInput) (*sdkmcp.CallToolResult, stepWorldOutput, error) {
	if s.world == nil {
		return nil, stepWorldOutput{}, fmt.Errorf("no world loaded")
	}
	ticks := input.Ticks
	if ticks <= 0 {
		ticks = 1
	}
	dt := input.DT
	if dt <= 0 {
		dt = s.world.DT()
	}
	for i := 0; i < ticks; i++ {
		s.world.Step(dt)
	}
	return nil, stepWorldOutput{
		TicksRun:   ticks,
		TotalTicks: s.world.Ticks(),
		Finished:   s.world.Finished(),
	}, nil
}

func (s *Server) handleGetEntity(ctx context.Context, _ *sdkmcp.CallToolRequest, input getEntityInput) (*sdkmcp.CallToolResult, getEntityOutput, error) {
	if s.world == nil {
		return nil, getEntityOutput{}, fmt.Errorf("no world loaded")
	}
	r, ok := s.world.Runner(engine.EntityRef(input.Entity))
	if !ok {
		return nil, getEntityOutput{}, fmt.Errorf("unknown entity %d", input.Entity)
	}

	out := getEntityOutput{
		Entity:     input.Entity,
		Template:   r.TemplatePath,
		Current:    string(r.Current),
		Elapsed:    r.Elapsed,
		LastStatus: r.LastStatus.String(),
		Running:    r.HasActiveTask(),
		Finished:   r.Finished(),
		Variables:  make(map[string]string),
	}
	for name, v := range r.Blackboard.Snapshot() {
		out.Variables[name] = v.String()
	}
	return nil, out, nil
}

func (s *Server) loadTemplate(path string) (*engine.Template, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	h, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	tmpl, _ := s.cache.Get(h)
	return tmpl, nil
}

// Run serves the MCP protocol on stdio until ctx is cancelled or the
// client disconnects.
func (s *Server) Run(ctx context.Context) error {
	log := logging.New("mcp")
	log.Info("mcp server listening on stdio")
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}
