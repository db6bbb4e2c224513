package service

import (
	"fmt"

	"github.com/louisbranch/promptforge/internal/core/engine"
	"github.com/louisbranch/promptforge/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	mcpPromptToolsModuleName  = "prompt-tools"
	mcpCatalogToolsModuleName = "catalog-tools"
)

type mcpRegistrationTarget interface {
	AddTool(*mcp.Tool, any) error
}

type mcpRegistrationModule struct {
	name     string
	register func(mcpRegistrationTarget) error
}

type mcpServerRegistrationAdapter struct {
	server *mcp.Server
}

func (r mcpServerRegistrationAdapter) AddTool(tool *mcp.Tool, handler any) error {
	return addMCPTool(r.server, tool, handler)
}

type mcpToolRegistrar struct {
	matches func(any) bool
	add     func(*mcp.Server, *mcp.Tool, any)
}

func newMCPToolRegistrar[I any, O any]() mcpToolRegistrar {
	return mcpToolRegistrar{
		matches: func(handler any) bool {
			_, ok := handler.(mcp.ToolHandlerFor[I, O])
			return ok
		},
		add: func(server *mcp.Server, tool *mcp.Tool, handler any) {
			mcp.AddTool(server, tool, handler.(mcp.ToolHandlerFor[I, O]))
		},
	}
}

var mcpToolRegistrars = []mcpToolRegistrar{
	newMCPToolRegistrar[domain.RandomizeInput, domain.RandomizeResult](),
	newMCPToolRegistrar[domain.GenerateInput, domain.GenerateResult](),
	newMCPToolRegistrar[domain.AssembleInput, domain.AssembleResult](),
	newMCPToolRegistrar[domain.ParseInput, domain.ParseResult](),
	newMCPToolRegistrar[domain.CatalogInput, domain.SlotsResult](),
	newMCPToolRegistrar[domain.CatalogInput, domain.PalettesResult](),
}

func addMCPTool(server *mcp.Server, tool *mcp.Tool, handler any) error {
	for _, registrar := range mcpToolRegistrars {
		if registrar.matches(handler) {
			registrar.add(server, tool, handler)
			return nil
		}
	}
	toolName := "<nil>"
	if tool != nil {
		toolName = tool.Name
	}
	return fmt.Errorf("mcp registration adapter does not support handler type %T for tool %q", handler, toolName)
}

func newMCPRegistrationModules(eng *engine.Engine, defaults domain.Defaults) []mcpRegistrationModule {
	return []mcpRegistrationModule{
		{
			name: mcpPromptToolsModuleName,
			register: func(registrar mcpRegistrationTarget) error {
				return registerPromptTools(registrar, eng, defaults)
			},
		},
		{
			name: mcpCatalogToolsModuleName,
			register: func(registrar mcpRegistrationTarget) error {
				return registerCatalogTools(registrar, eng, defaults)
			},
		},
	}
}

type toolRegistration struct {
	tool    *mcp.Tool
	handler any
}

func registerPromptTools(registrar mcpRegistrationTarget, eng *engine.Engine, defaults domain.Defaults) error {
	return registerTools(registrar, []toolRegistration{
		{tool: domain.RandomizeTool(), handler: domain.RandomizeHandler(eng)},
		{tool: domain.RandomizeAllTool(), handler: domain.RandomizeAllHandler(eng)},
		{tool: domain.GenerateTool(), handler: domain.GenerateHandler(eng, defaults)},
		{tool: domain.AssembleTool(), handler: domain.AssembleHandler(eng, defaults)},
		{tool: domain.ParseTool(), handler: domain.ParseHandler(eng)},
	})
}

func registerCatalogTools(registrar mcpRegistrationTarget, eng *engine.Engine, defaults domain.Defaults) error {
	return registerTools(registrar, []toolRegistration{
		{tool: domain.SlotsTool(), handler: domain.SlotsHandler(eng, defaults)},
		{tool: domain.PalettesTool(), handler: domain.PalettesHandler(eng, defaults)},
	})
}

func registerTools(registrar mcpRegistrationTarget, registrations []toolRegistration) error {
	for _, registration := range registrations {
		if err := registrar.AddTool(registration.tool, registration.handler); err != nil {
			return err
		}
	}
	return nil
}
