// Package domain maps MCP tool calls onto the prompt engine.
//
// Each tool has a schema constructor (XxxTool) and a typed handler
// constructor (XxxHandler) so transports register them without knowing
// the engine.
package domain
