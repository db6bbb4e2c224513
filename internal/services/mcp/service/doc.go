// Package service hosts the promptforge MCP server.
//
// Tools are registered in named modules so stdio and HTTP transports serve
// the same handler set. The engine is loaded once per process and shared by
// every session.
package service
