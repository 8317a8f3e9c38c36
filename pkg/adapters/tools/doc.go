// Package tools provides the tool registry and the built-in tools
// agents can be granted: web search and current time.
package tools
