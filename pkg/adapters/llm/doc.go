// Package llm provides language-model client implementations.
//
// The factory creates clients by provider name:
//   - anthropic: Claude via the official SDK, streaming and structured
//     output through forced tool use
//   - fake: scripted client for tests and offline development
package llm
