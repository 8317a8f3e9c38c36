// Package storage provides conversation store implementations.
//
// Implementations:
//   - redis: Redis lists with JSON serialization and TTL
//   - memory: In-memory for testing and single-process deployments
package storage
