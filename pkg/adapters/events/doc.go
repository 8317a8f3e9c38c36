// Package events provides protocol event bus implementations.
//
// Implementations:
//   - redis: Redis Streams with consumer groups
//   - memory: In-process fan-out for testing and single-node deployments
package events
