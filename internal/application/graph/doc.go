// Package graph compiles node and edge lists into executable graphs and
// synthesizes the supervisor-mode star topology.
//
// Compilation is deliberately shallow: it resolves the entry point and
// adjacency and rejects only structurally unusable input (no start
// node, start without an outgoing edge, dangling edge endpoints).
// Cycles and unreachable nodes are not detected; such graphs fail at
// runtime under the engine's step caps.
package graph
