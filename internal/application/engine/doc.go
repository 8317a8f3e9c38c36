// Package engine walks an executable graph for one run: it invokes
// node capabilities sequentially, threads the message list along edges,
// enforces per-mode step caps, and emits the raw internal signal stream
// consumed by the stream normalizer.
//
// The engine never talks to callers directly. Its output is the signal
// channel; everything externally visible is produced downstream by the
// normalizer.
package engine
