// Package stream normalizes the engine's raw signal stream into the
// protocol event stream. Raw signals are noisy: token deltas may be a
// textual rehearsal of tool-call arguments, tool-call fragments may be
// duplicated, inline markup may encode tool calls inside text, and
// nested model/tool loops interleave. The normalizer buffers text per
// model turn, resolves each buffer to content or reasoning, dedups
// tool calls by id, and guarantees well-formed pairing of every
// emitted span.
//
// All state is scoped to one run; a Normalizer is never shared.
package stream
