// Package workers bounds run concurrency. Each in-flight run holds one
// slot of a fixed-size pool; callers block in Acquire until a slot
// frees or their context ends.
//
// The health monitor periodically records slot occupancy metrics and
// warns when the pool saturates.
package workers
