// Package pipeline runs the concurrent file scan.
//
// A scan is made of three stages connected by channels:
//
//	Enumerate -> queue -> workers (Task.Run) -> outcomes
//
// Enumerate turns input paths into a flat sequence of targets, walking
// directories recursively. The queue between enumeration and the workers
// is unbounded, so a slow network call never stalls enumeration. A fixed
// number of workers (one per available CPU by default) run one Task per
// target and publish outcomes in completion order.
//
// Cancellation is cooperative. Any task that hits a fatal condition sets
// the run's Token; from then on no new task does meaningful work and
// enumeration stops, but requests already in flight are allowed to finish.
// Targets that were discovered but never produced an outcome are listed in
// the run Summary as dropped.
package pipeline
