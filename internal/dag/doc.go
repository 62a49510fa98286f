// Package dag schedules work with dependencies between items. A Graph holds
// the dependency edges; an Executor runs a task per node on a bounded pool
// of workers, starting a node only once everything it depends on has
// succeeded.
//
// When a node fails, the run is cancelled, every node downstream of it is
// marked skipped, and Run reports the first failure that was not itself a
// consequence of another.
package dag
