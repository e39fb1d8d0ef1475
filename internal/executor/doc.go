// Package executor runs the execution graph with a worker pool, isolating
// matrix-job failures unless the pipeline opts into fail_fast.
package executor
