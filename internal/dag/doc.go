// Package dag builds and validates the execution graph for a pipeline run:
// one node per expanded job instance plus the release stage, with
// depends_on edges and cycle detection.
package dag
