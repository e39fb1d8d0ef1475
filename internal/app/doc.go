// Package app wires the application together: configuration, logging, the
// runner registry, and the run lifecycle from trigger check to report.
package app
