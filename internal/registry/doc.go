// Package registry holds the runner handlers compiled into the binary and
// validates their declared contracts against their Go input structs.
package registry
