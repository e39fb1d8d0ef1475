// Package hcl loads pipeline definitions written in HCL and translates them
// into the format-agnostic config model.
package hcl
