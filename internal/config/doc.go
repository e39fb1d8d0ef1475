// Package config defines the format-agnostic pipeline model and the Loader
// contract that configuration front-ends implement.
package config
