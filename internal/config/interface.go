package config

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Loader turns configuration files into a Model. The concrete implementation
// lives in the hcl package; everything downstream depends only on the Model.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// ArgSource defers evaluation of a job's arguments until matrix expansion,
// when the per-instance variables (matrix.*, job.*) are known.
type ArgSource interface {
	Eval(vars map[string]cty.Value) (map[string]cty.Value, error)
}

// StaticArgs is an ArgSource with pre-evaluated values, used by defaults and
// tests.
type StaticArgs map[string]cty.Value

// Eval implements ArgSource.
func (s StaticArgs) Eval(map[string]cty.Value) (map[string]cty.Value, error) {
	out := make(map[string]cty.Value, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out, nil
}
