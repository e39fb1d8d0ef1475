package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// bodyArgs is the HCL-backed config.ArgSource. It holds the raw arguments
// block and evaluates its attribute expressions once the instance variables
// (matrix.*, job.*) are known.
type bodyArgs struct {
	body hcl.Body
}

// Eval evaluates every attribute of the arguments block against the given
// variables. Unknown variable references surface as evaluation errors.
func (a *bodyArgs) Eval(vars map[string]cty.Value) (map[string]cty.Value, error) {
	attrs, diags := a.body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid arguments block: %w", diags)
	}

	evalCtx := &hcl.EvalContext{Variables: vars}
	out := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("argument %q: %w", name, diags)
		}
		out[name] = val
	}
	return out, nil
}
