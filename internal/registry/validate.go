package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/specialistvlad/wheelforge/internal/ctxlog"
)

// Validate performs a strict parity check between each runner's declared
// inputs and its Go input struct: every declared input must have a matching
// struct field of a compatible type, and vice versa. A mismatch is a
// programmer error caught at startup, not at node execution time.
func (r *Registry) Validate(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	var errs []string

	for runnerType, h := range r.Runners {
		if h.Fn == nil {
			errs = append(errs, fmt.Sprintf("runner '%s': no handler function", runnerType))
			continue
		}
		if h.NewInput == nil {
			if len(h.Definition.Inputs) > 0 {
				errs = append(errs, fmt.Sprintf("runner '%s': declares inputs but has no input struct", runnerType))
			}
			continue
		}

		inputType := reflect.TypeOf(h.NewInput())
		if inputType.Kind() == reflect.Pointer {
			inputType = inputType.Elem()
		}

		structFields := make(map[string]reflect.StructField)
		for i := 0; i < inputType.NumField(); i++ {
			if name := fieldArgName(inputType.Field(i)); name != "" {
				structFields[name] = inputType.Field(i)
			}
		}

		for name := range structFields {
			if _, ok := h.Definition.Inputs[name]; !ok {
				errs = append(errs, fmt.Sprintf("runner '%s': struct binds input '%s' which is not declared", runnerType, name))
			}
		}
		for name, def := range h.Definition.Inputs {
			field, ok := structFields[name]
			if !ok {
				errs = append(errs, fmt.Sprintf("runner '%s': declares input '%s' with no struct field", runnerType, name))
				continue
			}

			if def.Type.Equals(cty.DynamicPseudoType) {
				logger.Warn("Runner input declared as 'any' disables static type checking.", "runner", runnerType, "input", name)
				continue
			}

			implied, err := gocty.ImpliedType(reflect.Zero(field.Type).Interface())
			if err != nil {
				errs = append(errs, fmt.Sprintf("runner '%s', input '%s': cannot imply cty type from %s: %v", runnerType, name, field.Type, err))
				continue
			}
			if !def.Type.Equals(implied) {
				errs = append(errs, fmt.Sprintf("runner '%s', input '%s': declared type '%s' does not match struct type '%s'",
					runnerType, name, def.Type.FriendlyName(), implied.FriendlyName()))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// ValidateModel checks that every job in a loaded plan references a
// registered runner type.
func (r *Registry) ValidateModel(jobRunnerTypes []string) error {
	for _, t := range jobRunnerTypes {
		if _, ok := r.Runners[t]; !ok {
			return fmt.Errorf("pipeline references unknown runner type %q", t)
		}
	}
	return nil
}
