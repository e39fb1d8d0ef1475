package registry

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/specialistvlad/wheelforge/internal/config"
)

// DecodeInput populates a runner's input struct from evaluated argument
// values, applying declared defaults and rejecting undeclared arguments.
func DecodeInput(def *config.RunnerDefinition, args map[string]cty.Value, input any) error {
	for name := range args {
		if _, ok := def.Inputs[name]; !ok {
			return fmt.Errorf("runner %q: undeclared argument %q", def.Type, name)
		}
	}

	merged := make(map[string]cty.Value, len(def.Inputs))
	for name, in := range def.Inputs {
		if v, ok := args[name]; ok {
			merged[name] = v
			continue
		}
		if in.Default != nil {
			merged[name] = *in.Default
		}
	}

	rv := reflect.ValueOf(input)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("runner %q: input must be a pointer to struct, got %T", def.Type, input)
	}
	sv := rv.Elem()
	st := sv.Type()

	for i := 0; i < st.NumField(); i++ {
		field := st.Field(i)
		name := fieldArgName(field)
		if name == "" {
			continue
		}
		val, ok := merged[name]
		if !ok || val.IsNull() {
			continue
		}

		want, err := gocty.ImpliedType(sv.Field(i).Interface())
		if err != nil {
			return fmt.Errorf("runner %q: field %s has unsupported type: %w", def.Type, field.Name, err)
		}
		converted, err := convert.Convert(val, want)
		if err != nil {
			return fmt.Errorf("runner %q: argument %q: %w", def.Type, name, err)
		}
		if err := gocty.FromCtyValue(converted, sv.Field(i).Addr().Interface()); err != nil {
			return fmt.Errorf("runner %q: argument %q: %w", def.Type, name, err)
		}
	}

	return nil
}

// fieldArgName extracts the argument name from an input struct field's cty
// tag. Untagged or "-" fields are not bound to arguments.
func fieldArgName(field reflect.StructField) string {
	if !field.IsExported() {
		return ""
	}
	tag := field.Tag.Get("cty")
	name := strings.Split(tag, ",")[0]
	if name == "-" {
		return ""
	}
	return name
}
