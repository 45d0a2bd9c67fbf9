package registry

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Argument decoding helpers shared by the core modules. Task arguments
// arrive as a cty object; missing attributes fall back to defaults so grid
// files stay terse.

// attrValue returns the named attribute, or cty.NilVal if absent.
func attrValue(args cty.Value, name string) cty.Value {
	if args.IsNull() || !args.Type().IsObjectType() || !args.Type().HasAttribute(name) {
		return cty.NilVal
	}
	return args.GetAttr(name)
}

// attrString decodes a string attribute with a default.
func attrString(args cty.Value, name, def string) (string, error) {
	v := attrValue(args, name)
	if v == cty.NilVal || v.IsNull() {
		return def, nil
	}
	var s string
	if err := gocty.FromCtyValue(v, &s); err != nil {
		return "", fmt.Errorf("argument %q: %w", name, err)
	}
	return s, nil
}

// attrInt decodes an integer attribute with a default.
func attrInt(args cty.Value, name string, def int64) (int64, error) {
	v := attrValue(args, name)
	if v == cty.NilVal || v.IsNull() {
		return def, nil
	}
	var n int64
	if err := gocty.FromCtyValue(v, &n); err != nil {
		return 0, fmt.Errorf("argument %q: %w", name, err)
	}
	return n, nil
}

// attrNumberList decodes a list/tuple-of-numbers attribute.
func attrNumberList(args cty.Value, name string) ([]float64, error) {
	v := attrValue(args, name)
	if v == cty.NilVal || v.IsNull() {
		return nil, nil
	}
	if !v.CanIterateElements() {
		return nil, fmt.Errorf("argument %q: not a list", name)
	}
	var out []float64
	for it := v.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		var f float64
		if err := gocty.FromCtyValue(ev, &f); err != nil {
			return nil, fmt.Errorf("argument %q: %w", name, err)
		}
		out = append(out, f)
	}
	return out, nil
}
