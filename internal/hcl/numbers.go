package hcl

import (
	"fmt"
	"strconv"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// decodeUint32 evaluates expr as a 32-bit register number. It reports false
// when the attribute was omitted.
func decodeUint32(expr hcl.Expression) (uint32, bool, hcl.Diagnostics) {
	if expr == nil {
		return 0, false, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return 0, false, diags
	}
	if val.IsNull() {
		return 0, false, nil
	}
	n, err := ctyToUint32(val)
	if err != nil {
		return 0, false, invalidNumber(expr.Range(), err)
	}
	return n, true, nil
}

// decodeUint32List evaluates expr as a list of register numbers.
func decodeUint32List(expr hcl.Expression) ([]uint32, hcl.Diagnostics) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.CanIterateElements() {
		return nil, invalidNumber(expr.Range(), fmt.Errorf("expected a list, got %s", val.Type().FriendlyName()))
	}

	var out []uint32
	for it := val.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		n, err := ctyToUint32(elem)
		if err != nil {
			return nil, invalidNumber(expr.Range(), err)
		}
		out = append(out, n)
	}
	return out, nil
}

// ctyToUint32 accepts a cty number or a string in any Go integer base syntax.
func ctyToUint32(val cty.Value) (uint32, error) {
	if !val.IsKnown() || val.IsNull() {
		return 0, fmt.Errorf("value must be known and not null")
	}
	if val.Type() == cty.String {
		n, err := strconv.ParseUint(val.AsString(), 0, 32)
		if err != nil {
			return 0, err
		}
		return uint32(n), nil
	}

	num, err := convert.Convert(val, cty.Number)
	if err != nil {
		return 0, err
	}
	var n uint32
	if err := gocty.FromCtyValue(num, &n); err != nil {
		return 0, err
	}
	return n, nil
}

func parseAddress(s string, rng hcl.Range) (uint32, hcl.Diagnostics) {
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, invalidNumber(rng, err)
	}
	return uint32(n), nil
}

func invalidNumber(rng hcl.Range, err error) hcl.Diagnostics {
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Invalid register number",
		Detail:   err.Error(),
		Subject:  rng.Ptr(),
	}}
}
