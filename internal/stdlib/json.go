package stdlib

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/atlas-lang/atlas/internal/diag"
	"github.com/atlas-lang/atlas/internal/security"
	"github.com/atlas-lang/atlas/internal/span"
	"github.com/atlas-lang/atlas/internal/value"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// json_parse/json_stringify/json_get/json_set (SPEC_FULL.md §4.10):
// json_parse and json_get read through gjson, the library the pack's
// other repos reach for whenever they need ad hoc JSON traversal
// without declaring a matching Go struct; json_set writes through
// sjson, gjson's companion for in-place path writes, the same pairing
// the pack uses them as. json_stringify has no gjson/sjson counterpart
// (both are path libraries, not tree encoders), so it walks a
// value.Value tree by hand into a deterministic JSON string.

func builtinJSONParse(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	s, diagErr := asString(args[0], sp, "json_parse argument")
	if diagErr != nil {
		return nil, diagErr
	}
	if !gjson.Valid(s) {
		return nil, diag.New(diag.ErrRuntimeType, "json_parse: invalid JSON", sp)
	}
	return gjsonToValue(gjson.Parse(s)), nil
}

func gjsonToValue(r gjson.Result) value.Value {
	switch r.Type {
	case gjson.Null:
		return value.TheNull
	case gjson.False:
		return value.Bool(false)
	case gjson.True:
		return value.Bool(true)
	case gjson.Number:
		return value.Number(r.Num)
	case gjson.String:
		return value.String(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			var elems []value.Value
			r.ForEach(func(_, v gjson.Result) bool {
				elems = append(elems, gjsonToValue(v))
				return true
			})
			return value.NewArray(elems)
		}
		obj := value.NewObject()
		r.ForEach(func(k, v gjson.Result) bool {
			obj.Set(k.String(), gjsonToValue(v))
			return true
		})
		return obj
	default:
		return value.TheNull
	}
}

func builtinJSONGet(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	s, diagErr := asString(args[0], sp, "json_get subject")
	if diagErr != nil {
		return nil, diagErr
	}
	path, diagErr := asString(args[1], sp, "json_get path")
	if diagErr != nil {
		return nil, diagErr
	}
	r := gjson.Get(s, path)
	if !r.Exists() {
		return value.None(), nil
	}
	return value.Some(gjsonToValue(r)), nil
}

func builtinJSONSet(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	s, diagErr := asString(args[0], sp, "json_set subject")
	if diagErr != nil {
		return nil, diagErr
	}
	path, diagErr := asString(args[1], sp, "json_set path")
	if diagErr != nil {
		return nil, diagErr
	}
	out, err := sjson.Set(s, path, valueToPlain(args[2]))
	if err != nil {
		return nil, diag.New(diag.ErrRuntimeType, "json_set: "+err.Error(), sp)
	}
	return value.String(out), nil
}

// valueToPlain strips a value.Value down to the plain Go types sjson.Set
// knows how to marshal.
func valueToPlain(v value.Value) any {
	switch x := v.(type) {
	case value.Number:
		return float64(x)
	case value.String:
		return string(x)
	case value.Bool:
		return bool(x)
	case value.Null:
		return nil
	case *value.Array:
		out := make([]any, len(x.Elems))
		for i, e := range x.Elems {
			out[i] = valueToPlain(e)
		}
		return out
	case *value.Object:
		out := make(map[string]any, x.Len())
		for _, k := range x.Keys() {
			ev, _ := x.Get(k)
			out[k] = valueToPlain(ev)
		}
		return out
	default:
		return v.String()
	}
}

func builtinJSONStringify(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	var b strings.Builder
	if err := encodeJSON(&b, args[0], sp); err != nil {
		return nil, err
	}
	return value.String(b.String()), nil
}

func encodeJSON(b *strings.Builder, v value.Value, sp span.Span) *diag.Diagnostic {
	switch x := v.(type) {
	case value.Number:
		b.WriteString(strconv.FormatFloat(float64(x), 'g', -1, 64))
	case value.String:
		b.WriteString(strconv.Quote(string(x)))
	case value.Bool:
		if x {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case value.Null:
		b.WriteString("null")
	case *value.Array:
		b.WriteByte('[')
		for i, e := range x.Elems {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := encodeJSON(b, e, sp); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case *value.Object:
		keys := x.Keys()
		sort.Strings(keys) // deterministic output (spec.md §6)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(k))
			b.WriteByte(':')
			ev, _ := x.Get(k)
			if err := encodeJSON(b, ev, sp); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		return typeErr(sp, "json_stringify: cannot encode a %s", v.Kind())
	}
	return nil
}
