package dispatch

import "github.com/atlas-lang/atlas/internal/value"

// TagForValueKind maps a runtime value.Kind to the TypeTag its method
// table is keyed on, mirroring internal/typecheck's dispatchTag (which
// does the same mapping statically, off a types.Type). Both engines
// call this at an OpCallMethod/method-call site to turn a concrete
// receiver into the tag Resolve expects.
func TagForValueKind(k value.Kind) (TypeTag, bool) {
	switch k {
	case value.KindArray:
		return TagArray, true
	case value.KindObject:
		return TagObject, true
	case value.KindString:
		return TagString, true
	case value.KindOption:
		return TagOption, true
	case value.KindResult:
		return TagResult, true
	default:
		return 0, false
	}
}
