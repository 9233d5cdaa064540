package metadata

import "objcmeta/internal/clang"

// describeType builds the descriptor of t. Element and pointee types are
// expanded; record fields never are, so the recursion follows the syntax of
// the type and terminates for self-referential records.
func describeType(t clang.Type) TypeDescriptor {
	if t == nil {
		return TypeDescriptor{Kind: clang.TypeInvalid, CanonicalKind: clang.TypeInvalid}
	}

	desc := TypeDescriptor{
		Name: t.Spelling(),
		Kind: t.Kind(),
		Size: t.SizeOf(),
	}

	canonical := t.Canonical()
	if canonical == nil {
		canonical = t
	}
	desc.Canonical = canonical.Spelling()
	desc.CanonicalKind = canonical.Kind()

	if elem := t.ElementType(); elem != nil {
		d := describeType(elem)
		desc.ElementType = &d
	}
	if n := t.ArraySize(); n >= 0 {
		desc.ArraySize = &n
	}

	pointee := t.PointeeType()
	if pointee != nil {
		d := describeType(pointee)
		desc.PointeeType = &d
	}

	if desc.CanonicalKind == clang.TypeBlockPointer {
		// Sugared block types (typedefs) may expose the signature only through
		// the canonical pointee.
		if pointee == nil || pointee.NumArgTypes() < 0 {
			if cp := canonical.PointeeType(); cp != nil {
				pointee = cp
			}
		}
		if pointee != nil {
			desc.Block = describeBlock(pointee)
		}
	}

	return desc
}

func describeBlock(fn clang.Type) *BlockSignature {
	sig := &BlockSignature{Parameters: []TypeDescriptor{}}
	if rt := fn.ResultType(); rt != nil {
		d := describeType(rt)
		sig.ReturnType = &d
	}
	for i := 0; i < fn.NumArgTypes(); i++ {
		sig.Parameters = append(sig.Parameters, describeType(fn.ArgType(i)))
	}
	return sig
}
