package refs

// Region is a base object plus a linear byte-range footprint, used to
// resolve "overlap through sub-object relations": an
// ROI resolves to a rectangle on its base image, a pyramid level
// matches its pyramid, tensor views overlap iff every dimension
// interval overlaps. A Region collapses those per-kind geometries to a
// single linear range over the base object's byte extent, which is
// sufficient to decide overlap without modeling each data kind's shape.
type Region struct {
	Base  Handle
	Start int64
	End   int64
}

// WholeObject returns a Region denoting the entire base object: it
// overlaps with any other region sharing the same Base.
func WholeObject(base Handle) Region {
	return Region{Base: base}
}

func (r Region) isWhole() bool { return r.Start == 0 && r.End == 0 }

// Overlaps reports whether r and o touch the same base object at
// overlapping byte ranges.
func (r Region) Overlaps(o Region) bool {
	if r.Base != o.Base {
		return false
	}
	if r.isWhole() || o.isWhole() {
		return true
	}
	return r.Start < o.End && o.Start < r.End
}

// ResolveRegion walks a reference's Parent chain to find its effective
// overlap region. A reference with no Parent and no explicit region is
// treated as the whole of its own handle.
func ResolveRegion(ref *Reference) Region {
	if ref == nil {
		return Region{}
	}
	if ref.Parent == nil {
		if ref.region.Base.IsNil() {
			return WholeObject(ref.Self)
		}
		return ref.region
	}

	parentRegion := ResolveRegion(ref.Parent)
	if ref.region.isWhole() && ref.region.Base.IsNil() {
		return parentRegion
	}
	// A sub-object's region is expressed in the parent's base.
	return Region{Base: parentRegion.Base, Start: ref.region.Start, End: ref.region.End}
}
