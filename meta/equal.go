package meta

// Equal implements the structural equality predicate used both during
// output post-processing and by the pipelining scheduler's rule that
// every reference in a queue must be meta-equal. Two formats of
// different Kind are never equal.
func Equal(a, b *Format) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}

	switch {
	case isImage(a.Kind):
		return a.Width == b.Width && a.Height == b.Height && imageFormatEqual(a.ImageFormat, b.ImageFormat)
	case isTensor(a.Kind):
		return dimsEqual(a.Dims, b.Dims) && a.DataType == b.DataType && a.FixedPointPos == b.FixedPointPos
	case isArray(a.Kind):
		return a.ItemType == b.ItemType && a.Capacity == b.Capacity
	case isPyramid(a.Kind):
		return a.Levels == b.Levels && a.Scale == b.Scale &&
			imageFormatEqual(a.PyramidFormat, b.PyramidFormat) &&
			a.BaseWidth == b.BaseWidth && a.BaseHeight == b.BaseHeight
	case isScalar(a.Kind):
		return a.ScalarType == b.ScalarType
	case isMatrix(a.Kind):
		return a.Rows == b.Rows && a.Columns == b.Columns && a.MatrixType == b.MatrixType
	case isDistribution(a.Kind):
		return a.Bins == b.Bins && a.RangeMin == b.RangeMin && a.RangeMax == b.RangeMax
	case isRemap(a.Kind):
		return a.SrcWidth == b.SrcWidth && a.SrcHeight == b.SrcHeight &&
			a.DstWidth == b.DstWidth && a.DstHeight == b.DstHeight
	case isThreshold(a.Kind):
		return a.ThresholdType == b.ThresholdType
	case isUserDataObject(a.Kind):
		return a.UserStructTypeCode == b.UserStructTypeCode && a.UserStructSize == b.UserStructSize
	default:
		return true
	}
}

func imageFormatEqual(a, b string) bool {
	if IsVirtSentinel(a) || IsVirtSentinel(b) {
		return true
	}
	return a == b
}

func dimsEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
