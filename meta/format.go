package meta

import "github.com/corevx-run/corevx/refs"

// virt is the sentinel format string meaning "not yet specialized",
// matching the source's VX_DF_IMAGE_VIRT convention.
const virt = "virt"

// Format carries the minimum shape/type a kernel validator infers for
// one output slot. Only the fields relevant to Kind are meaningful; the
// others are zero. This mirrors the source's tagged-union vx_meta_format
// but as a flat struct, since Go has no variant type cheap enough to
// justify the indirection here.
type Format struct {
	Kind refs.Type

	// Image
	Width, Height int
	ImageFormat   string

	// Tensor
	Dims            []int64
	DataType        string
	FixedPointPos   int

	// Array / ObjectArray
	ItemType string
	Capacity int

	// Pyramid
	Levels       int
	Scale        float64
	BaseWidth    int
	BaseHeight   int
	PyramidFormat string

	// Scalar
	ScalarType string

	// Matrix / Convolution
	Rows, Columns int
	MatrixType    string

	// Distribution
	Bins          int
	RangeMin, RangeMax int

	// Remap / Threshold / UserDataObject
	SrcWidth, SrcHeight int
	DstWidth, DstHeight int
	ThresholdType       string
	UserStructTypeCode  int
	UserStructSize      int
}

// New creates a Format of the given kind with every shape field at its
// "uninitialized"/virt sentinel, ready for a validator to fill in.
func New(kind refs.Type) *Format {
	f := &Format{Kind: kind}
	switch kind {
	case refs.TypeImage:
		f.ImageFormat = virt
	case refs.TypePyramid:
		f.PyramidFormat = virt
	}
	return f
}

// IsVirtSentinel reports whether a format/type field still holds the
// "not yet specialized" sentinel.
func IsVirtSentinel(s string) bool { return s == "" || s == virt }
