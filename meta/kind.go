package meta

import "github.com/corevx-run/corevx/refs"

func isImage(k refs.Type) bool          { return k == refs.TypeImage }
func isTensor(k refs.Type) bool         { return k == refs.TypeTensor }
func isArray(k refs.Type) bool          { return k == refs.TypeArray || k == refs.TypeObjectArray || k == refs.TypeLUT }
func isPyramid(k refs.Type) bool        { return k == refs.TypePyramid }
func isScalar(k refs.Type) bool         { return k == refs.TypeScalar }
func isMatrix(k refs.Type) bool         { return k == refs.TypeMatrix || k == refs.TypeConvolution }
func isDistribution(k refs.Type) bool   { return k == refs.TypeDistribution }
func isRemap(k refs.Type) bool          { return k == refs.TypeRemap }
func isThreshold(k refs.Type) bool      { return k == refs.TypeThreshold }
func isUserDataObject(k refs.Type) bool { return k == refs.TypeUserDataObject }
