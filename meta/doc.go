// Package meta implements the Meta-format: a transient, tagged-union
// carrier for a data object's inferred shape/type, written by a
// kernel's validator during verification and compared against a bound
// reference's own shape.
package meta
