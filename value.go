// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

package fault

import (
	"strconv"

	"github.com/pkg/errors"
)

// MaxWidth is the widest bit-vector supported by the framework.
const MaxWidth = 64

// A Value is a fixed-width bit vector. The zero Value has width 0 and marks
// "no value" in reports.
type Value struct {
	bits  uint64
	width int
}

// NewValue returns a Value of the given width. It fails with ErrWidthMismatch
// if bits does not fit in width bits, or if width is outside 1..MaxWidth.
func NewValue(bits uint64, width int) (Value, error) {
	if width < 1 || width > MaxWidth {
		return Value{}, errors.Wrapf(ErrWidthMismatch, "invalid width %d", width)
	}
	if bits&^Mask(width) != 0 {
		return Value{}, errors.Wrapf(ErrWidthMismatch, "value %d does not fit in %d bits", bits, width)
	}
	return Value{bits: bits, width: width}, nil
}

// MustValue is like NewValue but panics on error. Intended for constants in
// tests and reference code.
func MustValue(bits uint64, width int) Value {
	v, err := NewValue(bits, width)
	if err != nil {
		panic(err)
	}
	return v
}

// Mask returns a mask covering the low width bits.
func Mask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(width) - 1
}

// Bits returns the value's bits.
func (v Value) Bits() uint64 { return v.bits }

// Width returns the value's width in bits. A width of 0 means "no value".
func (v Value) Width() int { return v.width }

// IsZero reports whether v is the zero Value (no value, not the number 0).
func (v Value) IsZero() bool { return v.width == 0 }

// Equal reports whether v and o have the same width and bits.
func (v Value) Equal(o Value) bool { return v.width == o.width && v.bits == o.bits }

// String formats v as a Verilog-style sized literal, e.g. "16'd42".
func (v Value) String() string {
	if v.width == 0 {
		return "<none>"
	}
	return strconv.Itoa(v.width) + "'d" + strconv.FormatUint(v.bits, 10)
}
