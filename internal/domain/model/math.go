package model

import "math"

// Checked arithmetic helpers. Balance and counter updates are never allowed
// to wrap silently; overflow surfaces as ErrArithmeticOverflow.

func CheckedAddU64(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrArithmeticOverflow
	}
	return a + b, nil
}

func CheckedSubU64(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrArithmeticOverflow
	}
	return a - b, nil
}

func CheckedAddU16(a, b uint16) (uint16, error) {
	if a > math.MaxUint16-b {
		return 0, ErrArithmeticOverflow
	}
	return a + b, nil
}

func CheckedAddI64(a, b int64) (int64, error) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, ErrArithmeticOverflow
	}
	if b < 0 && a < math.MinInt64-b {
		return 0, ErrArithmeticOverflow
	}
	return a + b, nil
}
