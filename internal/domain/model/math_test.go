package model_test

import (
	"errors"
	"math"
	"testing"

	"github.com/namay10/DcaVault/internal/domain/model"
)

func TestCheckedAddU64(t *testing.T) {
	if v, err := model.CheckedAddU64(1, 2); err != nil || v != 3 {
		t.Errorf("expected 3, got %d (%v)", v, err)
	}
	if _, err := model.CheckedAddU64(math.MaxUint64, 1); !errors.Is(err, model.ErrArithmeticOverflow) {
		t.Errorf("expected overflow, got %v", err)
	}
	if v, err := model.CheckedAddU64(math.MaxUint64, 0); err != nil || v != math.MaxUint64 {
		t.Errorf("expected max value, got %d (%v)", v, err)
	}
}

func TestCheckedSubU64(t *testing.T) {
	if v, err := model.CheckedSubU64(5, 3); err != nil || v != 2 {
		t.Errorf("expected 2, got %d (%v)", v, err)
	}
	if _, err := model.CheckedSubU64(3, 5); !errors.Is(err, model.ErrArithmeticOverflow) {
		t.Errorf("expected underflow, got %v", err)
	}
	if v, err := model.CheckedSubU64(5, 5); err != nil || v != 0 {
		t.Errorf("expected 0, got %d (%v)", v, err)
	}
}

func TestCheckedAddU16(t *testing.T) {
	if v, err := model.CheckedAddU16(1, 1); err != nil || v != 2 {
		t.Errorf("expected 2, got %d (%v)", v, err)
	}
	if _, err := model.CheckedAddU16(math.MaxUint16, 1); !errors.Is(err, model.ErrArithmeticOverflow) {
		t.Errorf("expected overflow, got %v", err)
	}
}

func TestCheckedAddI64(t *testing.T) {
	if v, err := model.CheckedAddI64(10, 5); err != nil || v != 15 {
		t.Errorf("expected 15, got %d (%v)", v, err)
	}
	if _, err := model.CheckedAddI64(math.MaxInt64, 1); !errors.Is(err, model.ErrArithmeticOverflow) {
		t.Errorf("expected overflow, got %v", err)
	}
}

func TestSliceAmount(t *testing.T) {
	cases := []struct {
		total   uint64
		periods uint16
		want    uint64
	}{
		{1000, 10, 100},
		{1005, 10, 100}, // remainder floors away
		{9, 10, 0},
		{1, 1, 1},
	}
	for _, tc := range cases {
		v := &model.VaultRecord{TotalAmount: tc.total, Periods: tc.periods}
		if got := v.SliceAmount(); got != tc.want {
			t.Errorf("slice of %d/%d: expected %d, got %d", tc.total, tc.periods, tc.want, got)
		}
	}
}

func TestIsComplete(t *testing.T) {
	v := &model.VaultRecord{Periods: 3, PeriodsCompleted: 2}
	if v.IsComplete() {
		t.Error("expected incomplete at 2 of 3")
	}
	v.PeriodsCompleted = 3
	if !v.IsComplete() {
		t.Error("expected complete at 3 of 3")
	}
}

func TestClone(t *testing.T) {
	v := &model.VaultRecord{Owner: "alice", CurrBalance: 1000}
	c := v.Clone()
	c.CurrBalance = 0
	if v.CurrBalance != 1000 {
		t.Error("clone shares state with the original")
	}
}
