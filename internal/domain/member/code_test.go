package member

import "testing"

func TestNextCode_GapFilled(t *testing.T) {
	got := NextCode([]int{5000, 5001, 5003})
	if got != "5002" {
		t.Errorf("NextCode({5000,5001,5003}) = %q, want 5002", got)
	}
}

func TestNextCode_Empty(t *testing.T) {
	if got := NextCode(nil); got != "5000" {
		t.Errorf("NextCode(nil) = %q, want 5000", got)
	}
}

func TestNextCode_NoGap(t *testing.T) {
	if got := NextCode([]int{5000, 5001, 5002}); got != "5003" {
		t.Errorf("got %q, want 5003", got)
	}
}

func TestNextCode_IgnoresBelowFloor(t *testing.T) {
	// Legacy codes under the floor never block allocation.
	if got := NextCode([]int{17, 4999, 5000}); got != "5001" {
		t.Errorf("got %q, want 5001", got)
	}
}

func TestNextCode_UnsortedInput(t *testing.T) {
	if got := NextCode([]int{5003, 5000, 5001}); got != "5002" {
		t.Errorf("got %q, want 5002", got)
	}
}

func TestNextCode_DuplicateCodes(t *testing.T) {
	if got := NextCode([]int{5000, 5000, 5001}); got != "5002" {
		t.Errorf("got %q, want 5002", got)
	}
}

func TestNextCode_GapAtFloor(t *testing.T) {
	if got := NextCode([]int{5001, 5002}); got != "5000" {
		t.Errorf("got %q, want 5000", got)
	}
}
