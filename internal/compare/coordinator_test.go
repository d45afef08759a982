package compare

import "testing"

func TestIndexClampsNotWraps(t *testing.T) {
	tests := []struct {
		primary, n, want int
	}{
		{40, 15, 14},
		{3, 15, 3},
		{14, 15, 14},
		{0, 0, 0},
		{7, 1, 0},
		{-2, 10, 0},
	}
	for _, tt := range tests {
		if got := Index(tt.primary, tt.n); got != tt.want {
			t.Errorf("Index(%d, %d) = %d, want %d", tt.primary, tt.n, got, tt.want)
		}
	}
}

func TestActivateLoadsOnce(t *testing.T) {
	c := New()
	if !c.Activate("b") {
		t.Fatal("first activation needs a load")
	}
	if got := c.Sync(40, 15); got != 14 {
		t.Fatalf("expected 14, got %d", got)
	}

	c.Deactivate()
	if c.Sync(3, 15) != 14 {
		t.Fatal("inactive coordinator must not drive the index")
	}
	if c.State().SecondaryID != "b" {
		t.Fatal("deactivation keeps the secondary")
	}
	if c.Activate("b") {
		t.Fatal("reactivation of the resident sequence needs no load")
	}
	if !c.Activate("c") {
		t.Fatal("a different sequence needs a load")
	}
}

func TestSetSecondary(t *testing.T) {
	c := New()
	if !c.SetSecondary("x") || c.Active() {
		t.Fatal("setting the secondary loads it but leaves comparison off")
	}
	if c.SetSecondary("x") {
		t.Fatal("same id needs no load")
	}
	if c.Activate("x") {
		t.Fatal("secondary already resident")
	}
}
