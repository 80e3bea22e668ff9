package cv

import (
	"testing"

	"github.com/san-kum/pathsim/internal/dynamo"
	"github.com/san-kum/pathsim/internal/trajectory"
)

func TestCoordinate(t *testing.T) {
	s := trajectory.Snapshot{State: dynamo.State{1, 2, 3, 4}}

	if got := Coordinate(0).Eval(s); got != 1 {
		t.Errorf("x0 = %v, want 1", got)
	}
	if got := Coordinate(1).Eval(s); got != 2 {
		t.Errorf("x1 = %v, want 2", got)
	}
	if Coordinate(1).Name() != "x1" {
		t.Errorf("unexpected name %q", Coordinate(1).Name())
	}
}

func TestCoordinateOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for velocity index")
		}
	}()
	Coordinate(2).Eval(trajectory.Snapshot{State: dynamo.State{1, 2, 3, 4}})
}

func TestParse(t *testing.T) {
	c, err := Parse("x3")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Name() != "x3" {
		t.Errorf("unexpected name %q", c.Name())
	}

	for _, bad := range []string{"", "y0", "x-1", "energy"} {
		if _, err := Parse(bad); err == nil {
			t.Errorf("Parse(%q) should fail", bad)
		}
	}
}

func TestSeries(t *testing.T) {
	tr := trajectory.New(
		trajectory.Snapshot{State: dynamo.State{0, 0}},
		trajectory.Snapshot{State: dynamo.State{1, 0}},
		trajectory.Snapshot{State: dynamo.State{2, 0}},
	)
	got := Series(Coordinate(0), tr)
	if len(got) != 3 || got[2] != 2 {
		t.Errorf("Series = %v", got)
	}
}

func TestCachedMemoizes(t *testing.T) {
	calls := 0
	inner := Func("count", func(s trajectory.Snapshot) float64 {
		calls++
		return s.State[0] * 2
	})
	c, err := NewCached(inner, 16)
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}

	a := trajectory.Snapshot{State: dynamo.State{1, 0}, Time: 0}
	b := trajectory.Snapshot{State: dynamo.State{1, 0}, Time: 1}

	for i := 0; i < 3; i++ {
		if v := c.Eval(a); v != 2 {
			t.Fatalf("Eval = %v, want 2", v)
		}
	}
	c.Eval(b)

	if calls != 2 {
		t.Errorf("expected 2 inner evaluations, got %d", calls)
	}
	hits, misses := c.Stats()
	if hits != 2 || misses != 2 {
		t.Errorf("stats = %d/%d, want 2/2", hits, misses)
	}
	if c.Name() != "count" {
		t.Errorf("Name = %q", c.Name())
	}
}
