package volume

import (
	"fmt"
	"reflect"

	"github.com/san-kum/pathsim/internal/trajectory"
)

type combination struct {
	a, b Volume
	op   string
	fn   func(bool, bool) bool
}

func (c *combination) Contains(s trajectory.Snapshot) bool {
	return c.fn(c.a.Contains(s), c.b.Contains(s))
}

func (c *combination) String() string {
	return fmt.Sprintf("(%s %s %s)", c.a, c.op, c.b)
}

type negated struct {
	v Volume
}

func (n *negated) Contains(s trajectory.Snapshot) bool { return !n.v.Contains(s) }
func (n *negated) String() string                      { return fmt.Sprintf("(not %s)", n.v) }

// same reports whether a and b are the identical volume. Volumes of a
// non-comparable dynamic type are never the same.
func same(a, b Volume) bool {
	ta := reflect.TypeOf(a)
	if ta == nil || ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

func And(a, b Volume) Volume {
	switch {
	case same(a, b):
		return a
	case a == Empty || b == Empty:
		return Empty
	case a == Full:
		return b
	case b == Full:
		return a
	}
	return &combination{a: a, b: b, op: "and", fn: func(x, y bool) bool { return x && y }}
}

func Or(a, b Volume) Volume {
	switch {
	case same(a, b):
		return a
	case a == Full || b == Full:
		return Full
	case a == Empty:
		return b
	case b == Empty:
		return a
	}
	return &combination{a: a, b: b, op: "or", fn: func(x, y bool) bool { return x || y }}
}

func Xor(a, b Volume) Volume {
	switch {
	case same(a, b):
		return Empty
	case a == Empty:
		return b
	case b == Empty:
		return a
	case a == Full:
		return Not(b)
	case b == Full:
		return Not(a)
	}
	return &combination{a: a, b: b, op: "xor", fn: func(x, y bool) bool { return x != y }}
}

// Sub is the relative complement: in a and not in b.
func Sub(a, b Volume) Volume {
	switch {
	case same(a, b), a == Empty, b == Full:
		return Empty
	case b == Empty:
		return a
	}
	return &combination{a: a, b: b, op: "and not", fn: func(x, y bool) bool { return x && !y }}
}

func Not(v Volume) Volume {
	switch v {
	case Empty:
		return Full
	case Full:
		return Empty
	}
	if n, ok := v.(*negated); ok {
		return n.v
	}
	return &negated{v: v}
}

// Union ors any number of volumes.
func Union(vs ...Volume) Volume {
	out := Empty
	for _, v := range vs {
		out = Or(out, v)
	}
	return out
}
