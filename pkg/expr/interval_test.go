package expr

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestIntervalIsEmptyAndSingleton(t *testing.T) {
	assert.True(t, Empty.IsEmpty())
	assert.False(t, Point(3).IsEmpty())
	assert.True(t, Point(3).IsSingleton())
	assert.False(t, Interval{Lo: 0, Hi: 1}.IsSingleton())
}

func TestIntervalContains(t *testing.T) {
	iv := Interval{Lo: 0, Hi: 10}
	assert.True(t, iv.Contains(0))
	assert.True(t, iv.Contains(10))
	assert.False(t, iv.Contains(-1))
	assert.False(t, Empty.Contains(0))
}

func TestIntervalIntersect(t *testing.T) {
	a := Interval{Lo: 0, Hi: 5}
	b := Interval{Lo: 3, Hi: 8}
	want := Interval{Lo: 3, Hi: 5}
	got := a.Intersect(b)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Intersect mismatch (-want +got):\n%s", diff)
	}

	disjoint := Interval{Lo: 6, Hi: 8}
	assert.True(t, a.Intersect(disjoint).IsEmpty())
}

func TestIntervalUnion(t *testing.T) {
	a := Interval{Lo: 0, Hi: 5}
	b := Interval{Lo: 3, Hi: 8}
	want := Interval{Lo: 0, Hi: 8}
	got := a.Union(b)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Union mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, a, a.Union(Empty))
	assert.Equal(t, b, Empty.Union(b))
}

func TestIntervalAddSub(t *testing.T) {
	a := Interval{Lo: 1, Hi: 2}
	b := Interval{Lo: 3, Hi: 4}

	assert.Equal(t, Interval{Lo: 4, Hi: 6}, a.Add(b))
	assert.Equal(t, Interval{Lo: -3, Hi: -1}, a.Sub(b))
	assert.True(t, Empty.Add(b).IsEmpty())
}

func TestIntervalScale(t *testing.T) {
	a := Interval{Lo: 1, Hi: 2}
	assert.Equal(t, Interval{Lo: 2, Hi: 4}, a.Scale(2))
	assert.Equal(t, Interval{Lo: -4, Hi: -2}, a.Scale(-2))
}

func TestIntervalMulHandlesMixedSignsAndInfinity(t *testing.T) {
	a := Interval{Lo: -2, Hi: 3}
	b := Interval{Lo: -1, Hi: 4}
	want := Interval{Lo: -8, Hi: 12}
	got := a.Mul(b)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Mul mismatch (-want +got):\n%s", diff)
	}

	zeroTimesInf := Interval{Lo: 0, Hi: 0}.Mul(Unbounded)
	assert.Equal(t, Interval{Lo: 0, Hi: 0}, zeroTimesInf)
}

func TestIntervalWiden(t *testing.T) {
	a := Interval{Lo: 1, Hi: 2}
	assert.Equal(t, Interval{Lo: 0, Hi: 3}, a.Widen(1))
	assert.True(t, Empty.Widen(1).IsEmpty())
}

func TestIntervalString(t *testing.T) {
	assert.Equal(t, "empty", Empty.String())
	assert.Equal(t, "[0, 10]", Interval{Lo: 0, Hi: 10}.String())
}

func TestIntervalMulInfiniteOperand(t *testing.T) {
	iv := Interval{Lo: 1, Hi: math.Inf(1)}
	got := iv.Mul(Point(2))
	assert.Equal(t, Interval{Lo: 2, Hi: math.Inf(1)}, got)
}
