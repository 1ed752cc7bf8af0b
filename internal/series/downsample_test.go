package series

import (
	"reflect"
	"testing"

	"finance-dashboard/models"
)

func makeSeries(n int) models.Series {
	s := make(models.Series, n)
	for i := range s {
		s[i] = models.ChartPoint{Date: day(i), Price: float64(i)}
	}
	return s
}

func TestDownsample_WithinLimitUnchanged(t *testing.T) {
	s := makeSeries(10)

	for _, limit := range []int{10, 11, 500} {
		got := Downsample(s, limit)
		if !reflect.DeepEqual(got, s) {
			t.Errorf("limit %d: expected input unchanged", limit)
		}
	}
}

func TestDownsample_NonPositiveLimit(t *testing.T) {
	s := makeSeries(10)
	for _, limit := range []int{0, -5} {
		if got := Downsample(s, limit); len(got) != 10 {
			t.Errorf("limit %d: got %d points, want 10", limit, len(got))
		}
	}
}

func TestDownsample_SmallLimits(t *testing.T) {
	s := makeSeries(10)

	one := Downsample(s, 1)
	if len(one) != 1 || one[0] != s[0] {
		t.Errorf("limit 1 = %+v, want first point only", one)
	}

	two := Downsample(s, 2)
	if len(two) != 2 || two[0] != s[0] || two[1] != s[9] {
		t.Errorf("limit 2 = %+v, want first and last", two)
	}
}

func TestDownsample_ExactIndices(t *testing.T) {
	// L=10, M=5: step = 9/4 = 2.25 -> round(2.25)=2, round(4.5)=5, round(6.75)=7
	got := Downsample(makeSeries(10), 5)

	var idx []int
	for _, p := range got {
		idx = append(idx, int(p.Price))
	}
	want := []int{0, 2, 5, 7, 9}
	if !reflect.DeepEqual(idx, want) {
		t.Errorf("indices = %v, want %v", idx, want)
	}
}

func TestDownsample_Properties(t *testing.T) {
	s := makeSeries(1000)

	got := Downsample(s, 250)
	if len(got) > 250 {
		t.Fatalf("got %d points, want <= 250", len(got))
	}
	if got[0] != s[0] {
		t.Error("first point not preserved")
	}
	if got[len(got)-1] != s[999] {
		t.Error("last point not preserved")
	}
	for i := 1; i < len(got); i++ {
		if got[i].Date.Before(got[i-1].Date) {
			t.Fatalf("dates out of order at %d", i)
		}
	}

	again := Downsample(s, 250)
	if !reflect.DeepEqual(got, again) {
		t.Error("downsampling is not deterministic")
	}
}

func TestDownsample_RangeOfSizes(t *testing.T) {
	for n := 2; n <= 60; n++ {
		s := makeSeries(n)
		for limit := 3; limit < n; limit++ {
			got := Downsample(s, limit)
			if len(got) > limit {
				t.Fatalf("n=%d limit=%d: got %d points", n, limit, len(got))
			}
			if got[0] != s[0] || got[len(got)-1] != s[n-1] {
				t.Fatalf("n=%d limit=%d: endpoints not preserved", n, limit)
			}
		}
	}
}
