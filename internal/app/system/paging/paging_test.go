package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParseStart(t *testing.T) {
	tests := map[string]int{
		"/audit":           1,
		"/audit?start=51":  51,
		"/audit?start=0":   1,
		"/audit?start=-4":  1,
		"/audit?start=two": 1,
	}
	for target, want := range tests {
		if got := ParseStart(httptest.NewRequest("GET", target, nil)); got != want {
			t.Errorf("ParseStart(%q) = %d, want %d", target, got, want)
		}
	}
}

func TestComputeRange(t *testing.T) {
	tests := []struct {
		name  string
		start int
		shown int
		want  Range
	}{
		{"empty", 1, 0, Range{PrevStart: 1, NextStart: 1}},
		{"partial first page", 1, 7, Range{Start: 1, End: 7, PrevStart: 1, NextStart: 8}},
		{"full second page", PageSize + 1, PageSize, Range{Start: PageSize + 1, End: 2 * PageSize, PrevStart: 1, NextStart: 2*PageSize + 1}},
		{"deep page", 3*PageSize + 1, 5, Range{Start: 3*PageSize + 1, End: 3*PageSize + 5, PrevStart: 2*PageSize + 1, NextStart: 3*PageSize + 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeRange(tt.start, tt.shown); got != tt.want {
				t.Errorf("ComputeRange(%d, %d) = %+v, want %+v", tt.start, tt.shown, got, tt.want)
			}
		})
	}
}
