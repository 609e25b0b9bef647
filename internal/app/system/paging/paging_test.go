package paging

import (
	"net/http/httptest"
	"testing"
)

func TestRequest_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Request
		want Request
	}{
		{"defaults", Request{}, Request{Page: 1, Size: PageSize}},
		{"negative page", Request{Page: -3, Size: 5}, Request{Page: 1, Size: 5}},
		{"oversized", Request{Page: 2, Size: 1000}, Request{Page: 2, Size: MaxPageSize}},
		{"valid", Request{Page: 4, Size: 25}, Request{Page: 4, Size: 25}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Normalize(); got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRequest_Skip(t *testing.T) {
	if got := (Request{Page: 3, Size: 10}).Skip(); got != 20 {
		t.Errorf("Skip() = %d, want 20", got)
	}
	if got := (Request{}).Skip(); got != 0 {
		t.Errorf("Skip() on first page = %d, want 0", got)
	}
}

func TestNewMeta(t *testing.T) {
	tests := []struct {
		name      string
		req       Request
		total     int64
		wantPages int
		wantNext  bool
		wantPrev  bool
	}{
		{"empty", Request{Page: 1, Size: 10}, 0, 0, false, false},
		{"single page", Request{Page: 1, Size: 10}, 7, 1, false, false},
		{"first of three", Request{Page: 1, Size: 10}, 25, 3, true, false},
		{"middle", Request{Page: 2, Size: 10}, 25, 3, true, true},
		{"last", Request{Page: 3, Size: 10}, 25, 3, false, true},
		{"exact multiple", Request{Page: 2, Size: 10}, 20, 2, false, true},
		{"past the end", Request{Page: 9, Size: 10}, 20, 2, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMeta(tt.req, tt.total)
			if m.TotalPages != tt.wantPages || m.HasNext != tt.wantNext || m.HasPrev != tt.wantPrev {
				t.Errorf("NewMeta() = %+v, want pages=%d next=%v prev=%v", m, tt.wantPages, tt.wantNext, tt.wantPrev)
			}
			if m.Total != tt.total {
				t.Errorf("Total = %d, want %d", m.Total, tt.total)
			}
		})
	}
}

func TestNewPage_NilItemsBecomeEmpty(t *testing.T) {
	p := NewPage[int](nil, Request{}, 0)
	if p.Items == nil {
		t.Error("expected non-nil items slice")
	}
}

func TestMapPage(t *testing.T) {
	p := NewPage([]int{1, 2}, Request{Page: 1, Size: 2}, 5)
	out := MapPage(p, func(i int) string { return string(rune('a' + i)) })
	if len(out.Items) != 2 || out.Items[0] != "b" || out.Meta.Total != 5 {
		t.Errorf("MapPage() = %+v", out)
	}
}

func TestParse(t *testing.T) {
	r := httptest.NewRequest("GET", "/tasks?page=3&size=15", nil)
	if got := Parse(r); got.Page != 3 || got.Size != 15 {
		t.Errorf("Parse() = %+v", got)
	}

	r = httptest.NewRequest("GET", "/tasks?page=abc", nil)
	if got := Parse(r); got.Page != 1 || got.Size != PageSize {
		t.Errorf("Parse() with bad input = %+v", got)
	}
}
