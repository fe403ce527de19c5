package api

import (
	"net/http/httptest"
	"testing"
)

func TestParseLimitOffset(t *testing.T) {
	cases := []struct {
		url               string
		wantLim, wantOff  int
	}{
		{"/api/laudos", 20, 0},
		{"/api/laudos?limit=50&offset=10", 50, 10},
		{"/api/laudos?limit=9999", 100, 0},
		{"/api/laudos?limit=0&offset=-5", 20, 0},
		{"/api/laudos?limit=abc&offset=xyz", 20, 0},
	}
	for _, tc := range cases {
		r := httptest.NewRequest("GET", tc.url, nil)
		lim, off := ParseLimitOffset(r)
		if lim != tc.wantLim || off != tc.wantOff {
			t.Errorf("%s: (%d, %d), esperava (%d, %d)", tc.url, lim, off, tc.wantLim, tc.wantOff)
		}
	}
}
