package admin

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageParams(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "/api/v1/admin/users", 50, 0},
		{"explicit", "/api/v1/admin/users?limit=10&offset=20", 10, 20},
		{"limit capped", "/api/v1/admin/users?limit=9999", 50, 0},
		{"negative ignored", "/api/v1/admin/users?limit=-1&offset=-5", 50, 0},
		{"garbage ignored", "/api/v1/admin/users?limit=abc&offset=xyz", 50, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tc.url, nil)
			limit, offset := pageParams(r, 50)
			assert.Equal(t, tc.wantLimit, limit)
			assert.Equal(t, tc.wantOffset, offset)
		})
	}
}
