package pagination_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ledgerpipe/ledgerpipe/internal/utils/pagination"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		in          pagination.Params
		wantPage    int
		wantPerPage int
	}{
		{"defaults", pagination.Params{}, 1, pagination.DefaultPerPage},
		{"negative page", pagination.Params{Page: -3, PerPage: 10}, 1, 10},
		{"oversize per page", pagination.Params{Page: 2, PerPage: 5000}, 2, pagination.MaxPerPage},
		{"in range", pagination.Params{Page: 4, PerPage: 25}, 4, 25},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.Normalize()
			assert.Equal(t, tc.wantPage, got.Page)
			assert.Equal(t, tc.wantPerPage, got.PerPage)
		})
	}
}

func TestOffset(t *testing.T) {
	p := pagination.Params{Page: 3, PerPage: 25}.Normalize()
	assert.Equal(t, 50, p.Offset())

	first := pagination.Params{}.Normalize()
	assert.Equal(t, 0, first.Offset())
}

func TestNewMeta(t *testing.T) {
	p := pagination.Params{Page: 2, PerPage: 20}.Normalize()

	meta := pagination.NewMeta(p, 41)
	assert.Equal(t, 2, meta.Page)
	assert.Equal(t, 20, meta.PerPage)
	assert.Equal(t, int64(41), meta.TotalCount)
	assert.Equal(t, 3, meta.TotalPages)

	exact := pagination.NewMeta(p, 40)
	assert.Equal(t, 2, exact.TotalPages)

	empty := pagination.NewMeta(p, 0)
	assert.Equal(t, 0, empty.TotalPages)
}
