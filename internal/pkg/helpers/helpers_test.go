package helpers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "iso date", input: "2024-03-01"},
		{name: "leap day", input: "2024-02-29"},
		{name: "day out of range", input: "2024-02-31", wantErr: true},
		{name: "european format", input: "31/02/2024", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "with time", input: "2024-03-01T10:00:00Z", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, FormatDate(got))
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestDateOf(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	// 01:30 at UTC+3 is still the previous day in UTC
	got := DateOf(time.Date(2024, 5, 10, 1, 30, 0, 0, loc))
	assert.Equal(t, time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 2*time.Hour, ParseDuration("2h", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("soon", time.Minute))
}

func TestPagination(t *testing.T) {
	offset, limit := CalculateOffsetLimit(3, 10)
	assert.Equal(t, uint64(20), offset)
	assert.Equal(t, uint64(10), limit)

	_, limit = CalculateOffsetLimit(0, 1000)
	assert.Equal(t, uint64(DefaultPageSize), limit)

	info := NewPaginationInfo(0, 1, 10)
	assert.Equal(t, 1, info.TotalPages)
	info = NewPaginationInfo(21, 2, 10)
	assert.Equal(t, 3, info.TotalPages)
	assert.Equal(t, int64(21), info.TotalItems)
}

func TestParsePaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?page=2&size=500", nil)

	page, size := ParsePaginationParams(c)
	assert.Equal(t, 2, page)
	assert.Equal(t, DefaultPageSize, size)
}
