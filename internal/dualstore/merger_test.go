package dualstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fittrack/backend/internal/domain"
)

func TestPagination(t *testing.T) {
	tests := []struct {
		name      string
		in        Pagination
		wantSkip  int
		wantPage  int
		wantLimit int
	}{
		{name: "page 2 of limit 10 skips 10", in: Pagination{Page: 2, Limit: 10}, wantSkip: 10, wantPage: 2, wantLimit: 10},
		{name: "defaults applied", in: Pagination{}, wantSkip: 0, wantPage: 1, wantLimit: 10},
		{name: "limit clamped to 100", in: Pagination{Page: 1, Limit: 5000}, wantSkip: 0, wantPage: 1, wantLimit: 100},
		{name: "negative page clamped", in: Pagination{Page: -3, Limit: 20}, wantSkip: 0, wantPage: 1, wantLimit: 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in.Normalize()
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.wantSkip, p.Skip())
		})
	}
}

func TestNewPageInfo(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		limit int
		pages int
	}{
		{name: "25 entries at limit 10 is 3 pages", total: 25, limit: 10, pages: 3},
		{name: "exact multiple", total: 30, limit: 10, pages: 3},
		{name: "empty set has zero pages", total: 0, limit: 10, pages: 0},
		{name: "single record", total: 1, limit: 10, pages: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := NewPageInfo(Pagination{Page: 1, Limit: tt.limit}, tt.total)
			assert.Equal(t, tt.pages, info.Pages)
			assert.Equal(t, tt.total, info.Total)
		})
	}
}

func TestMergeListIsAuthoritativeOnly(t *testing.T) {
	mongoRows := []string{"m1", "m2"}
	mysqlRows := []string{"r1"}

	// Dual mode list reads are document-store-authoritative; the relational
	// rows are never merged in.
	assert.Equal(t, mongoRows, MergeList(ModeDual, mongoRows, mysqlRows))
	assert.Equal(t, mongoRows, MergeList(ModeMongo, mongoRows, nil))
	assert.Equal(t, mysqlRows, MergeList(ModeMySQL, nil, mysqlRows))
}

func TestMergeSingle(t *testing.T) {
	created := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)

	t.Run("secondary contributes only its id", func(t *testing.T) {
		mongoRec := entry("64f1c2d3e4a5b6c7d8e9f0a1", 0, created)
		mongoRec.WeightKG = 80
		mysqlRec := entry("", 7, created)
		mysqlRec.WeightKG = 79.5 // diverged copy must not leak into the primary

		got, ok := MergeSingle(ModeDual, Correlation[*domain.ProgressEntry]{Mongo: mongoRec, MySQL: mysqlRec})
		require.True(t, ok)
		assert.Equal(t, 80.0, got.WeightKG)
		assert.Equal(t, "64f1c2d3e4a5b6c7d8e9f0a1", got.DocumentID())
		assert.Equal(t, uint(7), got.RelationalID())
	})

	t.Run("primary absent falls back to secondary", func(t *testing.T) {
		mysqlRec := entry("", 7, created)
		got, ok := MergeSingle(ModeDual, Correlation[*domain.ProgressEntry]{MySQL: mysqlRec})
		require.True(t, ok)
		assert.Equal(t, uint(7), got.RelationalID())
	})

	t.Run("both absent reports missing", func(t *testing.T) {
		_, ok := MergeSingle(ModeDual, Correlation[*domain.ProgressEntry]{})
		assert.False(t, ok)
	})

	t.Run("relational is primary in mysql mode", func(t *testing.T) {
		mysqlRec := entry("", 7, created)
		mysqlRec.WeightKG = 70
		got, ok := MergeSingle(ModeMySQL, Correlation[*domain.ProgressEntry]{MySQL: mysqlRec})
		require.True(t, ok)
		assert.Equal(t, 70.0, got.WeightKG)
	})
}

func TestParseMode(t *testing.T) {
	for _, raw := range []string{"mongo", "MySQL", " dual "} {
		_, err := ParseMode(raw)
		assert.NoError(t, err, raw)
	}
	_, err := ParseMode("postgres")
	assert.Error(t, err)
}
