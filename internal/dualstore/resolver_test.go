package dualstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fittrack/backend/internal/domain"
)

func TestResolveRelationalUserID(t *testing.T) {
	withID := &domain.User{}
	withID.MySQLID = 17

	tests := []struct {
		name      string
		principal Principal
		want      uint
		wantErr   bool
	}{
		{
			name:      "explicit relational id wins",
			principal: Principal{ID: "64f1c2d3e4a5b6c7d8e9f0a1", MySQLID: 5},
			want:      5,
		},
		{
			name:      "falls back to embedded current user record",
			principal: Principal{ID: "64f1c2d3e4a5b6c7d8e9f0a1", CurrentUser: withID},
			want:      17,
		},
		{
			name:      "falls back to numeric subject claim",
			principal: Principal{ID: "23"},
			want:      23,
		},
		{
			name:      "explicit id takes precedence over current user",
			principal: Principal{MySQLID: 5, CurrentUser: withID},
			want:      5,
		},
		{
			name:      "nothing resolvable fails",
			principal: Principal{ID: "64f1c2d3e4a5b6c7d8e9f0a1", Username: "kasia"},
			wantErr:   true,
		},
		{
			name:      "current user without relational id does not resolve",
			principal: Principal{ID: "64f1c2d3e4a5b6c7d8e9f0a1", CurrentUser: &domain.User{}},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveRelationalUserID(tt.principal)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, domain.IsResolution(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrincipalRef(t *testing.T) {
	cu := &domain.User{}
	cu.MongoID = "aaaaaaaaaaaaaaaaaaaaaaaa"
	cu.MySQLID = 3

	t.Run("subject claim fills the document side when hex shaped", func(t *testing.T) {
		ref := Principal{ID: "64f1c2d3e4a5b6c7d8e9f0a1"}.Ref()
		assert.Equal(t, "64f1c2d3e4a5b6c7d8e9f0a1", ref.MongoID)
		assert.Zero(t, ref.MySQLID)
	})

	t.Run("current user fills both missing sides", func(t *testing.T) {
		ref := Principal{ID: "kasia", CurrentUser: cu}.Ref()
		assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaaa", ref.MongoID)
		assert.Equal(t, uint(3), ref.MySQLID)
	})
}
