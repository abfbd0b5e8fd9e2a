package service

import (
	"context"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fittrack/backend/internal/domain"
	"fittrack/backend/internal/dualstore"
)

// seedUser registers the same account in both fakes so the cross-store
// username correlation has something to find.
func seedUser(t *testing.T, mongoUsers, mysqlUsers *fakeUserRepo) (*domain.User, *domain.User) {
	t.Helper()
	u := domain.User{Username: "kasia", Email: "kasia@example.com", PasswordHash: "x", Role: domain.RoleClient}
	mu := u
	mongoUser, err := mongoUsers.Create(context.Background(), &mu)
	require.NoError(t, err)
	su := u
	mysqlUser, err := mysqlUsers.Create(context.Background(), &su)
	require.NoError(t, err)
	return mongoUser, mysqlUser
}

func newUserFixture(mode dualstore.Mode) (UserService, *fakeUserRepo, *fakeUserRepo) {
	mongoUsers := newFakeUserRepo(sideMongo)
	mysqlUsers := newFakeUserRepo(sideMySQL)
	coordinator := dualstore.NewCoordinator(mode, zerolog.Nop())
	svc := NewUserService(coordinator, mongoUsers, mysqlUsers, zerolog.Nop())
	return svc, mongoUsers, mysqlUsers
}

func TestCurrentMergesStoreIDs(t *testing.T) {
	svc, mongoUsers, mysqlUsers := newUserFixture(dualstore.ModeDual)
	mongoUser, mysqlUser := seedUser(t, mongoUsers, mysqlUsers)

	user, err := svc.Current(context.Background(), dualstore.Principal{
		ID:       mongoUser.MongoID,
		Username: "kasia",
		MongoID:  mongoUser.MongoID,
	})
	require.NoError(t, err)

	assert.Equal(t, mongoUser.MongoID, user.MongoID)
	assert.Equal(t, mysqlUser.MySQLID, user.MySQLID, "relational id correlated by username")
	assert.Empty(t, user.PasswordHash)
}

func TestCurrentFallsBackToUsername(t *testing.T) {
	svc, mongoUsers, mysqlUsers := newUserFixture(dualstore.ModeDual)
	seedUser(t, mongoUsers, mysqlUsers)

	user, err := svc.Current(context.Background(), dualstore.Principal{
		ID:       "64f1c2d3e4a5b6c7d8e9ffff", // stale id from an old token
		Username: "kasia",
	})
	require.NoError(t, err)
	assert.Equal(t, "kasia", user.Username)
}

func TestUpdateProfileWritesBothStores(t *testing.T) {
	svc, mongoUsers, mysqlUsers := newUserFixture(dualstore.ModeDual)
	mongoUser, _ := seedUser(t, mongoUsers, mysqlUsers)

	updated, outcome, err := svc.UpdateProfile(context.Background(), dualstore.Principal{
		ID:       mongoUser.MongoID,
		Username: "kasia",
		MongoID:  mongoUser.MongoID,
	}, ProfileUpdate{
		Email:   "new@example.com",
		Profile: &domain.Profile{WeightKG: 62, HeightCM: 168},
	})
	require.NoError(t, err)

	assert.True(t, outcome.Mongo)
	assert.True(t, outcome.MySQL)
	assert.Equal(t, "new@example.com", updated.Email)
	require.NotNil(t, updated.Profile)
	assert.Equal(t, 62.0, updated.Profile.WeightKG)

	assert.Equal(t, "new@example.com", mongoUsers.users[0].Email)
	assert.Equal(t, "new@example.com", mysqlUsers.users[0].Email)
}

func TestUpdateProfileMongoOnlyAccount(t *testing.T) {
	svc, mongoUsers, _ := newUserFixture(dualstore.ModeDual)
	u := domain.User{Username: "solo", Email: "solo@example.com", Role: domain.RoleClient}
	mongoUser, err := mongoUsers.Create(context.Background(), &u)
	require.NoError(t, err)

	_, outcome, err := svc.UpdateProfile(context.Background(), dualstore.Principal{
		ID:       mongoUser.MongoID,
		Username: "solo",
		MongoID:  mongoUser.MongoID,
	}, ProfileUpdate{Email: "solo2@example.com"})
	require.NoError(t, err)

	assert.True(t, outcome.Mongo)
	assert.False(t, outcome.MySQL, "no relational record to update")
}

func TestUserListPaginatesAndStripsHashes(t *testing.T) {
	svc, mongoUsers, _ := newUserFixture(dualstore.ModeDual)
	for i := 0; i < 12; i++ {
		u := domain.User{
			Username:     "user" + string(rune('a'+i)),
			Email:        "u" + string(rune('a'+i)) + "@example.com",
			PasswordHash: "secret",
			Role:         domain.RoleClient,
		}
		_, err := mongoUsers.Create(context.Background(), &u)
		require.NoError(t, err)
	}

	users, info, err := svc.List(context.Background(), dualstore.Pagination{Page: 2, Limit: 5})
	require.NoError(t, err)

	require.Len(t, users, 5)
	assert.Equal(t, dualstore.PageInfo{Page: 2, Limit: 5, Total: 12, Pages: 3}, info)
	for _, u := range users {
		assert.Empty(t, u.PasswordHash)
	}
}

func TestUserDeleteRemovesBothAccounts(t *testing.T) {
	svc, mongoUsers, mysqlUsers := newUserFixture(dualstore.ModeDual)
	mongoUser, _ := seedUser(t, mongoUsers, mysqlUsers)

	outcome, err := svc.Delete(context.Background(), mongoUser.MongoID)
	require.NoError(t, err)

	assert.True(t, outcome.Mongo)
	assert.True(t, outcome.MySQL, "relational account found through username correlation")
	assert.Empty(t, mongoUsers.users)
	assert.Empty(t, mysqlUsers.users)
}

func TestUserDeleteByRelationalID(t *testing.T) {
	svc, mongoUsers, mysqlUsers := newUserFixture(dualstore.ModeDual)
	_, mysqlUser := seedUser(t, mongoUsers, mysqlUsers)

	outcome, err := svc.Delete(context.Background(), strconv.FormatUint(uint64(mysqlUser.MySQLID), 10))
	require.NoError(t, err)

	assert.True(t, outcome.Mongo)
	assert.True(t, outcome.MySQL)
	assert.Empty(t, mongoUsers.users)
	assert.Empty(t, mysqlUsers.users)
}

func TestUserDeleteRefusesAdminAccounts(t *testing.T) {
	svc, mongoUsers, _ := newUserFixture(dualstore.ModeMongo)
	admin, err := mongoUsers.Create(context.Background(), &domain.User{
		Username: "root", Email: "root@example.com", Role: domain.RoleAdmin,
	})
	require.NoError(t, err)

	_, err = svc.Delete(context.Background(), admin.MongoID)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Len(t, mongoUsers.users, 1, "account is untouched")
}

func TestUserDeleteUnknownAccount(t *testing.T) {
	svc, _, _ := newUserFixture(dualstore.ModeDual)

	_, err := svc.Delete(context.Background(), "64f1c2d3e4a5b6c7d8e9ffff")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
