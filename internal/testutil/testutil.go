package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"messagely/config"
	"messagely/db"
	"messagely/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
)

// NewTestDB поднимает in-memory sqlite с примененными миграциями
func NewTestDB(t testing.TB) *db.Manager {
	t.Helper()
	manager, err := db.ConnectDB(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })
	return manager
}

// FakeUser - пользователь со случайными именем и телефоном, пароль не хешируется
func FakeUser(username string) models.User {
	if username == "" {
		username = fmt.Sprintf("%s_%s", strings.ToLower(gofakeit.FirstName()), gofakeit.Numerify("######"))
	}
	return models.User{
		Username:  username,
		Password:  "not-a-hash",
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Phone:     gofakeit.Phone(),
		JoinAt:    time.Now().UTC(),
	}
}

// InsertUser пишет пользователя напрямую в БД
func InsertUser(t testing.TB, manager *db.Manager, username string) models.User {
	t.Helper()
	user := FakeUser(username)
	require.NoError(t, manager.ORM.Create(&user).Error)
	return user
}
