package database

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stationops/mediadepot/server_structs"
)

func SetupMockChannelDB(t *testing.T) {
	mockDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	ServerDatabase = mockDB
	require.NoError(t, err, "Error setting up mock channel DB")
	err = ServerDatabase.AutoMigrate(&server_structs.Channel{})
	require.NoError(t, err, "Failed to migrate DB for Channel table")
}

func TeardownMockChannelDB(t *testing.T) {
	err := ServerDatabase.Migrator().DropTable(&server_structs.Channel{})
	require.NoError(t, err, "Error tearing down channel DB")
	channelCache.DeleteAll()
}

func InsertMockChannel(c server_structs.Channel) error {
	return ServerDatabase.Create(&c).Error
}
