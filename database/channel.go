package database

import (
	"context"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/stationops/mediadepot/server_structs"
	"github.com/stationops/mediadepot/storage"
)

// Channel rows change rarely but are consulted on every file operation,
// so lookups go through a small TTL cache.
var channelCache = ttlcache.New(
	ttlcache.WithTTL[int, server_structs.Channel](5 * time.Minute),
)

// LaunchChannelCache starts the cache eviction goroutine and stops it
// once ctx is canceled.
func LaunchChannelCache(ctx context.Context, egrp *errgroup.Group) {
	go channelCache.Start()
	egrp.Go(func() error {
		<-ctx.Done()
		channelCache.Stop()
		return nil
	})
}

func CreateChannel(name, storageRoot string, extraExtensions []string) (*server_structs.Channel, error) {
	channel := &server_structs.Channel{
		Name:            name,
		StorageRoot:     storageRoot,
		ExtraExtensions: strings.Join(extraExtensions, ","),
	}
	if result := ServerDatabase.Create(channel); result.Error != nil {
		return nil, errors.Wrapf(result.Error, "failed to create channel %s", name)
	}
	return channel, nil
}

func GetChannel(id int) (*server_structs.Channel, error) {
	if item := channelCache.Get(id); item != nil {
		channel := item.Value()
		return &channel, nil
	}

	channel := &server_structs.Channel{}
	if result := ServerDatabase.First(channel, "id = ?", id); result.Error != nil {
		return nil, result.Error
	}
	channelCache.Set(id, *channel, ttlcache.DefaultTTL)
	return channel, nil
}

func GetChannelByName(name string) (*server_structs.Channel, error) {
	channel := &server_structs.Channel{}
	if result := ServerDatabase.First(channel, "name = ?", name); result.Error != nil {
		return nil, result.Error
	}
	return channel, nil
}

func ListChannels() ([]server_structs.Channel, error) {
	channels := []server_structs.Channel{}
	if result := ServerDatabase.Order("id").Find(&channels); result.Error != nil {
		return nil, result.Error
	}
	return channels, nil
}

// UpdateChannel rewrites the stored fields of a channel. Empty name or
// storageRoot keep the current value; a nil extraExtensions slice keeps
// the current list while an empty one clears it.
func UpdateChannel(id int, name, storageRoot string, extraExtensions []string) (*server_structs.Channel, error) {
	channel := &server_structs.Channel{}
	if result := ServerDatabase.First(channel, "id = ?", id); result.Error != nil {
		return nil, result.Error
	}

	if name != "" {
		channel.Name = name
	}
	if storageRoot != "" {
		channel.StorageRoot = storageRoot
	}
	if extraExtensions != nil {
		channel.ExtraExtensions = strings.Join(extraExtensions, ",")
	}

	if result := ServerDatabase.Save(channel); result.Error != nil {
		return nil, errors.Wrapf(result.Error, "failed to update channel %d", id)
	}
	channelCache.Delete(id)
	return channel, nil
}

func DeleteChannel(id int) error {
	result := ServerDatabase.Delete(&server_structs.Channel{}, "id = ?", id)
	if result.Error != nil {
		return errors.Wrapf(result.Error, "failed to delete channel %d", id)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	channelCache.Delete(id)
	return nil
}

// StorageResolver resolves channel identifiers against the server
// database. It satisfies storage.ChannelResolver.
type StorageResolver struct{}

func (StorageResolver) StorageOf(ctx context.Context, channelID int) (storage.ChannelStorage, error) {
	channel, err := GetChannel(channelID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return storage.ChannelStorage{}, storage.BadRequest("channel not found")
		}
		return storage.ChannelStorage{}, err
	}
	return storage.ChannelStorage{
		Root:            channel.StorageRoot,
		ExtraExtensions: channel.ExtensionList(),
	}, nil
}
