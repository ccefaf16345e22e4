package command

import (
	"fmt"
	"os"

	"github.com/pixil98/go-errors"
	"github.com/RednibCoding/mudden-sub001/internal/game"
	"github.com/RednibCoding/mudden-sub001/internal/quest"
	"github.com/RednibCoding/mudden-sub001/internal/storage"
)

type StorageConfig struct {
	Players   AssetConfig[*game.Player]        `json:"players"`
	Enemies   AssetConfig[*game.EnemyTemplate] `json:"enemies"`
	Locations AssetConfig[*game.Location]      `json:"locations"`
	Quests    AssetConfig[*quest.Quest]        `json:"quests"`
}

// Stores bundles the loaded content and player stores.
type Stores struct {
	Players   *storage.FileStore[*game.Player]
	Enemies   *storage.FileStore[*game.EnemyTemplate]
	Locations *storage.FileStore[*game.Location]
	Quests    *storage.FileStore[*quest.Quest]
}

func (c *StorageConfig) BuildStores() (*Stores, error) {
	players, err := c.Players.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating player store: %w", err)
	}
	enemies, err := c.Enemies.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating enemy store: %w", err)
	}
	locations, err := c.Locations.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating location store: %w", err)
	}
	quests, err := c.Quests.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating quest store: %w", err)
	}

	return &Stores{
		Players:   players,
		Enemies:   enemies,
		Locations: locations,
		Quests:    quests,
	}, nil
}

func (c *StorageConfig) validate() error {
	el := errors.NewErrorList()
	el.Add(c.Players.Validate("players"))
	el.Add(c.Enemies.Validate("enemies"))
	el.Add(c.Locations.Validate("locations"))
	el.Add(c.Quests.Validate("quests"))
	return el.Err()
}

type AssetConfig[T storage.ValidatingSpec] struct {
	Path string `json:"path"`
}

func (c *AssetConfig[T]) Validate(name string) error {
	if c.Path == "" {
		return fmt.Errorf("%s: path is required", name)
	}
	_, err := os.Stat(c.Path)
	if err != nil {
		return fmt.Errorf("%s: invalid path %q: %w", name, c.Path, err)
	}

	return nil
}

func (c *AssetConfig[T]) BuildFileStore() (*storage.FileStore[T], error) {
	return storage.NewFileStore[T](c.Path)
}
