package repository

import (
	"context"
	"errors"
	"kusheet-cart/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrKeyNotFound = errors.New("storage key not found")

// StorageRepository is a namespaced string key/value store. Each device gets
// its own namespace, the way a browser gets its own local storage.
type StorageRepository interface {
	Get(ctx context.Context, namespace, key string) (string, error)
	Set(ctx context.Context, namespace, key, value string) error
	Delete(ctx context.Context, namespace, key string) error
}

type storageRepoImpl struct {
	db *gorm.DB
}

func NewStorageRepository(db *gorm.DB) StorageRepository {
	return &storageRepoImpl{
		db: db,
	}
}

func (r *storageRepoImpl) Get(ctx context.Context, namespace, key string) (string, error) {
	var entry model.StorageEntry
	err := r.db.WithContext(ctx).
		Where(map[string]interface{}{"namespace": namespace, "key": key}).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrKeyNotFound
		}
		return "", err
	}

	return entry.Value, nil
}

func (r *storageRepoImpl) Set(ctx context.Context, namespace, key, value string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "namespace"}, {Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": time.Now(),
		}),
	}).Create(&model.StorageEntry{
		Namespace: namespace,
		Key:       key,
		Value:     value,
	}).Error
}

func (r *storageRepoImpl) Delete(ctx context.Context, namespace, key string) error {
	return r.db.WithContext(ctx).
		Where(map[string]interface{}{"namespace": namespace, "key": key}).
		Delete(&model.StorageEntry{}).Error
}

// LocalStorage is the storage of a single device.
type LocalStorage interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

type localStorage struct {
	repo      StorageRepository
	namespace string
}

func NewLocalStorage(repo StorageRepository, deviceID string) LocalStorage {
	return &localStorage{
		repo:      repo,
		namespace: deviceID,
	}
}

func (s *localStorage) GetItem(ctx context.Context, key string) (string, error) {
	return s.repo.Get(ctx, s.namespace, key)
}

func (s *localStorage) SetItem(ctx context.Context, key, value string) error {
	return s.repo.Set(ctx, s.namespace, key, value)
}

func (s *localStorage) RemoveItem(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, s.namespace, key)
}
