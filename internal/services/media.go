package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/do"

	"boostbot/internal/models"
	"boostbot/internal/pkg/caching"
)

var mediaExtensions = []string{".jpg", ".jpeg", ".png"}

// ServiceMedia resolves the image attached to a message kind. Images live in a directory as
// <kind>.<ext>, matched case-insensitively; once uploaded, the Telegram file id is reused.
type ServiceMedia struct {
	container *do.Injector
	dir       string
	cache     caching.Cache
}

func NewServiceMedia(container *do.Injector) (*ServiceMedia, error) {
	dir, err := do.InvokeNamed[string](container, "images-dir")
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	return &ServiceMedia{container, dir, cache}, nil
}

func (service *ServiceMedia) Resolve(ctx context.Context, kind models.MessageKind) (*models.Photo, error) {
	var fileID string
	err := service.cache.Get(ctx, DBKeyMediaFileID(string(kind)), &fileID)
	if err == nil && fileID != "" {
		return &models.Photo{FileID: fileID}, nil
	}
	if err != nil && !errors.Is(err, caching.ErrCacheMiss) {
		return nil, err
	}

	path, err := service.find(string(kind))
	if err != nil || path == "" {
		return nil, err
	}
	return &models.Photo{Path: path}, nil
}

func (service *ServiceMedia) Remember(ctx context.Context, kind models.MessageKind, fileID string) error {
	return service.cache.Set(ctx, DBKeyMediaFileID(string(kind)), fileID, CACHE_TTL_7_DAYS)
}

func (service *ServiceMedia) find(name string) (string, error) {
	if service.dir == "" {
		return "", nil
	}

	entries, err := os.ReadDir(service.dir)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		base := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if !strings.EqualFold(base, name) {
			continue
		}
		for _, allowed := range mediaExtensions {
			if ext == allowed {
				return filepath.Join(service.dir, entry.Name()), nil
			}
		}
	}
	return "", nil
}
