package documents

import (
	"context"
	"errors"
	"strings"

	"github.com/MyelinBots/resellboost-go/internal/db"
	"gorm.io/gorm"
)

/*
REPOSITORY INTERFACE
*/

// DocumentRepository stores whole JSON documents by name. It satisfies store.Backend.
type DocumentRepository interface {
	Load(ctx context.Context, name string) ([]byte, bool, error)
	Save(ctx context.Context, name string, data []byte) error
	List(ctx context.Context) ([]string, error)
}

/*
REPOSITORY IMPL
*/

type DocumentRepositoryImpl struct {
	db *db.DB
}

func NewDocumentRepository(database *db.DB) DocumentRepository {
	return &DocumentRepositoryImpl{db: database}
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (r *DocumentRepositoryImpl) Load(ctx context.Context, name string) ([]byte, bool, error) {
	var d Document
	err := r.db.DB.WithContext(ctx).Where("name = ?", norm(name)).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(d.Body), true, nil
}

// Save upserts by name.
func (r *DocumentRepositoryImpl) Save(ctx context.Context, name string, data []byte) error {
	name = norm(name)

	var existing Document
	err := r.db.DB.WithContext(ctx).Where("name = ?", name).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.DB.WithContext(ctx).Create(&Document{Name: name, Body: string(data)}).Error
		}
		return err
	}

	return r.db.DB.WithContext(ctx).
		Model(&Document{}).
		Where("name = ?", name).
		Update("body", string(data)).Error
}

func (r *DocumentRepositoryImpl) List(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.DB.WithContext(ctx).
		Model(&Document{}).
		Order("name ASC").
		Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}
