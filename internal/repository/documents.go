package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/JustJay7/kanzlei/internal/database"
	"gorm.io/gorm"
)

// DokumentRepository stores document metadata. File contents are not handled here.
type DokumentRepository struct {
	db *gorm.DB
}

func NewDokumentRepository(db *gorm.DB) *DokumentRepository {
	return &DokumentRepository{db: db}
}

func (r *DokumentRepository) ListByAkte(ctx context.Context, akteID string) ([]database.Dokument, error) {
	docs := []database.Dokument{}
	err := r.db.WithContext(ctx).
		Where("akte_id = ?", akteID).
		Order("hochgeladen_am DESC").
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list documents of %s: %w", akteID, err)
	}
	return docs, nil
}

func (r *DokumentRepository) Get(ctx context.Context, akteID, id string) (*database.Dokument, error) {
	var doc database.Dokument
	err := r.db.WithContext(ctx).Where("id = ? AND akte_id = ?", id, akteID).Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", id, err)
	}
	return &doc, nil
}

func (r *DokumentRepository) Create(ctx context.Context, doc *database.Dokument) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

func (r *DokumentRepository) Delete(ctx context.Context, akteID, id string) error {
	result := r.db.WithContext(ctx).Where("id = ? AND akte_id = ?", id, akteID).Delete(&database.Dokument{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DokumentRepository) DeleteByAkte(ctx context.Context, akteID string) (int64, error) {
	result := r.db.WithContext(ctx).Where("akte_id = ?", akteID).Delete(&database.Dokument{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete documents of %s: %w", akteID, result.Error)
	}
	return result.RowsAffected, nil
}
