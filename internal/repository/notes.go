package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/JustJay7/kanzlei/internal/database"
	"gorm.io/gorm"
)

// NotizRepository stores notes, tasks, deadlines and archive snapshots of a case.
type NotizRepository struct {
	db *gorm.DB
}

func NewNotizRepository(db *gorm.DB) *NotizRepository {
	return &NotizRepository{db: db}
}

// ListByAkte returns every note of a case, newest first.
func (r *NotizRepository) ListByAkte(ctx context.Context, akteID string) ([]database.Notiz, error) {
	notes := []database.Notiz{}
	err := r.db.WithContext(ctx).
		Where("akte_id = ?", akteID).
		Order("erstellt_am DESC").
		Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notes of %s: %w", akteID, err)
	}
	return notes, nil
}

// ListTasks returns Aufgaben and Fristen of a case, earliest due date first.
func (r *NotizRepository) ListTasks(ctx context.Context, akteID string) ([]database.Notiz, error) {
	tasks := []database.Notiz{}
	err := r.db.WithContext(ctx).
		Where("akte_id = ? AND typ IN ?", akteID, []string{database.TypAufgabe, database.TypFrist}).
		Order("erledigt ASC").
		Order("faellig_am ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks of %s: %w", akteID, err)
	}
	return tasks, nil
}

func (r *NotizRepository) Get(ctx context.Context, akteID, id string) (*database.Notiz, error) {
	var note database.Notiz
	err := r.db.WithContext(ctx).Where("id = ? AND akte_id = ?", id, akteID).Take(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load note %s: %w", id, err)
	}
	return &note, nil
}

func (r *NotizRepository) Create(ctx context.Context, note *database.Notiz) error {
	if note.Typ == "" {
		note.Typ = database.TypNotiz
	}
	if err := r.db.WithContext(ctx).Create(note).Error; err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

// Update applies changes, a column to value map, to a note of the case.
func (r *NotizRepository) Update(ctx context.Context, akteID, id string, changes map[string]interface{}) (*database.Notiz, error) {
	note, err := r.Get(ctx, akteID, id)
	if err != nil {
		return nil, err
	}
	if len(changes) > 0 {
		if err := r.db.WithContext(ctx).Model(note).Updates(changes).Error; err != nil {
			return nil, fmt.Errorf("failed to update note %s: %w", id, err)
		}
	}
	return r.Get(ctx, akteID, id)
}

// Complete marks a task as done.
func (r *NotizRepository) Complete(ctx context.Context, akteID, id string) (*database.Notiz, error) {
	return r.Update(ctx, akteID, id, map[string]interface{}{"erledigt": true})
}

func (r *NotizRepository) Delete(ctx context.Context, akteID, id string) error {
	result := r.db.WithContext(ctx).Where("id = ? AND akte_id = ?", id, akteID).Delete(&database.Notiz{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete note %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByAkte removes every note of a case and reports how many went.
func (r *NotizRepository) DeleteByAkte(ctx context.Context, akteID string) (int64, error) {
	result := r.db.WithContext(ctx).Where("akte_id = ?", akteID).Delete(&database.Notiz{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete notes of %s: %w", akteID, result.Error)
	}
	return result.RowsAffected, nil
}
