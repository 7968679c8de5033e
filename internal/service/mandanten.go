package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JustJay7/kanzlei/internal/database"
	"github.com/JustJay7/kanzlei/internal/repository"
	"gorm.io/gorm"
)

// ErrMandantHasOpenAkten blocks deleting a client that still has open cases.
var ErrMandantHasOpenAkten = errors.New("mandant has open akten")

// MandantenService guards deletion of clients referenced by open cases.
type MandantenService struct {
	repository.Repository
	db *gorm.DB
}

func NewMandantenService(db *gorm.DB, repo repository.Repository) *MandantenService {
	return &MandantenService{Repository: repo, db: db}
}

func (s *MandantenService) Delete(ctx context.Context, id string) error {
	open, err := s.OpenAkten(ctx, id)
	if err != nil {
		return err
	}
	if len(open) > 0 {
		return fmt.Errorf("%w: %s", ErrMandantHasOpenAkten, strings.Join(open, ", "))
	}
	return s.Repository.Delete(ctx, id)
}

// OpenAkten returns the case numbers of open cases referencing the client.
func (s *MandantenService) OpenAkten(ctx context.Context, mandantID string) ([]string, error) {
	var open []string
	err := s.db.WithContext(ctx).
		Model(&database.Akte{}).
		Where("mandanten_id = ? AND status = ?", mandantID, database.StatusOffen).
		Order("aktenzeichen").
		Pluck("aktenzeichen", &open).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check open akten of %s: %w", mandantID, err)
	}
	return open, nil
}
