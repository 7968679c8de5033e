package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/JustJay7/kanzlei/internal/aktenzeichen"
	"github.com/JustJay7/kanzlei/internal/balance"
	"github.com/JustJay7/kanzlei/internal/database"
	"github.com/JustJay7/kanzlei/internal/repository"
	"github.com/JustJay7/kanzlei/internal/storage"
	"github.com/JustJay7/kanzlei/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrInvalidInput marks request data the client has to fix.
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidAktenzeichen = fmt.Errorf("%w: aktenzeichen must look like <n>.<yy>.%s", ErrInvalidInput, aktenzeichen.Suffix)
)

// ArchiveSnapshot is stored as the inhalt of an archiv note when a case is closed.
type ArchiveSnapshot struct {
	ArchiviertAm string            `json:"archiviertAm"`
	Format       string            `json:"format"`
	Mandant      repository.Record `json:"mandant"`
}

// AktenService implements the records endpoint and everything hanging off a case.
type AktenService struct {
	db        *gorm.DB
	akten     *repository.Table
	mandanten repository.Repository
	notes     *repository.NotizRepository
	docs      *repository.DokumentRepository
	generator *aktenzeichen.Generator
	files     *storage.FileStore
	log       *logger.Logger

	// serializes case number generation with the insert that uses it
	createMu sync.Mutex
}

func NewAktenService(
	db *gorm.DB,
	mandanten repository.Repository,
	generator *aktenzeichen.Generator,
	files *storage.FileStore,
	log *logger.Logger,
) *AktenService {
	return &AktenService{
		db:        db,
		akten:     repository.NewTable(db, "akten", "metadaten"),
		mandanten: mandanten,
		notes:     repository.NewNotizRepository(db),
		docs:      repository.NewDokumentRepository(db),
		generator: generator,
		files:     files,
		log:       log.With("service", "akten"),
	}
}

func (s *AktenService) FindAll(ctx context.Context) ([]repository.Record, error) {
	return s.akten.FindAll(ctx)
}

func (s *AktenService) FindByID(ctx context.Context, id string) (repository.Record, error) {
	return s.akten.FindByID(ctx, id)
}

// Create stores a new case. A missing aktenzeichen is generated, a supplied
// one must be well formed.
func (s *AktenService) Create(ctx context.Context, body repository.Record) (repository.Record, error) {
	values := body.Clone()

	id := values.String("id")
	if id == "" {
		id = uuid.New().String()
	}
	if !storage.ValidName(id) {
		return nil, repository.ErrInvalidID
	}
	values["id"] = id

	if values.String("status") == "" {
		values["status"] = database.StatusOffen
	}
	values["dokumente_pfad"] = documentDir(id)

	s.createMu.Lock()
	defer s.createMu.Unlock()

	az := values.String("aktenzeichen")
	if az == "" {
		next, err := s.generator.Next(ctx)
		if err != nil {
			return nil, err
		}
		values["aktenzeichen"] = next
	} else if !aktenzeichen.Valid(az) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAktenzeichen, az)
	}

	record, err := s.akten.Create(ctx, values)
	if err != nil {
		return nil, err
	}

	if err := s.files.EnsureDir(values.String("dokumente_pfad")); err != nil {
		s.log.Warn("Failed to create case directory", "id", id, "error", err)
	}

	s.log.Info("Akte created", "id", id, "aktenzeichen", record.String("aktenzeichen"))
	return record, nil
}

// Update replaces the given columns. Moving a case to geschlossen stores
// an archiv note with the client's master data.
func (s *AktenService) Update(ctx context.Context, id string, body repository.Record) (repository.Record, error) {
	existing, err := s.akten.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	values := body.Clone()
	delete(values, "id")
	if az, ok := values["aktenzeichen"]; ok {
		str := values.String("aktenzeichen")
		if az == nil || (str != existing.String("aktenzeichen") && !aktenzeichen.Valid(str)) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAktenzeichen, str)
		}
	}

	record, err := s.akten.Update(ctx, id, values)
	if err != nil {
		return nil, err
	}

	if existing.String("status") != database.StatusGeschlossen &&
		record.String("status") == database.StatusGeschlossen {
		s.archive(ctx, record)
	}
	return record, nil
}

// Delete removes the case row, then its notes, documents, Gegner links and
// directory. Failures after the row is gone are only logged.
func (s *AktenService) Delete(ctx context.Context, id string) error {
	if err := s.akten.Delete(ctx, id); err != nil {
		return err
	}
	log := s.log.With("id", id)

	if n, err := s.notes.DeleteByAkte(ctx, id); err != nil {
		log.Warn("Failed to delete notes of removed case", "error", err)
	} else if n > 0 {
		log.Debug("Deleted notes of removed case", "count", n)
	}

	if n, err := s.docs.DeleteByAkte(ctx, id); err != nil {
		log.Warn("Failed to delete documents of removed case", "error", err)
	} else if n > 0 {
		log.Debug("Deleted documents of removed case", "count", n)
	}

	err := s.db.WithContext(ctx).
		Model(&database.Gegner{}).
		Where("akten_id = ?", id).
		Update("akten_id", nil).Error
	if err != nil {
		log.Warn("Failed to unlink gegner of removed case", "error", err)
	}

	if storage.ValidName(id) {
		if err := s.files.RemoveAll(caseDir(id)); err != nil {
			log.Warn("Failed to remove case directory", "error", err)
		}
	}

	log.Info("Akte deleted")
	return nil
}

// NextAktenzeichen previews the number the next created case would get.
func (s *AktenService) NextAktenzeichen(ctx context.Context) (string, error) {
	return s.generator.Next(ctx)
}

func (s *AktenService) Notes(ctx context.Context, akteID string) ([]database.Notiz, error) {
	if err := s.exists(ctx, akteID); err != nil {
		return nil, err
	}
	return s.notes.ListByAkte(ctx, akteID)
}

func (s *AktenService) AddNote(ctx context.Context, akteID string, note *database.Notiz) error {
	if err := s.exists(ctx, akteID); err != nil {
		return err
	}
	switch note.Typ {
	case "", database.TypNotiz, database.TypAufgabe, database.TypFrist:
	default:
		return fmt.Errorf("%w: unknown typ %q", ErrInvalidInput, note.Typ)
	}
	note.ID = ""
	note.AkteID = akteID
	return s.notes.Create(ctx, note)
}

func (s *AktenService) UpdateNote(ctx context.Context, akteID, noteID string, changes map[string]interface{}) (*database.Notiz, error) {
	if err := s.exists(ctx, akteID); err != nil {
		return nil, err
	}
	return s.notes.Update(ctx, akteID, noteID, changes)
}

func (s *AktenService) DeleteNote(ctx context.Context, akteID, noteID string) error {
	if err := s.exists(ctx, akteID); err != nil {
		return err
	}
	return s.notes.Delete(ctx, akteID, noteID)
}

// Tasks lists Aufgaben and Fristen of a case.
func (s *AktenService) Tasks(ctx context.Context, akteID string) ([]database.Notiz, error) {
	if err := s.exists(ctx, akteID); err != nil {
		return nil, err
	}
	return s.notes.ListTasks(ctx, akteID)
}

func (s *AktenService) CompleteTask(ctx context.Context, akteID, noteID string) (*database.Notiz, error) {
	if err := s.exists(ctx, akteID); err != nil {
		return nil, err
	}
	note, err := s.notes.Get(ctx, akteID, noteID)
	if err != nil {
		return nil, err
	}
	if note.Typ != database.TypAufgabe && note.Typ != database.TypFrist {
		return nil, fmt.Errorf("%w: %s is not a task", ErrInvalidInput, noteID)
	}
	return s.notes.Complete(ctx, akteID, noteID)
}

func (s *AktenService) Documents(ctx context.Context, akteID string) ([]database.Dokument, error) {
	if err := s.exists(ctx, akteID); err != nil {
		return nil, err
	}
	return s.docs.ListByAkte(ctx, akteID)
}

// AddDocument records document metadata. Without an explicit pfad the file
// is expected in the case's dokumente directory; an explicit pfad must
// stay inside it.
func (s *AktenService) AddDocument(ctx context.Context, akteID string, doc *database.Dokument) error {
	if err := s.exists(ctx, akteID); err != nil {
		return err
	}
	if !storage.ValidName(doc.Dateiname) {
		return fmt.Errorf("%w: dateiname %q", ErrInvalidInput, doc.Dateiname)
	}
	if doc.Pfad == "" {
		doc.Pfad = path.Join(documentDir(akteID), doc.Dateiname)
	} else {
		p := path.Clean(doc.Pfad)
		if !inDocumentDir(akteID, p) {
			return fmt.Errorf("%w: pfad %q outside %s", ErrInvalidInput, doc.Pfad, documentDir(akteID))
		}
		doc.Pfad = p
	}
	doc.ID = ""
	doc.AkteID = akteID
	return s.docs.Create(ctx, doc)
}

// RemoveDocument deletes the metadata row and, best effort, the file.
func (s *AktenService) RemoveDocument(ctx context.Context, akteID, docID string) error {
	if err := s.exists(ctx, akteID); err != nil {
		return err
	}
	doc, err := s.docs.Get(ctx, akteID, docID)
	if err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, akteID, docID); err != nil {
		return err
	}
	// rows written before pfad was confined may point anywhere
	if !inDocumentDir(akteID, path.Clean(doc.Pfad)) {
		s.log.Warn("Document file outside case directory left in place", "id", docID, "path", doc.Pfad)
		return nil
	}
	if err := s.files.Remove(doc.Pfad); err != nil {
		s.log.Warn("Failed to remove document file", "id", docID, "path", doc.Pfad, "error", err)
	}
	return nil
}

// Balance sums Soll and Haben over the documents and notes of a case.
func (s *AktenService) Balance(ctx context.Context, akteID string) (balance.Summary, error) {
	if err := s.exists(ctx, akteID); err != nil {
		return balance.Summary{}, err
	}

	docs, err := s.docs.ListByAkte(ctx, akteID)
	if err != nil {
		return balance.Summary{}, err
	}
	notes, err := s.notes.ListByAkte(ctx, akteID)
	if err != nil {
		return balance.Summary{}, err
	}

	items := make([]balance.Item, 0, len(docs)+len(notes))
	for _, d := range docs {
		items = append(items, balance.Item{Soll: d.BetragSoll, Haben: d.BetragHaben})
	}
	for _, n := range notes {
		items = append(items, balance.Item{Soll: n.BetragSoll, Haben: n.BetragHaben})
	}
	return balance.Compute(items), nil
}

func (s *AktenService) exists(ctx context.Context, akteID string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&database.Akte{}).Where("id = ?", akteID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up akte %s: %w", akteID, err)
	}
	if count == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *AktenService) archive(ctx context.Context, akte repository.Record) {
	id := akte.String("id")
	log := s.log.With("id", id)

	snapshot := ArchiveSnapshot{
		ArchiviertAm: time.Now().UTC().Format(time.RFC3339),
		Format:       "json",
	}
	if mandantID := akte.String("mandanten_id"); mandantID != "" {
		mandant, err := s.mandanten.FindByID(ctx, mandantID)
		if err != nil {
			log.Warn("Mandant for archive snapshot not available", "mandanten_id", mandantID, "error", err)
		} else {
			snapshot.Mandant = mandant
		}
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		log.Error("Failed to encode archive snapshot", "error", err)
		return
	}

	note := &database.Notiz{
		AkteID: id,
		Titel:  fmt.Sprintf("Archiv %s", akte.String("aktenzeichen")),
		Inhalt: string(data),
		Typ:    database.TypArchiv,
	}
	if err := s.notes.Create(ctx, note); err != nil {
		log.Error("Failed to store archive snapshot", "error", err)
		return
	}
	log.Info("Akte archived", "note_id", note.ID)
}

func caseDir(id string) string {
	return path.Join("akten", id)
}

func documentDir(akteID string) string {
	return path.Join(caseDir(akteID), "dokumente")
}

// inDocumentDir reports whether the cleaned path p names a file below the
// case's dokumente directory.
func inDocumentDir(akteID, p string) bool {
	return strings.HasPrefix(p, documentDir(akteID)+"/")
}
