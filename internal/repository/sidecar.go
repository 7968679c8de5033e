package repository

import (
	"context"
	"fmt"
	"path"

	"github.com/JustJay7/kanzlei/internal/storage"
	"github.com/JustJay7/kanzlei/pkg/logger"
	"github.com/google/uuid"
)

// PathColumn holds the relative path of a row's JSON sidecar file.
const PathColumn = "stammdaten_pfad"

// Keys owned by the row itself and never written to the sidecar file.
var reservedKeys = map[string]bool{
	"id":         true,
	PathColumn:   true,
	"created_at": true,
}

// Sidecar stores a fixed set of columns in SQL and every other body field
// in a JSON file under master_data/<kind>/<id>.json. Reads merge both.
// There is no transaction spanning the row and the file.
type Sidecar struct {
	table   *Table
	files   *storage.FileStore
	kind    string
	columns map[string]bool
	log     *logger.Logger
}

// NewSidecar wraps table. columns lists the body keys kept in SQL.
func NewSidecar(table *Table, files *storage.FileStore, kind string, log *logger.Logger, columns ...string) *Sidecar {
	cols := make(map[string]bool, len(columns))
	for _, c := range columns {
		cols[c] = true
	}
	return &Sidecar{
		table:   table,
		files:   files,
		kind:    kind,
		columns: cols,
		log:     log.With("repository", kind),
	}
}

func (s *Sidecar) FindAll(ctx context.Context) ([]Record, error) {
	rows, err := s.table.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		rows[i] = s.attach(row)
	}
	return rows, nil
}

func (s *Sidecar) FindByID(ctx context.Context, id string) (Record, error) {
	if !storage.ValidName(id) {
		return nil, ErrInvalidID
	}
	row, err := s.table.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.attach(row), nil
}

func (s *Sidecar) Create(ctx context.Context, body Record) (Record, error) {
	id := body.String("id")
	if id == "" {
		id = uuid.New().String()
	}
	if !storage.ValidName(id) {
		return nil, ErrInvalidID
	}
	// The file of an existing row must not be overwritten or cleaned up below.
	if _, err := s.table.FindByID(ctx, id); err == nil {
		return nil, fmt.Errorf("%s %s already exists", s.kind, id)
	}

	cols, extras := s.split(body)
	rel := s.filePath(id)
	if err := s.files.WriteJSON(rel, extras); err != nil {
		return nil, fmt.Errorf("failed to write stammdaten for %s %s: %w", s.kind, id, err)
	}

	cols["id"] = id
	cols[PathColumn] = rel
	row, err := s.table.Create(ctx, cols)
	if err != nil {
		if rmErr := s.files.Remove(rel); rmErr != nil {
			s.log.Warn("Failed to remove orphaned stammdaten file", "path", rel, "error", rmErr)
		}
		return nil, err
	}
	return merge(row, extras), nil
}

// Update replaces the SQL columns present in body and rewrites the sidecar
// file with the remaining fields.
func (s *Sidecar) Update(ctx context.Context, id string, body Record) (Record, error) {
	if !storage.ValidName(id) {
		return nil, ErrInvalidID
	}
	existing, err := s.table.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	cols, extras := s.split(body)
	rel := existing.String(PathColumn)
	if rel == "" {
		rel = s.filePath(id)
		cols[PathColumn] = rel
	}
	if err := s.files.WriteJSON(rel, extras); err != nil {
		return nil, fmt.Errorf("failed to write stammdaten for %s %s: %w", s.kind, id, err)
	}

	row, err := s.table.Update(ctx, id, cols)
	if err != nil {
		return nil, err
	}
	return merge(row, extras), nil
}

func (s *Sidecar) Delete(ctx context.Context, id string) error {
	if !storage.ValidName(id) {
		return ErrInvalidID
	}
	existing, err := s.table.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.table.Delete(ctx, id); err != nil {
		return err
	}

	if rel := existing.String(PathColumn); rel != "" {
		if err := s.files.Remove(rel); err != nil {
			s.log.Warn("Failed to remove stammdaten file", "id", id, "path", rel, "error", err)
		}
	}
	return nil
}

func (s *Sidecar) filePath(id string) string {
	return path.Join("master_data", s.kind, id+".json")
}

func (s *Sidecar) split(body Record) (Record, Record) {
	cols := Record{}
	extras := Record{}
	for k, v := range body {
		switch {
		case s.columns[k]:
			cols[k] = v
		case reservedKeys[k]:
		default:
			extras[k] = v
		}
	}
	return cols, extras
}

// attach merges the sidecar file into row. A missing or unreadable file
// leaves the bare row.
func (s *Sidecar) attach(row Record) Record {
	rel := row.String(PathColumn)
	if rel == "" {
		return row
	}

	var extras Record
	if err := s.files.ReadJSON(rel, &extras); err != nil {
		s.log.Warn("Stammdaten file unreadable, returning SQL row only",
			"id", row.String("id"),
			"path", rel,
			"error", err,
		)
		return row
	}
	return merge(row, extras)
}

func merge(row, extras Record) Record {
	out := make(Record, len(row)+len(extras))
	for k, v := range extras {
		out[k] = v
	}
	for k, v := range row {
		out[k] = v
	}
	return out
}
