package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Table is a schema-less repository over a single SQL table. INSERT and
// UPDATE column lists come straight from the request body, so unknown keys
// surface as SQL errors.
type Table struct {
	db          *gorm.DB
	name        string
	jsonColumns map[string]bool
}

// NewTable creates a repository for name. Values of jsonColumns are stored
// as serialized JSON and decoded again on read.
func NewTable(db *gorm.DB, name string, jsonColumns ...string) *Table {
	cols := make(map[string]bool, len(jsonColumns))
	for _, c := range jsonColumns {
		cols[c] = true
	}
	return &Table{db: db, name: name, jsonColumns: cols}
}

func (t *Table) Name() string {
	return t.name
}

func (t *Table) FindAll(ctx context.Context) ([]Record, error) {
	var rows []map[string]interface{}
	if err := t.db.WithContext(ctx).Table(t.name).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", t.name, err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, t.decode(row))
	}
	return records, nil
}

func (t *Table) FindByID(ctx context.Context, id string) (Record, error) {
	row := map[string]interface{}{}
	err := t.db.WithContext(ctx).Table(t.name).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s %s: %w", t.name, id, err)
	}
	return t.decode(row), nil
}

// Create inserts exactly the keys of body, generating an id when none is given.
func (t *Table) Create(ctx context.Context, body Record) (Record, error) {
	values, err := t.encode(body)
	if err != nil {
		return nil, err
	}

	id := values.String("id")
	if id == "" {
		id = uuid.New().String()
	}
	values["id"] = id

	if err := t.db.WithContext(ctx).Table(t.name).Create(map[string]interface{}(values)).Error; err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", t.name, err)
	}
	return t.FindByID(ctx, id)
}

// Update overwrites every column present in body except id.
func (t *Table) Update(ctx context.Context, id string, body Record) (Record, error) {
	if _, err := t.FindByID(ctx, id); err != nil {
		return nil, err
	}

	values, err := t.encode(body)
	if err != nil {
		return nil, err
	}
	delete(values, "id")

	if len(values) > 0 {
		err := t.db.WithContext(ctx).
			Table(t.name).
			Where("id = ?", id).
			Updates(map[string]interface{}(values)).Error
		if err != nil {
			return nil, fmt.Errorf("failed to update %s %s: %w", t.name, id, err)
		}
	}
	return t.FindByID(ctx, id)
}

func (t *Table) Delete(ctx context.Context, id string) error {
	result := t.db.WithContext(ctx).Exec("DELETE FROM ? WHERE id = ?", clause.Table{Name: t.name}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete %s %s: %w", t.name, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *Table) encode(body Record) (Record, error) {
	values := body.Clone()
	for col := range t.jsonColumns {
		v, ok := values[col]
		if !ok || v == nil {
			continue
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s.%s: %w", t.name, col, err)
		}
		values[col] = string(data)
	}
	return values, nil
}

func (t *Table) decode(row map[string]interface{}) Record {
	record := make(Record, len(row))
	for col, v := range row {
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		if s, ok := v.(string); ok && t.jsonColumns[col] {
			var decoded interface{}
			if err := json.Unmarshal([]byte(s), &decoded); err == nil {
				v = decoded
			}
		}
		record[col] = v
	}
	return record
}
