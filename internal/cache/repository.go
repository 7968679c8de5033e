package cache

import (
	"context"
	"fmt"

	"github.com/JustJay7/kanzlei/internal/repository"
	"golang.org/x/sync/singleflight"
)

// CachedRepository serves FindAll from a Cache. Concurrent misses for the
// same listing and cache generation share one database read. Any successful
// write clears the whole cache, since writes to one table change what
// others return.
type CachedRepository struct {
	repository.Repository
	key   string
	cache Cache
	group singleflight.Group
}

func Wrap(name string, repo repository.Repository, c Cache) *CachedRepository {
	return &CachedRepository{
		Repository: repo,
		key:        ListKey(name),
		cache:      c,
	}
}

func (r *CachedRepository) FindAll(ctx context.Context) ([]repository.Record, error) {
	gen := r.cache.Generation(ctx)
	if records, ok := r.cache.Get(ctx, r.key); ok {
		return records, nil
	}

	// Callers arriving after a write get a new generation and so a fresh
	// read instead of joining one that started before it.
	v, err, _ := r.group.Do(fmt.Sprintf("%s@%d", r.key, gen), func() (interface{}, error) {
		records, err := r.Repository.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		// A failed cache write only costs the next read a database round trip.
		_ = r.cache.Set(ctx, r.key, records, gen)
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]repository.Record), nil
}

func (r *CachedRepository) Create(ctx context.Context, body repository.Record) (repository.Record, error) {
	record, err := r.Repository.Create(ctx, body)
	if err != nil {
		return nil, err
	}
	r.cache.Clear(ctx)
	return record, nil
}

func (r *CachedRepository) Update(ctx context.Context, id string, body repository.Record) (repository.Record, error) {
	record, err := r.Repository.Update(ctx, id, body)
	if err != nil {
		return nil, err
	}
	r.cache.Clear(ctx)
	return record, nil
}

func (r *CachedRepository) Delete(ctx context.Context, id string) error {
	if err := r.Repository.Delete(ctx, id); err != nil {
		return err
	}
	r.cache.Clear(ctx)
	return nil
}
