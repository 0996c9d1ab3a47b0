package repository

import (
	"context"
	"sort"
	"sync"

	"NeighborhoodMap-App/internal/domain/model"
	"NeighborhoodMap-App/internal/domain/repository"
)

// MemoryNameColorsRepository プロセス内に名前と色の割り当てを保持する
type MemoryNameColorsRepository struct {
	mu     sync.Mutex
	colors map[string]string
}

func NewMemoryNameColorsRepository() *MemoryNameColorsRepository {
	return &MemoryNameColorsRepository{colors: make(map[string]string)}
}

var _ repository.NameColorsRepository = (*MemoryNameColorsRepository)(nil)

func (r *MemoryNameColorsRepository) Get(ctx context.Context, name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	color, ok := r.colors[name]
	if !ok {
		return "", repository.ErrNotFound
	}
	return color, nil
}

func (r *MemoryNameColorsRepository) GetOrCreate(ctx context.Context, name, candidate string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if color, ok := r.colors[name]; ok {
		return color, nil
	}
	r.colors[name] = candidate
	return candidate, nil
}

func (r *MemoryNameColorsRepository) List(ctx context.Context) ([]model.NameColor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.NameColor, 0, len(r.colors))
	for name, color := range r.colors {
		out = append(out, model.NameColor{Name: name, Color: color})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
