package professional

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no professional matches the requested id.
var ErrNotFound = errors.New("professional not found")

type Repository interface {
	Create(ctx context.Context, p *Professional) error
	GetByID(ctx context.Context, id uuid.UUID) (*Professional, error)
	Update(ctx context.Context, p *Professional) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Professional, int, error)
}
