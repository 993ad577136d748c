package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arealivre/areas-api/internal/domain"
)

type AreaRepository interface {
	Create(ctx context.Context, area *domain.Area) (*domain.Area, error)
	GetByID(ctx context.Context, id string) (*domain.Area, error)
	List(ctx context.Context, filter AreaFilter) ([]domain.Area, int, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Area, error)
	Update(ctx context.Context, area *domain.Area) (*domain.Area, error)
	UpdateSpecialPrices(ctx context.Context, areaID string, prices []domain.SpecialPrice) error
	UpdateFAQs(ctx context.Context, areaID string, faqs []domain.FAQ) error
	Delete(ctx context.Context, id string) error
}

// AreaFilter narrows public area listings.
type AreaFilter struct {
	Active *bool
	Search string
	Limit  int
	Offset int
}

type areaRepository struct {
	pool *pgxpool.Pool
}

func NewAreaRepository(pool *pgxpool.Pool) AreaRepository {
	return &areaRepository{pool: pool}
}

const areaCols = `id, owner_id, name, description, address, neighborhood, city,
price_per_day, max_guests, amenities, special_prices, faqs, active, created_at, updated_at`

func scanArea(row pgx.Row) (*domain.Area, error) {
	var a domain.Area
	var specialPrices, faqs []byte
	err := row.Scan(
		&a.ID, &a.OwnerID, &a.Name, &a.Description, &a.Address, &a.Neighborhood, &a.City,
		&a.PricePerDay, &a.MaxGuests, &a.Amenities, &specialPrices, &faqs,
		&a.Active, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(specialPrices) > 0 {
		if err := json.Unmarshal(specialPrices, &a.SpecialPrices); err != nil {
			return nil, fmt.Errorf("failed to decode special prices: %w", err)
		}
	}
	if len(faqs) > 0 {
		if err := json.Unmarshal(faqs, &a.FAQs); err != nil {
			return nil, fmt.Errorf("failed to decode faqs: %w", err)
		}
	}
	return &a, nil
}

func (r *areaRepository) Create(ctx context.Context, area *domain.Area) (*domain.Area, error) {
	const q = `INSERT INTO areas (
		id, owner_id, name, description, address, neighborhood, city,
		price_per_day, max_guests, amenities, special_prices, faqs, active
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	RETURNING ` + areaCols

	if area.ID == "" {
		area.ID = uuid.NewString()
	}
	specialPrices, err := json.Marshal(area.SpecialPrices)
	if err != nil {
		return nil, err
	}
	faqs, err := json.Marshal(area.FAQs)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanArea(r.pool.QueryRow(ctx, q,
		area.ID, area.OwnerID, area.Name, area.Description, area.Address,
		area.Neighborhood, area.City, area.PricePerDay, area.MaxGuests,
		area.Amenities, specialPrices, faqs, area.Active,
	))
}

func (r *areaRepository) GetByID(ctx context.Context, id string) (*domain.Area, error) {
	const q = `SELECT ` + areaCols + ` FROM areas WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	a, err := scanArea(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (r *areaRepository) List(ctx context.Context, filter AreaFilter) ([]domain.Area, int, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	where := `WHERE ($1::bool IS NULL OR active = $1)
		AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%' OR address ILIKE '%' || $2 || '%')`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM areas `+where, filter.Active, filter.Search).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + areaCols + ` FROM areas ` + where + ` ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	rows, err := r.pool.Query(ctx, q, filter.Active, filter.Search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	areas := make([]domain.Area, 0, limit)
	for rows.Next() {
		a, err := scanArea(rows)
		if err != nil {
			return nil, 0, err
		}
		areas = append(areas, *a)
	}
	return areas, total, rows.Err()
}

func (r *areaRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Area, error) {
	const q = `SELECT ` + areaCols + ` FROM areas WHERE owner_id=$1 ORDER BY created_at DESC`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var areas []domain.Area
	for rows.Next() {
		a, err := scanArea(rows)
		if err != nil {
			return nil, err
		}
		areas = append(areas, *a)
	}
	return areas, rows.Err()
}

func (r *areaRepository) Update(ctx context.Context, area *domain.Area) (*domain.Area, error) {
	const q = `UPDATE areas SET
		name=$2, description=$3, address=$4, neighborhood=$5, city=$6,
		price_per_day=$7, max_guests=$8, amenities=$9, special_prices=$10,
		faqs=$11, active=$12, updated_at=now()
	WHERE id=$1
	RETURNING ` + areaCols

	specialPrices, err := json.Marshal(area.SpecialPrices)
	if err != nil {
		return nil, err
	}
	faqs, err := json.Marshal(area.FAQs)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	a, err := scanArea(r.pool.QueryRow(ctx, q,
		area.ID, area.Name, area.Description, area.Address, area.Neighborhood,
		area.City, area.PricePerDay, area.MaxGuests, area.Amenities,
		specialPrices, faqs, area.Active,
	))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// UpdateSpecialPrices writes only the embedded rule list; a deliberate
// field-level update rather than a whole-document save.
func (r *areaRepository) UpdateSpecialPrices(ctx context.Context, areaID string, prices []domain.SpecialPrice) error {
	const q = `UPDATE areas SET special_prices=$2, updated_at=now() WHERE id=$1`
	payload, err := json.Marshal(prices)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err = r.pool.Exec(ctx, q, areaID, payload)
	return err
}

func (r *areaRepository) UpdateFAQs(ctx context.Context, areaID string, faqs []domain.FAQ) error {
	const q = `UPDATE areas SET faqs=$2, updated_at=now() WHERE id=$1`
	payload, err := json.Marshal(faqs)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err = r.pool.Exec(ctx, q, areaID, payload)
	return err
}

func (r *areaRepository) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM areas WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, id)
	return err
}
