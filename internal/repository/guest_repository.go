package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arealivre/areas-api/internal/domain"
)

type GuestRepository interface {
	Create(ctx context.Context, guest *domain.Guest) (*domain.Guest, error)
	FindByCPF(ctx context.Context, cpf string) (*domain.Guest, error)
	FindByPhone(ctx context.Context, phone string) (*domain.Guest, error)
	GetByID(ctx context.Context, id string) (*domain.Guest, error)
	Update(ctx context.Context, guest *domain.Guest) (*domain.Guest, error)
}

type guestRepository struct {
	pool *pgxpool.Pool
}

func NewGuestRepository(pool *pgxpool.Pool) GuestRepository {
	return &guestRepository{pool: pool}
}

const guestCols = `id, name, phone, cpf, birth_date, created_at, updated_at`

const uniqueViolation = "23505"

func scanGuest(row pgx.Row) (*domain.Guest, error) {
	var g domain.Guest
	var cpf *string
	err := row.Scan(&g.ID, &g.Name, &g.Phone, &cpf, &g.BirthDate, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if cpf != nil {
		g.CPF = *cpf
	}
	return &g, nil
}

func nullableCPF(cpf string) *string {
	if cpf == "" {
		return nil
	}
	return &cpf
}

func (r *guestRepository) Create(ctx context.Context, guest *domain.Guest) (*domain.Guest, error) {
	const q = `INSERT INTO guests (id, name, phone, cpf, birth_date)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING ` + guestCols

	if guest.ID == "" {
		guest.ID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	g, err := scanGuest(r.pool.QueryRow(ctx, q,
		guest.ID, guest.Name, guest.Phone, nullableCPF(guest.CPF), guest.BirthDate))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.Conflictf("a guest with this cpf already exists")
		}
		return nil, err
	}
	return g, nil
}

func (r *guestRepository) FindByCPF(ctx context.Context, cpf string) (*domain.Guest, error) {
	const q = `SELECT ` + guestCols + ` FROM guests WHERE cpf=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	g, err := scanGuest(r.pool.QueryRow(ctx, q, cpf))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return g, err
}

func (r *guestRepository) FindByPhone(ctx context.Context, phone string) (*domain.Guest, error) {
	const q = `SELECT ` + guestCols + ` FROM guests WHERE phone=$1 ORDER BY created_at LIMIT 1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	g, err := scanGuest(r.pool.QueryRow(ctx, q, phone))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return g, err
}

func (r *guestRepository) GetByID(ctx context.Context, id string) (*domain.Guest, error) {
	const q = `SELECT ` + guestCols + ` FROM guests WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	g, err := scanGuest(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return g, err
}

func (r *guestRepository) Update(ctx context.Context, guest *domain.Guest) (*domain.Guest, error) {
	const q = `UPDATE guests SET name=$2, phone=$3, cpf=$4, birth_date=$5, updated_at=now()
		WHERE id=$1
		RETURNING ` + guestCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	g, err := scanGuest(r.pool.QueryRow(ctx, q,
		guest.ID, guest.Name, guest.Phone, nullableCPF(guest.CPF), guest.BirthDate))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.Conflictf("a guest with this cpf already exists")
		}
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return g, nil
}
