package service

import (
	"context"
	"fmt"

	"github.com/arealivre/areas-api/internal/domain"
	"github.com/arealivre/areas-api/internal/repository"
	"github.com/arealivre/areas-api/pkg/logger"
)

// GuestResolver finds or creates the lightweight Guest identity behind
// an external booking, keyed by normalized CPF first and exact phone
// second.
type GuestResolver interface {
	Resolve(ctx context.Context, in domain.GuestInput) (*domain.Guest, error)
}

type guestResolver struct {
	guestRepo repository.GuestRepository
}

func NewGuestResolver(guestRepo repository.GuestRepository) GuestResolver {
	return &guestResolver{guestRepo: guestRepo}
}

func (s *guestResolver) Resolve(ctx context.Context, in domain.GuestInput) (*domain.Guest, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.lookup(ctx, in)
	if err != nil {
		return nil, domain.Internal(err)
	}

	if existing == nil {
		return s.create(ctx, in)
	}

	// Enrich the known guest, persisting only when something changed.
	if existing.Merge(in) {
		updated, err := s.guestRepo.Update(ctx, existing)
		if err != nil {
			if domain.KindOf(err) == domain.KindConflict {
				return nil, err
			}
			return nil, domain.Internal(err)
		}
		return updated, nil
	}
	return existing, nil
}

func (s *guestResolver) lookup(ctx context.Context, in domain.GuestInput) (*domain.Guest, error) {
	if in.CPF != "" {
		g, err := s.guestRepo.FindByCPF(ctx, in.CPF)
		if err != nil {
			return nil, err
		}
		if g != nil {
			return g, nil
		}
	}
	return s.guestRepo.FindByPhone(ctx, in.Phone)
}

func (s *guestResolver) create(ctx context.Context, in domain.GuestInput) (*domain.Guest, error) {
	guest := &domain.Guest{
		Name:      in.Name,
		Phone:     in.Phone,
		CPF:       in.CPF,
		BirthDate: in.BirthDate,
	}

	created, err := s.guestRepo.Create(ctx, guest)
	if err == nil {
		return created, nil
	}
	if domain.KindOf(err) != domain.KindConflict {
		return nil, domain.Internal(err)
	}

	// A concurrent submission won the insert for the same CPF. Re-read
	// and reuse that record instead of failing the booking.
	logger.WarnContext(ctx, "Guest insert lost a duplicate race, reusing existing record", "cpf_present", in.CPF != "")
	winner, lookupErr := s.lookup(ctx, in)
	if lookupErr != nil {
		return nil, domain.Internal(lookupErr)
	}
	if winner == nil {
		return nil, domain.Internal(fmt.Errorf("guest uniqueness conflict but no matching record found"))
	}
	if winner.Merge(in) {
		updated, updateErr := s.guestRepo.Update(ctx, winner)
		if updateErr != nil {
			return nil, domain.Internal(updateErr)
		}
		return updated, nil
	}
	return winner, nil
}
