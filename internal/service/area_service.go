package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/arealivre/areas-api/internal/domain"
	"github.com/arealivre/areas-api/internal/repository"
)

// Availability is the answer to a date-range availability query.
type Availability struct {
	Available  bool    `json:"available"`
	Nights     int     `json:"nights"`
	TotalPrice float64 `json:"total_price"`
}

type AreaService interface {
	List(ctx context.Context, filter repository.AreaFilter) ([]domain.Area, int, error)
	ListMine(ctx context.Context, actor Actor) ([]domain.Area, error)
	GetByID(ctx context.Context, id string) (*domain.Area, error)
	Create(ctx context.Context, actor Actor, in *domain.AreaInput) (*domain.Area, error)
	Update(ctx context.Context, actor Actor, id string, in *domain.AreaInput) (*domain.Area, error)
	Delete(ctx context.Context, actor Actor, id string) error
	CheckAvailability(ctx context.Context, areaID, checkIn, checkOut string) (*Availability, error)

	ListSpecialPrices(ctx context.Context, actor Actor, areaID string) ([]domain.SpecialPrice, error)
	AddSpecialPrice(ctx context.Context, actor Actor, areaID string, rule *domain.SpecialPrice) (*domain.SpecialPrice, error)
	UpdateSpecialPrice(ctx context.Context, actor Actor, areaID, ruleID string, patch *domain.SpecialPricePatch) (*domain.SpecialPrice, error)
	DeleteSpecialPrice(ctx context.Context, actor Actor, areaID, ruleID string) error

	SetFAQs(ctx context.Context, actor Actor, areaID string, faqs []domain.FAQ) ([]domain.FAQ, error)
}

type areaService struct {
	areaRepo    repository.AreaRepository
	bookingRepo repository.BookingRepository
}

func NewAreaService(areaRepo repository.AreaRepository, bookingRepo repository.BookingRepository) AreaService {
	return &areaService{areaRepo: areaRepo, bookingRepo: bookingRepo}
}

func (s *areaService) List(ctx context.Context, filter repository.AreaFilter) ([]domain.Area, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	areas, total, err := s.areaRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, domain.Internal(err)
	}
	return areas, total, nil
}

func (s *areaService) ListMine(ctx context.Context, actor Actor) ([]domain.Area, error) {
	areas, err := s.areaRepo.ListByOwner(ctx, actor.UserID)
	if err != nil {
		return nil, domain.Internal(err)
	}
	return areas, nil
}

func (s *areaService) GetByID(ctx context.Context, id string) (*domain.Area, error) {
	return s.load(ctx, id)
}

func (s *areaService) Create(ctx context.Context, actor Actor, in *domain.AreaInput) (*domain.Area, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := in.ValidateSpecialPrices(nil, time.Now().UTC()); err != nil {
		return nil, err
	}

	area := &domain.Area{
		ID:            uuid.New().String(),
		OwnerID:       actor.UserID,
		Name:          in.Name,
		Description:   in.Description,
		Address:       in.Address,
		Neighborhood:  in.Neighborhood,
		City:          in.City,
		PricePerDay:   in.PricePerDay,
		MaxGuests:     in.MaxGuests,
		Amenities:     in.Amenities,
		SpecialPrices: in.SpecialPrices,
		FAQs:          in.FAQs,
		Active:        true,
	}
	if in.Active != nil {
		area.Active = *in.Active
	}
	stampEmbedded(area)

	created, err := s.areaRepo.Create(ctx, area)
	if err != nil {
		return nil, domain.Internal(err)
	}
	return created, nil
}

func (s *areaService) Update(ctx context.Context, actor Actor, id string, in *domain.AreaInput) (*domain.Area, error) {
	area, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := in.ValidateSpecialPrices(area.SpecialPrices, time.Now().UTC()); err != nil {
		return nil, err
	}

	area.Name = in.Name
	area.Description = in.Description
	area.Address = in.Address
	area.Neighborhood = in.Neighborhood
	area.City = in.City
	area.PricePerDay = in.PricePerDay
	area.MaxGuests = in.MaxGuests
	area.Amenities = in.Amenities
	area.SpecialPrices = in.SpecialPrices
	area.FAQs = in.FAQs
	if in.Active != nil {
		area.Active = *in.Active
	}
	stampEmbedded(area)

	updated, err := s.areaRepo.Update(ctx, area)
	if err != nil {
		return nil, domain.Internal(err)
	}
	return updated, nil
}

func (s *areaService) Delete(ctx context.Context, actor Actor, id string) error {
	if _, err := s.loadOwned(ctx, actor, id); err != nil {
		return err
	}

	holding, err := s.bookingRepo.CountHolding(ctx, id)
	if err != nil {
		return domain.Internal(err)
	}
	if holding > 0 {
		return domain.Conflictf("area has %d active bookings and cannot be deleted", holding)
	}

	if err := s.areaRepo.Delete(ctx, id); err != nil {
		return domain.Internal(err)
	}
	return nil
}

func (s *areaService) CheckAvailability(ctx context.Context, areaID, checkIn, checkOut string) (*Availability, error) {
	area, err := s.load(ctx, areaID)
	if err != nil {
		return nil, err
	}
	in, out, err := parseStay(checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	conflict, err := s.bookingRepo.HasConflict(ctx, area.ID, in, out, "")
	if err != nil {
		return nil, domain.Internal(err)
	}
	return &Availability{
		Available:  !conflict,
		Nights:     domain.DaysBetween(in, out),
		TotalPrice: area.TotalPrice(in, out),
	}, nil
}

func (s *areaService) ListSpecialPrices(ctx context.Context, actor Actor, areaID string) ([]domain.SpecialPrice, error) {
	area, err := s.loadOwned(ctx, actor, areaID)
	if err != nil {
		return nil, err
	}
	return area.SpecialPrices, nil
}

func (s *areaService) AddSpecialPrice(ctx context.Context, actor Actor, areaID string, rule *domain.SpecialPrice) (*domain.SpecialPrice, error) {
	area, err := s.loadOwned(ctx, actor, areaID)
	if err != nil {
		return nil, err
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	rule.ID = uuid.New().String()

	prices := append(area.SpecialPrices, *rule)
	if err := s.areaRepo.UpdateSpecialPrices(ctx, areaID, prices); err != nil {
		return nil, domain.Internal(err)
	}
	return rule, nil
}

func (s *areaService) UpdateSpecialPrice(ctx context.Context, actor Actor, areaID, ruleID string, patch *domain.SpecialPricePatch) (*domain.SpecialPrice, error) {
	area, err := s.loadOwned(ctx, actor, areaID)
	if err != nil {
		return nil, err
	}
	idx := area.SpecialPriceByID(ruleID)
	if idx < 0 {
		return nil, domain.NotFoundf("special price rule not found")
	}

	rule := area.SpecialPrices[idx]
	if patch.TouchesDates() && rule.Elapsed(time.Now().UTC()) {
		return nil, domain.Immutablef("the dates of an elapsed special price cannot be changed")
	}
	patch.Apply(&rule)
	if err := rule.ValidateExisting(); err != nil {
		return nil, err
	}

	area.SpecialPrices[idx] = rule
	if err := s.areaRepo.UpdateSpecialPrices(ctx, areaID, area.SpecialPrices); err != nil {
		return nil, domain.Internal(err)
	}
	return &rule, nil
}

func (s *areaService) DeleteSpecialPrice(ctx context.Context, actor Actor, areaID, ruleID string) error {
	area, err := s.loadOwned(ctx, actor, areaID)
	if err != nil {
		return err
	}
	idx := area.SpecialPriceByID(ruleID)
	if idx < 0 {
		return domain.NotFoundf("special price rule not found")
	}

	prices := append(area.SpecialPrices[:idx], area.SpecialPrices[idx+1:]...)
	if err := s.areaRepo.UpdateSpecialPrices(ctx, areaID, prices); err != nil {
		return domain.Internal(err)
	}
	return nil
}

func (s *areaService) SetFAQs(ctx context.Context, actor Actor, areaID string, faqs []domain.FAQ) ([]domain.FAQ, error) {
	if _, err := s.loadOwned(ctx, actor, areaID); err != nil {
		return nil, err
	}
	for i := range faqs {
		if err := faqs[i].Validate(); err != nil {
			return nil, err
		}
		if faqs[i].ID == "" {
			faqs[i].ID = uuid.New().String()
		}
	}
	if err := s.areaRepo.UpdateFAQs(ctx, areaID, faqs); err != nil {
		return nil, domain.Internal(err)
	}
	return faqs, nil
}

func (s *areaService) load(ctx context.Context, id string) (*domain.Area, error) {
	area, err := s.areaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Internal(err)
	}
	if area == nil {
		return nil, domain.NotFoundf("area not found")
	}
	return area, nil
}

func (s *areaService) loadOwned(ctx context.Context, actor Actor, id string) (*domain.Area, error) {
	area, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if area.OwnerID != actor.UserID && !actor.IsAdmin() {
		return nil, domain.Forbiddenf("you do not own this area")
	}
	return area, nil
}

// stampEmbedded assigns ids to embedded rules and FAQs submitted
// without one.
func stampEmbedded(area *domain.Area) {
	for i := range area.SpecialPrices {
		if area.SpecialPrices[i].ID == "" {
			area.SpecialPrices[i].ID = uuid.New().String()
		}
	}
	for i := range area.FAQs {
		if area.FAQs[i].ID == "" {
			area.FAQs[i].ID = uuid.New().String()
		}
	}
}
