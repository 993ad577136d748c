package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/arealivre/areas-api/internal/domain"
	"github.com/arealivre/areas-api/internal/repository"
	"github.com/arealivre/areas-api/pkg/events"
	"github.com/arealivre/areas-api/pkg/logger"
)

// Actor is the authenticated caller a handler hands down to the
// service layer.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == domain.RoleAdmin
}

type BookingService interface {
	Create(ctx context.Context, actor Actor, req *domain.BookingRequest) (*domain.Booking, error)
	CreateExternal(ctx context.Context, actor Actor, req *domain.ExternalBookingRequest) (*domain.Booking, error)
	GetByID(ctx context.Context, actor Actor, id string) (*domain.Booking, error)
	ListMine(ctx context.Context, actor Actor) ([]domain.Booking, error)
	ListForOwner(ctx context.Context, actor Actor) ([]domain.Booking, error)
	ListByArea(ctx context.Context, actor Actor, areaID string) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, actor Actor, id string, to domain.BookingStatus) (*domain.Booking, error)
	Cancel(ctx context.Context, actor Actor, id string) (*domain.Booking, error)
}

type bookingService struct {
	bookingRepo   repository.BookingRepository
	areaRepo      repository.AreaRepository
	userRepo      repository.UserRepository
	guestRepo     repository.GuestRepository
	guestResolver GuestResolver
	eventBus      events.Publisher
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	areaRepo repository.AreaRepository,
	userRepo repository.UserRepository,
	guestRepo repository.GuestRepository,
	guestResolver GuestResolver,
	eventBus events.Publisher,
) BookingService {
	return &bookingService{
		bookingRepo:   bookingRepo,
		areaRepo:      areaRepo,
		userRepo:      userRepo,
		guestRepo:     guestRepo,
		guestResolver: guestResolver,
		eventBus:      eventBus,
	}
}

func (s *bookingService) Create(ctx context.Context, actor Actor, req *domain.BookingRequest) (*domain.Booking, error) {
	area, err := s.loadArea(ctx, req.AreaID)
	if err != nil {
		return nil, err
	}
	if !area.Active {
		return nil, domain.Validationf("area is not available for booking")
	}
	if area.OwnerID == actor.UserID {
		return nil, domain.Validationf("owners cannot book their own area")
	}
	if req.Guests < 1 {
		return nil, domain.Validationf("guests must be at least 1")
	}
	if req.Guests > area.MaxGuests {
		return nil, domain.Validationf("guests exceeds the area capacity of %d", area.MaxGuests)
	}

	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}
	today := domain.Midnight(time.Now().UTC())
	if checkIn.Before(today) {
		return nil, domain.Validationf("check_in must not be in the past")
	}

	// Fast pre-check; the insert re-verifies under a per-area lock.
	conflict, err := s.bookingRepo.HasConflict(ctx, area.ID, checkIn, checkOut, "")
	if err != nil {
		return nil, domain.Internal(err)
	}
	if conflict {
		return nil, domain.Conflictf("area is already booked for the selected dates")
	}

	booking := &domain.Booking{
		ID:         uuid.New().String(),
		AreaID:     area.ID,
		Guest:      domain.GuestRef{Kind: domain.GuestKindUser, ID: actor.UserID},
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Guests:     req.Guests,
		TotalPrice: area.TotalPrice(checkIn, checkOut),
		Status:     domain.BookingPending,
	}

	created, err := s.bookingRepo.CreateIfAvailable(ctx, booking)
	if err != nil {
		if domain.KindOf(err) == domain.KindConflict {
			return nil, err
		}
		return nil, domain.Internal(err)
	}

	s.publishCreated(ctx, created, area, false)
	return created, nil
}

func (s *bookingService) CreateExternal(ctx context.Context, actor Actor, req *domain.ExternalBookingRequest) (*domain.Booking, error) {
	area, err := s.loadArea(ctx, req.AreaID)
	if err != nil {
		return nil, err
	}
	if area.OwnerID != actor.UserID && !actor.IsAdmin() {
		return nil, domain.Forbiddenf("only the area owner may record external bookings")
	}
	if req.Guests < 1 {
		return nil, domain.Validationf("guests must be at least 1")
	}
	if req.Guests > area.MaxGuests {
		return nil, domain.Validationf("guests exceeds the area capacity of %d", area.MaxGuests)
	}

	// Owners record reservations after the fact, so past check-in
	// dates are allowed here.
	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	// The owner records the stay in whatever state it actually is,
	// including completed for past stays.
	status := domain.BookingConfirmed
	if req.Status != "" {
		parsed, ok := domain.ParseBookingStatus(req.Status)
		if !ok {
			return nil, domain.Validationf("invalid status %q", req.Status)
		}
		status = parsed
	}

	totalPrice := area.TotalPrice(checkIn, checkOut)
	if req.TotalPrice != nil {
		if *req.TotalPrice < 0 {
			return nil, domain.Validationf("total_price must not be negative")
		}
		totalPrice = *req.TotalPrice
	}

	// Conflicts are checked before the guest is resolved so a rejected
	// booking never leaves a guest record behind.
	conflict, err := s.bookingRepo.HasConflict(ctx, area.ID, checkIn, checkOut, "")
	if err != nil {
		return nil, domain.Internal(err)
	}
	if conflict {
		return nil, domain.Conflictf("area is already booked for the selected dates")
	}

	guest, err := s.guestResolver.Resolve(ctx, req.Guest)
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		ID:         uuid.New().String(),
		AreaID:     area.ID,
		Guest:      domain.GuestRef{Kind: domain.GuestKindGuest, ID: guest.ID},
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Guests:     req.Guests,
		TotalPrice: totalPrice,
		Status:     status,
	}

	created, err := s.bookingRepo.CreateIfAvailable(ctx, booking)
	if err != nil {
		if domain.KindOf(err) == domain.KindConflict {
			return nil, err
		}
		return nil, domain.Internal(err)
	}

	s.publishCreated(ctx, created, area, true)
	return created, nil
}

func (s *bookingService) GetByID(ctx context.Context, actor Actor, id string) (*domain.Booking, error) {
	booking, area, err := s.loadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canView(actor, booking, area) {
		return nil, domain.Forbiddenf("you do not have access to this booking")
	}
	return booking, nil
}

func (s *bookingService) ListMine(ctx context.Context, actor Actor) ([]domain.Booking, error) {
	bookings, err := s.bookingRepo.ListByGuestUser(ctx, actor.UserID)
	if err != nil {
		return nil, domain.Internal(err)
	}
	return bookings, nil
}

func (s *bookingService) ListForOwner(ctx context.Context, actor Actor) ([]domain.Booking, error) {
	bookings, err := s.bookingRepo.ListByOwner(ctx, actor.UserID)
	if err != nil {
		return nil, domain.Internal(err)
	}
	return bookings, nil
}

func (s *bookingService) ListByArea(ctx context.Context, actor Actor, areaID string) ([]domain.Booking, error) {
	area, err := s.loadArea(ctx, areaID)
	if err != nil {
		return nil, err
	}
	if area.OwnerID != actor.UserID && !actor.IsAdmin() {
		return nil, domain.Forbiddenf("only the area owner may list its bookings")
	}
	bookings, err := s.bookingRepo.ListByArea(ctx, areaID)
	if err != nil {
		return nil, domain.Internal(err)
	}
	return bookings, nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, actor Actor, id string, to domain.BookingStatus) (*domain.Booking, error) {
	booking, area, err := s.loadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if area.OwnerID != actor.UserID && !actor.IsAdmin() {
		return nil, domain.Forbiddenf("only the area owner may change booking status")
	}
	return s.transition(ctx, booking, area, to)
}

func (s *bookingService) Cancel(ctx context.Context, actor Actor, id string) (*domain.Booking, error) {
	booking, area, err := s.loadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed := booking.CancellableBy(actor.UserID) ||
		area.OwnerID == actor.UserID || actor.IsAdmin()
	if !allowed {
		return nil, domain.Forbiddenf("you cannot cancel this booking")
	}
	return s.transition(ctx, booking, area, domain.BookingCancelled)
}

// transition applies a status change, carrying the observed status into
// the update predicate so a concurrent change loses cleanly.
func (s *bookingService) transition(ctx context.Context, booking *domain.Booking, area *domain.Area, to domain.BookingStatus) (*domain.Booking, error) {
	from := booking.Status
	if !from.CanTransitionTo(to) {
		return nil, domain.Conflictf("cannot change booking status from %s to %s", from, to)
	}

	ok, err := s.bookingRepo.UpdateStatus(ctx, booking.ID, from, to)
	if err != nil {
		return nil, domain.Internal(err)
	}
	if !ok {
		return nil, domain.Conflictf("booking status changed concurrently, retry")
	}
	booking.Status = to
	booking.UpdatedAt = time.Now().UTC()

	guestName, guestEmail := s.guestContact(ctx, booking)
	if to == domain.BookingCancelled {
		ownerEmail := s.ownerEmail(ctx, area)
		event := events.BookingCancelledEvent{
			BookingID:   booking.ID,
			AreaID:      area.ID,
			AreaName:    area.Name,
			OwnerEmail:  ownerEmail,
			GuestName:   guestName,
			CancelledAt: time.Now().UTC(),
		}
		if err := s.eventBus.Publish(ctx, events.BookingCancelled, event); err != nil {
			logger.ErrorContext(ctx, "Failed to publish booking cancelled event", "error", err, "booking_id", booking.ID)
		}
	} else {
		event := events.BookingStatusChangedEvent{
			BookingID:  booking.ID,
			AreaID:     area.ID,
			AreaName:   area.Name,
			GuestName:  guestName,
			GuestEmail: guestEmail,
			CheckIn:    booking.CheckIn,
			CheckOut:   booking.CheckOut,
			FromStatus: string(from),
			ToStatus:   string(to),
			ChangedAt:  time.Now().UTC(),
		}
		if err := s.eventBus.Publish(ctx, events.BookingStatusChanged, event); err != nil {
			logger.ErrorContext(ctx, "Failed to publish booking status event", "error", err, "booking_id", booking.ID)
		}
	}
	return booking, nil
}

func (s *bookingService) loadArea(ctx context.Context, id string) (*domain.Area, error) {
	area, err := s.areaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Internal(err)
	}
	if area == nil {
		return nil, domain.NotFoundf("area not found")
	}
	return area, nil
}

func (s *bookingService) loadBooking(ctx context.Context, id string) (*domain.Booking, *domain.Area, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, domain.Internal(err)
	}
	if booking == nil {
		return nil, nil, domain.NotFoundf("booking not found")
	}
	area, err := s.loadArea(ctx, booking.AreaID)
	if err != nil {
		return nil, nil, err
	}
	return booking, area, nil
}

func (s *bookingService) canView(actor Actor, booking *domain.Booking, area *domain.Area) bool {
	if actor.IsAdmin() || area.OwnerID == actor.UserID {
		return true
	}
	return booking.Guest.Kind == domain.GuestKindUser && booking.Guest.ID == actor.UserID
}

// guestContact resolves a display name and, for registered users, an
// email for notification payloads. Failures degrade to empty fields.
func (s *bookingService) guestContact(ctx context.Context, booking *domain.Booking) (name, email string) {
	switch booking.Guest.Kind {
	case domain.GuestKindUser:
		user, err := s.userRepo.FindByID(ctx, booking.Guest.ID)
		if err != nil || user == nil {
			logger.WarnContext(ctx, "Could not resolve booking user for notification", "error", err, "booking_id", booking.ID)
			return "", ""
		}
		return user.Name, user.Email
	case domain.GuestKindGuest:
		guest, err := s.guestRepo.GetByID(ctx, booking.Guest.ID)
		if err != nil || guest == nil {
			logger.WarnContext(ctx, "Could not resolve booking guest for notification", "error", err, "booking_id", booking.ID)
			return "", ""
		}
		return guest.Name, ""
	}
	return "", ""
}

func (s *bookingService) ownerEmail(ctx context.Context, area *domain.Area) string {
	owner, err := s.userRepo.FindByID(ctx, area.OwnerID)
	if err != nil || owner == nil {
		logger.WarnContext(ctx, "Could not resolve area owner for notification", "error", err, "area_id", area.ID)
		return ""
	}
	return owner.Email
}

func (s *bookingService) publishCreated(ctx context.Context, booking *domain.Booking, area *domain.Area, external bool) {
	guestName, guestEmail := s.guestContact(ctx, booking)
	event := events.BookingCreatedEvent{
		BookingID:  booking.ID,
		AreaID:     area.ID,
		AreaName:   area.Name,
		OwnerEmail: s.ownerEmail(ctx, area),
		GuestName:  guestName,
		GuestEmail: guestEmail,
		CheckIn:    booking.CheckIn,
		CheckOut:   booking.CheckOut,
		Guests:     booking.Guests,
		TotalPrice: booking.TotalPrice,
		External:   external,
		CreatedAt:  booking.CreatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.BookingCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking created event", "error", err, "booking_id", booking.ID)
	}
}

// parseStay parses and orders a check-in / check-out pair of calendar
// dates, truncated to UTC midnight.
func parseStay(in, out string) (time.Time, time.Time, error) {
	checkIn, err := domain.ParseDate(in)
	if err != nil {
		return time.Time{}, time.Time{}, domain.Validationf("check_in must be a YYYY-MM-DD date")
	}
	checkOut, err := domain.ParseDate(out)
	if err != nil {
		return time.Time{}, time.Time{}, domain.Validationf("check_out must be a YYYY-MM-DD date")
	}
	checkIn = domain.Midnight(checkIn)
	checkOut = domain.Midnight(checkOut)
	if !checkOut.After(checkIn) {
		return time.Time{}, time.Time{}, domain.Validationf("check_out must be after check_in")
	}
	return checkIn, checkOut, nil
}
