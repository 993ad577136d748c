package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/arealivre/areas-api/internal/domain"
	"github.com/arealivre/areas-api/internal/service"
	"github.com/arealivre/areas-api/pkg/events"
)

func testArea() *domain.Area {
	return &domain.Area{
		ID:          "area-1",
		OwnerID:     "owner-1",
		Name:        "Sitio Boa Vista",
		PricePerDay: 100,
		MaxGuests:   10,
		Active:      true,
	}
}

func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format(domain.DateLayout)
}

func newBookingFixture(areas ...*domain.Area) (service.BookingService, *mockBookingRepo, *mockGuestRepo, *mockPublisher) {
	if len(areas) == 0 {
		areas = []*domain.Area{testArea()}
	}
	areaRepo := newMockAreaRepo(areas...)
	bookingRepo := newMockBookingRepo()
	guestRepo := newMockGuestRepo()
	userRepo := newMockUserRepo(
		&domain.User{ID: "owner-1", Email: "owner@example.com", Name: "Owner", Role: domain.RoleUser, Active: true},
		&domain.User{ID: "user-1", Email: "maria@example.com", Name: "Maria", Role: domain.RoleUser, Active: true},
	)
	bus := &mockPublisher{}
	resolver := service.NewGuestResolver(guestRepo)
	svc := service.NewBookingService(bookingRepo, areaRepo, userRepo, guestRepo, resolver, bus)
	return svc, bookingRepo, guestRepo, bus
}

func TestCreateBooking(t *testing.T) {
	svc, _, _, bus := newBookingFixture()
	actor := service.Actor{UserID: "user-1", Role: domain.RoleUser}

	booking, err := svc.Create(context.Background(), actor, &domain.BookingRequest{
		AreaID:   "area-1",
		CheckIn:  futureDate(10),
		CheckOut: futureDate(12),
		Guests:   4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.Status != domain.BookingPending {
		t.Errorf("expected pending status, got %s", booking.Status)
	}
	if booking.TotalPrice != 200 {
		t.Errorf("expected total 200 for two nights at 100, got %v", booking.TotalPrice)
	}
	if booking.Guest.Kind != domain.GuestKindUser || booking.Guest.ID != "user-1" {
		t.Errorf("booking should reference the acting user, got %+v", booking.Guest)
	}

	subjects := bus.subjects()
	if len(subjects) != 1 || subjects[0] != events.BookingCreated {
		t.Errorf("expected one booking.created event, got %v", subjects)
	}
}

func TestCreateBookingOverlapRejected(t *testing.T) {
	svc, _, _, _ := newBookingFixture()
	actor := service.Actor{UserID: "user-1", Role: domain.RoleUser}

	first := &domain.BookingRequest{AreaID: "area-1", CheckIn: futureDate(10), CheckOut: futureDate(14), Guests: 2}
	if _, err := svc.Create(context.Background(), actor, first); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	second := &domain.BookingRequest{AreaID: "area-1", CheckIn: futureDate(12), CheckOut: futureDate(16), Guests: 2}
	_, err := svc.Create(context.Background(), actor, second)
	if err == nil {
		t.Fatal("expected a conflict for overlapping dates")
	}
	if domain.KindOf(err) != domain.KindConflict {
		t.Errorf("expected conflict kind, got %v", domain.KindOf(err))
	}

	// Back-to-back is fine: checkout day is free.
	third := &domain.BookingRequest{AreaID: "area-1", CheckIn: futureDate(14), CheckOut: futureDate(16), Guests: 2}
	if _, err := svc.Create(context.Background(), actor, third); err != nil {
		t.Errorf("back-to-back booking should succeed: %v", err)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	svc, _, _, _ := newBookingFixture()
	actor := service.Actor{UserID: "user-1", Role: domain.RoleUser}
	ctx := context.Background()

	cases := []struct {
		name string
		req  domain.BookingRequest
		kind domain.ErrorKind
	}{
		{"unknown area", domain.BookingRequest{AreaID: "nope", CheckIn: futureDate(1), CheckOut: futureDate(2), Guests: 1}, domain.KindNotFound},
		{"zero guests", domain.BookingRequest{AreaID: "area-1", CheckIn: futureDate(1), CheckOut: futureDate(2), Guests: 0}, domain.KindValidation},
		{"over capacity", domain.BookingRequest{AreaID: "area-1", CheckIn: futureDate(1), CheckOut: futureDate(2), Guests: 11}, domain.KindValidation},
		{"checkout before checkin", domain.BookingRequest{AreaID: "area-1", CheckIn: futureDate(5), CheckOut: futureDate(3), Guests: 1}, domain.KindValidation},
		{"same day", domain.BookingRequest{AreaID: "area-1", CheckIn: futureDate(5), CheckOut: futureDate(5), Guests: 1}, domain.KindValidation},
		{"past checkin", domain.BookingRequest{AreaID: "area-1", CheckIn: futureDate(-3), CheckOut: futureDate(2), Guests: 1}, domain.KindValidation},
		{"bad date", domain.BookingRequest{AreaID: "area-1", CheckIn: "10/01/2026", CheckOut: futureDate(2), Guests: 1}, domain.KindValidation},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := svc.Create(ctx, actor, &c.req)
			if err == nil {
				t.Fatal("expected an error")
			}
			if domain.KindOf(err) != c.kind {
				t.Errorf("expected %v, got %v (%v)", c.kind, domain.KindOf(err), err)
			}
		})
	}

	// Max capacity exactly is allowed.
	atCap := &domain.BookingRequest{AreaID: "area-1", CheckIn: futureDate(20), CheckOut: futureDate(21), Guests: 10}
	if _, err := svc.Create(ctx, actor, atCap); err != nil {
		t.Errorf("booking at exact capacity should succeed: %v", err)
	}
}

func TestCreateBookingOwnArea(t *testing.T) {
	svc, _, _, _ := newBookingFixture()
	owner := service.Actor{UserID: "owner-1", Role: domain.RoleUser}

	_, err := svc.Create(context.Background(), owner, &domain.BookingRequest{
		AreaID: "area-1", CheckIn: futureDate(1), CheckOut: futureDate(2), Guests: 1,
	})
	if err == nil {
		t.Fatal("owners must not book their own area")
	}
}

func TestCreateBookingInactiveArea(t *testing.T) {
	area := testArea()
	area.Active = false
	svc, _, _, _ := newBookingFixture(area)

	_, err := svc.Create(context.Background(), service.Actor{UserID: "user-1", Role: domain.RoleUser}, &domain.BookingRequest{
		AreaID: "area-1", CheckIn: futureDate(1), CheckOut: futureDate(2), Guests: 1,
	})
	if err == nil {
		t.Fatal("inactive areas must not accept bookings")
	}
}

func TestCreateExternalBooking(t *testing.T) {
	svc, _, guestRepo, bus := newBookingFixture()
	owner := service.Actor{UserID: "owner-1", Role: domain.RoleUser}

	booking, err := svc.CreateExternal(context.Background(), owner, &domain.ExternalBookingRequest{
		AreaID:   "area-1",
		CheckIn:  futureDate(-5), // past dates allowed when recording offline bookings
		CheckOut: futureDate(-3),
		Guests:   3,
		Guest:    domain.GuestInput{Name: "Joao Pereira", Phone: "11 98888-0000", CPF: "123.456.789-01"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.Status != domain.BookingConfirmed {
		t.Errorf("external bookings default to confirmed, got %s", booking.Status)
	}
	if booking.Guest.Kind != domain.GuestKindGuest {
		t.Errorf("expected a guest-kind reference, got %+v", booking.Guest)
	}
	if booking.TotalPrice != 200 {
		t.Errorf("expected computed total 200, got %v", booking.TotalPrice)
	}

	guest, _ := guestRepo.GetByID(context.Background(), booking.Guest.ID)
	if guest == nil || guest.CPF != "12345678901" {
		t.Errorf("guest should be stored with normalized cpf, got %+v", guest)
	}

	if got := bus.subjects(); len(got) != 1 || got[0] != events.BookingCreated {
		t.Errorf("expected one booking.created event, got %v", got)
	}
}

func TestCreateExternalBookingReusesGuestByCPF(t *testing.T) {
	svc, _, guestRepo, _ := newBookingFixture()
	owner := service.Actor{UserID: "owner-1", Role: domain.RoleUser}
	ctx := context.Background()

	existing := &domain.Guest{ID: "guest-1", Name: "Joao", Phone: "111", CPF: "12345678901"}
	guestRepo.guests[existing.ID] = existing

	booking, err := svc.CreateExternal(ctx, owner, &domain.ExternalBookingRequest{
		AreaID:   "area-1",
		CheckIn:  futureDate(1),
		CheckOut: futureDate(3),
		Guests:   2,
		Guest:    domain.GuestInput{Name: "Joao Pereira", Phone: "222", CPF: "123.456.789-01"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.Guest.ID != "guest-1" {
		t.Errorf("expected reuse of the existing guest, got %s", booking.Guest.ID)
	}
	merged, _ := guestRepo.GetByID(ctx, "guest-1")
	if merged.Name != "Joao Pereira" || merged.Phone != "222" {
		t.Errorf("guest should be enriched with the newest values, got %+v", merged)
	}
}

func TestCreateExternalBookingPriceOverrideAndStatus(t *testing.T) {
	svc, _, _, _ := newBookingFixture()
	owner := service.Actor{UserID: "owner-1", Role: domain.RoleUser}
	price := 175.0

	booking, err := svc.CreateExternal(context.Background(), owner, &domain.ExternalBookingRequest{
		AreaID:     "area-1",
		CheckIn:    futureDate(1),
		CheckOut:   futureDate(3),
		Guests:     2,
		Guest:      domain.GuestInput{Name: "Ana Souza", Phone: "333"},
		TotalPrice: &price,
		Status:     "pending",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.TotalPrice != 175 {
		t.Errorf("expected agreed price 175, got %v", booking.TotalPrice)
	}
	if booking.Status != domain.BookingPending {
		t.Errorf("expected pending, got %s", booking.Status)
	}

	// A past offline stay is recorded in the state it is actually in.
	past, err := svc.CreateExternal(context.Background(), owner, &domain.ExternalBookingRequest{
		AreaID: "area-1", CheckIn: "2024-03-01", CheckOut: "2024-03-03", Guests: 1,
		Guest:  domain.GuestInput{Name: "Ana Souza", Phone: "333"},
		Status: "completed",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if past.Status != domain.BookingCompleted {
		t.Errorf("expected completed, got %s", past.Status)
	}

	_, err = svc.CreateExternal(context.Background(), owner, &domain.ExternalBookingRequest{
		AreaID: "area-1", CheckIn: futureDate(5), CheckOut: futureDate(6), Guests: 1,
		Guest:  domain.GuestInput{Name: "Ana Souza", Phone: "333"},
		Status: "archived",
	})
	if domain.KindOf(err) != domain.KindValidation {
		t.Errorf("expected validation error for unknown status, got %v", err)
	}
}

func TestCreateExternalBookingConflictLeavesNoGuest(t *testing.T) {
	svc, bookingRepo, guestRepo, _ := newBookingFixture()
	owner := service.Actor{UserID: "owner-1", Role: domain.RoleUser}
	ctx := context.Background()

	bookingRepo.seed(&domain.Booking{
		ID:       "b-1",
		AreaID:   "area-1",
		Guest:    domain.GuestRef{Kind: domain.GuestKindUser, ID: "user-9"},
		CheckIn:  date(futureDate(1)),
		CheckOut: date(futureDate(4)),
		Status:   domain.BookingConfirmed,
	})

	_, err := svc.CreateExternal(ctx, owner, &domain.ExternalBookingRequest{
		AreaID: "area-1", CheckIn: futureDate(2), CheckOut: futureDate(3), Guests: 1,
		Guest: domain.GuestInput{Name: "Ana Souza", Phone: "333"},
	})
	if domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(guestRepo.guests) != 0 {
		t.Errorf("a rejected booking must not persist a guest, got %d", len(guestRepo.guests))
	}
}

func TestCreateExternalBookingForbiddenForNonOwner(t *testing.T) {
	svc, _, _, _ := newBookingFixture()

	_, err := svc.CreateExternal(context.Background(), service.Actor{UserID: "user-1", Role: domain.RoleUser}, &domain.ExternalBookingRequest{
		AreaID: "area-1", CheckIn: futureDate(1), CheckOut: futureDate(2), Guests: 1,
		Guest: domain.GuestInput{Name: "Ana", Phone: "333"},
	})
	if err == nil || domain.KindOf(err) != domain.KindForbidden {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestUpdateStatusFlow(t *testing.T) {
	svc, _, _, bus := newBookingFixture()
	guest := service.Actor{UserID: "user-1", Role: domain.RoleUser}
	owner := service.Actor{UserID: "owner-1", Role: domain.RoleUser}
	ctx := context.Background()

	booking, err := svc.Create(ctx, guest, &domain.BookingRequest{
		AreaID: "area-1", CheckIn: futureDate(1), CheckOut: futureDate(3), Guests: 2,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Guests cannot confirm.
	if _, err := svc.UpdateStatus(ctx, guest, booking.ID, domain.BookingConfirmed); err == nil {
		t.Error("guests must not change booking status")
	}

	confirmed, err := svc.UpdateStatus(ctx, owner, booking.ID, domain.BookingConfirmed)
	if err != nil {
		t.Fatalf("owner confirm failed: %v", err)
	}
	if confirmed.Status != domain.BookingConfirmed {
		t.Errorf("expected confirmed, got %s", confirmed.Status)
	}

	// Invalid transition.
	if _, err := svc.UpdateStatus(ctx, owner, booking.ID, domain.BookingPending); err == nil {
		t.Error("confirmed -> pending must be rejected")
	}

	completed, err := svc.UpdateStatus(ctx, owner, booking.ID, domain.BookingCompleted)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completed.Status != domain.BookingCompleted {
		t.Errorf("expected completed, got %s", completed.Status)
	}

	// Terminal.
	if _, err := svc.UpdateStatus(ctx, owner, booking.ID, domain.BookingCancelled); err == nil {
		t.Error("completed is terminal")
	}

	subjects := bus.subjects()
	want := []string{events.BookingCreated, events.BookingStatusChanged, events.BookingStatusChanged}
	if len(subjects) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), subjects)
	}
	for i := range want {
		if subjects[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], subjects[i])
		}
	}
}

func TestCancelBooking(t *testing.T) {
	svc, bookingRepo, _, bus := newBookingFixture()
	guest := service.Actor{UserID: "user-1", Role: domain.RoleUser}
	ctx := context.Background()

	booking, err := svc.Create(ctx, guest, &domain.BookingRequest{
		AreaID: "area-1", CheckIn: futureDate(1), CheckOut: futureDate(3), Guests: 2,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// A stranger cannot cancel.
	stranger := service.Actor{UserID: "user-2", Role: domain.RoleUser}
	if _, err := svc.Cancel(ctx, stranger, booking.ID); err == nil {
		t.Error("strangers must not cancel")
	}

	cancelled, err := svc.Cancel(ctx, guest, booking.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != domain.BookingCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}

	subjects := bus.subjects()
	if subjects[len(subjects)-1] != events.BookingCancelled {
		t.Errorf("expected a booking.cancelled event, got %v", subjects)
	}

	// The dates are free again.
	stored, _ := bookingRepo.GetByID(ctx, booking.ID)
	if stored.HoldsDates() {
		t.Error("cancelled bookings must release their dates")
	}
	if _, err := svc.Create(ctx, guest, &domain.BookingRequest{
		AreaID: "area-1", CheckIn: futureDate(1), CheckOut: futureDate(3), Guests: 2,
	}); err != nil {
		t.Errorf("rebooking cancelled dates should succeed: %v", err)
	}
}

func TestGetByIDAuthorization(t *testing.T) {
	svc, _, _, _ := newBookingFixture()
	guest := service.Actor{UserID: "user-1", Role: domain.RoleUser}
	ctx := context.Background()

	booking, err := svc.Create(ctx, guest, &domain.BookingRequest{
		AreaID: "area-1", CheckIn: futureDate(1), CheckOut: futureDate(3), Guests: 2,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for _, actor := range []service.Actor{
		guest,
		{UserID: "owner-1", Role: domain.RoleUser},
		{UserID: "admin-1", Role: domain.RoleAdmin},
	} {
		if _, err := svc.GetByID(ctx, actor, booking.ID); err != nil {
			t.Errorf("actor %s should see the booking: %v", actor.UserID, err)
		}
	}

	if _, err := svc.GetByID(ctx, service.Actor{UserID: "user-9", Role: domain.RoleUser}, booking.ID); err == nil {
		t.Error("unrelated users must not see the booking")
	}
}
