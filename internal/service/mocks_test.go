package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arealivre/areas-api/internal/domain"
	"github.com/arealivre/areas-api/internal/repository"
)

func date(s string) time.Time {
	t, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ---------- Mocks ----------

type mockAreaRepo struct {
	areas map[string]*domain.Area
}

func newMockAreaRepo(areas ...*domain.Area) *mockAreaRepo {
	m := &mockAreaRepo{areas: make(map[string]*domain.Area)}
	for _, a := range areas {
		m.areas[a.ID] = a
	}
	return m
}

func (m *mockAreaRepo) Create(_ context.Context, area *domain.Area) (*domain.Area, error) {
	area.CreatedAt = time.Now()
	area.UpdatedAt = area.CreatedAt
	m.areas[area.ID] = area
	return area, nil
}

func (m *mockAreaRepo) GetByID(_ context.Context, id string) (*domain.Area, error) {
	if a, ok := m.areas[id]; ok {
		copy := *a
		return &copy, nil
	}
	return nil, nil
}

func (m *mockAreaRepo) List(_ context.Context, filter repository.AreaFilter) ([]domain.Area, int, error) {
	var out []domain.Area
	for _, a := range m.areas {
		if filter.Active != nil && a.Active != *filter.Active {
			continue
		}
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (m *mockAreaRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.Area, error) {
	var out []domain.Area
	for _, a := range m.areas {
		if a.OwnerID == ownerID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockAreaRepo) Update(_ context.Context, area *domain.Area) (*domain.Area, error) {
	area.UpdatedAt = time.Now()
	m.areas[area.ID] = area
	return area, nil
}

func (m *mockAreaRepo) UpdateSpecialPrices(_ context.Context, areaID string, prices []domain.SpecialPrice) error {
	m.areas[areaID].SpecialPrices = prices
	return nil
}

func (m *mockAreaRepo) UpdateFAQs(_ context.Context, areaID string, faqs []domain.FAQ) error {
	m.areas[areaID].FAQs = faqs
	return nil
}

func (m *mockAreaRepo) Delete(_ context.Context, id string) error {
	delete(m.areas, id)
	return nil
}

type mockBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*domain.Booking
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{bookings: make(map[string]*domain.Booking)}
}

func (m *mockBookingRepo) seed(booking *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = booking
}

func (m *mockBookingRepo) CreateIfAvailable(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.AreaID == booking.AreaID && b.HoldsDates() &&
			domain.Overlaps(b.CheckIn, b.CheckOut, booking.CheckIn, booking.CheckOut) {
			return nil, domain.Conflictf("area is already booked for the selected dates")
		}
	}
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	m.bookings[booking.ID] = booking
	copy := *booking
	return &copy, nil
}

func (m *mockBookingRepo) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bookings[id]; ok {
		copy := *b
		return &copy, nil
	}
	return nil, nil
}

func (m *mockBookingRepo) HasConflict(_ context.Context, areaID string, checkIn, checkOut time.Time, excludeBookingID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.ID == excludeBookingID || b.AreaID != areaID || !b.HoldsDates() {
			continue
		}
		if domain.Overlaps(b.CheckIn, b.CheckOut, checkIn, checkOut) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockBookingRepo) ListByGuestUser(_ context.Context, userID string) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Booking
	for _, b := range m.bookings {
		if b.Guest.Kind == domain.GuestKindUser && b.Guest.ID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) ListByArea(_ context.Context, areaID string) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Booking
	for _, b := range m.bookings {
		if b.AreaID == areaID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) ListByOwner(_ context.Context, _ string) ([]domain.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepo) UpdateStatus(_ context.Context, id string, from, to domain.BookingStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	b.UpdatedAt = time.Now()
	return true, nil
}

func (m *mockBookingRepo) CountHolding(_ context.Context, areaID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, b := range m.bookings {
		if b.AreaID == areaID && b.HoldsDates() {
			count++
		}
	}
	return count, nil
}

type mockGuestRepo struct {
	guests    map[string]*domain.Guest
	createErr error
	// raceWinner becomes visible when Create fails, mimicking a
	// concurrent insert winning the unique index.
	raceWinner *domain.Guest
	updates    int
}

func newMockGuestRepo(guests ...*domain.Guest) *mockGuestRepo {
	m := &mockGuestRepo{guests: make(map[string]*domain.Guest)}
	for _, g := range guests {
		m.guests[g.ID] = g
	}
	return m
}

func (m *mockGuestRepo) Create(_ context.Context, guest *domain.Guest) (*domain.Guest, error) {
	if m.createErr != nil {
		err := m.createErr
		m.createErr = nil
		if m.raceWinner != nil {
			m.guests[m.raceWinner.ID] = m.raceWinner
			m.raceWinner = nil
		}
		return nil, err
	}
	if guest.ID == "" {
		guest.ID = uuid.New().String()
	}
	guest.CreatedAt = time.Now()
	m.guests[guest.ID] = guest
	copy := *guest
	return &copy, nil
}

func (m *mockGuestRepo) FindByCPF(_ context.Context, cpf string) (*domain.Guest, error) {
	for _, g := range m.guests {
		if g.CPF == cpf {
			copy := *g
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *mockGuestRepo) FindByPhone(_ context.Context, phone string) (*domain.Guest, error) {
	for _, g := range m.guests {
		if g.Phone == phone {
			copy := *g
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *mockGuestRepo) GetByID(_ context.Context, id string) (*domain.Guest, error) {
	if g, ok := m.guests[id]; ok {
		copy := *g
		return &copy, nil
	}
	return nil, nil
}

func (m *mockGuestRepo) Update(_ context.Context, guest *domain.Guest) (*domain.Guest, error) {
	m.updates++
	m.guests[guest.ID] = guest
	copy := *guest
	return &copy, nil
}

type mockUserRepo struct {
	users map[string]*domain.User
}

func newMockUserRepo(users ...*domain.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) Create(_ context.Context, req *domain.CreateUserRequest, passwordHash string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == req.Email {
			return nil, domain.Conflictf("a user with this email already exists")
		}
	}
	user := &domain.User{
		ID:           uuid.New().String(),
		Role:         req.Role,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Name:         req.Name,
		Active:       true,
		CreatedAt:    time.Now(),
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := m.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, nil
}

func (m *mockUserRepo) List(_ context.Context, _, _ int) ([]domain.User, error) {
	var out []domain.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	m.users[user.ID] = user
	return user, nil
}

type publishedEvent struct {
	subject string
	data    interface{}
}

type mockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (m *mockPublisher) Publish(_ context.Context, subject string, data interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, publishedEvent{subject: subject, data: data})
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.events {
		out = append(out, e.subject)
	}
	return out
}
