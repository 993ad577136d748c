package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

// GuestKind discriminates what a booking's guest reference points at: a
// registered user account or a lightweight Guest record created for an
// offline booking.
type GuestKind string

const (
	GuestKindUser  GuestKind = "user"
	GuestKindGuest GuestKind = "guest"
)

type GuestRef struct {
	Kind GuestKind `json:"kind"`
	ID   string    `json:"id"`
}

type Booking struct {
	ID         string        `json:"id"`
	AreaID     string        `json:"area_id"`
	Guest      GuestRef      `json:"guest"`
	CheckIn    time.Time     `json:"check_in"`
	CheckOut   time.Time     `json:"check_out"`
	Guests     int           `json:"guests"`
	TotalPrice float64       `json:"total_price"`
	Status     BookingStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// BookingRequest is a self-service booking submission. Dates are
// YYYY-MM-DD calendar dates.
type BookingRequest struct {
	AreaID   string `json:"area_id"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Guests   int    `json:"guests"`
}

// ExternalBookingRequest records a reservation made outside the
// platform. The owner may supply an agreed total price and an explicit
// initial status; both default (computed price, confirmed).
type ExternalBookingRequest struct {
	AreaID     string     `json:"area_id"`
	CheckIn    string     `json:"check_in"`
	CheckOut   string     `json:"check_out"`
	Guests     int        `json:"guests"`
	Guest      GuestInput `json:"guest"`
	TotalPrice *float64   `json:"total_price,omitempty"`
	Status     string     `json:"status,omitempty"`
}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCancelled, BookingCompleted},
	BookingCancelled: {},
	BookingCompleted: {},
}

// CanTransitionTo consults the status transition table. Cancelled and
// completed are terminal.
func (s BookingStatus) CanTransitionTo(to BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition moves the booking to the target status, failing with a
// conflict error naming both states when the table forbids it. Price
// and availability are creation-time concerns and are never re-checked
// here.
func (b *Booking) Transition(to BookingStatus) error {
	if !b.Status.CanTransitionTo(to) {
		return Conflictf("cannot change booking status from %q to %q", b.Status, to)
	}
	b.Status = to
	return nil
}

// HoldsDates reports whether the booking blocks its date range: only
// pending and confirmed bookings participate in conflict detection.
func (b *Booking) HoldsDates() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}

// CancellableBy reports whether the given registered user may cancel
// this booking as its guest. Offline guests have no credentials to
// authenticate as, so guest-kind bookings are never self-cancellable.
func (b *Booking) CancellableBy(userID string) bool {
	if b.Guest.Kind != GuestKindUser || b.Guest.ID != userID {
		return false
	}
	return b.HoldsDates()
}

// Nights is the number of charged nights, equal to the whole days
// between check-in and check-out.
func (b *Booking) Nights() int {
	return DaysBetween(b.CheckIn, b.CheckOut)
}

// Overlaps reports whether two half-open [in, out) stay intervals
// intersect.
func Overlaps(aIn, aOut, bIn, bOut time.Time) bool {
	return aIn.Before(bOut) && bIn.Before(aOut)
}
