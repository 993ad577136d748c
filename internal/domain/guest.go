package domain

import (
	"strings"
	"time"
	"unicode"
)

// Guest is the lightweight identity recorded for offline bookings. It
// is distinct from a registered user account: guests cannot log in and
// are keyed by normalized CPF (globally unique when present) or phone.
type Guest struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	CPF       string     `json:"cpf,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// GuestInput is the guest payload of an external booking request.
type GuestInput struct {
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	CPF       string     `json:"cpf,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
}

// NormalizeCPF strips everything but digits. An all-noise input
// normalizes to the empty string and counts as absent.
func NormalizeCPF(cpf string) string {
	var b strings.Builder
	for _, r := range cpf {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (in *GuestInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.CPF = NormalizeCPF(in.CPF)
}

func (in *GuestInput) Validate() error {
	if in.Name == "" {
		return Validationf("guest name is required")
	}
	if len(in.Name) < 2 || len(in.Name) > 100 {
		return Validationf("guest name must be between 2 and 100 characters")
	}
	if in.Phone == "" {
		return Validationf("guest phone is required")
	}
	if in.CPF != "" && len(in.CPF) != 11 {
		return Validationf("cpf must contain 11 digits")
	}
	if in.BirthDate != nil && in.BirthDate.After(time.Now()) {
		return Validationf("birth_date must not be in the future")
	}
	return nil
}

// Merge enriches the guest with new information, never downgrading a
// populated field to empty. Name and phone follow the newest non-empty
// value; cpf and birth date are set only when previously absent. It
// reports whether anything changed, so callers persist only on change.
func (g *Guest) Merge(in GuestInput) bool {
	changed := false
	if in.Name != "" && g.Name != in.Name {
		g.Name = in.Name
		changed = true
	}
	if in.Phone != "" && g.Phone != in.Phone {
		g.Phone = in.Phone
		changed = true
	}
	if in.CPF != "" && g.CPF == "" {
		g.CPF = in.CPF
		changed = true
	}
	if in.BirthDate != nil && g.BirthDate == nil {
		bd := *in.BirthDate
		g.BirthDate = &bd
		changed = true
	}
	return changed
}
