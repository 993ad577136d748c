package domain

import (
	"strings"
	"time"
)

// Area is a rentable unit with a base price, capacity, and a list of
// embedded special price rules and FAQs.
type Area struct {
	ID            string         `json:"id"`
	OwnerID       string         `json:"owner_id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Address       string         `json:"address"`
	Neighborhood  string         `json:"neighborhood,omitempty"`
	City          string         `json:"city,omitempty"`
	PricePerDay   float64        `json:"price_per_day"`
	MaxGuests     int            `json:"max_guests"`
	Amenities     []string       `json:"amenities"`
	SpecialPrices []SpecialPrice `json:"special_prices"`
	FAQs          []FAQ          `json:"faqs"`
	Active        bool           `json:"active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type FAQ struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

const (
	maxFAQQuestionLen = 500
	maxFAQAnswerLen   = 2000
)

func (f *FAQ) Validate() error {
	if strings.TrimSpace(f.Question) == "" || strings.TrimSpace(f.Answer) == "" {
		return Validationf("faq question and answer are required")
	}
	if len(f.Question) > maxFAQQuestionLen {
		return Validationf("faq question must be at most %d characters", maxFAQQuestionLen)
	}
	if len(f.Answer) > maxFAQAnswerLen {
		return Validationf("faq answer must be at most %d characters", maxFAQAnswerLen)
	}
	return nil
}

// AreaInput carries the owner-editable fields of an Area.
type AreaInput struct {
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Address       string         `json:"address"`
	Neighborhood  string         `json:"neighborhood"`
	City          string         `json:"city"`
	PricePerDay   float64        `json:"price_per_day"`
	MaxGuests     int            `json:"max_guests"`
	Amenities     []string       `json:"amenities"`
	SpecialPrices []SpecialPrice `json:"special_prices"`
	FAQs          []FAQ          `json:"faqs"`
	Active        *bool          `json:"active"`
}

func (in *AreaInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Address = strings.TrimSpace(in.Address)
	in.Neighborhood = strings.TrimSpace(in.Neighborhood)
	in.City = strings.TrimSpace(in.City)
}

func (in *AreaInput) Validate() error {
	if in.Name == "" {
		return Validationf("name is required")
	}
	if len(in.Name) < 2 || len(in.Name) > 100 {
		return Validationf("name must be between 2 and 100 characters")
	}
	if in.Description == "" {
		return Validationf("description is required")
	}
	if len(in.Description) > 1000 {
		return Validationf("description must be at most 1000 characters")
	}
	if in.Address == "" {
		return Validationf("address is required")
	}
	if in.PricePerDay < 0 {
		return Validationf("price_per_day must not be negative")
	}
	if in.MaxGuests < 1 {
		return Validationf("max_guests must be at least 1")
	}
	for i := range in.FAQs {
		if err := in.FAQs[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSpecialPrices checks the input's rules against the area's
// stored ones. A rule whose id matches a stored rule is an existing
// rule: its past dates stay acceptable, and when the stored range has
// elapsed its dates are immutable. Everything else is a new rule and
// gets the full creation checks. Pass nil stored rules on creation.
func (in *AreaInput) ValidateSpecialPrices(stored []SpecialPrice, now time.Time) error {
	byID := make(map[string]*SpecialPrice, len(stored))
	for i := range stored {
		byID[stored[i].ID] = &stored[i]
	}
	for i := range in.SpecialPrices {
		sub := &in.SpecialPrices[i]
		prev := byID[sub.ID]
		if sub.ID == "" || prev == nil {
			if err := sub.Validate(); err != nil {
				return err
			}
			continue
		}
		if err := sub.ValidateExisting(); err != nil {
			return err
		}
		if prev.Elapsed(now) && (sub.StartDate != prev.StartDate || sub.EndDate != prev.EndDate) {
			return Immutablef("the dates of an elapsed special price cannot be changed")
		}
	}
	return nil
}

// SpecialPriceByID finds an embedded rule by id, returning its index or
// -1 when absent.
func (a *Area) SpecialPriceByID(id string) int {
	for i := range a.SpecialPrices {
		if a.SpecialPrices[i].ID == id {
			return i
		}
	}
	return -1
}
