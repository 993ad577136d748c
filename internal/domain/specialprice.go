package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type SpecialPriceType string

const (
	SpecialPriceDateRange SpecialPriceType = "date_range"
	SpecialPriceDayOfWeek SpecialPriceType = "day_of_week"
	SpecialPriceHoliday   SpecialPriceType = "holiday"
)

// SpecialPrice overrides an Area's base price for specific dates,
// weekdays, or annually recurring holidays. Only the fields relevant to
// Type are meaningful; the resolver ignores the rest.
type SpecialPrice struct {
	ID     string           `json:"id"`
	Type   SpecialPriceType `json:"type"`
	Name   string           `json:"name"`
	Price  float64          `json:"price"`
	Active *bool            `json:"active,omitempty"`

	// date_range
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	IsPackage bool   `json:"is_package,omitempty"`

	// day_of_week, 0=Sunday..6=Saturday
	DaysOfWeek []int `json:"days_of_week,omitempty"`

	// holiday, recurring MM-DD
	HolidayDate string `json:"holiday_date,omitempty"`
}

// IsActive reports whether the rule participates in price resolution.
// A rule with no explicit active flag counts as active.
func (sp *SpecialPrice) IsActive() bool {
	return sp.Active == nil || *sp.Active
}

// PackageLengthDays is the inclusive day count of a package rule's own
// range. It depends only on the rule, never on the queried stay.
func (sp *SpecialPrice) PackageLengthDays() int {
	start, err := ParseDate(sp.StartDate)
	if err != nil {
		return 1
	}
	end, err := ParseDate(sp.EndDate)
	if err != nil {
		return 1
	}
	days := DaysBetween(start, end) + 1
	if days < 1 {
		return 1
	}
	return days
}

// Elapsed reports whether a date_range rule's period is entirely in the
// past relative to now. Elapsed ranges have immutable dates.
func (sp *SpecialPrice) Elapsed(now time.Time) bool {
	if sp.Type != SpecialPriceDateRange || sp.EndDate == "" {
		return false
	}
	end, err := ParseDate(sp.EndDate)
	if err != nil {
		return false
	}
	return end.Before(Midnight(now))
}

// SpecialPricePatch carries a partial update to a stored rule. Nil
// fields are left untouched.
type SpecialPricePatch struct {
	Name        *string  `json:"name,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Active      *bool    `json:"active,omitempty"`
	StartDate   *string  `json:"start_date,omitempty"`
	EndDate     *string  `json:"end_date,omitempty"`
	IsPackage   *bool    `json:"is_package,omitempty"`
	DaysOfWeek  []int    `json:"days_of_week,omitempty"`
	HolidayDate *string  `json:"holiday_date,omitempty"`
}

// TouchesDates reports whether the patch would alter the rule's period.
func (p *SpecialPricePatch) TouchesDates() bool {
	return p.StartDate != nil || p.EndDate != nil
}

// Apply merges the patch onto the rule. Type and ID never change.
func (p *SpecialPricePatch) Apply(sp *SpecialPrice) {
	if p.Name != nil {
		sp.Name = *p.Name
	}
	if p.Price != nil {
		sp.Price = *p.Price
	}
	if p.Active != nil {
		sp.Active = p.Active
	}
	if p.StartDate != nil {
		sp.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		sp.EndDate = *p.EndDate
	}
	if p.IsPackage != nil {
		sp.IsPackage = *p.IsPackage
	}
	if p.DaysOfWeek != nil {
		sp.DaysOfWeek = p.DaysOfWeek
	}
	if p.HolidayDate != nil {
		sp.HolidayDate = *p.HolidayDate
	}
}

// specialPriceCheck is one field constraint. Checks run in declaration
// order and validation stops at the first violation.
type specialPriceCheck func(sp *SpecialPrice) string

var specialPriceChecks = []specialPriceCheck{
	checkType,
	checkName,
	checkPrice,
}

var specialPriceChecksByType = map[SpecialPriceType][]specialPriceCheck{
	SpecialPriceDateRange: {checkDateRangeFormat},
	SpecialPriceDayOfWeek: {checkDaysOfWeek},
	SpecialPriceHoliday:   {checkHolidayDate},
}

// Validate checks a new rule against the constraints of its type and
// returns a validation error describing the first violation found. A
// date_range rule must not end in the past; that is a creation-time
// check only, so updates to already-stored rules go through
// ValidateExisting instead.
func (sp *SpecialPrice) Validate() error {
	if err := sp.ValidateExisting(); err != nil {
		return err
	}
	if sp.Type == SpecialPriceDateRange {
		if problem := checkDateRangeFuture(sp); problem != "" {
			return Validationf("%s", problem)
		}
	}
	return nil
}

// ValidateExisting applies every constraint except the end-date-in-the-
// future requirement, which only holds at creation time.
func (sp *SpecialPrice) ValidateExisting() error {
	for _, check := range specialPriceChecks {
		if problem := check(sp); problem != "" {
			return Validationf("%s", problem)
		}
	}
	for _, check := range specialPriceChecksByType[sp.Type] {
		if problem := check(sp); problem != "" {
			return Validationf("%s", problem)
		}
	}
	return nil
}

func checkType(sp *SpecialPrice) string {
	switch sp.Type {
	case SpecialPriceDateRange, SpecialPriceDayOfWeek, SpecialPriceHoliday:
		return ""
	case "":
		return "type is required"
	default:
		return fmt.Sprintf("invalid special price type %q", sp.Type)
	}
}

func checkName(sp *SpecialPrice) string {
	if strings.TrimSpace(sp.Name) == "" {
		return "name is required"
	}
	return ""
}

func checkPrice(sp *SpecialPrice) string {
	if sp.Price <= 0 {
		return "price must be greater than zero"
	}
	return ""
}

func checkDateRangeFormat(sp *SpecialPrice) string {
	if sp.StartDate == "" || sp.EndDate == "" {
		return "start_date and end_date are required for date_range rules"
	}
	start, err := ParseDate(sp.StartDate)
	if err != nil {
		return fmt.Sprintf("start_date %q is not a valid YYYY-MM-DD date", sp.StartDate)
	}
	end, err := ParseDate(sp.EndDate)
	if err != nil {
		return fmt.Sprintf("end_date %q is not a valid YYYY-MM-DD date", sp.EndDate)
	}
	if !start.Before(end) {
		return "start_date must be before end_date"
	}
	return ""
}

func checkDateRangeFuture(sp *SpecialPrice) string {
	end, err := ParseDate(sp.EndDate)
	if err == nil && end.Before(Midnight(time.Now())) {
		return "end_date must not be in the past"
	}
	return ""
}

func checkDaysOfWeek(sp *SpecialPrice) string {
	if len(sp.DaysOfWeek) == 0 {
		return "days_of_week must not be empty for day_of_week rules"
	}
	for _, d := range sp.DaysOfWeek {
		if d < 0 || d > 6 {
			return fmt.Sprintf("day of week %d out of range 0-6", d)
		}
	}
	return ""
}

// Holiday dates are MM-DD with month 1-12 and day 1-31. Day validity is
// not cross-checked against month length.
func checkHolidayDate(sp *SpecialPrice) string {
	parts := strings.SplitN(sp.HolidayDate, "-", 2)
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return fmt.Sprintf("holiday_date %q must be in MM-DD format", sp.HolidayDate)
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return fmt.Sprintf("holiday_date %q has an invalid month", sp.HolidayDate)
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil || day < 1 || day > 31 {
		return fmt.Sprintf("holiday_date %q has an invalid day", sp.HolidayDate)
	}
	return ""
}
