package domain

import "time"

// PriceForDate resolves the effective nightly price for one calendar
// date. Rule tiers are checked in strict priority order and the first
// match wins:
//
//  1. package date_range rules (price spread evenly over the range)
//  2. plain date_range rules
//  3. holiday rules (recurring every year)
//  4. day_of_week rules
//  5. the area's base price
//
// Within a tier the lowest-index rule in SpecialPrices wins; rules are
// stored in creation order, so the oldest rule takes precedence.
func (a *Area) PriceForDate(date time.Time) float64 {
	d := Midnight(date)
	dateStr := d.Format(DateLayout)
	monthDay := d.Format(MonthDayLayout)
	weekday := int(d.Weekday())

	for i := range a.SpecialPrices {
		sp := &a.SpecialPrices[i]
		if !sp.IsActive() || sp.Type != SpecialPriceDateRange || !sp.IsPackage {
			continue
		}
		if dateStr >= sp.StartDate && dateStr <= sp.EndDate {
			return sp.Price / float64(sp.PackageLengthDays())
		}
	}

	for i := range a.SpecialPrices {
		sp := &a.SpecialPrices[i]
		if !sp.IsActive() || sp.Type != SpecialPriceDateRange || sp.IsPackage {
			continue
		}
		if dateStr >= sp.StartDate && dateStr <= sp.EndDate {
			return sp.Price
		}
	}

	for i := range a.SpecialPrices {
		sp := &a.SpecialPrices[i]
		if !sp.IsActive() || sp.Type != SpecialPriceHoliday {
			continue
		}
		if sp.HolidayDate == monthDay {
			return sp.Price
		}
	}

	for i := range a.SpecialPrices {
		sp := &a.SpecialPrices[i]
		if !sp.IsActive() || sp.Type != SpecialPriceDayOfWeek {
			continue
		}
		for _, dow := range sp.DaysOfWeek {
			if dow == weekday {
				return sp.Price
			}
		}
	}

	return a.PricePerDay
}

// TotalPrice sums PriceForDate over the half-open stay interval
// [checkIn, checkOut): every night is charged, the checkout day is not.
func (a *Area) TotalPrice(checkIn, checkOut time.Time) float64 {
	total := 0.0
	end := Midnight(checkOut)
	for d := Midnight(checkIn); d.Before(end); d = d.AddDate(0, 0, 1) {
		total += a.PriceForDate(d)
	}
	return total
}
