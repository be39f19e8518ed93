package booking

import "math"

// DepositRate is the fixed refundable-deposit surcharge applied to every
// rental subtotal.
const DepositRate = 0.20

// Quote is a computed pricing breakdown for a candidate booking. Quotes are
// derived on demand and never persisted.
type Quote struct {
	Days           int
	DailyRateCents int64
	SubtotalCents  int64
	DepositCents   int64
	TotalCents     int64
	Currency       string
}

// NewQuote prices the given range at the car's daily rate:
// subtotal = days * rate, deposit = round(subtotal * DepositRate),
// total = subtotal + deposit.
func NewQuote(rng DateRange, dailyRateCents int64, currency string) Quote {
	days := rng.Days()
	subtotal := int64(days) * dailyRateCents
	deposit := int64(math.Round(float64(subtotal) * DepositRate))

	return Quote{
		Days:           days,
		DailyRateCents: dailyRateCents,
		SubtotalCents:  subtotal,
		DepositCents:   deposit,
		TotalCents:     subtotal + deposit,
		Currency:       currency,
	}
}
