package helper

import "strconv"

// FormatCents: 1250 → "12.50", -5 → "-0.05"
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	frac := strconv.FormatInt(cents%100, 10)
	if len(frac) == 1 {
		frac = "0" + frac
	}
	return sign + strconv.FormatInt(cents/100, 10) + "." + frac
}

// FormatMoney: 1250, "EUR" → "12.50 EUR"
func FormatMoney(cents int64, currency string) string {
	return FormatCents(cents) + " " + currency
}
