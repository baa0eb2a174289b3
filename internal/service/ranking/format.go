package ranking

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	defaultCurrency   = "฿"
	defaultMilliliter = "ml"
	defaultLiter      = "L"
)

// Formatter renders quantities for display. All methods are pure.
type Formatter struct {
	locale     language.Tag
	currency   string
	milliliter string
	liter      string
}

// NewFormatter builds a formatter; empty labels fall back to ฿, ml and L.
func NewFormatter(locale language.Tag, currency, milliliter, liter string) *Formatter {
	if currency == "" {
		currency = defaultCurrency
	}
	if milliliter == "" {
		milliliter = defaultMilliliter
	}
	if liter == "" {
		liter = defaultLiter
	}
	return &Formatter{locale: locale, currency: currency, milliliter: milliliter, liter: liter}
}

// MilliliterLabel returns the unit label used for volumes.
func (f *Formatter) MilliliterLabel() string {
	return f.milliliter
}

// Volume renders milliliters, adding the liter conversion from 1000 ml upwards:
// "500 ml", "1,500 ml (1.5 L)".
func (f *Formatter) Volume(ml float64) string {
	p := message.NewPrinter(f.locale)
	text := p.Sprintf("%v %s", number.Decimal(ml, number.MaxFractionDigits(3)), f.milliliter)
	if ml >= 1000 {
		liters := number.Decimal(roundHalfUp(ml/1000, 1), number.MinFractionDigits(1), number.MaxFractionDigits(1))
		text += p.Sprintf(" (%v %s)", liters, f.liter)
	}
	return text
}

// Price renders an amount with the currency glyph: "฿1,250", "฿12.345".
func (f *Formatter) Price(amount float64) string {
	p := message.NewPrinter(f.locale)
	return f.currency + p.Sprint(number.Decimal(roundHalfUp(amount, 3), number.MaxFractionDigits(3)))
}

// UnitPrice renders a per-milliliter price fixed to two decimals: "฿0.10".
func (f *Formatter) UnitPrice(perMl float64) string {
	p := message.NewPrinter(f.locale)
	return f.currency + p.Sprint(number.Decimal(roundHalfUp(perMl, 2), number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// roundHalfUp rounds halfway values away from zero, so 1,250 ml reads 1.3 L.
func roundHalfUp(v float64, digits int) float64 {
	scale := math.Pow10(digits)
	return math.Round(v*scale) / scale
}
