package ranking

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mamadbah2/pricecheck/internal/domain/models"
)

// SortKey selects the ordering of the presented list.
type SortKey string

const (
	SortByName      SortKey = "name"
	SortByVolume    SortKey = "volume"
	SortByPrice     SortKey = "price"
	SortByUnitPrice SortKey = "unitPrice"

	DefaultSortKey = SortByUnitPrice
)

var sortKeyAliases = map[string]SortKey{
	"name":       SortByName,
	"brand":      SortByName,
	"volume":     SortByVolume,
	"price":      SortByPrice,
	"unitprice":  SortByUnitPrice,
	"unit_price": SortByUnitPrice,
	"priceperml": SortByUnitPrice,
}

// ParseSortKey accepts the canonical keys plus a few aliases, case-insensitively.
func ParseSortKey(raw string) (SortKey, error) {
	key, ok := sortKeyAliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", fmt.Errorf("%w: %q", models.ErrUnknownSortKey, raw)
	}
	return key, nil
}

// Tier is the highlight class of an entry.
type Tier string

const (
	TierCheapest       Tier = "cheapest"
	TierSecondCheapest Tier = "second-cheapest"
	TierNone           Tier = "none"
)

// UnitPrice is price per milliliter, unrounded.
func UnitPrice(e models.Entry) float64 {
	return e.Price / e.Volume
}

// RankedEntry is an entry annotated for display.
type RankedEntry struct {
	models.Entry
	UnitPrice     float64 `json:"unit_price"`
	Tier          Tier    `json:"tier"`
	VolumeText    string  `json:"volume_text"`
	PriceText     string  `json:"price_text"`
	UnitPriceText string  `json:"unit_price_text"`
}

// Engine sorts, tiers and formats entries. It never mutates its input.
type Engine struct {
	locale    language.Tag
	formatter *Formatter
}

// NewEngine builds an engine collating names for the given locale.
func NewEngine(locale language.Tag, formatter *Formatter) *Engine {
	if formatter == nil {
		formatter = NewFormatter(locale, "", "", "")
	}
	return &Engine{locale: locale, formatter: formatter}
}

// Formatter exposes the display formatter used by Rank.
func (e *Engine) Formatter() *Formatter {
	return e.formatter
}

// Sort returns a stably sorted copy of entries.
// Volume sorts largest first; every other key sorts ascending.
func (e *Engine) Sort(entries []models.Entry, key SortKey) []models.Entry {
	sorted := slices.Clone(entries)

	var compare func(a, b models.Entry) int
	switch key {
	case SortByName:
		// Collator keeps per-call buffers and is not safe for concurrent use.
		collator := collate.New(e.locale)
		compare = func(a, b models.Entry) int { return collator.CompareString(a.Name, b.Name) }
	case SortByVolume:
		compare = func(a, b models.Entry) int { return cmp.Compare(b.Volume, a.Volume) }
	case SortByPrice:
		compare = func(a, b models.Entry) int { return cmp.Compare(a.Price, b.Price) }
	case SortByUnitPrice:
		compare = func(a, b models.Entry) int { return cmp.Compare(UnitPrice(a), UnitPrice(b)) }
	default:
		return sorted
	}

	slices.SortStableFunc(sorted, compare)
	return sorted
}

// ClassifyRanks tiers entries by distinct unit price: every entry at the lowest
// value is cheapest, every entry at the next strictly greater value is
// second-cheapest, the rest are none.
func ClassifyRanks(entries []models.Entry) map[int64]Tier {
	distinct := make(map[float64]struct{}, len(entries))
	for _, entry := range entries {
		distinct[UnitPrice(entry)] = struct{}{}
	}
	values := slices.Sorted(maps.Keys(distinct))

	tiers := make(map[int64]Tier, len(entries))
	for _, entry := range entries {
		up := UnitPrice(entry)
		switch {
		case len(values) > 0 && up == values[0]:
			tiers[entry.ID] = TierCheapest
		case len(values) > 1 && up == values[1]:
			tiers[entry.ID] = TierSecondCheapest
		default:
			tiers[entry.ID] = TierNone
		}
	}
	return tiers
}

// Rank sorts entries by key and annotates each with its tier and display strings.
func (e *Engine) Rank(entries []models.Entry, key SortKey) []RankedEntry {
	sorted := e.Sort(entries, key)
	tiers := ClassifyRanks(sorted)

	ranked := make([]RankedEntry, 0, len(sorted))
	for _, entry := range sorted {
		up := UnitPrice(entry)
		ranked = append(ranked, RankedEntry{
			Entry:         entry,
			UnitPrice:     up,
			Tier:          tiers[entry.ID],
			VolumeText:    e.formatter.Volume(entry.Volume),
			PriceText:     e.formatter.Price(entry.Price),
			UnitPriceText: e.formatter.UnitPrice(up),
		})
	}
	return ranked
}
