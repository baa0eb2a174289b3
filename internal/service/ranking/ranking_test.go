package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/mamadbah2/pricecheck/internal/domain/models"
)

func newTestEngine() *Engine {
	return NewEngine(language.English, NewFormatter(language.English, "฿", "ml", "L"))
}

func entryIDs(entries []models.Entry) []int64 {
	out := make([]int64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestUnitPriceIsUnrounded(t *testing.T) {
	e := models.Entry{ID: 1, Volume: 3, Price: 1}
	assert.Equal(t, 1.0/3.0, UnitPrice(e))
}

func TestParseSortKey(t *testing.T) {
	for raw, want := range map[string]SortKey{
		"name":         SortByName,
		"Volume":       SortByVolume,
		"price":        SortByPrice,
		"unitPrice":    SortByUnitPrice,
		"pricePerMl":   SortByUnitPrice,
		" unit_price ": SortByUnitPrice,
	} {
		got, err := ParseSortKey(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}

	_, err := ParseSortKey("weight")
	assert.ErrorIs(t, err, models.ErrUnknownSortKey)
}

func TestSortByVolumeIsDescending(t *testing.T) {
	entries := []models.Entry{
		{ID: 1, Name: "B", Volume: 500, Price: 50},
		{ID: 2, Name: "A", Volume: 1000, Price: 100},
	}
	sorted := newTestEngine().Sort(entries, SortByVolume)
	assert.Equal(t, []int64{2, 1}, entryIDs(sorted))
	assert.Equal(t, []int64{1, 2}, entryIDs(entries), "input must not be mutated")
}

func TestSortByPriceAndNameAscending(t *testing.T) {
	entries := []models.Entry{
		{ID: 1, Name: "Zebra", Volume: 1000, Price: 200},
		{ID: 2, Name: "apple", Volume: 500, Price: 100},
		{ID: 3, Name: "Mango", Volume: 10, Price: 150},
	}
	engine := newTestEngine()
	assert.Equal(t, []int64{2, 3, 1}, entryIDs(engine.Sort(entries, SortByPrice)))
	assert.Equal(t, []int64{2, 3, 1}, entryIDs(engine.Sort(entries, SortByName)))
}

func TestSortIsStableForEqualKeys(t *testing.T) {
	entries := []models.Entry{
		{ID: 1, Name: "A", Volume: 1000, Price: 100},
		{ID: 2, Name: "B", Volume: 1, Price: 1},
		{ID: 3, Name: "C", Volume: 500, Price: 50},
	}
	sorted := newTestEngine().Sort(entries, SortByUnitPrice)
	assert.Equal(t, []int64{1, 3, 2}, entryIDs(sorted))
}

func TestSortByUnitPriceIsIdempotent(t *testing.T) {
	entries := []models.Entry{
		{ID: 1, Volume: 750, Price: 99},
		{ID: 2, Volume: 1000, Price: 100},
		{ID: 3, Volume: 3, Price: 1},
		{ID: 4, Volume: 500, Price: 50},
		{ID: 5, Volume: 2500, Price: 120},
	}
	engine := newTestEngine()
	once := engine.Sort(entries, SortByUnitPrice)
	twice := engine.Sort(once, SortByUnitPrice)
	assert.Equal(t, once, twice)
	assert.Equal(t, []int64{5, 2, 4, 1, 3}, entryIDs(once))
}

func TestSortUnknownKeyKeepsOrder(t *testing.T) {
	entries := []models.Entry{{ID: 2, Volume: 1, Price: 1}, {ID: 1, Volume: 1, Price: 2}}
	assert.Equal(t, []int64{2, 1}, entryIDs(newTestEngine().Sort(entries, SortKey("weight"))))
}

func TestClassifyRanksUsesDistinctValues(t *testing.T) {
	entries := []models.Entry{
		{ID: 1, Name: "A", Price: 100, Volume: 1000},
		{ID: 2, Name: "B", Price: 50, Volume: 500},
		{ID: 3, Name: "C", Price: 1, Volume: 1},
	}
	tiers := ClassifyRanks(entries)

	// 0.10 is shared by A and B; 1.00 is the second distinct value.
	assert.Equal(t, TierCheapest, tiers[1])
	assert.Equal(t, TierCheapest, tiers[2])
	assert.Equal(t, TierSecondCheapest, tiers[3])
}

func TestClassifyRanksThirdValueIsNone(t *testing.T) {
	entries := []models.Entry{
		{ID: 1, Price: 3, Volume: 1},
		{ID: 2, Price: 1, Volume: 1},
		{ID: 3, Price: 2, Volume: 1},
		{ID: 4, Price: 2, Volume: 1},
	}
	tiers := ClassifyRanks(entries)
	assert.Equal(t, map[int64]Tier{
		1: TierNone,
		2: TierCheapest,
		3: TierSecondCheapest,
		4: TierSecondCheapest,
	}, tiers)
}

func TestClassifyRanksSingleValue(t *testing.T) {
	tiers := ClassifyRanks([]models.Entry{{ID: 1, Price: 5, Volume: 5}, {ID: 2, Price: 1, Volume: 1}})
	assert.Equal(t, TierCheapest, tiers[1])
	assert.Equal(t, TierCheapest, tiers[2])
	assert.Empty(t, ClassifyRanks(nil))
}

func TestRankAnnotatesEntries(t *testing.T) {
	entries := []models.Entry{
		{ID: 1, Name: "Brand B", Volume: 500, Price: 100},
		{ID: 2, Name: "Brand A", Volume: 1000, Price: 100},
	}
	ranked := newTestEngine().Rank(entries, DefaultSortKey)
	require.Len(t, ranked, 2)

	assert.Equal(t, int64(2), ranked[0].ID)
	assert.Equal(t, TierCheapest, ranked[0].Tier)
	assert.Equal(t, "1,000 ml (1.0 L)", ranked[0].VolumeText)
	assert.Equal(t, "฿100", ranked[0].PriceText)
	assert.Equal(t, "฿0.10", ranked[0].UnitPriceText)

	assert.Equal(t, TierSecondCheapest, ranked[1].Tier)
	assert.Equal(t, "500 ml", ranked[1].VolumeText)
	assert.Equal(t, "฿0.20", ranked[1].UnitPriceText)
}

func TestFormatter(t *testing.T) {
	f := NewFormatter(language.English, "", "", "")

	assert.Equal(t, "999 ml", f.Volume(999))
	assert.Equal(t, "2,500 ml (2.5 L)", f.Volume(2500))
	assert.Equal(t, "฿1,250", f.Price(1250))
	assert.Equal(t, "฿12.5", f.Price(12.5))
	assert.Equal(t, "฿1,234.50", f.UnitPrice(1234.5))
	assert.Equal(t, "฿0.25", f.UnitPrice(0.25))
}

func TestFormatterRoundsHalfUp(t *testing.T) {
	f := NewFormatter(language.English, "", "", "")

	assert.Equal(t, "1,250 ml (1.3 L)", f.Volume(1250))
	assert.Equal(t, "1,050 ml (1.1 L)", f.Volume(1050))
	assert.Equal(t, "฿0.13", f.UnitPrice(0.125))
	assert.Equal(t, "฿0.38", f.UnitPrice(0.375))
	assert.Equal(t, "฿12.345", f.Price(12.345))
	assert.Equal(t, "฿0.5", f.Price(0.5))
}

func TestFormatterThaiLocale(t *testing.T) {
	f := NewFormatter(language.Thai, "฿", "มิลลิลิตร", "ลิตร")

	assert.Equal(t, "1,500 มิลลิลิตร (1.5 ลิตร)", f.Volume(1500))
	assert.Equal(t, "750 มิลลิลิตร", f.Volume(750))
	assert.Equal(t, "฿1,250", f.Price(1250))
	assert.Equal(t, "฿0.13", f.UnitPrice(0.125))
}
