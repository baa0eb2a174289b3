package models

import "time"

// ExportRow is one formatted entry in an exported list.
type ExportRow struct {
	EntryID       int64   `bson:"entry_id" json:"entry_id"`
	Brand         string  `bson:"brand" json:"brand"`
	Volume        float64 `bson:"volume" json:"volume"`
	Price         float64 `bson:"price" json:"price"`
	UnitPrice     float64 `bson:"unit_price" json:"unit_price"`
	VolumeText    string  `bson:"volume_text" json:"volume_text"`
	PriceText     string  `bson:"price_text" json:"price_text"`
	UnitPriceText string  `bson:"unit_price_text" json:"unit_price_text"`
	Tier          string  `bson:"tier" json:"tier"`
}

// ExportSnapshot is the sorted list handed to an export sink.
type ExportSnapshot struct {
	SessionID string      `bson:"session_id" json:"session_id"`
	SortKey   string      `bson:"sort_key" json:"sort_key"`
	Text      string      `bson:"text" json:"text"`
	Rows      []ExportRow `bson:"rows" json:"rows"`
	CreatedAt time.Time   `bson:"created_at" json:"created_at"`
}
