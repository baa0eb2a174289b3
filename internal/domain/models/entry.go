package models

import (
	"math"
	"strconv"
	"strings"
)

// Entry is one brand/volume/price record in a comparison list.
// Volume is expressed in milliliters and Price in the configured currency.
type Entry struct {
	ID     int64   `json:"id" bson:"id"`
	Name   string  `json:"name" bson:"name"`
	Volume float64 `json:"volume" bson:"volume"`
	Price  float64 `json:"price" bson:"price"`
	Image  string  `json:"image,omitempty" bson:"image,omitempty"`
}

// HasImage reports whether an attachment was stored with the entry.
func (e Entry) HasImage() bool {
	return e.Image != ""
}

// EntryFields holds validated user input ready to be stored.
type EntryFields struct {
	Name   string
	Volume float64
	Price  float64
	Image  string
}

// ParseEntryFields validates the raw strings handed over by an input surface.
// Every field is checked so the caller can report all problems at once.
func ParseEntryFields(name, volume, price, image string) (EntryFields, error) {
	var problems []FieldProblem

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		problems = append(problems, FieldProblem{Field: FieldName, Problem: ProblemMissing})
	}

	vol, problem := parseQuantity(volume)
	if problem != "" {
		problems = append(problems, FieldProblem{Field: FieldVolume, Problem: problem})
	}

	amount, problem := parseQuantity(price)
	if problem != "" {
		problems = append(problems, FieldProblem{Field: FieldPrice, Problem: problem})
	}

	if len(problems) > 0 {
		return EntryFields{}, &ValidationError{Problems: problems}
	}

	return EntryFields{Name: trimmed, Volume: vol, Price: amount, Image: image}, nil
}

func parseQuantity(raw string) (float64, Problem) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, ProblemMissing
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, ProblemNotNumber
	}
	if parsed <= 0 {
		return 0, ProblemNotPositive
	}
	return parsed, ""
}

// FormatQuantity renders a stored quantity back into the plain form a user would type.
func FormatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
