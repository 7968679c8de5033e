package balance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Status labels shown next to a case's balance.
const (
	StatusKeineZahlungen = "Keine Zahlungen"
	StatusGedeckt        = "Gedeckt"
	StatusUeberschuss    = "Überschuss"
	StatusDifferenz      = "Differenz"
)

// Tolerance below which a net balance counts as settled.
const Tolerance = 0.01

// Item is anything carrying a debit (Soll) and credit (Haben) amount.
type Item struct {
	Soll  float64
	Haben float64
}

type Summary struct {
	Soll   float64 `json:"gesamt_soll"`
	Haben  float64 `json:"gesamt_haben"`
	Net    float64 `json:"saldo"`
	Status string  `json:"status"`
	Count  int     `json:"positionen"`
}

// Compute sums credits minus debits across items.
func Compute(items []Item) Summary {
	var s Summary
	var hasAmounts bool
	for _, it := range items {
		s.Soll += it.Soll
		s.Haben += it.Haben
		if it.Soll != 0 || it.Haben != 0 {
			hasAmounts = true
		}
	}
	s.Count = len(items)
	s.Soll = round2(s.Soll)
	s.Haben = round2(s.Haben)
	s.Net = round2(s.Haben - s.Soll)

	switch {
	case !hasAmounts:
		s.Status = StatusKeineZahlungen
	case math.Abs(s.Net) < Tolerance:
		s.Status = StatusGedeckt
	case s.Net > 0:
		s.Status = StatusUeberschuss
	default:
		s.Status = StatusDifferenz
	}
	return s
}

// ParseAmount reads a German or plain decimal string. "1.234,56" and
// "1234.56" both give 1234.56; anything unparseable gives 0.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "€")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Amount is a money value that accepts JSON numbers, numeric strings
// with comma or dot decimals, and null. Anything else reads as 0.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid amount: %w", err)
		}
		*a = Amount(ParseAmount(s))
		return nil
	}
	// Booleans, objects, arrays and out of range numbers count as 0.
	var f float64
	if err := json.Unmarshal(data, &f); err != nil || math.IsInf(f, 0) {
		*a = 0
		return nil
	}
	*a = Amount(f)
	return nil
}

func (a Amount) Float64() float64 {
	return float64(a)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
