package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Particular is one charge or deduction line. Amount sign carries meaning:
// deductions are negative.
type Particular struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// Particulars preserves insertion order through the JSON round-trip.
type Particulars []Particular

// Total sums the lines and rounds to two decimal places. It is recomputed on
// every read; nothing stores it.
func (p Particulars) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range p {
		total = total.Add(line.Amount)
	}
	return total.Round(2)
}

func EncodeParticulars(p Particulars) (datatypes.JSON, error) {
	if p == nil {
		p = Particulars{}
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func DecodeParticulars(raw datatypes.JSON) (Particulars, error) {
	if len(raw) == 0 {
		return Particulars{}, nil
	}
	var p Particulars
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, ErrCorruptParticulars
	}
	return p, nil
}
