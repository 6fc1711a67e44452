package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// SnapshotVersion guards decoding of persisted snapshots.
const SnapshotVersion = 1

type SnapshotRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type SnapshotOtc struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type SnapshotInterruption struct {
	DateStart time.Time `json:"dateStart"`
	DateEnd   time.Time `json:"dateEnd"`
}

// SnapshotDocument is the frozen, value-only copy of the account state a
// billing was computed from. It holds no references back to live rows; later
// account mutations never reach it.
type SnapshotDocument struct {
	Version          int                    `json:"version"`
	AccountID        int64                  `json:"accountId"`
	CustomerName     string                 `json:"customerName"`
	CustomerEmail    *string                `json:"customerEmail,omitempty"`
	PlanTypeID       int64                  `json:"planTypeId"`
	PlanTypeName     string                 `json:"planTypeName"`
	PlanMbps         int64                  `json:"planMbps"`
	PlanPrice        decimal.Decimal        `json:"planPrice"`
	LocationName     string                 `json:"locationName"`
	SubscriptionName string                 `json:"subscriptionName"`
	StatusName       string                 `json:"statusName"`
	InstalledDate    *time.Time             `json:"installedDate,omitempty"`
	Otcs             []SnapshotOtc          `json:"otcs"`
	ContractPeriods  []SnapshotRef          `json:"contractPeriods"`
	RemainingCredits decimal.Decimal        `json:"remainingCredits"`
	Interruptions    []SnapshotInterruption `json:"interruptions"`
	CapturedAt       time.Time              `json:"capturedAt"`
}

func EncodeSnapshot(doc SnapshotDocument) (datatypes.JSON, error) {
	doc.Version = SnapshotVersion
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// DecodeSnapshot rejects malformed payloads and unknown versions with
// ErrCorruptSnapshot. It never panics.
func DecodeSnapshot(raw datatypes.JSON) (*SnapshotDocument, error) {
	if len(raw) == 0 {
		return nil, ErrCorruptSnapshot
	}
	var doc SnapshotDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, ErrCorruptSnapshot
	}
	if doc.Version != SnapshotVersion {
		return nil, ErrCorruptSnapshot
	}
	return &doc, nil
}
