package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	DisputeOpen     string = "open"
	DisputeResolved string = "resolved"
)

const (
	AnomalyPaymentDelta   string = "payment_delta"
	AnomalySuspensionRisk string = "suspension_risk"
)

type User struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Phone        string    `gorm:"uniqueIndex;not null" json:"phone"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         string    `gorm:"size:20;default:worker" json:"role"`
	Language     string    `gorm:"size:10;default:en" json:"language"`
	CreationTime time.Time `json:"createdAt"`
}

type Trip struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserId       uuid.UUID      `gorm:"type:uuid;index;not null" json:"userId"`
	Platform     string         `gorm:"not null" json:"platform"`
	TripId       string         `gorm:"not null" json:"tripId"`
	StartTime    time.Time      `json:"startTime"`
	EndTime      time.Time      `json:"endTime"`
	GpsPath      datatypes.JSON `json:"gpsPath"`
	Meta         datatypes.JSON `json:"meta"`
	CreationTime time.Time      `json:"createdAt"`
}

type Evidence struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserId       uuid.UUID      `gorm:"type:uuid;index;not null" json:"userId"`
	TripId       string         `json:"tripId,omitempty"`
	StorageUrl   string         `gorm:"not null" json:"storageUrl"`
	Sha256       string         `gorm:"not null" json:"sha256"`
	Tags         datatypes.JSON `json:"tags"`
	CreationTime time.Time      `json:"createdAt"`
}

// Payout is immutable once written: verified and delta are computed at
// submission time and never revised.
type Payout struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserId         uuid.UUID      `gorm:"type:uuid;index;not null" json:"userId"`
	Platform       string         `gorm:"not null" json:"platform"`
	Period         string         `gorm:"not null" json:"period"`
	Statement      datatypes.JSON `json:"platformStatement"`
	ActualReceived float64        `json:"actualReceived"`
	Verified       bool           `gorm:"default:false" json:"verified"`
	Delta          float64        `gorm:"default:0" json:"delta"`
	Issues         datatypes.JSON `json:"issues"`
	CreationTime   time.Time      `json:"createdAt"`
}

// RiskAssessment rows are append-only; the fairness aggregator only ever
// reads the most recent one per worker.
type RiskAssessment struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserId       uuid.UUID      `gorm:"type:uuid;index;not null" json:"userId"`
	Stats        datatypes.JSON `json:"stats"`
	Prediction   datatypes.JSON `json:"prediction"`
	CreationTime time.Time      `json:"createdAt"`
}

// Rating sub-fields are flat integer columns so the platform index can be
// computed with a grouped AVG in SQL.
type PlatformRating struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserId           uuid.UUID `gorm:"type:uuid;index;not null" json:"userId"`
	Platform         string    `gorm:"index;not null" json:"platform"`
	PaymentRating    int       `gorm:"not null" json:"paymentRating"`
	SuspensionRating int       `gorm:"not null" json:"suspensionRating"`
	SupportRating    int       `gorm:"not null" json:"supportRating"`
	Comment          string    `json:"comment,omitempty"`
	CreationTime     time.Time `json:"createdAt"`
}

type Dispute struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserId       uuid.UUID      `gorm:"type:uuid;index;not null" json:"userId"`
	Title        string         `gorm:"not null" json:"title"`
	Description  string         `json:"description"`
	EvidenceIds  datatypes.JSON `json:"evidenceIds"`
	AppealLetter datatypes.JSON `json:"appealLetter"`
	Status       string         `gorm:"size:20;default:open" json:"status"`
	CreationTime time.Time      `json:"createdAt"`
}

type Anomaly struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserId       uuid.UUID      `gorm:"type:uuid;index;not null" json:"userId"`
	Type         string         `gorm:"size:30;not null" json:"type"`
	Details      datatypes.JSON `json:"details"`
	Score        float64        `json:"score"`
	Reasons      datatypes.JSON `json:"reasons"`
	Acknowledged bool           `gorm:"default:false" json:"acknowledged"`
	CreationTime time.Time      `json:"createdAt"`
}
