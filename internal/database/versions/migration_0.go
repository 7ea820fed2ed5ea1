package versions

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Local copies of the initial schema so later schema changes do not rewrite
// history for databases that migrate step by step.

type User struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"not null"`
	Phone        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"size:20;default:worker"`
	Language     string    `gorm:"size:10;default:en"`
	CreationTime time.Time
}

type Trip struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId       uuid.UUID `gorm:"type:uuid;index;not null"`
	Platform     string    `gorm:"not null"`
	TripId       string    `gorm:"not null"`
	StartTime    time.Time
	EndTime      time.Time
	GpsPath      datatypes.JSON
	Meta         datatypes.JSON
	CreationTime time.Time
}

type Evidence struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId       uuid.UUID `gorm:"type:uuid;index;not null"`
	TripId       string
	StorageUrl   string `gorm:"not null"`
	Sha256       string `gorm:"not null"`
	Tags         datatypes.JSON
	CreationTime time.Time
}

type Payout struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId         uuid.UUID `gorm:"type:uuid;index;not null"`
	Platform       string    `gorm:"not null"`
	Period         string    `gorm:"not null"`
	Statement      datatypes.JSON
	ActualReceived float64
	Verified       bool    `gorm:"default:false"`
	Delta          float64 `gorm:"default:0"`
	Issues         datatypes.JSON
	CreationTime   time.Time
}

type RiskAssessment struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId       uuid.UUID `gorm:"type:uuid;index;not null"`
	Stats        datatypes.JSON
	Prediction   datatypes.JSON
	CreationTime time.Time
}

type PlatformRating struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId           uuid.UUID `gorm:"type:uuid;index;not null"`
	Platform         string    `gorm:"index;not null"`
	PaymentRating    int       `gorm:"not null"`
	SuspensionRating int       `gorm:"not null"`
	SupportRating    int       `gorm:"not null"`
	Comment          string
	CreationTime     time.Time
}

type Dispute struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId       uuid.UUID `gorm:"type:uuid;index;not null"`
	Title        string    `gorm:"not null"`
	Description  string
	EvidenceIds  datatypes.JSON
	AppealLetter datatypes.JSON
	Status       string `gorm:"size:20;default:open"`
	CreationTime time.Time
}

type Anomaly struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId       uuid.UUID `gorm:"type:uuid;index;not null"`
	Type         string    `gorm:"size:30;not null"`
	Details      datatypes.JSON
	Score        float64
	Reasons      datatypes.JSON
	Acknowledged bool `gorm:"default:false"`
	CreationTime time.Time
}

func Migration0(db *gorm.DB) error {
	err := db.AutoMigrate(
		&User{}, &Trip{}, &Evidence{}, &Payout{}, &RiskAssessment{}, &PlatformRating{}, &Dispute{}, &Anomaly{},
	)
	if err != nil {
		return fmt.Errorf("initial migration failed: %w", err)
	}
	return nil
}
