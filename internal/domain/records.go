package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultHiveType is used when a hive is created without a type.
const DefaultHiveType = "Langstroth"

type Apiary struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Latitude   *float64  `json:"latitude"`
	Longitude  *float64  `json:"longitude"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// Hive belongs to an apiary. QRString defaults to the hive ID so every hive can
// be labelled with a scannable code.
type Hive struct {
	ID         uuid.UUID `json:"id"`
	ApiaryID   uuid.UUID `json:"apiaryId"`
	Name       string    `json:"name"`
	QRString   string    `json:"qrString"`
	Type       string    `json:"type"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// Inspection is a persisted hive inspection.
type Inspection struct {
	ID         uuid.UUID       `json:"id"`
	HiveID     uuid.UUID       `json:"hiveId"`
	Date       time.Time       `json:"date"`
	Flags      InspectionFlags `json:"flags"`
	Photos     []string        `json:"photos"`
	Transcript string          `json:"transcript"`
	Tags       []string        `json:"tags"`
	CreatedAt  time.Time       `json:"createdAt"`
	ModifiedAt time.Time       `json:"modifiedAt"`
}

type Treatment struct {
	ID             uuid.UUID  `json:"id"`
	HiveID         uuid.UUID  `json:"hiveId"`
	Date           time.Time  `json:"date"`
	Product        string     `json:"product"`
	Dosage         string     `json:"dosage"`
	Notes          string     `json:"notes"`
	NextCheckDate  *time.Time `json:"nextCheckDate"`
	NotificationID *string    `json:"notificationId"`
	CreatedAt      time.Time  `json:"createdAt"`
	ModifiedAt     time.Time  `json:"modifiedAt"`
}

type Harvest struct {
	ID         uuid.UUID `json:"id"`
	HiveID     uuid.UUID `json:"hiveId"`
	Date       time.Time `json:"date"`
	WeightKg   float64   `json:"weightKg"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// SessionSnapshot is a read-only copy of the in-progress inspection.
type SessionSnapshot struct {
	ID         uuid.UUID        `json:"id"`
	HiveID     uuid.UUID        `json:"hiveId"`
	StartedAt  time.Time        `json:"startedAt"`
	Flags      InspectionFlags  `json:"flags"`
	Transcript string           `json:"transcript"`
	Photos     []string         `json:"photos"`
	Tags       []string         `json:"tags"`
	Commands   ParsedCommandLog `json:"commands"`
	Frame      int              `json:"frame"`
}

// Summary is the dashboard overview across every apiary. VarroaAlerts counts
// inspections that found a Medium or High mite load.
type Summary struct {
	TotalHives         int          `json:"totalHives"`
	TotalInspections   int          `json:"totalInspections"`
	VarroaAlerts       int          `json:"varroaAlerts"`
	TotalHarvestKg     float64      `json:"totalHarvestKg"`
	RecentInspections  []Inspection `json:"recentInspections"`
	UpcomingTreatments []Treatment  `json:"upcomingTreatments"`
}
