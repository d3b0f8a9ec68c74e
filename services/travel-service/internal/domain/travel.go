package domain

import "time"

type TravelStatus string

const (
	TravelStatusDraft     TravelStatus = "DRAFT"
	TravelStatusPublished TravelStatus = "PUBLISHED"
	TravelStatusCancelled TravelStatus = "CANCELLED"
	TravelStatusCompleted TravelStatus = "COMPLETED"
)

// MinimumDaysBeforeDeparture is the subscription cutoff: no subscribe or
// traveler cancel inside this window.
const MinimumDaysBeforeDeparture = 3

// Travel is the capacity-owning aggregate. CurrentBookings is only mutated
// through the repository's Reserve/Release, which compare-and-swap on
// Version.
type Travel struct {
	ID                    string    `gorm:"primaryKey"`
	ManagerID             string    `gorm:"index"`
	Title                 string    `gorm:"size:255"`
	Description           string    `gorm:"type:text"`
	StartDate             time.Time `gorm:"index"`
	EndDate               time.Time
	Duration              int
	Price                 float64
	MaxCapacity           int
	CurrentBookings       int
	Status                TravelStatus  `gorm:"index;size:20"`
	AccommodationType     string        `gorm:"size:30"`
	AccommodationName     string        `gorm:"size:255"`
	TransportationType    string        `gorm:"size:30"`
	TransportationDetails string        `gorm:"size:500"`
	Destinations          []Destination `gorm:"constraint:OnDelete:CASCADE"`
	Activities            []Activity    `gorm:"constraint:OnDelete:CASCADE"`
	Version               int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type Destination struct {
	ID          string `gorm:"primaryKey"`
	TravelID    string `gorm:"index"`
	Name        string `gorm:"size:255"`
	Country     string `gorm:"size:100"`
	City        string `gorm:"size:100"`
	Description string `gorm:"type:text"`
}

type Activity struct {
	ID          string `gorm:"primaryKey"`
	TravelID    string `gorm:"index"`
	Name        string `gorm:"size:255"`
	Description string `gorm:"type:text"`
	Location    string `gorm:"size:255"`
}

func (t *Travel) HasAvailableCapacity() bool {
	return t.CurrentBookings < t.MaxCapacity
}

// DaysUntilDeparture counts whole calendar days between now and the start
// date, ignoring the time of day on either side.
func (t *Travel) DaysUntilDeparture(now time.Time) int {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := time.Date(t.StartDate.Year(), t.StartDate.Month(), t.StartDate.Day(), 0, 0, 0, 0, time.UTC)
	return int(start.Sub(today).Hours() / 24)
}
