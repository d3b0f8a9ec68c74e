package document

import "time"

// TravelDocument is the denormalized, queryable projection of a travel.
// It is written only by the indexer consuming catalog facts; each snapshot
// replaces the whole document (last write wins).
type TravelDocument struct {
	ID                    string           `bson:"_id" json:"id"`
	ManagerID             string           `bson:"manager_id" json:"manager_id"`
	Title                 string           `bson:"title" json:"title"`
	Description           string           `bson:"description" json:"description"`
	StartDate             string           `bson:"start_date" json:"start_date"`
	EndDate               string           `bson:"end_date" json:"end_date"`
	Duration              int              `bson:"duration" json:"duration"`
	Price                 float64          `bson:"price" json:"price"`
	MaxCapacity           int              `bson:"max_capacity" json:"max_capacity"`
	CurrentBookings       int              `bson:"current_bookings" json:"current_bookings"`
	Status                string           `bson:"status" json:"status"`
	AccommodationType     string           `bson:"accommodation_type,omitempty" json:"accommodation_type,omitempty"`
	AccommodationName     string           `bson:"accommodation_name,omitempty" json:"accommodation_name,omitempty"`
	TransportationType    string           `bson:"transportation_type,omitempty" json:"transportation_type,omitempty"`
	TransportationDetails string           `bson:"transportation_details,omitempty" json:"transportation_details,omitempty"`
	Destinations          []DestinationDoc `bson:"destinations,omitempty" json:"destinations,omitempty"`
	Activities            []ActivityDoc    `bson:"activities,omitempty" json:"activities,omitempty"`
	IndexedAt             time.Time        `bson:"indexed_at" json:"indexed_at"`
}

type DestinationDoc struct {
	Name        string `bson:"name" json:"name"`
	Country     string `bson:"country" json:"country"`
	City        string `bson:"city" json:"city"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}

type ActivityDoc struct {
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Location    string `bson:"location,omitempty" json:"location,omitempty"`
}
