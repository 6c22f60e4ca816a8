package models

// Journal is the persisted record of one vehicle journey, from start to
// stop. Vehicle and Route are snapshots frozen at journey start, not live
// references. Locations is append-only and may only grow while IsOpen.
type Journal struct {
	UUID           string      `json:"journal_uuid" bson:"journal_uuid"`
	JournalDate    string      `json:"journal_date" bson:"journal_date"`
	DriverUID      string      `json:"driver_uid" bson:"driver_uid"`
	DriverName     string      `json:"driver_name" bson:"driver_name"`
	DriverLastName string      `json:"driver_last_name" bson:"driver_last_name"`
	Vehicle        Vehicle     `json:"journal_vehicle" bson:"journal_vehicle"`
	Route          Route       `json:"journal_route" bson:"journal_route"`
	IsOpen         bool        `json:"is_open" bson:"is_open"`
	Locations      []Location  `json:"locations" bson:"locations"`
	CreatedAt      interface{} `json:"created_at" bson:"created_at"`
	UpdatedAt      interface{} `json:"updated_at" bson:"updated_at"`
}

// ActiveJournal is the passenger-facing view of an open journal; the
// location trail is deliberately left out of the payload.
type ActiveJournal struct {
	UUID           string  `json:"journal_uuid" bson:"journal_uuid"`
	JournalDate    string  `json:"journal_date" bson:"journal_date"`
	DriverUID      string  `json:"driver_uid" bson:"driver_uid"`
	DriverName     string  `json:"driver_name" bson:"driver_name"`
	DriverLastName string  `json:"driver_last_name" bson:"driver_last_name"`
	Vehicle        Vehicle `json:"journal_vehicle" bson:"journal_vehicle"`
	Route          Route   `json:"journal_route" bson:"journal_route"`
	IsOpen         bool    `json:"is_open" bson:"is_open"`
}

// Location is one GPS sample pushed by a driver during a journey
type Location struct {
	Lat       float64 `json:"lat" bson:"lat"`
	Lon       float64 `json:"lon" bson:"lon"`
	Timestamp string  `json:"timestamp" bson:"timestamp"`
}

// View strips the location trail for listing endpoints
func (j Journal) View() ActiveJournal {
	return ActiveJournal{
		UUID:           j.UUID,
		JournalDate:    j.JournalDate,
		DriverUID:      j.DriverUID,
		DriverName:     j.DriverName,
		DriverLastName: j.DriverLastName,
		Vehicle:        j.Vehicle,
		Route:          j.Route,
		IsOpen:         j.IsOpen,
	}
}
