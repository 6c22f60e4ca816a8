package models

// Vehicle holds the structure for the vehicles collection in mongo.
// RouteUUID is nil while no route is assigned. IsStarted is true exactly
// while an open Journal references this vehicle.
type Vehicle struct {
	UUID        string      `json:"uuid" bson:"uuid"`
	Brand       string      `json:"vehicle_brand" bson:"vehicle_brand"`
	Model       string      `json:"vehicle_model" bson:"vehicle_model"`
	Year        int         `json:"vehicle_year" bson:"vehicle_year"`
	PlateNumber string      `json:"plate_number" bson:"plate_number"`
	RouteUUID   *string     `json:"route_uuid" bson:"route_uuid"`
	IsStarted   bool        `json:"is_started" bson:"is_started"`
	CreatedAt   interface{} `json:"created_at" bson:"created_at"`
	UpdatedAt   interface{} `json:"updated_at" bson:"updated_at"`
}
