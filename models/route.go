package models

// Route holds the structure for the routes collection in mongo. RouteName is
// unique across the fleet.
type Route struct {
	UUID      string      `json:"uuid" bson:"uuid"`
	RouteName string      `json:"route_name" bson:"route_name"`
	StartTime string      `json:"start_time" bson:"start_time"`
	Stops     []Stop      `json:"stops" bson:"stops"`
	CreatedAt interface{} `json:"created_at" bson:"created_at"`
	UpdatedAt interface{} `json:"updated_at" bson:"updated_at"`
}

// Stop is a named point on a route
type Stop struct {
	Name string  `json:"name" bson:"name"`
	Lat  float64 `json:"lat" bson:"lat"`
	Lon  float64 `json:"lon" bson:"lon"`
}
