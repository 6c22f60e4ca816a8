package models

// Driver holds the structure for the drivers collection in mongo. The
// identity account lives with the external identity gateway; UID is the
// reference to it. VehicleUUID is a reference into the vehicles collection,
// nil while the driver has no vehicle; the vehicle record itself is the
// single source of truth.
type Driver struct {
	UID         string      `json:"uid" bson:"uid"`
	FirstName   string      `json:"first_name" bson:"first_name"`
	LastName    string      `json:"last_name" bson:"last_name"`
	PhoneNumber string      `json:"phone_number" bson:"phone_number"`
	Role        string      `json:"role" bson:"role"`
	VehicleUUID *string     `json:"vehicle_uuid" bson:"vehicle_uuid"`
	CreatedAt   interface{} `json:"created_at" bson:"created_at"`
	UpdatedAt   interface{} `json:"updated_at" bson:"updated_at"`
}
