package models

// User holds the structure for the users collection in mongo. Fleet admins,
// drivers and passengers all authenticate through the same collection; the
// Role field tells them apart.
type User struct {
	UID         string      `json:"uid" bson:"uid"`
	Email       string      `json:"email" bson:"email"`
	Password    string      `json:"-" bson:"password"`
	PhoneNumber string      `json:"phone_number" bson:"phone_number"`
	Role        string      `json:"role" bson:"role"`
	FirstName   string      `json:"first_name" bson:"first_name"`
	LastName    string      `json:"last_name" bson:"last_name"`
	Verified    bool        `json:"verified" bson:"verified"`
	SavedRoutes []string    `json:"saved_routes" bson:"saved_routes"`
	CreatedAt   interface{} `json:"created_at" bson:"created_at"`
	LastActive  interface{} `json:"last_active" bson:"last_active"`
}

// Roles stored in the user Role field
const (
	RoleAdmin     = "ADMIN_USER"
	RoleDriver    = "DRIVER_USER"
	RolePassenger = "END_USER"
)
