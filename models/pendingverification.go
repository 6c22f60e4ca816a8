package models

// PendingVerification tracks a freshly registered account until its email is
// verified; the scheduler sweeps expired entries.
type PendingVerification struct {
	UID       string      `json:"uid" bson:"uid"`
	Email     string      `json:"email" bson:"email"`
	CreatedAt interface{} `json:"created_at" bson:"created_at"`
}
