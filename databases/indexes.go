package databases

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// EnsureIndexes creates the unique indexes the stores rely on. The unique
// plate, route name and journal uuid keys are the backstop behind the
// handler-level pre-insert checks: a concurrent duplicate that slips past
// the check is rejected by the index.
func EnsureIndexes(ctx context.Context, db DatabaseHelper) error {
	unique := []struct {
		collection string
		key        string
	}{
		{driverName, "uid"},
		{vehicleName, "uuid"},
		{vehicleName, "plate_number"},
		{routeName, "uuid"},
		{routeName, "route_name"},
		{journalName, "journal_uuid"},
		{userName, "uid"},
		{userName, "email"},
	}
	for _, ix := range unique {
		_, err := db.Collection(ix.collection).CreateIndex(ctx, bson.D{{Key: ix.key, Value: 1}}, true)
		if err != nil {
			return fmt.Errorf("failed to create unique index %s.%s: %w", ix.collection, ix.key, err)
		}
	}
	return nil
}
