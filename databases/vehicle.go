package databases

//go generate: mockery --name VehicleDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/busops/bus-ops-api/models"
)

const vehicleName = "vehicles"

// VehicleDatabase contains the methods to use with the vehicle database.
// AssignRoute, ClearRoute and SetStarted are conditional writes: the filter
// re-verifies the expected prior state and ErrNotMatched is returned when it
// no longer holds.
type VehicleDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Vehicle, error)
	Find(ctx context.Context, filter interface{}) ([]models.Vehicle, error)
	InsertOne(ctx context.Context, vehicle models.Vehicle) error
	UpdateOne(ctx context.Context, vehicle models.Vehicle) error
	DeleteOne(ctx context.Context, filter interface{}) error
	AssignRoute(ctx context.Context, vehicleUUID, routeUUID string) error
	ClearRoute(ctx context.Context, vehicleUUID string) error
	ClearRouteRefs(ctx context.Context, routeUUID string) error
	SetStarted(ctx context.Context, vehicleUUID string, from, to bool) error
}

type vehicleDatabase struct {
	db DatabaseHelper
}

// NewVehicleDatabase initializes a new instance of vehicle database with the provided db connection
func NewVehicleDatabase(db DatabaseHelper) VehicleDatabase {
	return &vehicleDatabase{
		db: db,
	}
}

func (c *vehicleDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Vehicle, error) {
	vehicle := &models.Vehicle{}
	err := c.db.Collection(vehicleName).FindOne(ctx, filter).Decode(&vehicle)
	if err != nil {
		return nil, err
	}
	return vehicle, nil
}

func (c *vehicleDatabase) Find(ctx context.Context, filter interface{}) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	err := c.db.Collection(vehicleName).Find(ctx, filter).Decode(&vehicles)
	if err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (c *vehicleDatabase) InsertOne(ctx context.Context, vehicle models.Vehicle) error {
	_, err := c.db.Collection(vehicleName).InsertOne(ctx, vehicle)
	return err
}

func (c *vehicleDatabase) UpdateOne(ctx context.Context, vehicle models.Vehicle) error {
	res, err := c.db.Collection(vehicleName).UpdateOne(ctx,
		bson.M{"uuid": vehicle.UUID},
		bson.M{"$set": vehicle},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount() == 0 {
		return ErrNotMatched
	}
	return nil
}

func (c *vehicleDatabase) DeleteOne(ctx context.Context, filter interface{}) error {
	res, err := c.db.Collection(vehicleName).DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount() == 0 {
		return ErrNotMatched
	}
	return nil
}

func (c *vehicleDatabase) AssignRoute(ctx context.Context, vehicleUUID, routeUUID string) error {
	res, err := c.db.Collection(vehicleName).UpdateOne(ctx,
		bson.M{"uuid": vehicleUUID, "is_started": false, "route_uuid": nil},
		bson.M{"$set": bson.M{"route_uuid": routeUUID, "updated_at": primitive.NewDateTimeFromTime(time.Now())}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount() == 0 {
		return ErrNotMatched
	}
	return nil
}

func (c *vehicleDatabase) ClearRoute(ctx context.Context, vehicleUUID string) error {
	res, err := c.db.Collection(vehicleName).UpdateOne(ctx,
		bson.M{"uuid": vehicleUUID, "is_started": false, "route_uuid": bson.M{"$ne": nil}},
		bson.M{"$set": bson.M{"route_uuid": nil, "updated_at": primitive.NewDateTimeFromTime(time.Now())}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount() == 0 {
		return ErrNotMatched
	}
	return nil
}

func (c *vehicleDatabase) ClearRouteRefs(ctx context.Context, routeUUID string) error {
	_, err := c.db.Collection(vehicleName).UpdateMany(ctx,
		bson.M{"route_uuid": routeUUID},
		bson.M{"$set": bson.M{"route_uuid": nil, "updated_at": primitive.NewDateTimeFromTime(time.Now())}},
	)
	return err
}

func (c *vehicleDatabase) SetStarted(ctx context.Context, vehicleUUID string, from, to bool) error {
	res, err := c.db.Collection(vehicleName).UpdateOne(ctx,
		bson.M{"uuid": vehicleUUID, "is_started": from},
		bson.M{"$set": bson.M{"is_started": to, "updated_at": primitive.NewDateTimeFromTime(time.Now())}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount() == 0 {
		return ErrNotMatched
	}
	return nil
}
