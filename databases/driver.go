package databases

//go generate: mockery --name DriverDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/busops/bus-ops-api/models"
)

const driverName = "drivers"

// DriverDatabase contains the methods to use with the driver database
type DriverDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Driver, error)
	Find(ctx context.Context, filter interface{}) ([]models.Driver, error)
	InsertOne(ctx context.Context, driver models.Driver) error
	UpdateOne(ctx context.Context, driver models.Driver) error
	DeleteOne(ctx context.Context, filter interface{}) error
	SetVehicle(ctx context.Context, driverUID string, vehicleUUID *string) error
	ClearVehicleRefs(ctx context.Context, vehicleUUID string) error
}

type driverDatabase struct {
	db DatabaseHelper
}

// NewDriverDatabase initializes a new instance of driver database with the provided db connection
func NewDriverDatabase(db DatabaseHelper) DriverDatabase {
	return &driverDatabase{
		db: db,
	}
}

func (c *driverDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Driver, error) {
	driver := &models.Driver{}
	err := c.db.Collection(driverName).FindOne(ctx, filter).Decode(&driver)
	if err != nil {
		return nil, err
	}
	return driver, nil
}

func (c *driverDatabase) Find(ctx context.Context, filter interface{}) ([]models.Driver, error) {
	var drivers []models.Driver
	err := c.db.Collection(driverName).Find(ctx, filter).Decode(&drivers)
	if err != nil {
		return nil, err
	}
	return drivers, nil
}

func (c *driverDatabase) InsertOne(ctx context.Context, driver models.Driver) error {
	_, err := c.db.Collection(driverName).InsertOne(ctx, driver)
	return err
}

func (c *driverDatabase) UpdateOne(ctx context.Context, driver models.Driver) error {
	res, err := c.db.Collection(driverName).UpdateOne(ctx,
		bson.M{"uid": driver.UID},
		bson.M{"$set": driver},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount() == 0 {
		return ErrNotMatched
	}
	return nil
}

func (c *driverDatabase) DeleteOne(ctx context.Context, filter interface{}) error {
	res, err := c.db.Collection(driverName).DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount() == 0 {
		return ErrNotMatched
	}
	return nil
}

func (c *driverDatabase) SetVehicle(ctx context.Context, driverUID string, vehicleUUID *string) error {
	res, err := c.db.Collection(driverName).UpdateOne(ctx,
		bson.M{"uid": driverUID},
		bson.M{"$set": bson.M{"vehicle_uuid": vehicleUUID, "updated_at": primitive.NewDateTimeFromTime(time.Now())}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount() == 0 {
		return ErrNotMatched
	}
	return nil
}

func (c *driverDatabase) ClearVehicleRefs(ctx context.Context, vehicleUUID string) error {
	_, err := c.db.Collection(driverName).UpdateMany(ctx,
		bson.M{"vehicle_uuid": vehicleUUID},
		bson.M{"$set": bson.M{"vehicle_uuid": nil, "updated_at": primitive.NewDateTimeFromTime(time.Now())}},
	)
	return err
}
