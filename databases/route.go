package databases

//go generate: mockery --name RouteDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/busops/bus-ops-api/models"
)

const routeName = "routes"

// RouteDatabase contains the methods to use with the route database
type RouteDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Route, error)
	Find(ctx context.Context, filter interface{}) ([]models.Route, error)
	InsertOne(ctx context.Context, route models.Route) error
	UpdateOne(ctx context.Context, route models.Route) error
	DeleteOne(ctx context.Context, filter interface{}) error
}

type routeDatabase struct {
	db DatabaseHelper
}

// NewRouteDatabase initializes a new instance of route database with the provided db connection
func NewRouteDatabase(db DatabaseHelper) RouteDatabase {
	return &routeDatabase{
		db: db,
	}
}

func (c *routeDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Route, error) {
	route := &models.Route{}
	err := c.db.Collection(routeName).FindOne(ctx, filter).Decode(&route)
	if err != nil {
		return nil, err
	}
	return route, nil
}

func (c *routeDatabase) Find(ctx context.Context, filter interface{}) ([]models.Route, error) {
	var routes []models.Route
	err := c.db.Collection(routeName).Find(ctx, filter).Decode(&routes)
	if err != nil {
		return nil, err
	}
	return routes, nil
}

func (c *routeDatabase) InsertOne(ctx context.Context, route models.Route) error {
	_, err := c.db.Collection(routeName).InsertOne(ctx, route)
	return err
}

func (c *routeDatabase) UpdateOne(ctx context.Context, route models.Route) error {
	res, err := c.db.Collection(routeName).UpdateOne(ctx,
		bson.M{"uuid": route.UUID},
		bson.M{"$set": route},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount() == 0 {
		return ErrNotMatched
	}
	return nil
}

func (c *routeDatabase) DeleteOne(ctx context.Context, filter interface{}) error {
	res, err := c.db.Collection(routeName).DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount() == 0 {
		return ErrNotMatched
	}
	return nil
}
