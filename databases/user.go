package databases

//go generate: mockery --name UserDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/busops/bus-ops-api/models"
)

const userName = "users"

// UserDatabase contains the methods to use with the user database
type UserDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.User, error)
	Find(ctx context.Context, filter interface{}) ([]models.User, error)
	InsertOne(ctx context.Context, user models.User) error
	UpdateOne(ctx context.Context, user models.User) error
	DeleteOne(ctx context.Context, filter interface{}) error
	SetVerified(ctx context.Context, uid string) error
	AddSavedRoute(ctx context.Context, uid, routeUUID string) error
	RemoveSavedRoute(ctx context.Context, uid, routeUUID string) error
	RemoveSavedRouteRefs(ctx context.Context, routeUUID string) error
}

type userDatabase struct {
	db DatabaseHelper
}

// NewUserDatabase initializes a new instance of user database with the provided db connection
func NewUserDatabase(db DatabaseHelper) UserDatabase {
	return &userDatabase{
		db: db,
	}
}

func (c *userDatabase) FindOne(ctx context.Context, filter interface{}) (*models.User, error) {
	user := &models.User{}
	err := c.db.Collection(userName).FindOne(ctx, filter).Decode(&user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (c *userDatabase) Find(ctx context.Context, filter interface{}) ([]models.User, error) {
	var users []models.User
	err := c.db.Collection(userName).Find(ctx, filter).Decode(&users)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (c *userDatabase) InsertOne(ctx context.Context, user models.User) error {
	_, err := c.db.Collection(userName).InsertOne(ctx, user)
	return err
}

func (c *userDatabase) UpdateOne(ctx context.Context, user models.User) error {
	res, err := c.db.Collection(userName).UpdateOne(ctx,
		bson.M{"uid": user.UID},
		bson.M{"$set": user},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount() == 0 {
		return ErrNotMatched
	}
	return nil
}

func (c *userDatabase) DeleteOne(ctx context.Context, filter interface{}) error {
	res, err := c.db.Collection(userName).DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount() == 0 {
		return ErrNotMatched
	}
	return nil
}

func (c *userDatabase) SetVerified(ctx context.Context, uid string) error {
	res, err := c.db.Collection(userName).UpdateOne(ctx,
		bson.M{"uid": uid},
		bson.M{"$set": bson.M{"verified": true, "last_active": primitive.NewDateTimeFromTime(time.Now())}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount() == 0 {
		return ErrNotMatched
	}
	return nil
}

func (c *userDatabase) AddSavedRoute(ctx context.Context, uid, routeUUID string) error {
	res, err := c.db.Collection(userName).UpdateOne(ctx,
		bson.M{"uid": uid},
		bson.M{"$addToSet": bson.M{"saved_routes": routeUUID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount() == 0 {
		return ErrNotMatched
	}
	return nil
}

func (c *userDatabase) RemoveSavedRoute(ctx context.Context, uid, routeUUID string) error {
	res, err := c.db.Collection(userName).UpdateOne(ctx,
		bson.M{"uid": uid},
		bson.M{"$pull": bson.M{"saved_routes": routeUUID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount() == 0 {
		return ErrNotMatched
	}
	return nil
}

func (c *userDatabase) RemoveSavedRouteRefs(ctx context.Context, routeUUID string) error {
	_, err := c.db.Collection(userName).UpdateMany(ctx,
		bson.M{"saved_routes": routeUUID},
		bson.M{"$pull": bson.M{"saved_routes": routeUUID}},
	)
	return err
}
