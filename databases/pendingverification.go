package databases

//go generate: mockery --name PendingVerificationDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/busops/bus-ops-api/models"
)

const pendingVerificationName = "pending_verifications"

// PendingVerificationDatabase contains the methods to use with the pending verification database
type PendingVerificationDatabase interface {
	InsertOne(ctx context.Context, pending models.PendingVerification) error
	FindOlderThan(ctx context.Context, cutoff primitive.DateTime) ([]models.PendingVerification, error)
	DeleteOne(ctx context.Context, uid string) error
}

type pendingVerificationDatabase struct {
	db DatabaseHelper
}

// NewPendingVerificationDatabase initializes a new instance of pending verification database with the provided db connection
func NewPendingVerificationDatabase(db DatabaseHelper) PendingVerificationDatabase {
	return &pendingVerificationDatabase{
		db: db,
	}
}

func (c *pendingVerificationDatabase) InsertOne(ctx context.Context, pending models.PendingVerification) error {
	_, err := c.db.Collection(pendingVerificationName).InsertOne(ctx, pending)
	return err
}

func (c *pendingVerificationDatabase) FindOlderThan(ctx context.Context, cutoff primitive.DateTime) ([]models.PendingVerification, error) {
	var pendings []models.PendingVerification
	err := c.db.Collection(pendingVerificationName).Find(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}}).Decode(&pendings)
	if err != nil {
		return nil, err
	}
	return pendings, nil
}

func (c *pendingVerificationDatabase) DeleteOne(ctx context.Context, uid string) error {
	res, err := c.db.Collection(pendingVerificationName).DeleteOne(ctx, bson.M{"uid": uid})
	if err != nil {
		return err
	}
	if res.DeletedCount() == 0 {
		return ErrNotMatched
	}
	return nil
}
