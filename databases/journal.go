package databases

//go generate: mockery --name JournalDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/busops/bus-ops-api/models"
)

const journalName = "journals"

// JournalDatabase contains the methods to use with the journal database.
// AppendLocation and Close filter on is_open so that a journal closed by a
// concurrent stop call rejects the write instead of losing it; both return
// ErrNotMatched in that case. AppendLocation is a single $push, so samples
// land in the order the updates are issued.
type JournalDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Journal, error)
	Find(ctx context.Context, filter interface{}) ([]models.Journal, error)
	InsertOne(ctx context.Context, journal models.Journal) error
	DeleteOne(ctx context.Context, filter interface{}) error
	AppendLocation(ctx context.Context, journalUUID string, location models.Location) error
	Close(ctx context.Context, journalUUID string) error
}

type journalDatabase struct {
	db DatabaseHelper
}

// NewJournalDatabase initializes a new instance of journal database with the provided db connection
func NewJournalDatabase(db DatabaseHelper) JournalDatabase {
	return &journalDatabase{
		db: db,
	}
}

func (c *journalDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Journal, error) {
	journal := &models.Journal{}
	err := c.db.Collection(journalName).FindOne(ctx, filter).Decode(&journal)
	if err != nil {
		return nil, err
	}
	return journal, nil
}

func (c *journalDatabase) Find(ctx context.Context, filter interface{}) ([]models.Journal, error) {
	var journals []models.Journal
	err := c.db.Collection(journalName).Find(ctx, filter).Decode(&journals)
	if err != nil {
		return nil, err
	}
	return journals, nil
}

func (c *journalDatabase) InsertOne(ctx context.Context, journal models.Journal) error {
	_, err := c.db.Collection(journalName).InsertOne(ctx, journal)
	return err
}

func (c *journalDatabase) DeleteOne(ctx context.Context, filter interface{}) error {
	res, err := c.db.Collection(journalName).DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount() == 0 {
		return ErrNotMatched
	}
	return nil
}

func (c *journalDatabase) AppendLocation(ctx context.Context, journalUUID string, location models.Location) error {
	res, err := c.db.Collection(journalName).UpdateOne(ctx,
		bson.M{"journal_uuid": journalUUID, "is_open": true},
		bson.M{
			"$push": bson.M{"locations": location},
			"$set":  bson.M{"updated_at": primitive.NewDateTimeFromTime(time.Now())},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount() == 0 {
		return ErrNotMatched
	}
	return nil
}

func (c *journalDatabase) Close(ctx context.Context, journalUUID string) error {
	res, err := c.db.Collection(journalName).UpdateOne(ctx,
		bson.M{"journal_uuid": journalUUID, "is_open": true},
		bson.M{"$set": bson.M{"is_open": false, "updated_at": primitive.NewDateTimeFromTime(time.Now())}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount() == 0 {
		return ErrNotMatched
	}
	return nil
}
