package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/busops/bus-ops-api/databases"
)

// VerificationGrace is how long an unverified account gets to click the
// verification link
const VerificationGrace = 5 * time.Minute

// Scheduler handles periodic background jobs
type Scheduler struct {
	cron *cron.Cron
	UDB  databases.UserDatabase
	PDB  databases.PendingVerificationDatabase
}

// NewScheduler creates a new scheduler instance
func NewScheduler(uDB databases.UserDatabase, pDB databases.PendingVerificationDatabase) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		UDB:  uDB,
		PDB:  pDB,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// sweep stale unverified registrations every minute
	_, err := s.cron.AddFunc("* * * * *", s.SweepUnverified)
	if err != nil {
		zap.S().Errorw("failed to register verification sweep job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("verification scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("verification scheduler stopped")
}

// SweepUnverified deletes accounts whose verification window has lapsed.
// Accounts verified in the meantime only lose their stale pending record.
func (s *Scheduler) SweepUnverified() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := primitive.NewDateTimeFromTime(time.Now().Add(-VerificationGrace))
	stale, err := s.PDB.FindOlderThan(ctx, cutoff)
	if err != nil {
		zap.S().Errorw("failed to list pending verifications", "error", err)
		return
	}

	for _, pending := range stale {
		user, err := s.UDB.FindOne(ctx, bson.M{"uid": pending.UID})
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			zap.S().Errorw("failed to get pending account", "error", err, "uid", pending.UID)
			continue
		}

		if user != nil && !user.Verified {
			if err := s.UDB.DeleteOne(ctx, bson.M{"uid": pending.UID}); err != nil {
				zap.S().Errorw("failed to delete unverified account", "error", err, "uid", pending.UID)
				continue
			}
			zap.S().Infow("deleted unverified account", "uid", pending.UID, "email", pending.Email)
		}

		if err := s.PDB.DeleteOne(ctx, pending.UID); err != nil {
			zap.S().Errorw("failed to clear pending verification", "error", err, "uid", pending.UID)
		}
	}
}
