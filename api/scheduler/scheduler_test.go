package scheduler_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/busops/bus-ops-api/api/scheduler"
	"github.com/busops/bus-ops-api/databases"
	"github.com/busops/bus-ops-api/databases/mocks"
	"github.com/busops/bus-ops-api/models"
)

type sweepMocks struct {
	db      *mocks.DatabaseHelper
	users   *mocks.CollectionHelper
	pending *mocks.CollectionHelper
}

func newSweepMocks() sweepMocks {
	m := sweepMocks{
		db:      &mocks.DatabaseHelper{},
		users:   &mocks.CollectionHelper{},
		pending: &mocks.CollectionHelper{},
	}
	m.db.On("Collection", "users").Return(m.users)
	m.db.On("Collection", "pending_verifications").Return(m.pending)
	return m
}

func (m sweepMocks) run() {
	s := scheduler.NewScheduler(
		databases.NewUserDatabase(m.db),
		databases.NewPendingVerificationDatabase(m.db),
	)
	s.SweepUnverified()
}

func pendingCursor(pendings []models.PendingVerification) *mocks.CursorHelper {
	c := &mocks.CursorHelper{}
	c.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.PendingVerification)
		*arg = pendings
	})
	return c
}

func userResult(user models.User) *mocks.SingleResultHelper {
	s := &mocks.SingleResultHelper{}
	s.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.User)
		**arg = user
	})
	return s
}

func deleted(n int64) *mocks.DeleteResultHelper {
	d := &mocks.DeleteResultHelper{}
	d.On("DeletedCount").Return(n)
	return d
}

func TestScheduler_SweepUnverified_DeletesStaleAccount(t *testing.T) {
	m := newSweepMocks()

	m.pending.On("Find", mock.Anything, mock.Anything).
		Return(pendingCursor([]models.PendingVerification{{UID: "usr-1", Email: "a@b.c"}}))
	m.users.On("FindOne", mock.Anything, mock.Anything).
		Return(userResult(models.User{UID: "usr-1", Verified: false}))
	m.users.On("DeleteOne", mock.Anything, mock.Anything).Return(deleted(1), nil)
	m.pending.On("DeleteOne", mock.Anything, mock.Anything).Return(deleted(1), nil)

	m.run()

	m.users.AssertCalled(t, "DeleteOne", mock.Anything, mock.Anything)
	m.pending.AssertCalled(t, "DeleteOne", mock.Anything, mock.Anything)
}

func TestScheduler_SweepUnverified_SparesVerifiedAccount(t *testing.T) {
	m := newSweepMocks()

	m.pending.On("Find", mock.Anything, mock.Anything).
		Return(pendingCursor([]models.PendingVerification{{UID: "usr-1", Email: "a@b.c"}}))
	m.users.On("FindOne", mock.Anything, mock.Anything).
		Return(userResult(models.User{UID: "usr-1", Verified: true}))
	m.pending.On("DeleteOne", mock.Anything, mock.Anything).Return(deleted(1), nil)

	m.run()

	// account stays, only the stale pending record goes
	m.users.AssertNotCalled(t, "DeleteOne", mock.Anything, mock.Anything)
	m.pending.AssertCalled(t, "DeleteOne", mock.Anything, mock.Anything)
}

func TestScheduler_SweepUnverified_AccountAlreadyGone(t *testing.T) {
	m := newSweepMocks()

	missing := &mocks.SingleResultHelper{}
	missing.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)

	m.pending.On("Find", mock.Anything, mock.Anything).
		Return(pendingCursor([]models.PendingVerification{{UID: "usr-1", Email: "a@b.c"}}))
	m.users.On("FindOne", mock.Anything, mock.Anything).Return(missing)
	m.pending.On("DeleteOne", mock.Anything, mock.Anything).Return(deleted(1), nil)

	m.run()

	m.users.AssertNotCalled(t, "DeleteOne", mock.Anything, mock.Anything)
	m.pending.AssertCalled(t, "DeleteOne", mock.Anything, mock.Anything)
}

func TestScheduler_SweepUnverified_TimeBounds(t *testing.T) {
	// the grace period is five minutes; just a sanity pin so nobody
	// shortens it by accident
	if scheduler.VerificationGrace != 5*time.Minute {
		t.Errorf("unexpected verification grace: %v", scheduler.VerificationGrace)
	}
}
