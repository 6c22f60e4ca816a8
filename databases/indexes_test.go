package databases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/busops/bus-ops-api/databases"
	"github.com/busops/bus-ops-api/databases/mocks"
)

func TestEnsureIndexes_CreatesUniqueKeys(t *testing.T) {
	db := &mocks.DatabaseHelper{}
	conns := map[string]*mocks.CollectionHelper{}
	for _, name := range []string{"drivers", "vehicles", "routes", "journals", "users"} {
		c := &mocks.CollectionHelper{}
		c.On("CreateIndex", mock.Anything, mock.Anything, true).Return("idx", nil)
		db.On("Collection", name).Return(c)
		conns[name] = c
	}

	err := databases.EnsureIndexes(context.Background(), db)
	assert.NoError(t, err)

	// uuid and plate on vehicles, uuid and name on routes
	conns["vehicles"].AssertNumberOfCalls(t, "CreateIndex", 2)
	conns["routes"].AssertNumberOfCalls(t, "CreateIndex", 2)
	conns["journals"].AssertNumberOfCalls(t, "CreateIndex", 1)

	plate := false
	for _, call := range conns["vehicles"].Calls {
		keys := call.Arguments.Get(1).(bson.D)
		if keys[0].Key == "plate_number" {
			plate = true
		}
	}
	assert.True(t, plate, "expected a unique index on plate_number")
}

func TestEnsureIndexes_PropagatesFailure(t *testing.T) {
	db := &mocks.DatabaseHelper{}
	broken := &mocks.CollectionHelper{}
	broken.On("CreateIndex", mock.Anything, mock.Anything, true).
		Return("", errors.New("index build failed"))
	db.On("Collection", mock.Anything).Return(broken)

	err := databases.EnsureIndexes(context.Background(), db)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "index build failed")
}
