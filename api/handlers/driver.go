package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/busops/bus-ops-api/databases"
	"github.com/busops/bus-ops-api/models"
)

// Driver owns the journey lifecycle: starting and stopping journeys,
// appending location samples to the open journal and the driver-facing
// read endpoints. The websocket channels call into the same operations.
type Driver struct {
	DDB databases.DriverDatabase
	VDB databases.VehicleDatabase
	RDB databases.RouteDatabase
	JDB databases.JournalDatabase
}

// StartJourneyHandler starts a journey for the given driver
func (d Driver) StartJourneyHandler(w http.ResponseWriter, r *http.Request) {
	driverUID := mux.Vars(r)["driver_uid"]
	writeResult(w, d.startJourney(r.Context(), driverUID))
}

// StopJourneyHandler stops the given journey for the given driver
func (d Driver) StopJourneyHandler(w http.ResponseWriter, r *http.Request) {
	driverUID := mux.Vars(r)["driver_uid"]
	journalUUID := mux.Vars(r)["journal_uuid"]
	writeResult(w, d.stopJourney(r.Context(), driverUID, journalUUID))
}

// GetVehicleHandler returns the vehicle assigned to the given driver
func (d Driver) GetVehicleHandler(w http.ResponseWriter, r *http.Request) {
	driverUID := mux.Vars(r)["driver_uid"]

	driver, result := d.lookupDriver(r.Context(), driverUID)
	if driver == nil {
		writeResult(w, result)
		return
	}
	if driver.VehicleUUID == nil {
		writeResult(w, models.Result{Code: http.StatusNotFound, Message: "driver is not assigned to a vehicle"})
		return
	}

	vehicle, err := d.VDB.FindOne(r.Context(), bson.M{"uuid": *driver.VehicleUUID})
	if err != nil {
		writeResult(w, notFoundOrInternal(err, "vehicle not found", "failed to get vehicle"))
		return
	}

	writeData(w, http.StatusOK, "vehicle retrieved successfully", vehicle)
}

// GetVehicleRouteHandler returns the route assigned to the driver's vehicle
func (d Driver) GetVehicleRouteHandler(w http.ResponseWriter, r *http.Request) {
	driverUID := mux.Vars(r)["driver_uid"]

	driver, result := d.lookupDriver(r.Context(), driverUID)
	if driver == nil {
		writeResult(w, result)
		return
	}
	if driver.VehicleUUID == nil {
		writeResult(w, models.Result{Code: http.StatusNotFound, Message: "driver is not assigned to a vehicle"})
		return
	}

	vehicle, err := d.VDB.FindOne(r.Context(), bson.M{"uuid": *driver.VehicleUUID})
	if err != nil {
		writeResult(w, notFoundOrInternal(err, "vehicle not found", "failed to get vehicle"))
		return
	}
	if vehicle.RouteUUID == nil {
		writeResult(w, models.Result{Code: http.StatusNotFound, Message: "vehicle is not assigned to a route"})
		return
	}

	route, err := d.RDB.FindOne(r.Context(), bson.M{"uuid": *vehicle.RouteUUID})
	if err != nil {
		writeResult(w, notFoundOrInternal(err, "route not found", "failed to get route"))
		return
	}

	writeData(w, http.StatusOK, "vehicle route retrieved successfully", map[string]interface{}{"route": route})
}

// GetDriverInformationHandler returns the driver record
func (d Driver) GetDriverInformationHandler(w http.ResponseWriter, r *http.Request) {
	driverUID := mux.Vars(r)["driver_uid"]

	driver, result := d.lookupDriver(r.Context(), driverUID)
	if driver == nil {
		writeResult(w, result)
		return
	}

	writeData(w, http.StatusOK, "driver information retrieved successfully", driver)
}

// GetActiveJournalHandler returns the driver's currently open journal
func (d Driver) GetActiveJournalHandler(w http.ResponseWriter, r *http.Request) {
	driverUID := mux.Vars(r)["driver_uid"]

	journal, err := d.JDB.FindOne(r.Context(), bson.M{"driver_uid": driverUID, "is_open": true})
	if err != nil {
		writeResult(w, notFoundOrInternal(err, "no active journal found", "failed to get journal"))
		return
	}

	writeData(w, http.StatusOK, "active journal retrieved successfully", journal)
}

// startJourney runs the Idle -> OnRoute transition: it freezes the route and
// vehicle into a fresh journal, persists it, then flips the vehicle's
// is_started flag with a compare-and-swap. If the flip fails the journal is
// deleted again so no half-started state remains.
func (d Driver) startJourney(ctx context.Context, driverUID string) models.Result {
	driver, result := d.lookupDriver(ctx, driverUID)
	if driver == nil {
		return result
	}
	if driver.VehicleUUID == nil {
		zap.S().Infow("driver has no vehicle assigned", "driver_uid", driverUID)
		return models.Result{Code: http.StatusNotFound, Message: "driver is not assigned to a vehicle"}
	}

	vehicle, err := d.VDB.FindOne(ctx, bson.M{"uuid": *driver.VehicleUUID})
	if err != nil {
		return notFoundOrInternal(err, "vehicle not found", "failed to get vehicle")
	}
	if vehicle.RouteUUID == nil {
		zap.S().Infow("vehicle has no route assigned", "vehicle_uuid", vehicle.UUID)
		return models.Result{Code: http.StatusNotFound, Message: "no route is assigned to this vehicle"}
	}

	route, err := d.RDB.FindOne(ctx, bson.M{"uuid": *vehicle.RouteUUID})
	if err != nil {
		return notFoundOrInternal(err, "no route is assigned to this vehicle", "failed to get route")
	}

	if vehicle.IsStarted {
		zap.S().Infow("vehicle is already on road", "vehicle_uuid", vehicle.UUID)
		return models.Result{Code: http.StatusConflict, Message: "this vehicle is already on road"}
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	journal := models.Journal{
		UUID:           uuid.New().String(),
		JournalDate:    time.Now().Format("02-01-2006"),
		DriverUID:      driver.UID,
		DriverName:     driver.FirstName,
		DriverLastName: driver.LastName,
		Vehicle:        *vehicle,
		Route:          *route,
		IsOpen:         true,
		Locations:      []models.Location{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	journal.Vehicle.IsStarted = true

	if err := d.JDB.InsertOne(ctx, journal); err != nil {
		zap.S().Errorw("failed to create journal", "error", err)
		return models.Result{Code: http.StatusInternalServerError, Message: "failed to create journal", Error: err.Error()}
	}

	// Flip the flag only if the vehicle is still idle; a racing start loses
	// here and the journal it would orphan is removed again.
	if err := d.VDB.SetStarted(ctx, vehicle.UUID, false, true); err != nil {
		d.compensateJournal(ctx, journal.UUID)
		if errors.Is(err, databases.ErrNotMatched) {
			return models.Result{Code: http.StatusConflict, Message: "this vehicle is already on road"}
		}
		zap.S().Errorw("failed to mark vehicle as started", "error", err, "vehicle_uuid", vehicle.UUID)
		return models.Result{Code: http.StatusInternalServerError, Message: "failed to start journey", Error: err.Error()}
	}

	return models.Result{
		Code:    http.StatusOK,
		Success: true,
		Message: "journey started successfully",
		Data:    map[string]interface{}{"journal": journal},
	}
}

func (d Driver) stopJourney(ctx context.Context, driverUID, journalUUID string) models.Result {
	journal, err := d.JDB.FindOne(ctx, bson.M{"journal_uuid": journalUUID})
	if err != nil {
		return notFoundOrInternal(err, "no such journey exists", "failed to get journal")
	}

	driver, result := d.lookupDriver(ctx, driverUID)
	if driver == nil {
		return result
	}
	if driver.VehicleUUID == nil {
		return models.Result{Code: http.StatusNotFound, Message: "driver is not assigned to a vehicle"}
	}

	vehicle, err := d.VDB.FindOne(ctx, bson.M{"uuid": *driver.VehicleUUID})
	if err != nil {
		return notFoundOrInternal(err, "vehicle not found", "failed to get vehicle")
	}
	if !vehicle.IsStarted {
		zap.S().Infow("vehicle is not on road", "vehicle_uuid", vehicle.UUID)
		return models.Result{Code: http.StatusBadRequest, Message: "this vehicle has already been stopped"}
	}

	if err := d.VDB.SetStarted(ctx, vehicle.UUID, true, false); err != nil {
		if errors.Is(err, databases.ErrNotMatched) {
			return models.Result{Code: http.StatusBadRequest, Message: "this vehicle has already been stopped"}
		}
		zap.S().Errorw("failed to mark vehicle as stopped", "error", err, "vehicle_uuid", vehicle.UUID)
		return models.Result{Code: http.StatusInternalServerError, Message: "failed to stop journey", Error: err.Error()}
	}

	if err := d.JDB.Close(ctx, journal.UUID); err != nil {
		if errors.Is(err, databases.ErrNotMatched) {
			return models.Result{Code: http.StatusBadRequest, Message: "this journey is no longer open"}
		}
		// The vehicle flag is already flipped; surface the partial failure
		// so it can be reconciled instead of hiding it.
		zap.S().Errorw("vehicle stopped but journal close failed",
			"error", err,
			"vehicle_uuid", vehicle.UUID,
			"journal_uuid", journal.UUID)
		return models.Result{Code: http.StatusInternalServerError, Message: "failed to close journal", Error: err.Error()}
	}

	return models.Result{Code: http.StatusOK, Success: true, Message: "journey stopped successfully"}
}

// updateJournal appends one location sample to an open journal. The append
// itself re-checks is_open at write time, so a journal closed by a racing
// stop call rejects the sample instead of absorbing it.
func (d Driver) updateJournal(ctx context.Context, journalUUID string, location models.Location) models.Result {
	journal, err := d.JDB.FindOne(ctx, bson.M{"journal_uuid": journalUUID})
	if err != nil {
		return notFoundOrInternal(err, "no such journey exists", "failed to get journal")
	}
	if !journal.IsOpen {
		zap.S().Infow("journal is not open", "journal_uuid", journalUUID)
		return models.Result{Code: http.StatusBadRequest, Message: "this journey is no longer open"}
	}

	if err := d.JDB.AppendLocation(ctx, journalUUID, location); err != nil {
		if errors.Is(err, databases.ErrNotMatched) {
			return models.Result{Code: http.StatusBadRequest, Message: "this journey is no longer open"}
		}
		zap.S().Errorw("failed to append location", "error", err, "journal_uuid", journalUUID)
		return models.Result{Code: http.StatusInternalServerError, Message: "failed to update journal", Error: err.Error()}
	}

	return models.Result{Code: http.StatusOK, Success: true}
}

// fetchLatestLocation returns the most recent sample of an open journal
func (d Driver) fetchLatestLocation(ctx context.Context, journalUUID string) models.Result {
	journal, err := d.JDB.FindOne(ctx, bson.M{"journal_uuid": journalUUID, "is_open": true})
	if err != nil {
		return notFoundOrInternal(err, "no such journey exists", "failed to get journal")
	}
	if len(journal.Locations) == 0 {
		return models.Result{Code: http.StatusNotFound, Message: "there isn't any location yet"}
	}

	return models.Result{
		Code:    http.StatusOK,
		Success: true,
		Message: "location retrieved successfully",
		Data:    map[string]interface{}{"current_location": journal.Locations[len(journal.Locations)-1]},
	}
}

func (d Driver) lookupDriver(ctx context.Context, driverUID string) (*models.Driver, models.Result) {
	driver, err := d.DDB.FindOne(ctx, bson.M{"uid": driverUID})
	if err != nil {
		return nil, notFoundOrInternal(err, "driver not found", "failed to get driver")
	}
	return driver, models.Result{}
}

// compensateJournal removes a journal created by a start that could not
// finish; best effort, a leftover is logged for manual reconciliation
func (d Driver) compensateJournal(ctx context.Context, journalUUID string) {
	if err := d.JDB.DeleteOne(ctx, bson.M{"journal_uuid": journalUUID}); err != nil {
		zap.S().Errorw("failed to roll back journal", "error", err, "journal_uuid", journalUUID)
	}
}

// notFoundOrInternal maps a store lookup error onto the response taxonomy
func notFoundOrInternal(err error, notFoundMsg, internalMsg string) models.Result {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Result{Code: http.StatusNotFound, Message: notFoundMsg}
	}
	zap.S().Errorw(internalMsg, "error", err)
	return models.Result{Code: http.StatusInternalServerError, Message: internalMsg, Error: err.Error()}
}
