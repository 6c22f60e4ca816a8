package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/busops/bus-ops-api/api"
	"github.com/busops/bus-ops-api/config"
	"github.com/busops/bus-ops-api/databases"
	"github.com/busops/bus-ops-api/models"
)

// Vehicle struct mostly used for mocking tests
type Vehicle struct {
	VDB databases.VehicleDatabase
	DDB databases.DriverDatabase
	RDB databases.RouteDatabase
}

type routeAssignmentRequest struct {
	VehicleUUID string `json:"vehicle_uuid"`
	RouteUUID   string `json:"route_uuid"`
}

// CreateVehicleHandler registers a new vehicle in the fleet
func (v Vehicle) CreateVehicleHandler(w http.ResponseWriter, r *http.Request) {
	var newVehicle models.Vehicle
	if err := json.NewDecoder(r.Body).Decode(&newVehicle); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if newVehicle.PlateNumber == "" {
		writeResult(w, models.Result{Code: http.StatusBadRequest, Message: "plate_number is required"})
		return
	}

	// the plate is the operator-facing key; the unique index backs this
	// check up under concurrency
	if _, err := v.VDB.FindOne(r.Context(), bson.M{"plate_number": newVehicle.PlateNumber}); err == nil {
		writeResult(w, models.Result{Code: http.StatusConflict, Message: "a vehicle with this plate number already exists"})
		return
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		config.ErrorStatus("failed to check plate number", http.StatusInternalServerError, w, err)
		return
	}

	// a fresh vehicle starts idle and unrouted regardless of the payload
	newVehicle.UUID = uuid.New().String()
	newVehicle.RouteUUID = nil
	newVehicle.IsStarted = false
	now := primitive.NewDateTimeFromTime(time.Now())
	newVehicle.CreatedAt = now
	newVehicle.UpdatedAt = now

	if err := v.VDB.InsertOne(r.Context(), newVehicle); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			writeResult(w, models.Result{Code: http.StatusConflict, Message: "a vehicle with this plate number already exists"})
			return
		}
		config.ErrorStatus("failed to create vehicle", http.StatusInternalServerError, w, err)
		return
	}

	writeData(w, http.StatusCreated, "vehicle created successfully", newVehicle)
}

// GetAllVehiclesHandler returns every vehicle in the fleet
func (v Vehicle) GetAllVehiclesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	vehicles, err := v.VDB.Find(ctx, bson.M{})
	if err != nil {
		config.ErrorStatus("failed to get vehicles", http.StatusInternalServerError, w, err)
		return
	}

	writeData(w, http.StatusOK, "vehicles retrieved successfully", map[string]interface{}{"vehicles": vehicles})
}

// UpdateVehicleHandler updates the descriptive fields of a vehicle
func (v Vehicle) UpdateVehicleHandler(w http.ResponseWriter, r *http.Request) {
	var req models.Vehicle
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	vehicle, err := v.VDB.FindOne(r.Context(), bson.M{"uuid": req.UUID})
	if err != nil {
		writeResult(w, notFoundOrInternal(err, "vehicle not found", "failed to get vehicle"))
		return
	}
	if vehicle.IsStarted {
		writeResult(w, models.Result{Code: http.StatusConflict, Message: "this vehicle is currently on road"})
		return
	}

	if req.Brand != "" {
		vehicle.Brand = req.Brand
	}
	if req.Model != "" {
		vehicle.Model = req.Model
	}
	if req.Year != 0 {
		vehicle.Year = req.Year
	}
	if req.PlateNumber != "" && req.PlateNumber != vehicle.PlateNumber {
		if other, err := v.VDB.FindOne(r.Context(), bson.M{"plate_number": req.PlateNumber}); err == nil && other.UUID != vehicle.UUID {
			writeResult(w, models.Result{Code: http.StatusConflict, Message: "a vehicle with this plate number already exists"})
			return
		} else if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			config.ErrorStatus("failed to check plate number", http.StatusInternalServerError, w, err)
			return
		}
		vehicle.PlateNumber = req.PlateNumber
	}
	vehicle.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())

	if err := v.VDB.UpdateOne(r.Context(), *vehicle); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			writeResult(w, models.Result{Code: http.StatusConflict, Message: "a vehicle with this plate number already exists"})
			return
		}
		config.ErrorStatus("failed to update vehicle", http.StatusInternalServerError, w, err)
		return
	}

	writeData(w, http.StatusOK, "vehicle updated successfully", vehicle)
}

// DeleteVehicleHandler removes a vehicle by uuid
func (v Vehicle) DeleteVehicleHandler(w http.ResponseWriter, r *http.Request) {
	vehicleUUID := mux.Vars(r)["vehicle_uuid"]
	v.deleteVehicle(w, r, bson.M{"uuid": vehicleUUID})
}

// DeleteVehicleByPlateHandler removes a vehicle by plate number
func (v Vehicle) DeleteVehicleByPlateHandler(w http.ResponseWriter, r *http.Request) {
	plateNumber := mux.Vars(r)["plate_number"]
	v.deleteVehicle(w, r, bson.M{"plate_number": plateNumber})
}

func (v Vehicle) deleteVehicle(w http.ResponseWriter, r *http.Request, filter bson.M) {
	vehicle, err := v.VDB.FindOne(r.Context(), filter)
	if err != nil {
		writeResult(w, notFoundOrInternal(err, "vehicle not found", "failed to get vehicle"))
		return
	}
	if vehicle.IsStarted {
		writeResult(w, models.Result{Code: http.StatusConflict, Message: "this vehicle is currently on road"})
		return
	}

	if err := v.VDB.DeleteOne(r.Context(), bson.M{"uuid": vehicle.UUID}); err != nil {
		config.ErrorStatus("failed to delete vehicle", http.StatusInternalServerError, w, err)
		return
	}
	// drop dangling references from drivers that held this vehicle
	if err := v.DDB.ClearVehicleRefs(r.Context(), vehicle.UUID); err != nil {
		config.ErrorStatus("failed to clear vehicle references", http.StatusInternalServerError, w, err)
		return
	}

	writeData(w, http.StatusOK, "vehicle deleted successfully", nil)
}

// AssignRouteHandler binds a route to an idle, unrouted vehicle
func (v Vehicle) AssignRouteHandler(w http.ResponseWriter, r *http.Request) {
	var req routeAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	vehicle, err := v.VDB.FindOne(r.Context(), bson.M{"uuid": req.VehicleUUID})
	if err != nil {
		writeResult(w, notFoundOrInternal(err, "vehicle not found", "failed to get vehicle"))
		return
	}
	if _, err := v.RDB.FindOne(r.Context(), bson.M{"uuid": req.RouteUUID}); err != nil {
		writeResult(w, notFoundOrInternal(err, "route not found", "failed to get route"))
		return
	}

	if err := v.VDB.AssignRoute(r.Context(), req.VehicleUUID, req.RouteUUID); err != nil {
		if errors.Is(err, databases.ErrNotMatched) {
			// the conditional write tells us the vehicle moved out of the
			// idle-and-unrouted state since we read it
			if vehicle.IsStarted {
				writeResult(w, models.Result{Code: http.StatusConflict, Message: "this vehicle is currently on road"})
				return
			}
			writeResult(w, models.Result{Code: http.StatusConflict, Message: "this vehicle already has a route assigned"})
			return
		}
		config.ErrorStatus("failed to assign route", http.StatusInternalServerError, w, err)
		return
	}

	writeData(w, http.StatusOK, "route assigned to vehicle successfully", nil)
}

// DeleteRouteHandler unbinds the route from an idle vehicle
func (v Vehicle) DeleteRouteHandler(w http.ResponseWriter, r *http.Request) {
	vehicleUUID := mux.Vars(r)["vehicle_uuid"]

	vehicle, err := v.VDB.FindOne(r.Context(), bson.M{"uuid": vehicleUUID})
	if err != nil {
		writeResult(w, notFoundOrInternal(err, "vehicle not found", "failed to get vehicle"))
		return
	}
	if vehicle.IsStarted {
		writeResult(w, models.Result{Code: http.StatusConflict, Message: "this vehicle is currently on road"})
		return
	}

	if err := v.VDB.ClearRoute(r.Context(), vehicleUUID); err != nil {
		if errors.Is(err, databases.ErrNotMatched) {
			writeResult(w, models.Result{Code: http.StatusBadRequest, Message: "no route is assigned to this vehicle"})
			return
		}
		config.ErrorStatus("failed to remove route from vehicle", http.StatusInternalServerError, w, err)
		return
	}

	writeData(w, http.StatusOK, "route removed from vehicle successfully", nil)
}
