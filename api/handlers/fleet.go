package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/busops/bus-ops-api/api"
	"github.com/busops/bus-ops-api/config"
	"github.com/busops/bus-ops-api/databases"
	"github.com/busops/bus-ops-api/identity"
	"github.com/busops/bus-ops-api/models"
)

// Fleet struct mostly used for mocking tests
type Fleet struct {
	DDB     databases.DriverDatabase
	VDB     databases.VehicleDatabase
	Gateway identity.Gateway
}

type newDriverRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

type driverPhoneRequest struct {
	DriverUID   string `json:"driver_uid"`
	PhoneNumber string `json:"phone_number"`
}

type vehicleAssignmentRequest struct {
	DriverUID   string `json:"driver_uid"`
	VehicleUUID string `json:"vehicle_uuid"`
}

// GetAllDriversHandler returns every registered driver
func (f Fleet) GetAllDriversHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	drivers, err := f.DDB.Find(ctx, bson.M{})
	if err != nil {
		config.ErrorStatus("failed to get drivers", http.StatusInternalServerError, w, err)
		return
	}

	writeData(w, http.StatusOK, "drivers retrieved successfully", map[string]interface{}{"drivers": drivers})
}

// AddDriverHandler creates a driver account and its fleet record
func (f Fleet) AddDriverHandler(w http.ResponseWriter, r *http.Request) {
	var req newDriverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeResult(w, models.Result{Code: http.StatusBadRequest, Message: "email and password are required"})
		return
	}

	account, err := f.Gateway.CreateAccount(r.Context(), req.Email, req.Password, req.PhoneNumber, models.RoleDriver)
	if err != nil {
		config.ErrorStatus("failed to create driver account", http.StatusInternalServerError, w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	driver := models.Driver{
		UID:         account.UID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Role:        models.RoleDriver,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := f.DDB.InsertOne(r.Context(), driver); err != nil {
		// keep account and record in step
		if derr := f.Gateway.DeleteAccount(r.Context(), account.UID); derr != nil {
			zap.S().Errorw("failed to roll back driver account", "error", derr, "uid", account.UID)
		}
		config.ErrorStatus("failed to create driver", http.StatusInternalServerError, w, err)
		return
	}

	writeData(w, http.StatusCreated, "driver created successfully", driver)
}

// DeleteDriverHandler removes a driver record and its account. The delete
// is refused while the driver's vehicle is on road; an idle assignment
// simply disappears with the record.
func (f Fleet) DeleteDriverHandler(w http.ResponseWriter, r *http.Request) {
	driverUID := mux.Vars(r)["driver_uid"]

	driver, err := f.DDB.FindOne(r.Context(), bson.M{"uid": driverUID})
	if err != nil {
		writeResult(w, notFoundOrInternal(err, "driver not found", "failed to get driver"))
		return
	}
	if result, ok := f.vehicleOnRoad(r, driver); !ok {
		writeResult(w, result)
		return
	}

	if err := f.DDB.DeleteOne(r.Context(), bson.M{"uid": driverUID}); err != nil {
		config.ErrorStatus("failed to delete driver", http.StatusInternalServerError, w, err)
		return
	}
	if err := f.Gateway.DeleteAccount(r.Context(), driverUID); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		config.ErrorStatus("failed to delete driver account", http.StatusInternalServerError, w, err)
		return
	}

	writeData(w, http.StatusOK, "driver deleted successfully", nil)
}

// UpdateDriverPhoneNumberHandler updates the phone number on the driver
// record and the backing account
func (f Fleet) UpdateDriverPhoneNumberHandler(w http.ResponseWriter, r *http.Request) {
	var req driverPhoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	driver, err := f.DDB.FindOne(r.Context(), bson.M{"uid": req.DriverUID})
	if err != nil {
		writeResult(w, notFoundOrInternal(err, "driver not found", "failed to get driver"))
		return
	}
	if result, ok := f.vehicleOnRoad(r, driver); !ok {
		writeResult(w, result)
		return
	}

	driver.PhoneNumber = req.PhoneNumber
	driver.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())
	if err := f.DDB.UpdateOne(r.Context(), *driver); err != nil {
		config.ErrorStatus("failed to update driver", http.StatusInternalServerError, w, err)
		return
	}
	if err := f.Gateway.UpdatePhoneNumber(r.Context(), req.DriverUID, req.PhoneNumber); err != nil {
		config.ErrorStatus("failed to update driver account", http.StatusInternalServerError, w, err)
		return
	}

	writeData(w, http.StatusOK, "driver phone number updated successfully", driver)
}

// AssignVehicleToDriverHandler hands a vehicle to a driver. A vehicle is
// held by at most one driver at a time, and a driver holds at most one
// vehicle.
func (f Fleet) AssignVehicleToDriverHandler(w http.ResponseWriter, r *http.Request) {
	var req vehicleAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	driver, err := f.DDB.FindOne(r.Context(), bson.M{"uid": req.DriverUID})
	if err != nil {
		writeResult(w, notFoundOrInternal(err, "driver not found", "failed to get driver"))
		return
	}
	if driver.VehicleUUID != nil {
		writeResult(w, models.Result{Code: http.StatusConflict, Message: "driver already has a vehicle assigned"})
		return
	}

	if _, err := f.VDB.FindOne(r.Context(), bson.M{"uuid": req.VehicleUUID}); err != nil {
		writeResult(w, notFoundOrInternal(err, "vehicle not found", "failed to get vehicle"))
		return
	}

	holder, err := f.DDB.FindOne(r.Context(), bson.M{"vehicle_uuid": req.VehicleUUID})
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		config.ErrorStatus("failed to check vehicle holder", http.StatusInternalServerError, w, err)
		return
	}
	if holder != nil {
		writeResult(w, models.Result{Code: http.StatusConflict, Message: "vehicle is already assigned to another driver"})
		return
	}

	if err := f.DDB.SetVehicle(r.Context(), req.DriverUID, &req.VehicleUUID); err != nil {
		config.ErrorStatus("failed to assign vehicle", http.StatusInternalServerError, w, err)
		return
	}

	writeData(w, http.StatusOK, "vehicle assigned to driver successfully", nil)
}

// RemoveVehicleFromDriverHandler takes the vehicle back from the driver.
// Removal is refused while the vehicle is on road.
func (f Fleet) RemoveVehicleFromDriverHandler(w http.ResponseWriter, r *http.Request) {
	driverUID := mux.Vars(r)["driver_uid"]

	driver, err := f.DDB.FindOne(r.Context(), bson.M{"uid": driverUID})
	if err != nil {
		writeResult(w, notFoundOrInternal(err, "driver not found", "failed to get driver"))
		return
	}
	if driver.VehicleUUID == nil {
		writeResult(w, models.Result{Code: http.StatusBadRequest, Message: "driver is not assigned to a vehicle"})
		return
	}

	vehicle, err := f.VDB.FindOne(r.Context(), bson.M{"uuid": *driver.VehicleUUID})
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		config.ErrorStatus("failed to get vehicle", http.StatusInternalServerError, w, err)
		return
	}
	if vehicle != nil && vehicle.IsStarted {
		writeResult(w, models.Result{Code: http.StatusConflict, Message: "this vehicle is currently on road"})
		return
	}

	if err := f.DDB.SetVehicle(r.Context(), driverUID, nil); err != nil {
		config.ErrorStatus("failed to remove vehicle from driver", http.StatusInternalServerError, w, err)
		return
	}

	writeData(w, http.StatusOK, "vehicle removed from driver successfully", nil)
}

// vehicleOnRoad refuses fleet mutations on a driver whose vehicle is
// currently on road. A dangling vehicle reference is tolerated.
func (f Fleet) vehicleOnRoad(r *http.Request, driver *models.Driver) (models.Result, bool) {
	if driver.VehicleUUID == nil {
		return models.Result{}, true
	}
	vehicle, err := f.VDB.FindOne(r.Context(), bson.M{"uuid": *driver.VehicleUUID})
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Result{Code: http.StatusInternalServerError, Message: "failed to get vehicle", Error: err.Error()}, false
	}
	if vehicle != nil && vehicle.IsStarted {
		return models.Result{Code: http.StatusConflict, Message: "this vehicle is currently on road"}, false
	}
	return models.Result{}, true
}
