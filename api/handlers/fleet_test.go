package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/busops/bus-ops-api/api/handlers"
	"github.com/busops/bus-ops-api/config"
	"github.com/busops/bus-ops-api/databases"
	"github.com/busops/bus-ops-api/identity"
	"github.com/busops/bus-ops-api/models"
)

func (f fleetMocks) fleetHandler() handlers.Fleet {
	return handlers.Fleet{
		DDB: databases.NewDriverDatabase(f.db),
		VDB: databases.NewVehicleDatabase(f.db),
	}
}

func TestFleet_AssignVehicleToDriverHandler_Success(t *testing.T) {
	f := newFleetMocks()

	// first lookup resolves the driver, second checks for a current holder
	f.drivers.On("FindOne", mock.Anything, mock.Anything).
		Return(singleResultWithDriver(models.Driver{UID: "drv-1"})).Once()
	f.vehicles.On("FindOne", mock.Anything, mock.Anything).
		Return(singleResultWithVehicle(routedIdleVehicle()))
	f.drivers.On("FindOne", mock.Anything, mock.Anything).
		Return(singleResultNotFound()).Once()
	f.drivers.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(updateResultMatched(1), nil)

	rr := httptest.NewRecorder()
	req, _ := http.NewRequest("PATCH", "/api/v1/admin/management/assign_vehicle_to_driver",
		strings.NewReader(`{"driver_uid":"drv-1","vehicle_uuid":"veh-1"}`))
	http.HandlerFunc(f.fleetHandler().AssignVehicleToDriverHandler).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v, body %v", rr.Code, http.StatusOK, rr.Body.String())
	}
	f.drivers.AssertCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestFleet_AssignVehicleToDriverHandler_VehicleHeldByAnotherDriver(t *testing.T) {
	f := newFleetMocks()

	f.drivers.On("FindOne", mock.Anything, mock.Anything).
		Return(singleResultWithDriver(models.Driver{UID: "drv-1"})).Once()
	f.vehicles.On("FindOne", mock.Anything, mock.Anything).
		Return(singleResultWithVehicle(routedIdleVehicle()))
	f.drivers.On("FindOne", mock.Anything, mock.Anything).
		Return(singleResultWithDriver(models.Driver{UID: "drv-2", VehicleUUID: strPtr("veh-1")})).Once()

	rr := httptest.NewRecorder()
	req, _ := http.NewRequest("PATCH", "/api/v1/admin/management/assign_vehicle_to_driver",
		strings.NewReader(`{"driver_uid":"drv-1","vehicle_uuid":"veh-1"}`))
	http.HandlerFunc(f.fleetHandler().AssignVehicleToDriverHandler).ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusConflict)
	}
	if !strings.Contains(rr.Body.String(), "already assigned to another driver") {
		t.Errorf("handler returned unexpected body: got %v", rr.Body.String())
	}
}

func TestFleet_AssignVehicleToDriverHandler_DriverAlreadyHasVehicle(t *testing.T) {
	f := newFleetMocks()

	f.drivers.On("FindOne", mock.Anything, mock.Anything).
		Return(singleResultWithDriver(models.Driver{UID: "drv-1", VehicleUUID: strPtr("veh-9")}))

	rr := httptest.NewRecorder()
	req, _ := http.NewRequest("PATCH", "/api/v1/admin/management/assign_vehicle_to_driver",
		strings.NewReader(`{"driver_uid":"drv-1","vehicle_uuid":"veh-1"}`))
	http.HandlerFunc(f.fleetHandler().AssignVehicleToDriverHandler).ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusConflict)
	}
	if !strings.Contains(rr.Body.String(), "driver already has a vehicle") {
		t.Errorf("handler returned unexpected body: got %v", rr.Body.String())
	}
}

func TestFleet_RemoveVehicleFromDriverHandler_VehicleOnRoad(t *testing.T) {
	f := newFleetMocks()
	vehicle := routedIdleVehicle()
	vehicle.IsStarted = true

	f.drivers.On("FindOne", mock.Anything, mock.Anything).
		Return(singleResultWithDriver(models.Driver{UID: "drv-1", VehicleUUID: strPtr("veh-1")}))
	f.vehicles.On("FindOne", mock.Anything, mock.Anything).
		Return(singleResultWithVehicle(vehicle))

	rr := httptest.NewRecorder()
	req, _ := http.NewRequest("PATCH", "/api/v1/admin/management/remove_vehicle_from_driver/drv-1", nil)
	http.HandlerFunc(f.fleetHandler().RemoveVehicleFromDriverHandler).ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusConflict)
	}
	if !strings.Contains(rr.Body.String(), "on road") {
		t.Errorf("handler returned unexpected body: got %v", rr.Body.String())
	}
}

func TestFleet_RemoveVehicleFromDriverHandler_Success(t *testing.T) {
	f := newFleetMocks()

	f.drivers.On("FindOne", mock.Anything, mock.Anything).
		Return(singleResultWithDriver(models.Driver{UID: "drv-1", VehicleUUID: strPtr("veh-1")}))
	f.vehicles.On("FindOne", mock.Anything, mock.Anything).
		Return(singleResultWithVehicle(routedIdleVehicle()))
	f.drivers.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(updateResultMatched(1), nil)

	rr := httptest.NewRecorder()
	req, _ := http.NewRequest("PATCH", "/api/v1/admin/management/remove_vehicle_from_driver/drv-1", nil)
	http.HandlerFunc(f.fleetHandler().RemoveVehicleFromDriverHandler).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v, body %v", rr.Code, http.StatusOK, rr.Body.String())
	}
}

func (p passengerMocks) fleetHandlerWithGateway() handlers.Fleet {
	return handlers.Fleet{
		DDB:     databases.NewDriverDatabase(p.db),
		VDB:     databases.NewVehicleDatabase(p.db),
		Gateway: identity.NewGateway(&config.Config{TokenSecret: "test-secret"}, databases.NewUserDatabase(p.db)),
	}
}

func TestFleet_UpdateDriverPhoneNumberHandler_VehicleOnRoad(t *testing.T) {
	f := newFleetMocks()
	vehicle := routedIdleVehicle()
	vehicle.IsStarted = true

	f.drivers.On("FindOne", mock.Anything, mock.Anything).
		Return(singleResultWithDriver(models.Driver{UID: "drv-1", VehicleUUID: strPtr("veh-1")}))
	f.vehicles.On("FindOne", mock.Anything, mock.Anything).
		Return(singleResultWithVehicle(vehicle))

	rr := httptest.NewRecorder()
	req, _ := http.NewRequest("PATCH", "/api/v1/admin/management/update_driver_phone_number",
		strings.NewReader(`{"driver_uid":"drv-1","phone_number":"+90 555 000 00 00"}`))
	http.HandlerFunc(f.fleetHandler().UpdateDriverPhoneNumberHandler).ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusConflict)
	}
	if !strings.Contains(rr.Body.String(), "on road") {
		t.Errorf("handler returned unexpected body: got %v", rr.Body.String())
	}
	f.drivers.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestFleet_UpdateDriverPhoneNumberHandler_Success(t *testing.T) {
	p := newPassengerMocks()

	p.drivers.On("FindOne", mock.Anything, mock.Anything).
		Return(singleResultWithDriver(models.Driver{UID: "drv-1"}))
	p.drivers.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(updateResultMatched(1), nil)
	p.users.On("FindOne", mock.Anything, mock.Anything).
		Return(singleResultWithUser(models.User{UID: "drv-1", Email: "drv@busops.dev"}))
	p.users.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(updateResultMatched(1), nil)

	rr := httptest.NewRecorder()
	req, _ := http.NewRequest("PATCH", "/api/v1/admin/management/update_driver_phone_number",
		strings.NewReader(`{"driver_uid":"drv-1","phone_number":"+90 555 000 00 00"}`))
	http.HandlerFunc(p.fleetHandlerWithGateway().UpdateDriverPhoneNumberHandler).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v, body %v", rr.Code, http.StatusOK, rr.Body.String())
	}
	p.users.AssertCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestFleet_DeleteDriverHandler_VehicleOnRoad(t *testing.T) {
	f := newFleetMocks()
	vehicle := routedIdleVehicle()
	vehicle.IsStarted = true

	f.drivers.On("FindOne", mock.Anything, mock.Anything).
		Return(singleResultWithDriver(models.Driver{UID: "drv-1", VehicleUUID: strPtr("veh-1")}))
	f.vehicles.On("FindOne", mock.Anything, mock.Anything).
		Return(singleResultWithVehicle(vehicle))

	rr := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/api/v1/admin/management/delete_driver/drv-1", nil)
	http.HandlerFunc(f.fleetHandler().DeleteDriverHandler).ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusConflict)
	}
	f.drivers.AssertNotCalled(t, "DeleteOne", mock.Anything, mock.Anything)
}

// deleting a driver who holds an idle vehicle is fine, the assignment
// disappears with the record
func TestFleet_DeleteDriverHandler_IdleVehicleSucceeds(t *testing.T) {
	p := newPassengerMocks()

	p.drivers.On("FindOne", mock.Anything, mock.Anything).
		Return(singleResultWithDriver(models.Driver{UID: "drv-1", VehicleUUID: strPtr("veh-1")}))
	p.vehicles.On("FindOne", mock.Anything, mock.Anything).
		Return(singleResultWithVehicle(routedIdleVehicle()))
	p.drivers.On("DeleteOne", mock.Anything, mock.Anything).
		Return(deleteResultDeleted(1), nil)
	p.users.On("DeleteOne", mock.Anything, mock.Anything).
		Return(deleteResultDeleted(1), nil)

	rr := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/api/v1/admin/management/delete_driver/drv-1", nil)
	http.HandlerFunc(p.fleetHandlerWithGateway().DeleteDriverHandler).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v, body %v", rr.Code, http.StatusOK, rr.Body.String())
	}
	p.drivers.AssertCalled(t, "DeleteOne", mock.Anything, mock.Anything)
	p.users.AssertCalled(t, "DeleteOne", mock.Anything, mock.Anything)
}
