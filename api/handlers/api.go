package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/busops/bus-ops-api/api"
	"github.com/busops/bus-ops-api/api/scheduler"
	"github.com/busops/bus-ops-api/config"
	"github.com/busops/bus-ops-api/databases"
	"github.com/busops/bus-ops-api/identity"
	"github.com/busops/bus-ops-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Gateway   identity.Gateway
	Scheduler *scheduler.Scheduler
	dbHelper  databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareAuth{Gateway: a.Gateway}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	d := Driver{
		DDB: databases.NewDriverDatabase(a.dbHelper),
		VDB: databases.NewVehicleDatabase(a.dbHelper),
		RDB: databases.NewRouteDatabase(a.dbHelper),
		JDB: databases.NewJournalDatabase(a.dbHelper),
	}
	fl := Fleet{
		DDB:     databases.NewDriverDatabase(a.dbHelper),
		VDB:     databases.NewVehicleDatabase(a.dbHelper),
		Gateway: a.Gateway,
	}
	v := Vehicle{
		VDB: databases.NewVehicleDatabase(a.dbHelper),
		DDB: databases.NewDriverDatabase(a.dbHelper),
		RDB: databases.NewRouteDatabase(a.dbHelper),
	}
	rt := Route{
		RDB: databases.NewRouteDatabase(a.dbHelper),
		VDB: databases.NewVehicleDatabase(a.dbHelper),
		UDB: databases.NewUserDatabase(a.dbHelper),
	}
	p := Passenger{
		UDB: databases.NewUserDatabase(a.dbHelper),
		RDB: databases.NewRouteDatabase(a.dbHelper),
		JDB: databases.NewJournalDatabase(a.dbHelper),
	}
	auth := Auth{
		Gateway: a.Gateway,
		UDB:     databases.NewUserDatabase(a.dbHelper),
		PDB:     databases.NewPendingVerificationDatabase(a.dbHelper),
		Config:  a.Config,
	}
	stream := Stream{Driver: d, Config: a.Config}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/login", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")
	apiCreate.Handle("/auth/register", http.HandlerFunc(auth.RegisterHandler)).Methods("POST")
	apiCreate.Handle("/auth/verify/{uid}", http.HandlerFunc(auth.VerifyEmailHandler)).Methods("GET")

	apiCreate.Handle("/driver/start_journey/{driver_uid}", api.Middleware(http.HandlerFunc(d.StartJourneyHandler))).Methods("POST")
	apiCreate.Handle("/driver/stop_journey/{driver_uid}/{journal_uuid}", api.Middleware(http.HandlerFunc(d.StopJourneyHandler))).Methods("POST")
	apiCreate.Handle("/driver/get_vehicle/{driver_uid}", api.Middleware(http.HandlerFunc(d.GetVehicleHandler))).Methods("GET")
	apiCreate.Handle("/driver/get_vehicle_route/{driver_uid}", api.Middleware(http.HandlerFunc(d.GetVehicleRouteHandler))).Methods("GET")
	apiCreate.Handle("/driver/get_driver_information/{driver_uid}", api.Middleware(http.HandlerFunc(d.GetDriverInformationHandler))).Methods("GET")
	apiCreate.Handle("/driver/get_active_journal/{driver_uid}", api.Middleware(http.HandlerFunc(d.GetActiveJournalHandler))).Methods("GET")
	// websocket channels authenticate with their shared-secret header, not bearer middleware
	apiCreate.Handle("/driver/ws/update_location", http.HandlerFunc(stream.UpdateLocationHandler)).Methods("GET")
	apiCreate.Handle("/passenger/ws/fetch_vehicle_location", http.HandlerFunc(stream.FetchVehicleLocationHandler)).Methods("GET")

	admin := apiCreate.PathPrefix("/admin/management").Subrouter()
	admin.Use(api.TimeoutMiddleware(30 * time.Second))

	admin.Handle("/get_all_drivers", api.Middleware(http.HandlerFunc(fl.GetAllDriversHandler))).Methods("GET")
	admin.Handle("/add_driver", api.Middleware(http.HandlerFunc(fl.AddDriverHandler))).Methods("POST")
	admin.Handle("/delete_driver/{driver_uid}", api.Middleware(http.HandlerFunc(fl.DeleteDriverHandler))).Methods("DELETE")
	admin.Handle("/update_driver_phone_number", api.Middleware(http.HandlerFunc(fl.UpdateDriverPhoneNumberHandler))).Methods("PATCH")
	admin.Handle("/assign_vehicle_to_driver", api.Middleware(http.HandlerFunc(fl.AssignVehicleToDriverHandler))).Methods("PATCH")
	admin.Handle("/remove_vehicle_from_driver/{driver_uid}", api.Middleware(http.HandlerFunc(fl.RemoveVehicleFromDriverHandler))).Methods("PATCH")

	admin.Handle("/vehicle/create", api.Middleware(http.HandlerFunc(v.CreateVehicleHandler))).Methods("POST")
	admin.Handle("/vehicle/get_all", api.Middleware(http.HandlerFunc(v.GetAllVehiclesHandler))).Methods("GET")
	admin.Handle("/vehicle/update", api.Middleware(http.HandlerFunc(v.UpdateVehicleHandler))).Methods("PATCH")
	admin.Handle("/vehicle/delete/{vehicle_uuid}", api.Middleware(http.HandlerFunc(v.DeleteVehicleHandler))).Methods("DELETE")
	admin.Handle("/vehicle/delete_by_plate/{plate_number}", api.Middleware(http.HandlerFunc(v.DeleteVehicleByPlateHandler))).Methods("DELETE")
	admin.Handle("/vehicle/assign_route", api.Middleware(http.HandlerFunc(v.AssignRouteHandler))).Methods("PATCH")
	admin.Handle("/vehicle/delete_route/{vehicle_uuid}", api.Middleware(http.HandlerFunc(v.DeleteRouteHandler))).Methods("PATCH")

	admin.Handle("/route/create", api.Middleware(http.HandlerFunc(rt.CreateRouteHandler))).Methods("POST")
	admin.Handle("/route/get_all", api.Middleware(http.HandlerFunc(rt.GetAllRoutesHandler))).Methods("GET")
	admin.Handle("/route/update", api.Middleware(http.HandlerFunc(rt.UpdateRouteHandler))).Methods("PATCH")
	admin.Handle("/route/delete/{route_uuid}", api.Middleware(http.HandlerFunc(rt.DeleteRouteHandler))).Methods("DELETE")
	admin.Handle("/route/delete_by_name/{route_name}", api.Middleware(http.HandlerFunc(rt.DeleteRouteByNameHandler))).Methods("DELETE")

	apiCreate.Handle("/passenger/get_passenger_information/{uid}", api.Middleware(http.HandlerFunc(p.GetPassengerInformationHandler))).Methods("GET")
	apiCreate.Handle("/passenger/get_all_routes", api.Middleware(http.HandlerFunc(p.GetAllRoutesHandler))).Methods("GET")
	apiCreate.Handle("/passenger/get_all_active_journeys", api.Middleware(http.HandlerFunc(p.GetAllActiveJourneysHandler))).Methods("GET")
	apiCreate.Handle("/passenger/{uid}/saved_routes/{route_uuid}", api.Middleware(http.HandlerFunc(p.SaveRouteHandler))).Methods("PUT")
	apiCreate.Handle("/passenger/{uid}/saved_routes/{route_uuid}", api.Middleware(http.HandlerFunc(p.RemoveSavedRouteHandler))).Methods("DELETE")

	// swagger docs hosted at "/"
	r.PathPrefix("/").Handler(http.StripPrefix("/", http.FileServer(http.Dir("./docs/"))))
	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("bus-ops-api has connected to the database")

	if err := databases.EnsureIndexes(context.Background(), a.dbHelper); err != nil {
		zap.S().With(err).Error("failed to create database indexes")
		return err
	}

	a.Gateway = identity.NewGateway(&a.Config, databases.NewUserDatabase(a.dbHelper))

	// start the background sweep for unverified registrations
	a.Scheduler = scheduler.NewScheduler(
		databases.NewUserDatabase(a.dbHelper),
		databases.NewPendingVerificationDatabase(a.dbHelper),
	)
	a.Scheduler.Start()

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
