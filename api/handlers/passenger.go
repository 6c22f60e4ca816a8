package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/busops/bus-ops-api/api"
	"github.com/busops/bus-ops-api/config"
	"github.com/busops/bus-ops-api/databases"
	"github.com/busops/bus-ops-api/models"
)

// Passenger struct mostly used for mocking tests
type Passenger struct {
	UDB databases.UserDatabase
	RDB databases.RouteDatabase
	JDB databases.JournalDatabase
}

// GetPassengerInformationHandler returns a passenger profile with the saved
// routes resolved to full route records
func (p Passenger) GetPassengerInformationHandler(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	user, err := p.UDB.FindOne(r.Context(), bson.M{"uid": uid})
	if err != nil {
		writeResult(w, notFoundOrInternal(err, "passenger not found", "failed to get passenger"))
		return
	}

	savedRoutes := []models.Route{}
	for _, routeUUID := range user.SavedRoutes {
		route, err := p.RDB.FindOne(r.Context(), bson.M{"uuid": routeUUID})
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				// bookmark of a route deleted since; skip it
				continue
			}
			config.ErrorStatus("failed to get saved route", http.StatusInternalServerError, w, err)
			return
		}
		savedRoutes = append(savedRoutes, *route)
	}

	writeData(w, http.StatusOK, "passenger information retrieved successfully", map[string]interface{}{
		"passenger":    user,
		"saved_routes": savedRoutes,
	})
}

// GetAllRoutesHandler returns every route for passenger browsing
func (p Passenger) GetAllRoutesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	routes, err := p.RDB.Find(ctx, bson.M{})
	if err != nil {
		config.ErrorStatus("failed to get routes", http.StatusInternalServerError, w, err)
		return
	}

	writeData(w, http.StatusOK, "routes retrieved successfully", map[string]interface{}{"routes": routes})
}

// GetAllActiveJourneysHandler lists all open journals without their
// location trails
func (p Passenger) GetAllActiveJourneysHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	journals, err := p.JDB.Find(ctx, bson.M{"is_open": true})
	if err != nil {
		config.ErrorStatus("failed to get active journeys", http.StatusInternalServerError, w, err)
		return
	}

	views := make([]models.ActiveJournal, 0, len(journals))
	for _, j := range journals {
		views = append(views, j.View())
	}

	writeData(w, http.StatusOK, "active journeys retrieved successfully", map[string]interface{}{"journeys": views})
}

// SaveRouteHandler bookmarks a route for a passenger
func (p Passenger) SaveRouteHandler(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]
	routeUUID := mux.Vars(r)["route_uuid"]

	if _, err := p.UDB.FindOne(r.Context(), bson.M{"uid": uid}); err != nil {
		writeResult(w, notFoundOrInternal(err, "passenger not found", "failed to get passenger"))
		return
	}
	if _, err := p.RDB.FindOne(r.Context(), bson.M{"uuid": routeUUID}); err != nil {
		writeResult(w, notFoundOrInternal(err, "route not found", "failed to get route"))
		return
	}

	if err := p.UDB.AddSavedRoute(r.Context(), uid, routeUUID); err != nil {
		config.ErrorStatus("failed to save route", http.StatusInternalServerError, w, err)
		return
	}

	writeData(w, http.StatusOK, "route saved successfully", nil)
}

// RemoveSavedRouteHandler drops a bookmarked route from a passenger
func (p Passenger) RemoveSavedRouteHandler(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]
	routeUUID := mux.Vars(r)["route_uuid"]

	if _, err := p.UDB.FindOne(r.Context(), bson.M{"uid": uid}); err != nil {
		writeResult(w, notFoundOrInternal(err, "passenger not found", "failed to get passenger"))
		return
	}

	if err := p.UDB.RemoveSavedRoute(r.Context(), uid, routeUUID); err != nil {
		config.ErrorStatus("failed to remove saved route", http.StatusInternalServerError, w, err)
		return
	}

	writeData(w, http.StatusOK, "saved route removed successfully", nil)
}
