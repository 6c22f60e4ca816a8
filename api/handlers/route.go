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

// Route struct mostly used for mocking tests
type Route struct {
	RDB databases.RouteDatabase
	VDB databases.VehicleDatabase
	UDB databases.UserDatabase
}

// CreateRouteHandler registers a new route
func (rt Route) CreateRouteHandler(w http.ResponseWriter, r *http.Request) {
	var newRoute models.Route
	if err := json.NewDecoder(r.Body).Decode(&newRoute); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if newRoute.RouteName == "" {
		writeResult(w, models.Result{Code: http.StatusBadRequest, Message: "route_name is required"})
		return
	}

	// route names are unique; the index backs this check up under concurrency
	if _, err := rt.RDB.FindOne(r.Context(), bson.M{"route_name": newRoute.RouteName}); err == nil {
		writeResult(w, models.Result{Code: http.StatusConflict, Message: "a route with this name already exists"})
		return
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		config.ErrorStatus("failed to check route name", http.StatusInternalServerError, w, err)
		return
	}

	newRoute.UUID = uuid.New().String()
	if newRoute.Stops == nil {
		newRoute.Stops = []models.Stop{}
	}
	now := primitive.NewDateTimeFromTime(time.Now())
	newRoute.CreatedAt = now
	newRoute.UpdatedAt = now

	if err := rt.RDB.InsertOne(r.Context(), newRoute); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			writeResult(w, models.Result{Code: http.StatusConflict, Message: "a route with this name already exists"})
			return
		}
		config.ErrorStatus("failed to create route", http.StatusInternalServerError, w, err)
		return
	}

	writeData(w, http.StatusCreated, "route created successfully", newRoute)
}

// GetAllRoutesHandler returns every route
func (rt Route) GetAllRoutesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	routes, err := rt.RDB.Find(ctx, bson.M{})
	if err != nil {
		config.ErrorStatus("failed to get routes", http.StatusInternalServerError, w, err)
		return
	}

	writeData(w, http.StatusOK, "routes retrieved successfully", map[string]interface{}{"routes": routes})
}

// UpdateRouteHandler updates the name, start time or stops of a route
func (rt Route) UpdateRouteHandler(w http.ResponseWriter, r *http.Request) {
	var req models.Route
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	route, err := rt.RDB.FindOne(r.Context(), bson.M{"uuid": req.UUID})
	if err != nil {
		writeResult(w, notFoundOrInternal(err, "route not found", "failed to get route"))
		return
	}

	if req.RouteName != "" && req.RouteName != route.RouteName {
		if other, err := rt.RDB.FindOne(r.Context(), bson.M{"route_name": req.RouteName}); err == nil && other.UUID != route.UUID {
			writeResult(w, models.Result{Code: http.StatusConflict, Message: "a route with this name already exists"})
			return
		} else if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			config.ErrorStatus("failed to check route name", http.StatusInternalServerError, w, err)
			return
		}
		route.RouteName = req.RouteName
	}
	if req.StartTime != "" {
		route.StartTime = req.StartTime
	}
	if req.Stops != nil {
		route.Stops = req.Stops
	}
	route.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())

	if err := rt.RDB.UpdateOne(r.Context(), *route); err != nil {
		config.ErrorStatus("failed to update route", http.StatusInternalServerError, w, err)
		return
	}

	writeData(w, http.StatusOK, "route updated successfully", route)
}

// DeleteRouteHandler removes a route by uuid
func (rt Route) DeleteRouteHandler(w http.ResponseWriter, r *http.Request) {
	routeUUID := mux.Vars(r)["route_uuid"]
	rt.deleteRoute(w, r, bson.M{"uuid": routeUUID})
}

// DeleteRouteByNameHandler removes a route by name
func (rt Route) DeleteRouteByNameHandler(w http.ResponseWriter, r *http.Request) {
	routeName := mux.Vars(r)["route_name"]
	rt.deleteRoute(w, r, bson.M{"route_name": routeName})
}

func (rt Route) deleteRoute(w http.ResponseWriter, r *http.Request, filter bson.M) {
	route, err := rt.RDB.FindOne(r.Context(), filter)
	if err != nil {
		writeResult(w, notFoundOrInternal(err, "route not found", "failed to get route"))
		return
	}

	// a route that a vehicle is currently driving cannot be removed
	onRoad, err := rt.VDB.Find(r.Context(), bson.M{"route_uuid": route.UUID, "is_started": true})
	if err != nil {
		config.ErrorStatus("failed to check route usage", http.StatusInternalServerError, w, err)
		return
	}
	if len(onRoad) > 0 {
		writeResult(w, models.Result{Code: http.StatusConflict, Message: "this route is currently in use"})
		return
	}

	if err := rt.RDB.DeleteOne(r.Context(), bson.M{"uuid": route.UUID}); err != nil {
		config.ErrorStatus("failed to delete route", http.StatusInternalServerError, w, err)
		return
	}
	// drop dangling references from vehicles and saved-route bookmarks
	if err := rt.VDB.ClearRouteRefs(r.Context(), route.UUID); err != nil {
		config.ErrorStatus("failed to clear route references", http.StatusInternalServerError, w, err)
		return
	}
	if err := rt.UDB.RemoveSavedRouteRefs(r.Context(), route.UUID); err != nil {
		config.ErrorStatus("failed to clear saved route references", http.StatusInternalServerError, w, err)
		return
	}

	writeData(w, http.StatusOK, "route deleted successfully", nil)
}
