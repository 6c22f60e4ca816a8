package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/busops/bus-ops-api/api/handlers"
	"github.com/busops/bus-ops-api/config"
	"github.com/busops/bus-ops-api/models"
)

func newStream(f fleetMocks) handlers.Stream {
	return handlers.Stream{
		Driver: f.driverHandler(),
		Config: config.Config{
			DriverAPIKey:    "driver-secret",
			PassengerAPIKey: "passenger-secret",
		},
	}
}

func dialWS(t *testing.T, handler http.HandlerFunc, header http.Header) (*websocket.Conn, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		server.Close()
		t.Fatalf("failed to dial websocket: %v", err)
	}
	return conn, server
}

func TestStream_UpdateLocationHandler_BadCredentialCloses1008(t *testing.T) {
	f := newFleetMocks()
	stream := newStream(f)

	header := http.Header{}
	header.Set("DRIVER-API-KEY", "wrong")
	conn, server := dialWS(t, stream.UpdateLocationHandler, header)
	defer server.Close()
	defer conn.Close()

	_, _, err := conn.ReadMessage()
	closeErr, ok := err.(*websocket.CloseError)
	if !ok {
		t.Fatalf("expected a close error, got %v", err)
	}
	if closeErr.Code != websocket.ClosePolicyViolation {
		t.Errorf("expected close code %v, got %v", websocket.ClosePolicyViolation, closeErr.Code)
	}
}

func TestStream_UpdateLocationHandler_AppendsInOrder(t *testing.T) {
	f := newFleetMocks()
	f.journals.On("FindOne", mock.Anything, mock.Anything).
		Return(singleResultWithJournal(models.Journal{UUID: "jrn-1", IsOpen: true}))
	f.journals.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(updateResultMatched(1), nil)

	stream := newStream(f)
	header := http.Header{}
	header.Set("DRIVER-API-KEY", "driver-secret")
	conn, server := dialWS(t, stream.UpdateLocationHandler, header)
	defer server.Close()
	defer conn.Close()

	// two pushes back to back; each one must be acknowledged before the
	// next is processed
	for i := 0; i < 2; i++ {
		err := conn.WriteJSON(map[string]interface{}{
			"lat": 41.0, "lon": 29.0, "timestamp": "2026-03-16T08:00:00Z",
			"journal_uuid": "jrn-1",
		})
		if err != nil {
			t.Fatalf("failed to send location: %v", err)
		}

		var reply map[string]interface{}
		if err := conn.ReadJSON(&reply); err != nil {
			t.Fatalf("failed to read reply: %v", err)
		}
		if reply["success"] != true {
			t.Errorf("expected success reply, got %v", reply)
		}
		if reply["code"] != float64(http.StatusOK) {
			t.Errorf("expected code %v in reply, got %v", http.StatusOK, reply["code"])
		}
	}

	f.journals.AssertNumberOfCalls(t, "UpdateOne", 2)

	// the sample fields arrive flat on the wire and must survive into the
	// stored document, not decode to a zero value
	update := f.journals.Calls[1].Arguments.Get(2).(bson.M)
	pushed := update["$push"].(bson.M)["locations"].(models.Location)
	if pushed.Lat != 41.0 || pushed.Lon != 29.0 || pushed.Timestamp != "2026-03-16T08:00:00Z" {
		t.Errorf("stored a mangled location sample: %+v", pushed)
	}
}

func TestStream_UpdateLocationHandler_ClosedJourneyRejected(t *testing.T) {
	f := newFleetMocks()
	f.journals.On("FindOne", mock.Anything, mock.Anything).
		Return(singleResultWithJournal(models.Journal{UUID: "jrn-1", IsOpen: false}))

	stream := newStream(f)
	header := http.Header{}
	header.Set("DRIVER-API-KEY", "driver-secret")
	conn, server := dialWS(t, stream.UpdateLocationHandler, header)
	defer server.Close()
	defer conn.Close()

	err := conn.WriteJSON(map[string]interface{}{
		"lat": 41.0, "lon": 29.0, "timestamp": "2026-03-16T08:00:00Z",
		"journal_uuid": "jrn-1",
	})
	if err != nil {
		t.Fatalf("failed to send location: %v", err)
	}

	var reply map[string]interface{}
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("failed to read reply: %v", err)
	}
	if reply["success"] != false {
		t.Errorf("expected failure reply, got %v", reply)
	}
	if !strings.Contains(reply["message"].(string), "no longer open") {
		t.Errorf("unexpected message: %v", reply["message"])
	}
}

func TestStream_FetchVehicleLocationHandler_ReturnsLatestSample(t *testing.T) {
	f := newFleetMocks()
	f.journals.On("FindOne", mock.Anything, mock.Anything).
		Return(singleResultWithJournal(models.Journal{
			UUID:   "jrn-1",
			IsOpen: true,
			Locations: []models.Location{
				{Lat: 40.0, Lon: 28.0, Timestamp: "2026-03-16T08:00:00Z"},
				{Lat: 41.5, Lon: 29.5, Timestamp: "2026-03-16T08:01:00Z"},
			},
		}))

	stream := newStream(f)
	header := http.Header{}
	header.Set("PASSENGER-API-KEY", "passenger-secret")
	conn, server := dialWS(t, stream.FetchVehicleLocationHandler, header)
	defer server.Close()
	defer conn.Close()

	if err := conn.WriteJSON(map[string]interface{}{"journal_uuid": "jrn-1"}); err != nil {
		t.Fatalf("failed to send poll: %v", err)
	}

	var reply map[string]interface{}
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("failed to read reply: %v", err)
	}
	if reply["success"] != true {
		t.Fatalf("expected success reply, got %v", reply)
	}
	data := reply["data"].(map[string]interface{})
	current := data["current_location"].(map[string]interface{})
	if current["lat"] != 41.5 || current["lon"] != 29.5 {
		t.Errorf("expected the most recent sample, got %v", current)
	}
}

func TestStream_FetchVehicleLocationHandler_NoLocationYet(t *testing.T) {
	f := newFleetMocks()
	f.journals.On("FindOne", mock.Anything, mock.Anything).
		Return(singleResultWithJournal(models.Journal{UUID: "jrn-1", IsOpen: true, Locations: []models.Location{}}))

	stream := newStream(f)
	header := http.Header{}
	header.Set("PASSENGER-API-KEY", "passenger-secret")
	conn, server := dialWS(t, stream.FetchVehicleLocationHandler, header)
	defer server.Close()
	defer conn.Close()

	if err := conn.WriteJSON(map[string]interface{}{"journal_uuid": "jrn-1"}); err != nil {
		t.Fatalf("failed to send poll: %v", err)
	}

	var reply map[string]interface{}
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("failed to read reply: %v", err)
	}
	if reply["success"] != false || !strings.Contains(reply["message"].(string), "location yet") {
		t.Errorf("expected a no-location failure reply, got %v", reply)
	}

	// a miss is not fatal, the connection stays usable
	if err := conn.WriteJSON(map[string]interface{}{"journal_uuid": "jrn-1"}); err != nil {
		t.Fatalf("connection unusable after miss: %v", err)
	}
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("failed to read second reply: %v", err)
	}
}
