package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/busops/bus-ops-api/config"
	"github.com/busops/bus-ops-api/models"
)

const (
	driverKeyHeader    = "DRIVER-API-KEY"
	passengerKeyHeader = "PASSENGER-API-KEY"

	writeWait = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Stream handles the two realtime channels: drivers pushing location
// samples and passengers polling the latest vehicle location. Both sides
// authenticate with a shared-secret header. Messages on one connection are
// handled strictly in order: each request completes its store round-trip
// and its reply before the next message is read.
type Stream struct {
	Driver Driver
	Config config.Config
}

// locationPush is the driver-side wire message: the location sample fields
// flat at the top level next to the journal id.
type locationPush struct {
	models.Location
	JournalUUID string `json:"journal_uuid"`
}

type locationPoll struct {
	JournalUUID string `json:"journal_uuid"`
}

// UpdateLocationHandler is the driver-side channel. Each message appends
// one location sample to the named journal.
func (s Stream) UpdateLocationHandler(w http.ResponseWriter, r *http.Request) {
	conn, authorized := s.upgrade(w, r, driverKeyHeader, s.Config.DriverAPIKey)
	if conn == nil {
		return
	}
	defer conn.Close()
	if !authorized {
		return
	}

	for {
		var push locationPush
		if err := conn.ReadJSON(&push); err != nil {
			s.closeOnReadError(conn, err)
			return
		}

		result := s.Driver.updateJournal(r.Context(), push.JournalUUID, push.Location)
		if !s.reply(conn, result) {
			return
		}
	}
}

// FetchVehicleLocationHandler is the passenger-side channel. Each message
// asks for the latest location of the named journey.
func (s Stream) FetchVehicleLocationHandler(w http.ResponseWriter, r *http.Request) {
	conn, authorized := s.upgrade(w, r, passengerKeyHeader, s.Config.PassengerAPIKey)
	if conn == nil {
		return
	}
	defer conn.Close()
	if !authorized {
		return
	}

	for {
		var poll locationPoll
		if err := conn.ReadJSON(&poll); err != nil {
			s.closeOnReadError(conn, err)
			return
		}

		result := s.Driver.fetchLatestLocation(r.Context(), poll.JournalUUID)
		if !s.reply(conn, result) {
			return
		}
	}
}

// upgrade performs the websocket handshake and checks the shared-secret
// header. A bad credential still upgrades, so the client gets a proper
// policy-violation close frame instead of a dangling handshake error.
func (s Stream) upgrade(w http.ResponseWriter, r *http.Request, header, want string) (*websocket.Conn, bool) {
	authorized := want != "" && r.Header.Get(header) == want

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("failed to upgrade websocket", "error", err)
		return nil, false
	}

	if !authorized {
		zap.S().Warnw("websocket credential rejected", "path", r.URL.Path)
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid credential")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		return conn, false
	}
	return conn, true
}

// reply writes the result back on the connection; unlike the HTTP surface
// the websocket reply keeps the code field, since there is no status line
// to carry it. An internal failure terminates the connection with close 1011.
func (s Stream) reply(conn *websocket.Conn, result models.Result) bool {
	if result.Data == nil {
		result.Data = map[string]interface{}{}
	}
	if err := conn.WriteJSON(result); err != nil {
		zap.S().Errorw("failed to write websocket response", "error", err)
		return false
	}
	if result.Code == http.StatusInternalServerError {
		msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "internal error")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		return false
	}
	return true
}

func (s Stream) closeOnReadError(conn *websocket.Conn, err error) {
	if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		zap.S().Errorw("unexpected websocket close", "error", err)
	}
}
