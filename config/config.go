package config

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

// Config holds the project config values
type Config struct {
	URL             string
	DatabaseName    string
	BaseURL         string
	Port            string
	DriverAPIKey    string
	PassengerAPIKey string
	TokenSecret     string
	TokenTTL        time.Duration
	SendgridAPIKey  string
	VerifyFromEmail string
}

// New sets up all config related services
func New() *Config {

	//setup zap logger and replace default logger
	logger := zap.NewExample()
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	ttl := 24 * time.Hour
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			ttl = d
		} else {
			zap.S().Warnw("invalid TOKEN_TTL, using default", "value", v)
		}
	}

	return &Config{
		URL:             os.Getenv("DB_URI"),
		DatabaseName:    os.Getenv("DB_NAME"),
		BaseURL:         os.Getenv("BASE_URL"),
		Port:            os.Getenv("PORT"),
		DriverAPIKey:    os.Getenv("DRIVER_API_KEY"),
		PassengerAPIKey: os.Getenv("PASSENGER_API_KEY"),
		TokenSecret:     os.Getenv("TOKEN_SECRET"),
		TokenTTL:        ttl,
		SendgridAPIKey:  os.Getenv("SENDGRID_API_KEY"),
		VerifyFromEmail: os.Getenv("VERIFY_FROM_EMAIL"),
	}

}

// ErrorStatus is a useful function that will log, write http headers and the
// response envelope for a given message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	errText := ""
	if err != nil {
		errText = err.Error()
	}
	w.WriteHeader(httpStatusCode)
	b, _ := json.Marshal(map[string]interface{}{
		"success": false,
		"message": message,
		"data":    map[string]interface{}{},
		"error":   errText,
	})
	w.Write(b)
}
