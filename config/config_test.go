package config

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	os.Setenv("DB_NAME", "test")
	conf := New()

	assert.NotEmpty(t, conf)
	assert.Equal(t, "mongodb://127.0.0.1:27017", conf.URL)
	assert.Equal(t, 24*time.Hour, conf.TokenTTL)
}

func TestNewTokenTTL(t *testing.T) {
	os.Setenv("TOKEN_TTL", "15m")
	defer os.Unsetenv("TOKEN_TTL")
	conf := New()

	assert.Equal(t, 15*time.Minute, conf.TokenTTL)
}

func TestNewTokenTTLInvalid(t *testing.T) {
	os.Setenv("TOKEN_TTL", "whenever")
	defer os.Unsetenv("TOKEN_TTL")
	conf := New()

	assert.Equal(t, 24*time.Hour, conf.TokenTTL)
}

func TestErrorStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	ErrorStatus("error it borked", http.StatusBadRequest, rr, errors.New("bad request"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "error it borked", body["message"])
	assert.Equal(t, "bad request", body["error"])
}
