package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/busops/bus-ops-api/config"
	"github.com/busops/bus-ops-api/databases"
	"github.com/busops/bus-ops-api/identity"
	"github.com/busops/bus-ops-api/models"
	templates "github.com/busops/bus-ops-api/templates/html"
)

// Auth handles passenger self-registration and email verification
type Auth struct {
	Gateway identity.Gateway
	UDB     databases.UserDatabase
	PDB     databases.PendingVerificationDatabase
	Config  config.Config
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

// RegisterHandler creates a passenger account, records it as pending
// verification and mails the verification link. Accounts not verified in
// time are swept away by the scheduler.
func (a Auth) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeResult(w, models.Result{Code: http.StatusBadRequest, Message: "email and password are required"})
		return
	}

	account, err := a.Gateway.CreateAccount(r.Context(), req.Email, req.Password, req.PhoneNumber, models.RolePassenger)
	if err != nil {
		config.ErrorStatus("failed to create account", http.StatusInternalServerError, w, err)
		return
	}

	user, err := a.UDB.FindOne(r.Context(), bson.M{"uid": account.UID})
	if err == nil {
		user.FirstName = req.FirstName
		user.LastName = req.LastName
		if err := a.UDB.UpdateOne(r.Context(), *user); err != nil {
			zap.S().Errorw("failed to set account name", "error", err, "uid", account.UID)
		}
	}

	pending := models.PendingVerification{
		UID:       account.UID,
		Email:     account.Email,
		CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
	}
	if err := a.PDB.InsertOne(r.Context(), pending); err != nil {
		config.ErrorStatus("failed to record pending verification", http.StatusInternalServerError, w, err)
		return
	}

	a.sendVerificationEmail(account, req.FirstName)

	writeData(w, http.StatusCreated, "account created successfully, please verify your email", map[string]interface{}{
		"uid":   account.UID,
		"email": account.Email,
	})
}

// VerifyEmailHandler marks an account as verified and clears its pending
// verification record. Linked from the verification email.
func (a Auth) VerifyEmailHandler(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	if err := a.UDB.SetVerified(r.Context(), uid); err != nil {
		if errors.Is(err, databases.ErrNotMatched) {
			writeResult(w, models.Result{Code: http.StatusNotFound, Message: "no such account"})
			return
		}
		config.ErrorStatus("failed to verify account", http.StatusInternalServerError, w, err)
		return
	}
	if err := a.PDB.DeleteOne(r.Context(), uid); err != nil {
		zap.S().Errorw("failed to clear pending verification", "error", err, "uid", uid)
	}

	writeData(w, http.StatusOK, "account verified successfully", nil)
}

func (a Auth) sendVerificationEmail(account identity.Account, firstName string) {
	link := fmt.Sprintf("%s/api/v1/auth/verify/%s", a.Config.BaseURL, account.UID)
	from := mail.NewEmail("Bus Ops", a.Config.VerifyFromEmail)
	to := mail.NewEmail(firstName, account.Email)
	htmlContent := templates.RenderVerificationEmail(firstName, link)
	plainText := fmt.Sprintf("Verify your account: %s", link)
	message := mail.NewSingleEmail(from, "Verify your account", to, plainText, htmlContent)

	client := sendgrid.NewSendClient(a.Config.SendgridAPIKey)
	response, err := client.Send(message)
	if err != nil {
		zap.S().Errorw("failed to send verification email", "error", err, "to", account.Email)
		return
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "to", account.Email)
		return
	}
	zap.S().Infow("verification email sent", "to", account.Email)
}
