// Package identity wraps the identity provider the fleet backend delegates
// account and token management to. The rest of the code only depends on the
// Gateway interface; the default implementation keeps credential records in
// the users collection and signs HS256 tokens itself.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/busops/bus-ops-api/config"
	"github.com/busops/bus-ops-api/databases"
	"github.com/busops/bus-ops-api/models"
)

// ErrInvalidToken is returned when a presented token fails verification
var ErrInvalidToken = errors.New("invalid token")

// Claims is the token payload the gateway issues and verifies
type Claims struct {
	UID  string `json:"uid"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Account is the gateway's view of an identity account
type Account struct {
	UID         string
	Email       string
	PhoneNumber string
	Role        string
}

// Gateway is the contract the rest of the backend holds against the identity
// provider: account issuance and deletion, credential checks and bearer
// tokens. Callers never see how any of it is computed.
type Gateway interface {
	CreateAccount(ctx context.Context, email, password, phone, role string) (Account, error)
	DeleteAccount(ctx context.Context, uid string) error
	UpdatePhoneNumber(ctx context.Context, uid, phone string) error
	VerifyCredentials(ctx context.Context, email, password string) (Account, error)
	IsEmailVerified(ctx context.Context, uid string) (bool, error)
	IssueToken(uid, role string) (string, error)
	VerifyToken(token string) (*Claims, error)
}

type jwtGateway struct {
	users  databases.UserDatabase
	secret []byte
	ttl    time.Duration
}

// NewGateway builds the default gateway from the project config and the
// users store
func NewGateway(conf *config.Config, users databases.UserDatabase) Gateway {
	return &jwtGateway{
		users:  users,
		secret: []byte(conf.TokenSecret),
		ttl:    conf.TokenTTL,
	}
}

func (g *jwtGateway) CreateAccount(ctx context.Context, email, password, phone, role string) (Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, fmt.Errorf("failed to hash password: %w", err)
	}

	account := Account{
		UID:         uuid.New().String(),
		Email:       email,
		PhoneNumber: phone,
		Role:        role,
	}
	now := primitive.NewDateTimeFromTime(time.Now())
	err = g.users.InsertOne(ctx, models.User{
		UID:         account.UID,
		Email:       email,
		Password:    string(hash),
		PhoneNumber: phone,
		Role:        role,
		Verified:    false,
		SavedRoutes: []string{},
		CreatedAt:   now,
		LastActive:  now,
	})
	if err != nil {
		return Account{}, err
	}
	return account, nil
}

func (g *jwtGateway) DeleteAccount(ctx context.Context, uid string) error {
	return g.users.DeleteOne(ctx, bson.M{"uid": uid})
}

func (g *jwtGateway) UpdatePhoneNumber(ctx context.Context, uid, phone string) error {
	user, err := g.users.FindOne(ctx, bson.M{"uid": uid})
	if err != nil {
		return err
	}
	user.PhoneNumber = phone
	return g.users.UpdateOne(ctx, *user)
}

func (g *jwtGateway) VerifyCredentials(ctx context.Context, email, password string) (Account, error) {
	user, err := g.users.FindOne(ctx, bson.M{"email": email})
	if err != nil {
		return Account{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return Account{}, errors.New("invalid credentials")
	}
	return Account{
		UID:         user.UID,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		Role:        user.Role,
	}, nil
}

func (g *jwtGateway) IsEmailVerified(ctx context.Context, uid string) (bool, error) {
	user, err := g.users.FindOne(ctx, bson.M{"uid": uid})
	if err != nil {
		return false, err
	}
	return user.Verified, nil
}

func (g *jwtGateway) IssueToken(uid, role string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UID:  uid,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
		},
	})
	return token.SignedString(g.secret)
}

func (g *jwtGateway) VerifyToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return g.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
