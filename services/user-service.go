package services

import (
	"context"
	"errors"
	"fmt"

	"projex/backend/logging"
	"projex/backend/models"
	"projex/backend/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type UserService struct {
	UserCollection *mongo.Collection
}

func NewUserService(userCollection *mongo.Collection) *UserService {
	return &UserService{UserCollection: userCollection}
}

// Register stores a new account with a bcrypt hash of the password. Duplicate
// emails are rejected by the unique index on the collection, not by a
// read-then-insert check, so concurrent registrations cannot race.
func (s *UserService) Register(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return ErrCredentialsRequired
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{Email: email, Password: hashed}
	if _, err := s.UserCollection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		logging.Logger.Errorf("Event ID: USER_INSERT_FAILED, Description: Failed to save user %s: %v", email, err)
		return fmt.Errorf("failed to save user: %w", err)
	}

	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: Registered account %s", email)
	return nil
}

// Login authenticates a credential pair and returns a bearer token. Unknown
// email and wrong password return the same error so accounts cannot be
// enumerated.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	var user models.User
	err := s.UserCollection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrInvalidCredentials
		}
		logging.Logger.Errorf("Event ID: USER_LOOKUP_FAILED, Description: Failed to look up account %s: %v", email, err)
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	if !utils.CheckPassword(user.Password, password) {
		return "", ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(user.Email, user.ID.Hex())
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}
