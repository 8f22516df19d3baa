package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"kusheet-cart/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// UserStorageKey is where the signed-in user record lives in device storage.
const UserStorageKey = "user"

// IdentitySource resolves the signed-in user. An empty id means guest.
type IdentitySource interface {
	CurrentUserID(ctx context.Context) string
}

type storageIdentitySource struct {
	storage repository.LocalStorage
	logger  *zap.Logger
}

func NewStorageIdentitySource(storage repository.LocalStorage, logger *zap.Logger) IdentitySource {
	return &storageIdentitySource{
		storage: storage,
		logger:  logger,
	}
}

func (s *storageIdentitySource) CurrentUserID(ctx context.Context) string {
	raw, err := s.storage.GetItem(ctx, UserStorageKey)
	if err != nil {
		if !errors.Is(err, repository.ErrKeyNotFound) {
			s.logger.Warn("read user record", zap.Error(err))
		}
		return ""
	}

	userID, err := UserIDFromRecord(raw)
	if err != nil {
		s.logger.Warn("unreadable user record, treating as guest", zap.Error(err))
		return ""
	}
	return userID
}

// UserIDFromRecord extracts the id of a stored user record, looking at "id",
// "_id" and "userId" in that order.
func UserIDFromRecord(raw string) (string, error) {
	var record map[string]any
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return "", fmt.Errorf("unmarshal user record: %w", err)
	}

	return userIDOf(record), nil
}

func userIDOf(record map[string]any) string {
	for _, field := range []string{"id", "_id", "userId"} {
		if id, ok := NormalizeID(record[field]); ok {
			return id
		}
	}
	return ""
}

// TokenVerifier turns a signed login token into a user record.
type TokenVerifier interface {
	Verify(token string) (map[string]any, error)
}

type jwtVerifier struct {
	secret []byte
}

// NewJWTVerifier verifies HS256 tokens. The "sub" claim becomes the user id.
func NewJWTVerifier(secret string) TokenVerifier {
	return &jwtVerifier{secret: []byte(secret)}
}

func (v *jwtVerifier) Verify(token string) (map[string]any, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: token login disabled", ErrInvalidToken)
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	record := map[string]any{"id": sub}
	for _, field := range []string{"name", "email", "faculty"} {
		if v, ok := claims[field]; ok {
			record[field] = v
		}
	}
	return record, nil
}
