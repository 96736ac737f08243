package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/bensin/internal/models"
)

const tokenPrefix = "sk-bnsn-"

// Auth keeps login session tokens in redis. When disabled every check
// passes, which is the mode the test suite and local setups run in.
type Auth struct {
	enabled     bool
	redis       *redis.Client
	keyTemplate string
	tokenHeader string
	sessionTTL  time.Duration
}

func NewAuth(config *Config) (*Auth, error) {
	if !config.Server.EnableAuth {
		return &Auth{enabled: false}, nil
	}

	opt, err := redis.ParseURL(config.Auth.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	keyTemplate := config.Auth.SessionKeyTemplate
	if keyTemplate == "" {
		keyTemplate = "session:{token}"
	}

	return &Auth{
		enabled:     true,
		redis:       client,
		keyTemplate: keyTemplate,
		tokenHeader: config.Auth.TokenHeader,
		sessionTTL:  time.Duration(config.Auth.SessionTTLHours) * time.Hour,
	}, nil
}

func (a *Auth) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}

func generateToken() (string, error) {
	randomBytes := make([]byte, 12)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return tokenPrefix + hex.EncodeToString(randomBytes), nil
}

func (a *Auth) sessionKey(token string) string {
	return strings.NewReplacer("{token}", token).Replace(a.keyTemplate)
}

// CreateSession issues a fresh token for a logged-in user and stores it
// with a TTL. With auth disabled it returns an empty token.
func (a *Auth) CreateSession(ctx context.Context, user *models.User) (string, error) {
	if !a.enabled {
		return "", nil
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}

	key := a.sessionKey(token)
	now := time.Now().UTC()
	if err := a.redis.HSet(ctx, key, map[string]interface{}{
		"user_id":           user.ID,
		"role":              user.Role,
		"created_dttm_utc":  now.Format(time.RFC3339),
		"last_request_dttm": now.Format(time.RFC3339),
	}).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	if err := a.redis.Expire(ctx, key, a.sessionTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to set session TTL: %w", err)
	}

	return token, nil
}

// ValidateToken resolves a bearer token into the session it belongs to.
func (a *Auth) ValidateToken(ctx context.Context, token string) (*models.SessionInfo, error) {
	if !a.enabled {
		return &models.SessionInfo{}, nil
	}

	key := a.sessionKey(token)
	fields, err := a.redis.HGetAll(ctx, key).Result()
	if err != nil {
		logger.Debug.Printf("Redis error: %v", err)
		return nil, fmt.Errorf("redis error: %w", err)
	}
	if len(fields) == 0 {
		logger.Debug.Printf("Session not found for key: %s", key)
		return nil, fmt.Errorf("session not found")
	}

	userID, err := strconv.ParseInt(fields["user_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt session for key %s: %w", key, err)
	}

	return &models.SessionInfo{
		Token:  token,
		UserID: userID,
		Role:   fields["role"],
	}, nil
}
