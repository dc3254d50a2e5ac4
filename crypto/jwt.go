package crypto

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSigningAlg     = errors.New("unexpected token signing algorithm")
	ErrExpiredToken          = errors.New("token expired")
	ErrInvalidTokenSignature = errors.New("invalid token signature")
	ErrCorruptedToken        = errors.New("corrupted token")
)

// sessionClaims binds a player's seat to a room. Fields must be exported for
// JSON serialization.
type sessionClaims struct {
	PlayerId string `json:"playerId"`
	RoomId   string `json:"roomId"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies the opaque reconnect tokens handed to a
// player at join time. A reconnecting client proves it held a seat by
// presenting the token, rather than by sending a bare player id the server
// would have to trust verbatim.
type SessionManager struct {
	secretKey []byte
	maxAge    time.Duration
}

func NewSessionManager(secretKey string, maxAge time.Duration) *SessionManager {
	return &SessionManager{
		secretKey: []byte(secretKey),
		maxAge:    maxAge,
	}
}

func (m *SessionManager) Generate(playerId, roomId string, now time.Time) (string, error) {
	claims := sessionClaims{
		PlayerId: playerId,
		RoomId:   roomId,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}

	return signedToken, nil
}

// Verify returns the player and room ids carried by a valid token.
func (m *SessionManager) Verify(tokenString string) (playerId, roomId string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSigningAlg
		}
		return m.secretKey, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSigningAlg):
			return "", "", ErrInvalidSigningAlg
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", "", ErrExpiredToken
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return "", "", ErrInvalidTokenSignature
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", "", ErrCorruptedToken
		default:
			return "", "", fmt.Errorf("verifying session token: %w", err)
		}
	}

	if claims, ok := token.Claims.(*sessionClaims); ok && token.Valid {
		return claims.PlayerId, claims.RoomId, nil
	}

	return "", "", ErrCorruptedToken
}
