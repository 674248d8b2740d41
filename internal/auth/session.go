package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("token manquant")
	ErrInvalidToken = errors.New("token invalide")
	ErrExpiredToken = errors.New("token expiré")
	ErrMissingUser  = errors.New("user_id manquant")
)

// Session est l'identité de l'acheteur, construite une fois par requête et
// passée explicitement à l'initiateur de paiement et à l'orchestrateur.
type Session struct {
	UserID string
	Email  string
	Name   string

	mu    sync.RWMutex
	token string
}

func NewSession(userID, email, name, token string) *Session {
	return &Session{UserID: userID, Email: email, Name: name, token: token}
}

func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Discard jette le token après un 401 de l'API : l'utilisateur devra se reconnecter.
func (s *Session) Discard() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

// Authenticated : identité complète (utilisateur + token encore valable)
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != "" && s.Token() != ""
}

// BearerToken extrait le token d'un header "Authorization: Bearer xxx".
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrInvalidToken
	}
	return parts[1], nil
}

// FromToken lit les claims du JWT émis par l'API boutique. Sans secret, la
// signature n'est pas vérifiée : c'est l'API distante qui fait autorité et
// rejettera le token avec un 401 le cas échéant.
func FromToken(tokenString string, secret []byte) (*Session, error) {
	claims := jwt.MapClaims{}

	if len(secret) > 0 {
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("méthode de signature inattendue: %v", token.Header["alg"])
			}
			return secret, nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return nil, ErrExpiredToken
			}
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		if !token.Valid {
			return nil, ErrInvalidToken
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil && time.Now().After(exp.Time) {
			return nil, ErrExpiredToken
		}
	}

	userID := claimString(claims, "user_id", "userId", "id", "sub")
	if userID == "" {
		return nil, ErrMissingUser
	}

	return NewSession(
		userID,
		claimString(claims, "email"),
		claimString(claims, "name"),
		tokenString,
	), nil
}

func claimString(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		switch v := claims[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
