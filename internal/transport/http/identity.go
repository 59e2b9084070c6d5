package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"phiz-quiz-service/internal/domain"
)

// Identity resolves the current user of a request.
type Identity interface {
	Identify(r *http.Request) (string, error)
}

// QueryIdentity trusts a user id passed as a query parameter (development setups).
type QueryIdentity struct {
	Param string
}

func (q QueryIdentity) Identify(r *http.Request) (string, error) {
	param := q.Param
	if param == "" {
		param = "userId"
	}
	userID := r.URL.Query().Get(param)
	if userID == "" {
		return "", domain.ErrMissingIdentity
	}
	return userID, nil
}

// JWTIdentity reads the subject of an HS256 token from the Authorization header
// or, for browser websockets, from the token query parameter.
type JWTIdentity struct {
	hmac   []byte
	issuer string
}

func NewJWTIdentity(secret, issuer string) *JWTIdentity {
	return &JWTIdentity{hmac: []byte(secret), issuer: issuer}
}

func (a *JWTIdentity) Identify(r *http.Request) (string, error) {
	tokenStr := r.URL.Query().Get("token")
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		tokenStr = strings.TrimPrefix(h, "Bearer ")
	}
	if tokenStr == "" {
		return "", domain.ErrMissingIdentity
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, opts...)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", domain.ErrMissingIdentity, err)
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", domain.ErrMissingIdentity
	}
	return sub, nil
}

// Issue signs a token for userID, valid for ttl.
func (a *JWTIdentity) Issue(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.hmac)
}
