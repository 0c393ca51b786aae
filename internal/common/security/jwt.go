package security

import (
	"errors"
	"strings"
	"time"
	"userhub/internal/domain/model"
	"userhub/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

var TokenAuth *jwtauth.JWTAuth

func InitJWT() {
	TokenAuth = jwtauth.New("HS256", config.AppConfig.JWTKey, nil)
}

// Claims is the identity payload carried by a bearer token.
type Claims struct {
	UserID string
	Email  string
	Type   model.UserType
	Roles  []model.UserRole
}

// GenerateToken signs the identity claims with the process key, embedding
// issued-at and expiry (JWT_EXPIRATION_HOURS, 7 days by default).
func GenerateToken(user *model.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"type":    string(user.Type),
		"roles":   rolesToStrings(user.Roles),
		"exp":     time.Now().Add(config.AppConfig.JWTExp).Unix(),
		"iat":     time.Now().Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

// ClaimsFromMap converts verified token claims into a typed Claims value.
func ClaimsFromMap(raw map[string]interface{}) (*Claims, error) {
	userID, ok := raw["user_id"].(string)
	if !ok {
		return nil, errors.New("user_id claim is missing or not a string")
	}
	email, ok := raw["email"].(string)
	if !ok {
		return nil, errors.New("email claim is missing or not a string")
	}
	userType, ok := raw["type"].(string)
	if !ok {
		return nil, errors.New("type claim is missing or not a string")
	}
	roles, err := rolesFromClaim(raw["roles"])
	if err != nil {
		return nil, err
	}
	return &Claims{
		UserID: userID,
		Email:  email,
		Type:   model.UserType(userType),
		Roles:  roles,
	}, nil
}

// DecodeRoles reads the role claim from a bearer token WITHOUT verifying the
// signature. Reduced-trust: only the role gate on subscription setup may use
// it, never the authenticated request path.
func DecodeRoles(bearer string) ([]model.UserRole, error) {
	tokenString := strings.TrimPrefix(bearer, "Bearer ")

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, err
	}
	return rolesFromClaim(claims["roles"])
}

func rolesToStrings(roles []model.UserRole) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}

func rolesFromClaim(claim interface{}) ([]model.UserRole, error) {
	raw, ok := claim.([]interface{})
	if !ok {
		return nil, errors.New("roles claim is missing or not a list")
	}
	roles := make([]model.UserRole, 0, len(raw))
	for _, item := range raw {
		role, ok := item.(string)
		if !ok {
			return nil, errors.New("roles claim contains a non-string entry")
		}
		roles = append(roles, model.UserRole(role))
	}
	return roles, nil
}
