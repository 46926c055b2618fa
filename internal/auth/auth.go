package auth

import (
	"context"
	"time"

	"github.com/frahmantamala/separation-management/internal"
	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleEmployee          Role = "employee"
	RoleDirectManager     Role = "direct_manager"
	RoleDepartmentManager Role = "department_manager"
	RoleSeparationManager Role = "separation_manager"
)

var Roles = []Role{RoleEmployee, RoleDirectManager, RoleDepartmentManager, RoleSeparationManager}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// IsManager reports whether the role may own sign-offs.
func (r Role) IsManager() bool {
	return r == RoleDirectManager || r == RoleDepartmentManager || r == RoleSeparationManager
}

func RoleNames() []string {
	names := make([]string, len(Roles))
	for i, r := range Roles {
		names[i] = string(r)
	}
	return names
}

// Actor is the authenticated principal of a request.
type Actor struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         Role   `json:"role"`
	DepartmentID *int64 `json:"department_id,omitempty"`
	IsActive     bool   `json:"-"`
}

func (a *Actor) IsSeparationManager() bool {
	return a != nil && a.Role == RoleSeparationManager
}

func (a *Actor) IsManager() bool {
	return a != nil && a.Role.IsManager()
}

type ctxKey string

const ContextActorKey ctxKey = "actor"

func ContextWithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, ContextActorKey, actor)
}

func ActorFromContext(ctx context.Context) (*Actor, bool) {
	a, ok := ctx.Value(ContextActorKey).(*Actor)
	return a, ok && a != nil
}

// Credentials is what login needs to verify a password.
type Credentials struct {
	UserID       int64
	Email        string
	Role         Role
	PasswordHash string
	IsActive     bool
}

type AuthTokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *Actor    `json:"user,omitempty"`
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenGenerator creates and verifies signed tokens.
type TokenGenerator interface {
	GenerateAccessToken(userID int64, email string, role Role) (token string, expiresAt time.Time, err error)
	GenerateRefreshToken(userID int64, email string, role Role) (token string, err error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	Now                func() time.Time
}

// RequireActor returns the request principal or ErrMissingToken.
func RequireActor(ctx context.Context) (*Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return nil, internal.ErrMissingToken
	}
	return actor, nil
}
