package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v4"
)

const (
	XUserNameHeader = "X-User-Name"
	XUserRoleHeader = "X-User-Role"

	RoleAdmin  = "admin"
	RoleMember = "member"
)

type Profile struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Claims is the payload of the bearer tokens accepted by JwtAuthentication.
type Claims struct {
	jwt.RegisteredClaims
	Profile Profile `json:"profile"`
}

type ctxKey int

const (
	userNameKey ctxKey = iota + 1
	userRoleKey
)

func SetAuthContext(ctx context.Context, userName, role string) context.Context {
	ctx = context.WithValue(ctx, userNameKey, userName)
	return context.WithValue(ctx, userRoleKey, role)
}

// UserName returns the authenticated user id, empty when the request is anonymous.
func UserName(ctx context.Context) string {
	name, _ := ctx.Value(userNameKey).(string)
	return name
}

func Role(ctx context.Context) string {
	role, _ := ctx.Value(userRoleKey).(string)
	return role
}

func IsAdmin(ctx context.Context) bool {
	return Role(ctx) == RoleAdmin
}

func IsMember(ctx context.Context) bool {
	return Role(ctx) == RoleMember
}
