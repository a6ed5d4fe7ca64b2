package api

import (
	"github.com/gin-gonic/gin"
)

const (
	RoleClient     = "client"
	RoleFranchisee = "franchisee"
	RoleAdmin      = "admin"
)

const principalKey = "principal"

// Principal is the authenticated caller attached to the request by the
// session middleware.
type Principal struct {
	UserID    int64  `json:"userId"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	SessionID string `json:"-"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) IsFranchisee() bool {
	return p.Role == RoleFranchisee
}

func SetPrincipal(c *gin.Context, p Principal) {
	c.Set(principalKey, p)
	c.Set("user_id", p.UserID)
	c.Set("user_role", p.Role)
}

// PrincipalFrom returns the caller set by SetPrincipal.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// MustPrincipal is PrincipalFrom for routes mounted behind the session
// middleware.
func MustPrincipal(c *gin.Context) Principal {
	p, _ := PrincipalFrom(c)
	return p
}
