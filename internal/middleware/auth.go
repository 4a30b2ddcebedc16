package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"yayasan/internal/service"
	"yayasan/pkg/response"
	"yayasan/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	actorKey       = "actor"
	AccessCookie   = "access_token"
	permCacheTTL   = 5 * time.Minute
	bearerPrefix   = "Bearer"
	tokenQueryName = "token"
)

var errMissingToken = errors.New("authorization is missing")

// PermissionSource returns the permission codes granted to a role.
type PermissionSource interface {
	GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error)
}

// permCacheEntry stores cached permission codes for a role with TTL
type permCacheEntry struct {
	codes     []string
	expiresAt time.Time
}

// Auth authenticates requests and gates routes by permission code.
type Auth struct {
	secret   []byte
	identity service.IdentityService
	perms    PermissionSource
	cache    sync.Map // roleName -> permCacheEntry
}

func NewAuth(secret []byte, identity service.IdentityService, perms PermissionSource) *Auth {
	return &Auth{secret: secret, identity: identity, perms: perms}
}

// SetTokenCookies sets access_token as an HttpOnly cookie.
// Production (cross-origin): SameSiteNoneMode + Secure=true
// Development (same-site):   SameSiteLaxMode  + Secure=false
func SetTokenCookies(c *gin.Context, accessToken string, ttl time.Duration, secure bool) {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(AccessCookie, accessToken, int(ttl.Seconds()), "/", "", secure, true)
}

// ClearTokenCookies removes the access_token cookie
func ClearTokenCookies(c *gin.Context, secure bool) {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(AccessCookie, "", -1, "/", "", secure, true)
}

// TokenFromRequest reads the access token from the cookie, then the
// Authorization header, then the token query parameter (websocket clients).
func TokenFromRequest(c *gin.Context) (string, error) {
	if raw, err := c.Cookie(AccessCookie); err == nil && raw != "" {
		return raw, nil
	}

	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != bearerPrefix {
			return "", errors.New("invalid authorization format. Expected 'Bearer <token>'")
		}
		return parts[1], nil
	}

	if raw := c.Query(tokenQueryName); raw != "" {
		return raw, nil
	}
	return "", errMissingToken
}

// Authenticate validates the access token and resolves the actor behind
// it. A principal without a known role is refused.
func (a *Auth) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := TokenFromRequest(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
			return
		}

		claims, err := token.Parse(a.secret, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}
		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
			return
		}

		actor, err := a.identity.Resolve(c.Request.Context(), userID, claims.Email)
		switch {
		case errors.Is(err, service.ErrUnresolvedActor):
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: your account has no role assigned"))
			return
		case err != nil:
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, response.Error(http.StatusServiceUnavailable, "Could not verify your account, please try again"))
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// RequirePermission checks that the resolved actor's role holds every
// required permission code. It must run after Authenticate.
func (a *Auth) RequirePermission(requiredPerms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, errMissingToken.Error()))
			return
		}

		userPerms, err := a.PermissionsFor(c.Request.Context(), actor.Role.String())
		if err != nil {
			log.Error().Err(err).Str("role", actor.Role.String()).Msg("permission lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify permissions"))
			return
		}

		permSet := make(map[string]bool, len(userPerms))
		for _, p := range userPerms {
			permSet[p] = true
		}

		for _, required := range requiredPerms {
			if !permSet[required] {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: missing permission '"+required+"'"))
				return
			}
		}

		c.Next()
	}
}

// PermissionsFor returns cached or freshly loaded permission codes.
func (a *Auth) PermissionsFor(ctx context.Context, roleName string) ([]string, error) {
	if entry, ok := a.cache.Load(roleName); ok {
		cached := entry.(permCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.codes, nil
		}
	}

	if a.perms == nil {
		return nil, fmt.Errorf("permission middleware not initialized")
	}

	codes, err := a.perms.GetPermissionsByRoleName(ctx, roleName)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			codes = []string{}
		} else {
			return nil, err
		}
	}

	a.cache.Store(roleName, permCacheEntry{
		codes:     codes,
		expiresAt: time.Now().Add(permCacheTTL),
	})
	return codes, nil
}

// ClearPermissionCache removes cached permissions for a specific role (or all roles if empty)
func (a *Auth) ClearPermissionCache(roleName string) {
	if roleName == "" {
		a.cache.Range(func(key, _ interface{}) bool {
			a.cache.Delete(key)
			return true
		})
		return
	}
	a.cache.Delete(roleName)
}

// ActorFrom returns the actor stored by Authenticate.
func ActorFrom(c *gin.Context) (service.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return service.Actor{}, false
	}
	actor, ok := v.(service.Actor)
	return actor, ok
}
