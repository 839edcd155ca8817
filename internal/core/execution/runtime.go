package execution

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/discussion-api/internal/core/domain"
	"github.com/sirpyerre/discussion-api/internal/core/ports"
)

// RuntimeConfig wires the process-wide dependencies of a Runtime.
type RuntimeConfig struct {
	Users    ports.UserRepository
	Tokens   ports.TokenManager
	Cache    ports.Cache
	CacheTTL time.Duration
	Bus      ports.EventBus
	Loader   LoaderConfig
	Logger   zerolog.Logger
}

// Runtime holds the state shared by every request: the cache-aside store and
// the event bus. It is built once at startup.
type Runtime struct {
	Cache *CacheAside
	Bus   ports.EventBus

	users  ports.UserRepository
	tokens ports.TokenManager
	loader LoaderConfig
	log    zerolog.Logger
}

func NewRuntime(cfg RuntimeConfig) *Runtime {
	return &Runtime{
		Cache:  NewCacheAside(cfg.Cache, cfg.CacheTTL, cfg.Logger),
		Bus:    cfg.Bus,
		users:  cfg.Users,
		tokens: cfg.Tokens,
		loader: cfg.Loader,
		log:    cfg.Logger,
	}
}

// Request is the per-request execution context: the resolved caller and the
// request-scoped user loader.
type Request struct {
	// Caller is nil for anonymous requests.
	Caller *domain.User
	// Users batches and memoizes user-by-id lookups for this request only.
	Users *Loader[string, *domain.User]

	runtime *Runtime
}

// Cache returns the process-wide cache-aside store.
func (r *Request) Cache() *CacheAside { return r.runtime.Cache }

// Bus returns the process-wide event bus.
func (r *Request) Bus() ports.EventBus { return r.runtime.Bus }

// Log returns the runtime logger.
func (r *Request) Log() zerolog.Logger { return r.runtime.log }

// NewRequest builds the context for one request. authorization is the raw
// Authorization header value. A missing, malformed, expired or forged token,
// or a token whose user no longer exists, yields an anonymous request rather
// than an error; operations that need a caller reject it later.
func (rt *Runtime) NewRequest(ctx context.Context, authorization string) *Request {
	req := &Request{runtime: rt}
	req.Users = NewLoader(ctx, rt.users.FindByIDs, rt.loader)

	token, ok := BearerToken(authorization)
	if !ok {
		return req
	}

	claims, err := rt.tokens.Verify(token)
	if err != nil {
		rt.log.Debug().Err(err).Msg("bearer token rejected, continuing as anonymous")
		return req
	}

	user, err := req.Users.Load(ctx, claims.UserID)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			rt.log.Warn().Err(err).Str("user_id", claims.UserID).Msg("caller lookup failed, continuing as anonymous")
		}
		return req
	}
	req.Caller = user
	return req
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
