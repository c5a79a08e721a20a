package deps

import (
	"time"

	"github.com/MrSnakeDoc/bookmarkhub/internal/auth"
	"github.com/MrSnakeDoc/bookmarkhub/internal/index"
	"github.com/MrSnakeDoc/bookmarkhub/internal/logger"
	"github.com/MrSnakeDoc/bookmarkhub/internal/service"
	"github.com/redis/go-redis/v9"
)

type Deps struct {
	Logger             logger.Logger
	StartTime          time.Time
	Version            string
	Commit             string
	BuildDate          string
	GoVersion          string
	TimeNow            func() time.Time // for testing, defaults to time.Now
	AllowedHosts       []string         // Host headers allowed to access the server
	AllowedCIDRS       []string         // IPs allowed to access ops endpoints
	TrustProxy         bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	CORSOrigins        []string         // Origins allowed to call /api from a browser
	RedisClient        *redis.Client    // Redis client connection
	Service            *service.Service // Bookmark use-cases
	Auth               *auth.Service    // Sign-up, sign-in, session lookup
	Workspace          *index.Workspace // Open ordering sessions
	SessionCookie      string           // Cookie carrying the session token
	ImportMaxBytes     int64            // Upper bound on an uploaded bookmark file
	SignInBurst        int              // Sign-in attempts allowed at once per IP
	SignInRefillPerMin int              // Sign-in attempts regained per minute per IP
	SyncTrigger        chan struct{}    // Channel to trigger a manual homepage sync (nil if disabled)
	LastSync           func() time.Time // Time of the last homepage sync (nil if disabled)
}

// Now returns TimeNow() when set.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
