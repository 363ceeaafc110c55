// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ecellvishnu/espace/internal/app/store/activity"
	"github.com/ecellvishnu/espace/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Recorder persists one activity entry. *activity.Store satisfies it;
// tests substitute an in-memory recorder.
type Recorder interface {
	Log(ctx context.Context, e activity.Entry) error
}

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (login, logout).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Admin controls logging for admin events (gate submissions, team
	// and account management). Same values as Auth.
	Admin string
	// QueueSize bounds the async write queue. Defaults to 256.
	QueueSize int
}

// Logger records audit events to MongoDB and structured logs.
//
// Database writes go through a bounded queue serviced by a single
// writer goroutine, so emitting an event never blocks a request and
// never fails an authorization decision. When the queue is full the
// oldest pending entry is dropped to make room: recent events are
// worth more than old ones in an incident review.
type Logger struct {
	rec    Recorder
	zapLog *zap.Logger
	config Config

	queue   chan activity.Entry
	done    chan struct{}
	dropped atomic.Int64
	once    sync.Once
}

// New creates the audit Logger and starts its writer goroutine.
func New(rec Recorder, zapLog *zap.Logger, config Config) *Logger {
	size := config.QueueSize
	if size <= 0 {
		size = 256
	}
	l := &Logger{
		rec:    rec,
		zapLog: zapLog,
		config: config,
		queue:  make(chan activity.Entry, size),
		done:   make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Logger) run() {
	defer close(l.done)
	for e := range l.queue {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Medium())
		err := l.rec.Log(ctx, e)
		cancel()
		if err != nil {
			l.zapLog.Error("failed to store audit entry",
				zap.Error(err),
				zap.String("activity_type", e.ActivityType))
		}
	}
}

// Close stops accepting events and drains the queue. It returns once
// every queued entry is written or the context expires.
func (l *Logger) Close(ctx context.Context) error {
	if l == nil {
		return nil
	}
	l.once.Do(func() { close(l.queue) })
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dropped reports how many entries were discarded because the queue
// was full.
func (l *Logger) Dropped() int64 {
	if l == nil {
		return 0
	}
	return l.dropped.Load()
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func (l *Logger) logToZap(e activity.Entry) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", e.Category),
		zap.String("activity_type", e.ActivityType),
		zap.Bool("success", e.Success),
		zap.String("ip", e.IP),
	}
	if e.Email != "" {
		fields = append(fields, zap.String("email", e.Email))
	}
	if e.ProfileID != nil {
		fields = append(fields, zap.String("profile_id", e.ProfileID.Hex()))
	}
	if e.ActorID != nil {
		fields = append(fields, zap.String("actor_id", e.ActorID.Hex()))
	}
	if e.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", e.FailureReason))
	}
	for k, v := range e.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if e.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// enqueue hands the entry to the writer without ever blocking. A full
// queue sheds its oldest entry first.
func (l *Logger) enqueue(e activity.Entry) {
	select {
	case l.queue <- e:
		return
	default:
	}

	select {
	case old := <-l.queue:
		l.dropped.Add(1)
		l.zapLog.Warn("audit queue full; dropped oldest entry",
			zap.String("dropped_type", old.ActivityType),
			zap.Int64("total_dropped", l.dropped.Load()))
	default:
	}

	select {
	case l.queue <- e:
	default:
		l.dropped.Add(1)
	}
}

// Log records an audit entry based on configuration. A nil logger is a
// no-op so tests can skip audit wiring entirely. The timestamp is
// fixed at emission time, not write time.
func (l *Logger) Log(e activity.Entry) {
	if l == nil {
		return
	}

	var setting string
	switch e.Category {
	case activity.CategoryAuth:
		setting = l.config.Auth
	case activity.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = "all"
	}

	if setting == "off" {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	if setting == "all" || setting == "log" {
		l.logToZap(e)
	}
	if setting == "all" || setting == "db" {
		l.enqueue(e)
	}
}

/*───────────────────────────────────────────────────────────────────────────*
| Authentication events                                                       |
*───────────────────────────────────────────────────────────────────────────*/

// LoginSuccess logs a completed institutional sign-in.
func (l *Logger) LoginSuccess(r *http.Request, profileID primitive.ObjectID, email string) {
	l.Log(activity.Entry{
		Category:     activity.CategoryAuth,
		ActivityType: activity.ActivityLoginSuccess,
		ProfileID:    &profileID,
		Email:        email,
		IP:           getClientIP(r),
		UserAgent:    r.UserAgent(),
		Success:      true,
	})
}

// LoginDeniedDomain logs a sign-in rejected by the domain filter.
func (l *Logger) LoginDeniedDomain(r *http.Request, email string) {
	l.Log(activity.Entry{
		Category:      activity.CategoryAuth,
		ActivityType:  activity.ActivityLoginDeniedDomain,
		Email:         email,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "email outside institutional domain",
	})
}

// Logout logs a sign-out.
func (l *Logger) Logout(r *http.Request, email string) {
	l.Log(activity.Entry{
		Category:     activity.CategoryAuth,
		ActivityType: activity.ActivityLogout,
		Email:        email,
		IP:           getClientIP(r),
		UserAgent:    r.UserAgent(),
		Success:      true,
	})
}

/*───────────────────────────────────────────────────────────────────────────*
| Access gate events                                                          |
*───────────────────────────────────────────────────────────────────────────*/

// AdminIdentityDenied logs a rejected identity submission at the gate.
func (l *Logger) AdminIdentityDenied(r *http.Request, attemptedEmail string) {
	l.Log(activity.Entry{
		Category:      activity.CategoryAdmin,
		ActivityType:  activity.ActivityAdminIdentityDenied,
		Email:         attemptedEmail,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "identity does not match super admin",
	})
}

// AdminAccessSuccess logs a completed gate grant.
func (l *Logger) AdminAccessSuccess(r *http.Request, email string) {
	l.Log(activity.Entry{
		Category:     activity.CategoryAdmin,
		ActivityType: activity.ActivityAdminAccessSuccess,
		Email:        email,
		IP:           getClientIP(r),
		UserAgent:    r.UserAgent(),
		Success:      true,
	})
}

// AdminCodeFailure logs a rejected access-code submission.
func (l *Logger) AdminCodeFailure(r *http.Request, email string) {
	l.Log(activity.Entry{
		Category:      activity.CategoryAdmin,
		ActivityType:  activity.ActivityAdminCodeFailure,
		Email:         email,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "wrong access code",
	})
}

/*───────────────────────────────────────────────────────────────────────────*
| Admin action events                                                         |
*───────────────────────────────────────────────────────────────────────────*/

// TeamCreated logs an admin creating a team.
func (l *Logger) TeamCreated(r *http.Request, actorEmail string, teamID primitive.ObjectID, teamName string) {
	l.Log(activity.Entry{
		Category:     activity.CategoryAdmin,
		ActivityType: activity.ActivityTeamCreated,
		Email:        actorEmail,
		IP:           getClientIP(r),
		UserAgent:    r.UserAgent(),
		Success:      true,
		Details: map[string]string{
			"team_id":   teamID.Hex(),
			"team_name": teamName,
		},
	})
}

// TeamDeleted logs an admin deleting a team.
func (l *Logger) TeamDeleted(r *http.Request, actorEmail string, teamID primitive.ObjectID, teamName string) {
	l.Log(activity.Entry{
		Category:     activity.CategoryAdmin,
		ActivityType: activity.ActivityTeamDeleted,
		Email:        actorEmail,
		IP:           getClientIP(r),
		UserAgent:    r.UserAgent(),
		Success:      true,
		Details: map[string]string{
			"team_id":   teamID.Hex(),
			"team_name": teamName,
		},
	})
}

// AccountProvisioned logs an admin pre-provisioning an account.
func (l *Logger) AccountProvisioned(r *http.Request, actorEmail string, profileID primitive.ObjectID, email, role string) {
	l.Log(activity.Entry{
		Category:     activity.CategoryAdmin,
		ActivityType: activity.ActivityAccountProvisioned,
		ProfileID:    &profileID,
		Email:        email,
		IP:           getClientIP(r),
		UserAgent:    r.UserAgent(),
		Success:      true,
		Details: map[string]string{
			"actor_email": actorEmail,
			"role":        role,
		},
	})
}

// RoleChanged logs an admin changing a profile's role.
func (l *Logger) RoleChanged(r *http.Request, actorEmail string, profileID primitive.ObjectID, email, oldRole, newRole string) {
	l.Log(activity.Entry{
		Category:     activity.CategoryAdmin,
		ActivityType: activity.ActivityRoleChanged,
		ProfileID:    &profileID,
		Email:        email,
		IP:           getClientIP(r),
		UserAgent:    r.UserAgent(),
		Success:      true,
		Details: map[string]string{
			"actor_email": actorEmail,
			"old_role":    oldRole,
			"new_role":    newRole,
		},
	})
}
