// internal/app/system/elevation/elevation.go
//
// Package elevation implements the two-stage manual admin access gate:
// an identity check followed by an access-code check. The gate is a
// pure state machine; persistence and audit emission belong to the
// HTTP layer driving it.
package elevation

import (
	"crypto/subtle"
	"time"

	"github.com/ecellvishnu/espace/internal/app/system/normalize"
	"golang.org/x/crypto/bcrypt"
)

// State is the gate's position in the flow.
type State int

const (
	// Closed: gate not visible, nothing in progress.
	Closed State = iota
	// IdentityEntry: first stage, waiting for the admin email.
	IdentityEntry
	// CodeEntry: identity verified, waiting for the access code.
	CodeEntry
	// Granted: code verified; terminal. The caller persists the manual
	// admin session and closes the gate.
	Granted
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case IdentityEntry:
		return "identity"
	case CodeEntry:
		return "code"
	case Granted:
		return "granted"
	default:
		return "unknown"
	}
}

// Outcome classifies a submission so the caller can emit the matching
// audit record and render the matching form state.
type Outcome int

const (
	// OutcomeNone: the submission was not applicable in the current
	// state (e.g. a code posted while the gate is closed).
	OutcomeNone Outcome = iota
	OutcomeIdentityAccepted
	OutcomeIdentityDenied
	OutcomeCodeAccepted
	OutcomeCodeDenied
	// OutcomeLockedOut: the attempt policy refused the submission.
	OutcomeLockedOut
)

// AttemptPolicy limits consecutive code failures. MaxFailures of zero
// disables the policy entirely.
type AttemptPolicy struct {
	MaxFailures int
	Lockout     time.Duration
}

// Config carries the verification material. When AccessCodeHash is set
// it takes precedence over the plain AccessCode.
type Config struct {
	SuperAdminEmail string
	AccessCode      string
	AccessCodeHash  string // bcrypt hash
	Policy          AttemptPolicy
}

// Gate is the access-gate state machine for a single browser session.
// It is not safe for concurrent use; each request restores, advances,
// and re-persists its own copy.
type Gate struct {
	cfg Config

	state       State
	identity    string // verified email, set on entering CodeEntry
	failures    int
	lockedUntil time.Time

	now func() time.Time
}

// New returns a closed gate.
func New(cfg Config) *Gate {
	return &Gate{cfg: cfg, state: Closed, now: time.Now}
}

func (g *Gate) State() State { return g.state }

// Identity returns the email verified in the first stage, or "" before
// that stage completes.
func (g *Gate) Identity() string { return g.identity }

// Open moves the gate to a fresh IdentityEntry. Reopening always
// starts over; nothing from an earlier attempt survives.
func (g *Gate) Open() {
	g.state = IdentityEntry
	g.identity = ""
}

// SubmitIdentity verifies the first stage. The comparison normalizes
// both sides, so display-case differences never matter here.
func (g *Gate) SubmitIdentity(email string) Outcome {
	if g.state != IdentityEntry {
		return OutcomeNone
	}
	want := normalize.Email(g.cfg.SuperAdminEmail)
	got := normalize.Email(email)
	if want == "" || got == "" || got != want {
		return OutcomeIdentityDenied
	}
	g.identity = got
	g.state = CodeEntry
	return OutcomeIdentityAccepted
}

// SubmitCode verifies the second stage. A configured bcrypt hash wins
// over the plain code; with neither configured every attempt is denied.
func (g *Gate) SubmitCode(code string) Outcome {
	if g.state != CodeEntry {
		return OutcomeNone
	}
	if g.locked() {
		return OutcomeLockedOut
	}
	if !g.codeMatches(code) {
		g.recordFailure()
		return OutcomeCodeDenied
	}
	g.state = Granted
	g.failures = 0
	g.lockedUntil = time.Time{}
	return OutcomeCodeAccepted
}

func (g *Gate) codeMatches(code string) bool {
	if code == "" {
		return false
	}
	if g.cfg.AccessCodeHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(g.cfg.AccessCodeHash), []byte(code)) == nil
	}
	if g.cfg.AccessCode == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(g.cfg.AccessCode), []byte(code)) == 1
}

func (g *Gate) recordFailure() {
	g.failures++
	if g.cfg.Policy.MaxFailures > 0 && g.failures >= g.cfg.Policy.MaxFailures {
		g.lockedUntil = g.now().Add(g.cfg.Policy.Lockout)
	}
}

func (g *Gate) locked() bool {
	if g.lockedUntil.IsZero() {
		return false
	}
	if g.now().Before(g.lockedUntil) {
		return true
	}
	// Window passed; the counter starts over.
	g.lockedUntil = time.Time{}
	g.failures = 0
	return false
}

// LockedUntil returns the lockout deadline, zero when not locked.
func (g *Gate) LockedUntil() time.Time { return g.lockedUntil }

// Back returns from CodeEntry to IdentityEntry. Anything typed into
// the code field is gone.
func (g *Gate) Back() {
	if g.state == CodeEntry {
		g.state = IdentityEntry
		g.identity = ""
	}
}

// Dismiss closes the gate from any non-terminal state. Progress is
// discarded; failure counters survive so dismissing cannot be used to
// dodge the attempt policy.
func (g *Gate) Dismiss() {
	if g.state != Granted {
		g.state = Closed
		g.identity = ""
	}
}

// Snapshot is the persistable gate state, flat strings and ints so it
// drops straight into cookie session values.
type Snapshot struct {
	State       int
	Identity    string
	Failures    int
	LockedUntil int64 // unix seconds, 0 when unlocked
}

// Snapshot captures the gate for persistence between requests.
func (g *Gate) Snapshot() Snapshot {
	s := Snapshot{
		State:    int(g.state),
		Identity: g.identity,
		Failures: g.failures,
	}
	if !g.lockedUntil.IsZero() {
		s.LockedUntil = g.lockedUntil.Unix()
	}
	return s
}

// Restore rebuilds a gate from a snapshot. Out-of-range or terminal
// states collapse to Closed and carry no identity; a tampered cookie
// can never restore a Granted gate. Failure counters survive the
// collapse so a lockout cannot be shed by corrupting the state value.
func Restore(cfg Config, s Snapshot) *Gate {
	g := New(cfg)
	if s.State > int(Closed) && s.State < int(Granted) {
		g.state = State(s.State)
		g.identity = s.Identity
	}
	g.failures = s.Failures
	if s.LockedUntil > 0 {
		g.lockedUntil = time.Unix(s.LockedUntil, 0)
	}
	return g
}
