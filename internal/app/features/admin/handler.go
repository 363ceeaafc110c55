// internal/app/features/admin/handler.go
package admin

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ecellvishnu/espace/internal/app/store/activity"
	filestore "github.com/ecellvishnu/espace/internal/app/store/files"
	messagestore "github.com/ecellvishnu/espace/internal/app/store/messages"
	milestonestore "github.com/ecellvishnu/espace/internal/app/store/milestones"
	profilestore "github.com/ecellvishnu/espace/internal/app/store/profiles"
	projectstore "github.com/ecellvishnu/espace/internal/app/store/projects"
	roomstore "github.com/ecellvishnu/espace/internal/app/store/rooms"
	teammemberstore "github.com/ecellvishnu/espace/internal/app/store/teammembers"
	teamstore "github.com/ecellvishnu/espace/internal/app/store/teams"
	"github.com/ecellvishnu/espace/internal/app/system/auditlog"
	"github.com/ecellvishnu/espace/internal/app/system/authz"
	"github.com/ecellvishnu/espace/internal/app/system/htmlsanitize"
	"github.com/ecellvishnu/espace/internal/app/system/timeouts"
	"github.com/ecellvishnu/espace/internal/app/system/viewdata"
	"github.com/ecellvishnu/espace/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the admin surface: teams and accounts management plus
// the activity log review.
type Handler struct {
	Log         *zap.Logger
	AuditLog    *auditlog.Logger
	Teams       *teamstore.Store
	TeamMembers *teammemberstore.Store
	Profiles    *profilestore.Store
	Projects    *projectstore.Store
	Milestones  *milestonestore.Store
	Files       *filestore.Store
	Messages    *messagestore.Store
	Rooms       *roomstore.Store
	Activity    *activity.Store
	Storage     storage.Store
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, store storage.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Log:         logger,
		AuditLog:    audit,
		Teams:       teamstore.New(db),
		TeamMembers: teammemberstore.New(db),
		Profiles:    profilestore.New(db),
		Projects:    projectstore.New(db),
		Milestones:  milestonestore.New(db),
		Files:       filestore.New(db),
		Messages:    messagestore.New(db),
		Rooms:       roomstore.New(db),
		Activity:    activity.New(db),
		Storage:     store,
	}
}

type teamVM struct {
	ID           string
	Name         string
	MemberCount  int64
	ProjectTitle string
}

type accountVM struct {
	ID       string
	FullName string
	Email    string
	Role     string
	TeamName string
	Linked   bool // provider account already signed in at least once
}

type overviewData struct {
	viewdata.BaseVM
	Teams    []teamVM
	Accounts []accountVM
	Error    string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /admin                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeOverview(w http.ResponseWriter, r *http.Request) {
	data := overviewData{
		BaseVM: viewdata.NewBaseVM(r, "Administration", "/"),
		Error:  overviewError(query.Get(r, "error")),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	teams, err := h.Teams.List(ctx)
	if err != nil {
		h.Log.Error("admin: list teams failed", zap.Error(err))
	}
	teamNames := make(map[primitive.ObjectID]string, len(teams))
	for _, team := range teams {
		teamNames[team.ID] = team.Name

		vm := teamVM{ID: team.ID.Hex(), Name: team.Name}
		if count, err := h.TeamMembers.CountByTeam(ctx, team.ID); err == nil {
			vm.MemberCount = count
		}
		if project, err := h.Projects.GetByTeam(ctx, team.ID); err == nil {
			vm.ProjectTitle = project.Title
		}
		data.Teams = append(data.Teams, vm)
	}

	profiles, err := h.Profiles.List(ctx)
	if err != nil {
		h.Log.Error("admin: list profiles failed", zap.Error(err))
	}
	for _, p := range profiles {
		vm := accountVM{
			ID:       p.ID.Hex(),
			FullName: p.FullName,
			Email:    p.Email,
			Role:     p.Role,
			Linked:   p.PrincipalID != "",
		}
		if p.TeamID != nil {
			vm.TeamName = teamNames[*p.TeamID]
		}
		data.Accounts = append(data.Accounts, vm)
	}

	templates.Render(w, r, "admin_overview", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/teams                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCreateTeam(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	name := htmlsanitize.StripTags(strings.TrimSpace(r.FormValue("name")))
	if name == "" {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	team, err := h.Teams.Create(ctx, name)
	if err != nil {
		if errors.Is(err, teamstore.ErrDuplicateName) {
			http.Redirect(w, r, "/admin?error=duplicate_team", http.StatusSeeOther)
			return
		}
		h.Log.Error("admin: create team failed", zap.Error(err),
			zap.String("name", name))
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	h.AuditLog.TeamCreated(r, authz.Email(r), team.ID, team.Name)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/teams/{id}/delete                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	team, err := h.Teams.GetByID(ctx, teamID)
	if err != nil {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	// Cascade. Each step logs and continues: a half-deleted team is
	// recoverable by running the delete again, a stuck one is not.
	if project, err := h.Projects.GetByTeam(ctx, teamID); err == nil {
		if _, err := h.Milestones.DeleteByProject(ctx, project.ID); err != nil {
			h.Log.Error("admin: delete milestones failed", zap.Error(err))
		}
	}
	if _, err := h.Projects.DeleteByTeam(ctx, teamID); err != nil {
		h.Log.Error("admin: delete project failed", zap.Error(err))
	}

	if files, err := h.Files.ListByTeam(ctx, teamID); err == nil {
		for _, f := range files {
			if err := h.Storage.Delete(ctx, f.Path); err != nil {
				h.Log.Warn("admin: remove file bytes failed", zap.Error(err),
					zap.String("path", f.Path))
			}
		}
	}
	if _, err := h.Files.DeleteByTeam(ctx, teamID); err != nil {
		h.Log.Error("admin: delete file records failed", zap.Error(err))
	}
	if _, err := h.Messages.DeleteByTeam(ctx, teamID); err != nil {
		h.Log.Error("admin: delete messages failed", zap.Error(err))
	}
	if _, err := h.Rooms.DeleteByTeam(ctx, teamID); err != nil {
		h.Log.Error("admin: delete rooms failed", zap.Error(err))
	}
	if _, err := h.TeamMembers.RemoveAllForTeam(ctx, teamID); err != nil {
		h.Log.Error("admin: remove memberships failed", zap.Error(err))
	}
	if err := h.Profiles.ClearTeamForAll(ctx, teamID); err != nil {
		h.Log.Error("admin: clear team assignments failed", zap.Error(err))
	}
	if _, err := h.Teams.Delete(ctx, teamID); err != nil {
		h.Log.Error("admin: delete team failed", zap.Error(err))
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	h.AuditLog.TeamDeleted(r, authz.Email(r), teamID, team.Name)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/accounts                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleProvisionAccount(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	fullName := htmlsanitize.StripTags(strings.TrimSpace(r.FormValue("full_name")))
	email := strings.TrimSpace(r.FormValue("email"))
	role := normalizeRole(r.FormValue("role"))
	if fullName == "" || email == "" {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// Pre-provisioned: no principal yet. The Google callback links the
	// provider subject on first sign-in.
	p, err := h.Profiles.Create(ctx, models.Profile{
		FullName: fullName,
		Email:    email,
		EmailCI:  text.Fold(email),
		Role:     role,
	})
	if err != nil {
		if errors.Is(err, profilestore.ErrDuplicateEmail) {
			http.Redirect(w, r, "/admin?error=duplicate_email", http.StatusSeeOther)
			return
		}
		h.Log.Error("admin: provision account failed", zap.Error(err),
			zap.String("email", email))
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	if teamID, err := primitive.ObjectIDFromHex(r.FormValue("team_id")); err == nil {
		if err := h.Profiles.AssignTeam(ctx, p.ID, teamID); err != nil {
			h.Log.Error("admin: assign team failed", zap.Error(err))
		}
		if err := h.TeamMembers.Add(ctx, teamID, p.ID); err != nil {
			h.Log.Error("admin: add membership failed", zap.Error(err))
		}
	}

	h.AuditLog.AccountProvisioned(r, authz.Email(r), p.ID, p.Email, p.Role)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/accounts/{id}/role                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	role := normalizeRole(r.FormValue("role"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.Profiles.GetByID(ctx, id)
	if err != nil {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	if p.Role == role {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	if err := h.Profiles.UpdateRole(ctx, id, role); err != nil {
		h.Log.Error("admin: update role failed", zap.Error(err),
			zap.String("profile_id", id.Hex()))
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	h.AuditLog.RoleChanged(r, authz.Email(r), p.ID, p.Email, p.Role, role)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /admin/activity                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

type activityVM struct {
	Timestamp    time.Time
	Category     string
	ActivityType string
	Email        string
	IP           string
	Success      bool
	Reason       string
}

type activityData struct {
	viewdata.BaseVM
	Entries  []activityVM
	Category string
	Type     string
	Email    string
	From     string
	To       string
}

func (h *Handler) ServeActivity(w http.ResponseWriter, r *http.Request) {
	data := activityData{
		BaseVM:   viewdata.NewBaseVM(r, "Activity log", "/admin"),
		Category: query.Get(r, "category"),
		Type:     query.Get(r, "type"),
		Email:    query.Get(r, "email"),
		From:     query.Get(r, "from"),
		To:       query.Get(r, "to"),
	}

	filter := activity.Filter{
		Category:     data.Category,
		ActivityType: data.Type,
		Email:        data.Email,
	}
	if t, err := time.Parse("2006-01-02", data.From); err == nil {
		filter.StartTime = &t
	}
	if t, err := time.Parse("2006-01-02", data.To); err == nil {
		end := t.Add(24 * time.Hour)
		filter.EndTime = &end
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	entries, err := h.Activity.Query(ctx, filter)
	if err != nil {
		h.Log.Error("admin: query activity failed", zap.Error(err))
	}
	for _, e := range entries {
		data.Entries = append(data.Entries, activityVM{
			Timestamp:    e.Timestamp,
			Category:     e.Category,
			ActivityType: e.ActivityType,
			Email:        e.Email,
			IP:           e.IP,
			Success:      e.Success,
			Reason:       e.FailureReason,
		})
	}

	templates.Render(w, r, "admin_activity", data)
}

func normalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "admin":
		return "admin"
	case "leader":
		return "leader"
	default:
		return "member"
	}
}

func overviewError(code string) string {
	switch code {
	case "duplicate_team":
		return "A team with that name already exists."
	case "duplicate_email":
		return "An account with that email already exists."
	default:
		return ""
	}
}
