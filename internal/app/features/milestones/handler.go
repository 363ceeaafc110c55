// internal/app/features/milestones/handler.go
package milestones

import (
	"context"
	"net/http"
	"strings"
	"time"

	milestonestore "github.com/ecellvishnu/espace/internal/app/store/milestones"
	projectstore "github.com/ecellvishnu/espace/internal/app/store/projects"
	"github.com/ecellvishnu/espace/internal/app/system/authz"
	"github.com/ecellvishnu/espace/internal/app/system/gates"
	"github.com/ecellvishnu/espace/internal/app/system/timeouts"
	"github.com/ecellvishnu/espace/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler mutates the milestone timeline. Reads live on the dashboard;
// this feature only accepts the POSTs and redirects back.
type Handler struct {
	Log        *zap.Logger
	Projects   *projectstore.Store
	Milestones *milestonestore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		Projects:   projectstore.New(db),
		Milestones: milestonestore.New(db),
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /milestones                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	gate := gates.RequireLeaderOrAdmin(w, r, "Only team leaders can manage milestones.", "/")
	if !gate.OK {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	due, err := time.Parse("2006-01-02", r.FormValue("due_date"))
	if title == "" || err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	project, ok := h.resolveProject(ctx, r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if _, err := h.Milestones.Create(ctx, models.Milestone{
		ProjectID: project.ID,
		Title:     title,
		DueDate:   due,
	}); err != nil {
		h.Log.Error("create milestone failed", zap.Error(err),
			zap.String("project_id", project.ID.Hex()))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.recomputeProgress(ctx, project.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /milestones/{id}/toggle                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	gate := gates.RequireLeaderOrAdmin(w, r, "Only team leaders can manage milestones.", "/")
	if !gate.OK {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	m, err := h.Milestones.GetByID(ctx, id)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	// Leaders may only touch their own team's timeline.
	if !authz.IsAdmin(r) {
		project, err := h.Projects.GetByID(ctx, m.ProjectID)
		if err != nil || project.TeamID != authz.UserTeamID(r) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}

	if err := h.Milestones.SetDone(ctx, id, !m.Done); err != nil {
		h.Log.Error("toggle milestone failed", zap.Error(err),
			zap.String("milestone_id", id.Hex()))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.recomputeProgress(ctx, m.ProjectID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// resolveProject picks the project a mutation applies to: the actor's
// team project, or the explicit project_id form field for admins who
// have no team of their own.
func (h *Handler) resolveProject(ctx context.Context, r *http.Request) (*models.Project, bool) {
	if teamID := authz.UserTeamID(r); !teamID.IsZero() {
		project, err := h.Projects.GetByTeam(ctx, teamID)
		if err != nil {
			h.Log.Error("resolve team project failed", zap.Error(err),
				zap.String("team_id", teamID.Hex()))
			return nil, false
		}
		return project, true
	}

	if authz.IsAdmin(r) {
		id, err := primitive.ObjectIDFromHex(r.FormValue("project_id"))
		if err != nil {
			return nil, false
		}
		project, err := h.Projects.GetByID(ctx, id)
		if err != nil {
			return nil, false
		}
		return project, true
	}

	return nil, false
}

// recomputeProgress recalculates the milestone completion percentage
// and stores it on the project. Every milestone mutation ends here.
func (h *Handler) recomputeProgress(ctx context.Context, projectID primitive.ObjectID) {
	progress, err := h.Milestones.Progress(ctx, projectID)
	if err != nil {
		h.Log.Error("compute progress failed", zap.Error(err),
			zap.String("project_id", projectID.Hex()))
		return
	}
	if err := h.Projects.UpdateProgress(ctx, projectID, progress); err != nil {
		h.Log.Error("store progress failed", zap.Error(err),
			zap.String("project_id", projectID.Hex()))
	}
}
