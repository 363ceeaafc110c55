// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"
	"time"

	milestonestore "github.com/ecellvishnu/espace/internal/app/store/milestones"
	profilestore "github.com/ecellvishnu/espace/internal/app/store/profiles"
	projectstore "github.com/ecellvishnu/espace/internal/app/store/projects"
	teamstore "github.com/ecellvishnu/espace/internal/app/store/teams"
	"github.com/ecellvishnu/espace/internal/app/system/authz"
	"github.com/ecellvishnu/espace/internal/app/system/timeouts"
	"github.com/ecellvishnu/espace/internal/app/system/viewdata"
	"github.com/ecellvishnu/espace/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the team dashboard: project summary, milestone
// timeline, and the member roster.
type Handler struct {
	Log        *zap.Logger
	Teams      *teamstore.Store
	Projects   *projectstore.Store
	Milestones *milestonestore.Store
	Profiles   *profilestore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		Teams:      teamstore.New(db),
		Projects:   projectstore.New(db),
		Milestones: milestonestore.New(db),
		Profiles:   profilestore.New(db),
	}
}

type milestoneVM struct {
	ID      string
	Title   string
	DueDate time.Time
	Done    bool
	Overdue bool
}

type dashboardData struct {
	viewdata.BaseVM
	HasTeam    bool
	TeamName   string
	Project    *models.Project
	Milestones []milestoneVM
	Members    []models.Profile
	CanManage  bool // leader or admin: shows milestone controls
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – dashboard                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	data := dashboardData{
		BaseVM:    viewdata.NewBaseVM(r, "Dashboard", "/"),
		CanManage: authz.IsLeader(r) || authz.IsAdmin(r),
	}

	teamID := authz.UserTeamID(r)
	if teamID.IsZero() {
		// No team assignment (or no profile at all). The page renders
		// its "not on a team yet" state rather than erroring.
		templates.Render(w, r, "dashboard", data)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// Collaborator failures below degrade to absent data; the
	// dashboard still renders whatever it could load.
	team, err := h.Teams.GetByID(ctx, teamID)
	if err != nil {
		h.Log.Error("dashboard: load team failed", zap.Error(err),
			zap.String("team_id", teamID.Hex()))
		templates.Render(w, r, "dashboard", data)
		return
	}
	data.HasTeam = true
	data.TeamName = team.Name

	members, err := h.Profiles.ListByTeam(ctx, teamID)
	if err != nil {
		h.Log.Error("dashboard: load members failed", zap.Error(err))
	} else {
		data.Members = members
	}

	project, err := h.Projects.GetByTeam(ctx, teamID)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			h.Log.Error("dashboard: load project failed", zap.Error(err))
		}
		templates.Render(w, r, "dashboard", data)
		return
	}
	data.Project = project

	milestones, err := h.Milestones.ListByProject(ctx, project.ID)
	if err != nil {
		h.Log.Error("dashboard: load milestones failed", zap.Error(err))
	}
	now := time.Now()
	for _, m := range milestones {
		data.Milestones = append(data.Milestones, milestoneVM{
			ID:      m.ID.Hex(),
			Title:   m.Title,
			DueDate: m.DueDate,
			Done:    m.Done,
			Overdue: !m.Done && m.DueDate.Before(now),
		})
	}

	templates.Render(w, r, "dashboard", data)
}
