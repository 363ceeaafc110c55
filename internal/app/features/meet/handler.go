// internal/app/features/meet/handler.go
package meet

import (
	"context"
	"net/http"
	"strings"
	"time"

	roomstore "github.com/ecellvishnu/espace/internal/app/store/rooms"
	"github.com/ecellvishnu/espace/internal/app/system/authz"
	"github.com/ecellvishnu/espace/internal/app/system/gates"
	"github.com/ecellvishnu/espace/internal/app/system/timeouts"
	"github.com/ecellvishnu/espace/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the team's video meeting rooms. The calls themselves
// run on an external conferencing service; e-Space only mints room
// codes and builds join links.
type Handler struct {
	Log         *zap.Logger
	Rooms       *roomstore.Store
	MeetBaseURL string
}

func NewHandler(db *mongo.Database, meetBaseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		Log:         logger,
		Rooms:       roomstore.New(db),
		MeetBaseURL: strings.TrimRight(meetBaseURL, "/"),
	}
}

type roomVM struct {
	Name    string
	JoinURL string
	Created time.Time
}

type meetData struct {
	viewdata.BaseVM
	HasTeam   bool
	Rooms     []roomVM
	CanCreate bool
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /meet                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeMeet(w http.ResponseWriter, r *http.Request) {
	data := meetData{
		BaseVM:    viewdata.NewBaseVM(r, "Meet", "/"),
		CanCreate: authz.IsLeader(r) || authz.IsAdmin(r),
	}

	teamID := authz.UserTeamID(r)
	if teamID.IsZero() {
		templates.Render(w, r, "meet", data)
		return
	}
	data.HasTeam = true

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rooms, err := h.Rooms.ListByTeam(ctx, teamID)
	if err != nil {
		h.Log.Error("meet: list rooms failed", zap.Error(err),
			zap.String("team_id", teamID.Hex()))
	}
	for _, room := range rooms {
		data.Rooms = append(data.Rooms, roomVM{
			Name:    room.Name,
			JoinURL: h.MeetBaseURL + "/" + room.Code,
			Created: room.CreatedAt,
		})
	}

	templates.Render(w, r, "meet", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /meet/rooms                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCreateRoom(w http.ResponseWriter, r *http.Request) {
	gate := gates.RequireLeaderOrAdmin(w, r, "Only team leaders can create meeting rooms.", "/meet")
	if !gate.OK {
		return
	}

	teamID := authz.UserTeamID(r)
	if teamID.IsZero() {
		// Rooms belong to a team; an admin without one has nowhere to
		// put it.
		http.Redirect(w, r, "/meet", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/meet", http.StatusSeeOther)
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		http.Redirect(w, r, "/meet", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Rooms.Create(ctx, teamID, name); err != nil {
		h.Log.Error("meet: create room failed", zap.Error(err),
			zap.String("team_id", teamID.Hex()))
	}

	http.Redirect(w, r, "/meet", http.StatusSeeOther)
}
