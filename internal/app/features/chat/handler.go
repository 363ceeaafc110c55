// internal/app/features/chat/handler.go
package chat

import (
	"context"
	"net/http"
	"strings"
	"time"

	messagestore "github.com/ecellvishnu/espace/internal/app/store/messages"
	profilestore "github.com/ecellvishnu/espace/internal/app/store/profiles"
	"github.com/ecellvishnu/espace/internal/app/system/authz"
	"github.com/ecellvishnu/espace/internal/app/system/htmlsanitize"
	"github.com/ecellvishnu/espace/internal/app/system/timeouts"
	"github.com/ecellvishnu/espace/internal/app/system/viewdata"
	"github.com/ecellvishnu/espace/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// historyWindow bounds how many messages the channel page loads.
const historyWindow = 100

// Handler serves the team chat channel. One channel per team; history
// is a bounded window of the latest messages.
type Handler struct {
	Log      *zap.Logger
	Messages *messagestore.Store
	Profiles *profilestore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Log:      logger,
		Messages: messagestore.New(db),
		Profiles: profilestore.New(db),
	}
}

type messageVM struct {
	Sender string
	Body   string
	SentAt time.Time
	Mine   bool
}

type chatData struct {
	viewdata.BaseVM
	HasTeam  bool
	Messages []messageVM
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /chat                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeChat(w http.ResponseWriter, r *http.Request) {
	data := chatData{
		BaseVM: viewdata.NewBaseVM(r, "Chat", "/"),
	}

	teamID := authz.UserTeamID(r)
	if teamID.IsZero() {
		templates.Render(w, r, "chat", data)
		return
	}
	data.HasTeam = true

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	messages, err := h.Messages.ListByTeam(ctx, teamID, historyWindow)
	if err != nil {
		h.Log.Error("chat: load history failed", zap.Error(err),
			zap.String("team_id", teamID.Hex()))
	}

	_, _, selfID, _ := authz.UserCtx(r)
	names := make(map[string]string)
	if members, err := h.Profiles.ListByTeam(ctx, teamID); err != nil {
		h.Log.Error("chat: load members failed", zap.Error(err))
	} else {
		for _, m := range members {
			names[m.ID.Hex()] = m.FullName
		}
	}

	for _, m := range messages {
		sender := names[m.SenderID.Hex()]
		if sender == "" {
			// Sender has since left the team or been removed.
			sender = "Former member"
		}
		data.Messages = append(data.Messages, messageVM{
			Sender: sender,
			Body:   m.Body,
			SentAt: m.CreatedAt,
			Mine:   m.SenderID == selfID,
		})
	}

	templates.Render(w, r, "chat", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /chat                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandlePost(w http.ResponseWriter, r *http.Request) {
	teamID := authz.UserTeamID(r)
	_, _, senderID, ok := authz.UserCtx(r)
	if teamID.IsZero() || !ok {
		http.Redirect(w, r, "/chat", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/chat", http.StatusSeeOther)
		return
	}

	body := htmlsanitize.Sanitize(strings.TrimSpace(r.FormValue("body")))
	if body == "" {
		// Empty after sanitization means nothing worth storing.
		http.Redirect(w, r, "/chat", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Messages.Create(ctx, models.Message{
		TeamID:   teamID,
		SenderID: senderID,
		Body:     body,
	}); err != nil {
		h.Log.Error("chat: store message failed", zap.Error(err),
			zap.String("team_id", teamID.Hex()))
	}

	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}
