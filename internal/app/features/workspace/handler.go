// internal/app/features/workspace/handler.go
package workspace

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	filestore "github.com/ecellvishnu/espace/internal/app/store/files"
	profilestore "github.com/ecellvishnu/espace/internal/app/store/profiles"
	"github.com/ecellvishnu/espace/internal/app/system/authz"
	"github.com/ecellvishnu/espace/internal/app/system/timeouts"
	"github.com/ecellvishnu/espace/internal/app/system/viewdata"
	"github.com/ecellvishnu/espace/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxUploadBytes caps a single workspace upload.
const maxUploadBytes = 32 << 20

// Handler serves the team file workspace: the listing page, uploads,
// and the download endpoint. Bytes live in the injected blob store;
// Mongo holds the metadata.
type Handler struct {
	Log      *zap.Logger
	Files    *filestore.Store
	Profiles *profilestore.Store
	Storage  storage.Store
}

func NewHandler(db *mongo.Database, store storage.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Log:      logger,
		Files:    filestore.New(db),
		Profiles: profilestore.New(db),
		Storage:  store,
	}
}

type fileVM struct {
	Name     string
	Key      string
	Size     string
	Uploader string
	Uploaded time.Time
}

type workspaceData struct {
	viewdata.BaseVM
	HasTeam bool
	Files   []fileVM
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /workspace                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeWorkspace(w http.ResponseWriter, r *http.Request) {
	data := workspaceData{
		BaseVM: viewdata.NewBaseVM(r, "Workspace", "/"),
	}

	teamID := authz.UserTeamID(r)
	if teamID.IsZero() {
		templates.Render(w, r, "workspace", data)
		return
	}
	data.HasTeam = true

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	files, err := h.Files.ListByTeam(ctx, teamID)
	if err != nil {
		h.Log.Error("workspace: list files failed", zap.Error(err),
			zap.String("team_id", teamID.Hex()))
	}

	names := h.uploaderNames(ctx, teamID)
	for _, f := range files {
		data.Files = append(data.Files, fileVM{
			Name:     f.Name,
			Key:      f.Key,
			Size:     formatSize(f.Size),
			Uploader: names[f.UploaderID],
			Uploaded: f.CreatedAt,
		})
	}

	templates.Render(w, r, "workspace", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /workspace/upload                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	teamID := authz.UserTeamID(r)
	_, _, profileID, ok := authz.UserCtx(r)
	if teamID.IsZero() || !ok {
		http.Redirect(w, r, "/workspace", http.StatusSeeOther)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.Log.Warn("workspace: parse upload failed", zap.Error(err))
		http.Redirect(w, r, "/workspace", http.StatusSeeOther)
		return
	}

	src, header, err := r.FormFile("file")
	if err != nil {
		http.Redirect(w, r, "/workspace", http.StatusSeeOther)
		return
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	key := uuid.NewString()
	path := blobPath(key)
	contentType := header.Header.Get("Content-Type")
	if err := h.Storage.Put(ctx, path, src, &storage.PutOptions{
		ContentType: contentType,
	}); err != nil {
		h.Log.Error("workspace: store bytes failed", zap.Error(err),
			zap.String("path", path))
		http.Redirect(w, r, "/workspace", http.StatusSeeOther)
		return
	}

	_, err = h.Files.Create(ctx, models.FileObject{
		TeamID:      teamID,
		UploaderID:  profileID,
		Name:        filepath.Base(header.Filename),
		Key:         key,
		Path:        path,
		Size:        header.Size,
		ContentType: contentType,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		h.Log.Error("workspace: store metadata failed", zap.Error(err),
			zap.String("key", key))
		// Orphaned bytes without a record are unreachable; remove them.
		if rmErr := h.Storage.Delete(ctx, path); rmErr != nil {
			h.Log.Warn("workspace: cleanup failed", zap.Error(rmErr))
		}
	}

	http.Redirect(w, r, "/workspace", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /files/{key}                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeFile(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" || strings.ContainsAny(key, "/\\.") {
		http.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	f, err := h.Files.GetByKey(ctx, key)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	// Files are team-private. Admins can see everything.
	if !authz.IsAdmin(r) && f.TeamID != authz.UserTeamID(r) {
		http.NotFound(w, r)
		return
	}

	disposition := fmt.Sprintf("attachment; filename=%q", f.Name)

	// Local storage serves the bytes directly.
	if local, ok := h.Storage.(*storage.Local); ok {
		fullPath, err := local.GetFullPath(f.Path)
		if err != nil {
			h.Log.Error("workspace: locate bytes failed", zap.Error(err),
				zap.String("path", f.Path))
			http.NotFound(w, r)
			return
		}
		if f.ContentType != "" {
			w.Header().Set("Content-Type", f.ContentType)
		}
		w.Header().Set("Content-Disposition", disposition)
		http.ServeFile(w, r, fullPath)
		return
	}

	// Remote backends hand out a short-lived signed URL instead.
	signedURL, err := h.Storage.PresignedURL(ctx, f.Path, &storage.PresignOptions{
		Expires:            15 * time.Minute,
		ContentDisposition: disposition,
	})
	if err != nil {
		h.Log.Error("workspace: sign download failed", zap.Error(err),
			zap.String("path", f.Path))
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, signedURL, http.StatusSeeOther)
}

// blobPath places blobs under workspace/YYYY/MM so a local backend's
// directories stay a manageable size.
func blobPath(key string) string {
	now := time.Now().UTC()
	return fmt.Sprintf("workspace/%04d/%02d/%s", now.Year(), now.Month(), key)
}

// uploaderNames maps team profile IDs to display names for the listing.
func (h *Handler) uploaderNames(ctx context.Context, teamID primitive.ObjectID) map[primitive.ObjectID]string {
	names := make(map[primitive.ObjectID]string)
	members, err := h.Profiles.ListByTeam(ctx, teamID)
	if err != nil {
		h.Log.Error("workspace: load members failed", zap.Error(err))
		return names
	}
	for _, m := range members {
		names[m.ID] = m.FullName
	}
	return names
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
