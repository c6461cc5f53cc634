package handler

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/menagerie/menagerie/internal/model"
	"github.com/menagerie/menagerie/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

const indexTitle = "Our Jungle Residents"

// IndexHandler renders the server-side listing page.
type IndexHandler struct {
	svc    *service.AnimalService
	logger *slog.Logger
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(svc *service.AnimalService, logger *slog.Logger) *IndexHandler {
	return &IndexHandler{
		svc:    svc,
		logger: logger,
	}
}

// Index handles GET /.
func (h *IndexHandler) Index(w http.ResponseWriter, r *http.Request) {
	animals, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Error("index_list_failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data := struct {
		Title   string
		Animals []*model.Animal
	}{
		Title:   indexTitle,
		Animals: animals,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		h.logger.Error("index_render_failed", "error", err)
	}
}
