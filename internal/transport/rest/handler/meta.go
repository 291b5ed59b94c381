package handler

import (
	"net/http"

	"github.com/swaggo/swag"

	"evalconsole/docs"
)

// MetaHandler serves service identity, liveness and the API document
type MetaHandler struct {
	version   string
	apiPrefix string
}

func NewMetaHandler(version, apiPrefix string) *MetaHandler {
	return &MetaHandler{version: version, apiPrefix: apiPrefix}
}

// Root handles GET /
func (h *MetaHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":       "evalconsole",
		"version":    h.version,
		"api_prefix": h.apiPrefix,
	})
}

// Health handles GET /health
func (h *MetaHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SwaggerDoc handles GET /swagger/doc.json
func (h *MetaHandler) SwaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "api document unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(doc))
}
