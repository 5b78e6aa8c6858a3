package handlers

import (
	"net/http"

	"github.com/Mr-Georgie/weather-api/docs"
	appErrors "github.com/Mr-Georgie/weather-api/pkg/errors"

	"github.com/swaggo/swag"
)

// DocsHandler serves the OpenAPI document registered by the docs package.
type DocsHandler struct {
	errorHandler *appErrors.ErrorHandler
}

func NewDocsHandler(errorHandler *appErrors.ErrorHandler) *DocsHandler {
	return &DocsHandler{errorHandler: errorHandler}
}

// Spec handles GET /docs/doc.json
func (h *DocsHandler) Spec(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		h.errorHandler.Handle(w, r, appErrors.Wrap(err, "failed to render API document"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}
