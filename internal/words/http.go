package words

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/gokatarajesh/kelime-arena/pkg/http/errors"
)

// HTTPHandler exposes word lookups.
type HTTPHandler struct {
	meanings *MeaningClient
}

func NewHTTPHandler(meanings *MeaningClient) *HTTPHandler {
	return &HTTPHandler{meanings: meanings}
}

// HandleMeaning handles GET /v1/words/{word}/meaning
func (h *HTTPHandler) HandleMeaning(w http.ResponseWriter, r *http.Request) {
	word := Normalize(chi.URLParam(r, "word"))
	if word == "" || !InAlphabet(word) {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidWord, "word must use the Turkish alphabet")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"word":    word,
		"meaning": h.meanings.Meaning(r.Context(), word),
	})
}
