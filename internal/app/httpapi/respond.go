package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	lederr "github.com/xam-dev-ux/BaseReview/internal/errors"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps any error onto the ledger taxonomy and writes the envelope.
func writeError(w http.ResponseWriter, err error) {
	se := lederr.GetServiceError(err)
	writeJSON(w, se.HTTPStatus, map[string]errorBody{
		"error": {Code: string(se.Code), Message: se.Message},
	})
}

func writeBadRequest(w http.ResponseWriter, format string, args ...interface{}) {
	writeError(w, lederr.InvalidInput(format, args...))
}
