package common

import (
	"encoding/json"
	"io"
	"net/http"
)

// MaxBodyBytes bounds request bodies. Batch saves of a few hundred nodes fit well inside it.
const MaxBodyBytes = 4 << 20

// Envelope is a success response body. The success flag is always present and
// the payload keys sit beside it, e.g. {"success":true,"workspace":{...}}.
type Envelope map[string]interface{}

// RespondJSON sends a JSON response as-is
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// RespondSuccess sends {"success": true, ...payload}
func RespondSuccess(w http.ResponseWriter, status int, payload Envelope) {
	body := Envelope{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	RespondJSON(w, status, body)
}

// ParseJSONBody decodes a size-limited JSON body. Unknown fields are ignored so
// clients can send whole objects to whitelisted update endpoints.
func ParseJSONBody(r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return nil
}
