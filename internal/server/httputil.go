package server

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
)

// HTTPError carries the status code to answer with.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// JSONResponse writes data as a JSON body with the given status.
func JSONResponse(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// JSONError writes {"error": message}.
func JSONError(w http.ResponseWriter, status int, message string) error {
	return JSONResponse(w, status, map[string]string{
		"error": message,
	})
}

// HandleError answers with the code of an *HTTPError, or 500 otherwise.
func HandleError(w http.ResponseWriter, err error) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		JSONError(w, httpErr.Code, httpErr.Message)
		return
	}
	JSONError(w, http.StatusInternalServerError, "Internal server error")
}

func validateMethod(r *http.Request, allowed ...string) error {
	for _, m := range allowed {
		if r.Method == m {
			return nil
		}
	}
	return &HTTPError{
		Code:    http.StatusMethodNotAllowed,
		Message: "Method not allowed",
	}
}

// decodeJSON decodes the body into v. A missing Content-Type is accepted.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, maxBytes int64) error {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return &HTTPError{
				Code:    http.StatusUnsupportedMediaType,
				Message: "Content-Type must be application/json",
			}
		}
	}
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &HTTPError{
				Code:    http.StatusRequestEntityTooLarge,
				Message: "Request body too large",
			}
		}
		return &HTTPError{
			Code:    http.StatusBadRequest,
			Message: "Invalid JSON payload: " + err.Error(),
		}
	}
	return nil
}
