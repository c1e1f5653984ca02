package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/aptus/internal/common"
)

// maxBodyBytes caps request body size; candidate lists dominate payload
// size and 50k ids fit comfortably under this.
const maxBodyBytes = 16 << 20

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		WriteDomainError(w, r, common.NewError(common.CodeValidation, "method not allowed: "+r.Method))
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteOK writes a success envelope with elapsed time.
func WriteOK(w http.ResponseWriter, fields map[string]interface{}, start time.Time) error {
	body := map[string]interface{}{
		"status":     "ok",
		"elapsed_ms": time.Since(start).Milliseconds(),
	}
	for k, v := range fields {
		body[k] = v
	}
	return WriteJSON(w, http.StatusOK, body)
}

// WriteDomainError maps a domain error to the JSON error envelope with
// the taxonomy status code.
func WriteDomainError(w http.ResponseWriter, r *http.Request, err error) {
	de := common.AsError(err)
	body := map[string]interface{}{
		"status":  "error",
		"code":    de.Code,
		"message": de.Message,
	}
	if len(de.Details) > 0 {
		body["details"] = de.Details
	}
	if requestID := common.RequestIDFrom(r.Context()); requestID != "" {
		body["request_id"] = requestID
	}
	WriteJSON(w, common.StatusFor(de.Code), body)
}

// smartQuotes covers the typographic quote and prime ranges that broken
// clients paste into otherwise valid JSON.
var smartQuotes = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'", "‛", "'",
	"“", `"`, "”", `"`, "„", `"`, "‟", `"`,
	"′", "'", "″", `"`, "‴", `"`, "‵", "'",
	"‶", `"`,
)

var (
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	bareNonFiniteRe = regexp.MustCompile(`-?\b(NaN|Infinity)\b`)
)

// DecodeLenient reads and parses the request body: strip smart quotes,
// strict parse, then one repair pass (trailing commas removed, bare
// NaN/Infinity replaced with null), then VALIDATION_ERROR.
func DecodeLenient(r *http.Request, out interface{}) error {
	_, err := DecodeLenientBody(r, out)
	return err
}

// DecodeLenientBody behaves like DecodeLenient and additionally returns
// the cleaned body so callers can inspect tokens the repair pass
// rewrote.
func DecodeLenientBody(r *http.Request, out interface{}) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, common.WrapError(common.CodeValidation, "failed to read request body", err)
	}
	if len(raw) == 0 {
		return nil, common.NewError(common.CodeValidation, "request body is required")
	}

	cleaned := []byte(smartQuotes.Replace(string(raw)))
	if err := json.Unmarshal(cleaned, out); err == nil {
		return cleaned, nil
	}

	repaired := trailingCommaRe.ReplaceAll(cleaned, []byte("$1"))
	repaired = bareNonFiniteRe.ReplaceAll(repaired, []byte("null"))
	if err := json.Unmarshal(repaired, out); err != nil {
		return cleaned, common.WrapError(common.CodeValidation, "request body is not valid JSON", err)
	}
	return cleaned, nil
}

// PathSegment extracts the path segment following prefix, stopping at
// the next slash. Empty result means a malformed path.
func PathSegment(path, prefix string) string {
	rest := strings.TrimPrefix(path, prefix)
	if rest == path {
		return ""
	}
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		rest = rest[:idx]
	}
	return rest
}

// QueryInt reads an integer query parameter with a default.
func QueryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

// QueryBool reads a boolean query parameter; absent means false.
func QueryBool(r *http.Request, key string) bool {
	switch strings.ToLower(r.URL.Query().Get(key)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func validationf(format string, args ...interface{}) error {
	return common.NewError(common.CodeValidation, fmt.Sprintf(format, args...))
}
