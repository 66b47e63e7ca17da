package utils

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
)

// ExtractIDFromParams retrieves a route parameter and removes a ".json" extension.
func ExtractIDFromParams(r *http.Request, paramName string) string {
	params := httprouter.ParamsFromContext(r.Context())
	rawID := params.ByName(paramName)
	return strings.TrimSuffix(rawID, ".json")
}

// ParseDateParam reads an optional YYYY-MM-DD query parameter. An invalid
// value is recorded in fieldErrors under key.
func ParseDateParam(params url.Values, key string, fieldErrors map[string][]string) (*time.Time, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}
	date, err := ParseDate(SanitizeInput(params.Get(key)))
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], err.Error())
		return nil, fieldErrors
	}
	return date, fieldErrors
}
