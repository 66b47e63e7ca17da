package app

import (
	"net/http"
	"slices"
)

// RequestHasInvalidAPIKey checks the key query parameter, falling back to the
// X-Api-Key header.
func (app *Application) RequestHasInvalidAPIKey(r *http.Request) bool {
	key := r.URL.Query().Get("key")
	if key == "" {
		key = r.Header.Get("X-Api-Key")
	}
	return app.IsInvalidAPIKey(key)
}

func (app *Application) IsInvalidAPIKey(key string) bool {
	return key == "" || !slices.Contains(app.Config.ApiKeys, key)
}
