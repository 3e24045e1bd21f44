package httputil

import "net/http"

// AlgoliaHeaders returns the credential headers for the search index.
func AlgoliaHeaders(appID, apiKey string) http.Header {
	h := JSONHeaders()
	h.Set("X-Algolia-Application-Id", appID)
	h.Set("X-Algolia-API-Key", apiKey)
	return h
}

// JSONHeaders returns headers for JSON request/response APIs.
func JSONHeaders() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	h.Set("Accept-Encoding", "gzip, br")
	return h
}
