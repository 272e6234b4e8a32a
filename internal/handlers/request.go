package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxQueryInt bounds numeric query parameters.
const maxQueryInt = math.MaxInt32

// queryInt parses a positive integer query parameter. Missing, malformed,
// negative and out of range values yield 0, which the service replaces with
// its default.
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 0 || n > maxQueryInt {
		return 0
	}
	return n
}

// idParam parses the {id} route parameter.
func idParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}
