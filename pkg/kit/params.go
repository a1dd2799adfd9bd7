package kit

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// IntURLParam parses a chi path parameter as an int.
func IntURLParam(r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, false
	}
	return v, true
}
