package helpers

import (
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/isometry/dap-router/internal/models"
)

// RespondHTTP writes the response headers, status code and body to rw. A zero status code is sent as 200.
func RespondHTTP(response models.Response, rw http.ResponseWriter) {
	for k, v := range response.Headers {
		rw.Header().Set(k, v)
	}
	statusCode := response.StatusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	rw.WriteHeader(statusCode)
	_, _ = rw.Write([]byte(response.Body))
}

// NormaliseHeaders lower-cases header names and keeps the first value of each.
// Names that collide once lower-cased resolve to the value of the lexically smallest original name.
func NormaliseHeaders[V string | []string](in map[string]V) map[string]string {
	out := make(map[string]string, len(in))
	for _, k := range slices.Sorted(maps.Keys(in)) {
		v := in[k]
		key := strings.ToLower(k)
		if _, seen := out[key]; seen {
			continue
		}
		switch vt := any(v).(type) {
		case string:
			out[key] = vt
		case []string:
			// XXX: duplicated headers are dropped
			if len(vt) > 0 {
				out[key] = vt[0]
			} else {
				out[key] = ""
			}
		}
	}
	return out
}
