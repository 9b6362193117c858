package shared

import (
	"net/http"
	"strconv"
	"strings"
)

// CurrentUserID extracts the numeric user ID from the request session. The
// second return is false when the request carries no authenticated identity.
func CurrentUserID(r *http.Request) (int64, bool) {
	sess := SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
