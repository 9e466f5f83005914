package handlers

import "strings"

// SanitizeError prepares an error message for a client response. Driver
// errors can echo the configured endpoint with its basic-auth credentials,
// and cursor errors can echo the request URL whose query string carries AQL
// text. Both are masked before the message leaves the process.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	fields := strings.Fields(err.Error())
	for i, f := range fields {
		if strings.Contains(f, "://") {
			fields[i] = sanitizeURL(f)
		}
	}
	return strings.Join(fields, " ")
}

// sanitizeURL masks the userinfo of one URL-shaped token and drops its query
// string.
func sanitizeURL(u string) string {
	if q := strings.Index(u, "?"); q >= 0 {
		u = u[:q] + "?..."
	}
	scheme := strings.Index(u, "://") + 3
	rest := u[scheme:]
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		u = u[:scheme] + "***@" + rest[at+1:]
	}
	return u
}
