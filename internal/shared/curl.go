// Utilities for rendering HTTP requests as cURL commands.
package shared

import (
	"net/http"
	"sort"
	"strings"
)

// BuildCurlCommand renders an equivalent curl invocation for a request, with
// headers in sorted order so output is stable. Used by the api command's
// --curl flag so operators can replay requests outside the tool.
func BuildCurlCommand(method, rawURL string, headers map[string]string) string {
	parts := []string{"curl"}

	if method != "" && method != http.MethodGet {
		parts = append(parts, "-X", method)
	}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		parts = append(parts, "-H", QuoteShell(k+": "+headers[k]))
	}

	parts = append(parts, QuoteShell(rawURL))
	return strings.Join(parts, " ")
}

// RedactToken replaces the X-Plex-Token value in a rendered command so it can
// be logged or shared without leaking credentials.
func RedactToken(cmd, token string) string {
	if token == "" {
		return cmd
	}
	return strings.ReplaceAll(cmd, token, "REDACTED")
}
