package olsdk

import (
	"html"
	"strings"
)

// The login and dashboard pages embed the values we need as plain HTML
// attributes or a single JSON script tag. The extractions below are anchored
// single-occurrence scans, which keeps the client free of an HTML parser.

// extractAttr scans an HTML document for the first tag containing anchor and
// returns the value of attr within that tag.
func extractAttr(doc, anchor, attr string) string {
	i := strings.Index(doc, anchor)
	if i < 0 {
		return ""
	}

	end := strings.Index(doc[i:], ">")
	if end < 0 {
		return ""
	}
	tag := doc[i : i+end]

	j := strings.Index(tag, attr+`="`)
	if j < 0 {
		return ""
	}
	rest := tag[j+len(attr)+2:]

	k := strings.Index(rest, `"`)
	if k < 0 {
		return ""
	}
	return html.UnescapeString(rest[:k])
}

// extractCSRF pulls the CSRF token out of a login page. Overleaf has shipped
// it both as a hidden form input and as a meta tag over the years.
func extractCSRF(doc string) string {
	if v := extractAttr(doc, `name="_csrf"`, "value"); v != "" {
		return v
	}
	return extractAttr(doc, `name="ol-csrfToken"`, "content")
}

// extractProjectsJSON pulls the embedded project-listing JSON out of the
// dashboard page: either the legacy `<script id="data">` body or the
// `ol-prefetchedProjectsBlob` meta content.
func extractProjectsJSON(doc string) string {
	if i := strings.Index(doc, `id="data"`); i >= 0 {
		start := strings.Index(doc[i:], ">")
		if start < 0 {
			return ""
		}
		body := doc[i+start+1:]
		end := strings.Index(body, "</script>")
		if end < 0 {
			return ""
		}
		return strings.TrimSpace(body[:end])
	}

	if v := extractAttr(doc, `name="ol-prefetchedProjectsBlob"`, "content"); v != "" {
		return v
	}
	return extractAttr(doc, `name="ol-projects"`, "content")
}
