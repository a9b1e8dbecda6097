package httpx

import (
	"net/http"
	"net/url"
	"strconv"
)

// PageMeta identifies the page being rendered.
type PageMeta struct {
	Title       string
	CurrentPage string
}

// PaginationData contains offset pagination information for list views.
type PaginationData struct {
	Limit    int
	Offset   int
	HasNext  bool
	BasePath string
}

// TemplateDataBuilder provides a fluent API for building template data maps.
type TemplateDataBuilder struct {
	data map[string]any
	r    *http.Request
}

// NewTemplateData creates a new TemplateDataBuilder initialized with basePageData.
func NewTemplateData(r *http.Request, meta PageMeta) *TemplateDataBuilder {
	return &TemplateDataBuilder{
		data: basePageData(r, meta),
		r:    r,
	}
}

func basePageData(r *http.Request, meta PageMeta) map[string]any {
	sess := GetSessionFromContext(r.Context())
	return map[string]any{
		"Title":       meta.Title,
		"CurrentPage": meta.CurrentPage,
		"Session":     sess,
		"IsAdmin":     sess != nil && sess.IsAdmin,
		"RequestID":   RequestIDFromContext(r.Context()),
		"CSRFToken":   CSRFTokenFromContext(r.Context()),
	}
}

// WithPagination adds Prev/Next URLs preserving the current query.
func (b *TemplateDataBuilder) WithPagination(p PaginationData) *TemplateDataBuilder {
	if p.Offset > 0 {
		prev := max(p.Offset-p.Limit, 0)
		b.data["PrevURL"] = pageURL(p.BasePath, b.r.URL.Query(), p.Limit, prev)
	}
	if p.HasNext {
		b.data["NextURL"] = pageURL(p.BasePath, b.r.URL.Query(), p.Limit, p.Offset+p.Limit)
	}
	return b
}

func pageURL(base string, q url.Values, limit, offset int) string {
	out := url.Values{}
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	out.Set("limit", strconv.Itoa(limit))
	out.Set("offset", strconv.Itoa(offset))
	return base + "?" + out.Encode()
}

// WithError sets a general error message.
func (b *TemplateDataBuilder) WithError(msg string) *TemplateDataBuilder {
	b.data["Error"] = true
	b.data["ErrorMessage"] = msg
	return b
}

// With adds a custom field to the template data.
func (b *TemplateDataBuilder) With(key string, value any) *TemplateDataBuilder {
	b.data[key] = value
	return b
}

// Build returns the final template data map.
func (b *TemplateDataBuilder) Build() map[string]any {
	return b.data
}
