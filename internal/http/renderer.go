package httpx

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

//go:embed views
var viewsFS embed.FS

// ViewsFS returns the embedded page templates.
func ViewsFS() fs.FS {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	return sub
}

// TemplateRenderer renders HTML templates for UI responses.
type TemplateRenderer struct {
	t      *template.Template
	logger *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS        // defaults to the embedded views
	Logger     *slog.Logger // Logger for template errors (optional)
}

// NewTemplateRenderer constructs a renderer by parsing layout.tmpl and pages/*.tmpl.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	fsys := cfg.TemplateFS
	if fsys == nil {
		fsys = ViewsFS()
	}

	renderer := &TemplateRenderer{logger: cfg.Logger}

	var t *template.Template
	var err error
	t, err = template.New("root").Funcs(templateFuncs(&t)).ParseFS(fsys, "*.tmpl", "pages/*.tmpl")
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Error("template parsing failed",
				slog.Any("error", err),
				slog.String("phase", "initialization"),
			)
		}
		return nil, err
	}
	renderer.t = t
	return renderer, nil
}

// RenderFull renders the full page (layout + page content) with a 200 status.
func (r *TemplateRenderer) RenderFull(w http.ResponseWriter, _ *http.Request, data any) error {
	return r.renderTemplate(w, http.StatusOK, data)
}

// RenderStatus renders the full page with the given status.
func (r *TemplateRenderer) RenderStatus(w http.ResponseWriter, status int, data any) error {
	return r.renderTemplate(w, status, data)
}

func (r *TemplateRenderer) renderTemplate(w http.ResponseWriter, status int, data any) error {
	const templateName = "layout"
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, templateName, data); err != nil {
		r.logTemplateError(templateName, err)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		if r.logger != nil {
			r.logger.Error("failed to write rendered template",
				slog.String("template", templateName),
				slog.Any("error", err),
			)
		}
		return err
	}

	return nil
}

// logTemplateError logs a template execution error with context.
func (r *TemplateRenderer) logTemplateError(templateName string, err error) {
	if r.logger == nil || err == nil {
		return
	}
	r.logger.Error("template execution failed",
		slog.String("template", templateName),
		slog.Any("error", err),
	)
}

func templateFuncs(t **template.Template) template.FuncMap {
	return template.FuncMap{
		"renderSection": func(page string, data any) (template.HTML, error) {
			if t == nil || *t == nil {
				return "", errors.New("template not initialized")
			}
			var buf bytes.Buffer
			if err := (*t).ExecuteTemplate(&buf, ContentTemplateFor(page), data); err != nil {
				return "", err
			}
			// #nosec G203 - rendered by our own html/template set; values were escaped above.
			return template.HTML(buf.String()), nil
		},
		"friendlyTime": func(v any) string {
			switch ts := v.(type) {
			case time.Time:
				if ts.IsZero() {
					return ""
				}
				return ts.UTC().Format("2 Jan 2006 15:04 MST")
			case int64:
				return time.Unix(ts, 0).UTC().Format("2 Jan 2006 15:04 MST")
			default:
				return ""
			}
		},
		"join": strings.Join,
	}
}
