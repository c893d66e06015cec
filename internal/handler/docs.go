package handler

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"
	"os"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/optimistic-todo/pkg/respond"
)

//go:embed docs_template.html
var docsTemplateSrc string

var docsTemplate = template.Must(template.New("docs").Parse(docsTemplateSrc))

// DocsHandler renders a markdown file as an HTML page. The file is re-read on
// every request so edits show up without a restart.
type DocsHandler struct {
	path   string
	md     goldmark.Markdown
	logger *zap.Logger
}

func NewDocsHandler(path string, logger *zap.Logger) *DocsHandler {
	return &DocsHandler{
		path: path,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Typographer),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		logger: logger,
	}
}

func (h *DocsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	page, err := h.render()
	if err != nil {
		h.logger.Error("failed to render docs", zap.String("path", h.path), zap.Error(err))
		http.Error(w, "Error rendering documentation", http.StatusInternalServerError)
		return
	}
	respond.HTML(w, r, http.StatusOK, page)
}

func (h *DocsHandler) render() ([]byte, error) {
	src, err := os.ReadFile(h.path)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	if err := h.md.Convert(src, &body); err != nil {
		return nil, err
	}

	var page bytes.Buffer
	if err := docsTemplate.Execute(&page, struct{ Content template.HTML }{template.HTML(body.String())}); err != nil {
		return nil, err
	}
	return page.Bytes(), nil
}
