package server

import (
	"context"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/livepage/errors"
	"github.com/kbukum/livepage/logger"
	"github.com/kbukum/livepage/page"
	"github.com/kbukum/livepage/registry"
	"github.com/kbukum/livepage/server/middleware"
	"github.com/kbukum/livepage/sse"
)

const (
	queryUpdates = "updates"
	queryStatic  = "static"
	queryTitle   = "title"

	defaultContentType = "application/octet-stream"
)

// pageHandler serves every path outside the system prefix as a page.
type pageHandler struct {
	reg *registry.Registry
	log *logger.Logger
}

// RegisterPages makes every unrouted path a page backed by reg. Open event
// streams are ended when the server shuts down.
func (s *Server) RegisterPages(reg *registry.Registry) {
	h := &pageHandler{reg: reg, log: s.log}
	s.engine.SetHTMLTemplate(shellTemplate)
	s.engine.NoRoute(h.serve)
	s.OnShutdown(func() { reg.CloseAll(context.Background()) })
}

func (h *pageHandler) serve(c *gin.Context) {
	path := c.Request.URL.Path
	if strings.HasPrefix(path, middleware.SystemPrefix) {
		RespondWithError(c, apperrors.NotFound("endpoint", path))
		return
	}

	switch c.Request.Method {
	case http.MethodGet, http.MethodHead:
		if c.Request.URL.Query().Has(queryUpdates) {
			if c.Request.Method == http.MethodHead {
				h.streamHead(c, path)
				return
			}
			h.stream(c, path)
			return
		}
		h.get(c, path)
	case http.MethodPost:
		if c.Request.URL.Query().Has(queryStatic) {
			h.postStatic(c, path)
			return
		}
		h.postLive(c, path)
	default:
		c.Header("Allow", "GET, HEAD, POST")
		RespondWithError(c, apperrors.MethodNotAllowed(c.Request.Method))
	}
}

func (h *pageHandler) get(c *gin.Context, path string) {
	var view page.View
	err := h.reg.With(c.Request.Context(), path, func(p *page.Content) {
		view = p.View()
	})
	if err != nil {
		return
	}

	if !view.Live {
		contentType := defaultContentType
		if view.ContentType != nil {
			contentType = *view.ContentType
		}
		c.Data(http.StatusOK, contentType, view.Data)
		return
	}

	c.HTML(http.StatusOK, shellTemplateName, shellData{
		Title:   view.Title,
		Body:    template.HTML(view.Body), //nolint:gosec // page bodies are HTML by contract
		Updates: path + "?" + queryUpdates,
	})
}

// streamHead answers HEAD for an event stream with its headers only. The
// page gets no subscriber.
func (h *pageHandler) streamHead(c *gin.Context, path string) {
	var live bool
	err := h.reg.With(c.Request.Context(), path, func(p *page.Content) {
		live = p.View().Live
	})
	if err != nil {
		return
	}
	if !live {
		RespondWithError(c, apperrors.NotFound("live page", path))
		return
	}
	sse.SetHeaders(c.Writer.Header())
	c.Status(http.StatusOK)
}

func (h *pageHandler) stream(c *gin.Context, path string) {
	ctx := c.Request.Context()

	var client *sse.Client
	var subErr error
	err := h.reg.With(ctx, path, func(p *page.Content) {
		client, subErr = p.Subscribe(ctx)
	})
	if err != nil {
		return
	}
	switch {
	case errors.Is(subErr, page.ErrNotLive):
		RespondWithError(c, apperrors.NotFound("live page", path))
		return
	case errors.Is(subErr, sse.ErrHubClosed):
		RespondWithError(c, apperrors.ServiceUnavailable("page"))
		return
	case subErr != nil:
		RespondWithError(c, subErr)
		return
	}

	sse.Stream(c.Writer, c.Request, client)
}

func (h *pageHandler) postLive(c *gin.Context, path string) {
	body, ok := h.readBody(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	title := c.Query(queryTitle)

	err := h.reg.With(ctx, path, func(p *page.Content) {
		p.SetBody(ctx, string(body))
		p.SetTitle(ctx, title)
	})
	if err != nil {
		return
	}
	RespondNoContent(c)
}

func (h *pageHandler) postStatic(c *gin.Context, path string) {
	body, ok := h.readBody(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	// A request without the header stores no type; an empty header is kept.
	var contentType *string
	if values := c.Request.Header.Values("Content-Type"); len(values) > 0 {
		contentType = &values[0]
	}

	err := h.reg.With(ctx, path, func(p *page.Content) {
		p.SetStatic(ctx, contentType, body)
	})
	if err != nil {
		return
	}
	RespondNoContent(c)
}

func (h *pageHandler) readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Debug("reading page body failed", logger.Fields(
			logger.FieldPath, c.Request.URL.Path,
			logger.FieldError, err.Error(),
		))
		var maxBytes *http.MaxBytesError
		if !errors.As(err, &maxBytes) {
			err = apperrors.InvalidInput("body", "could not read request body")
		}
		RespondWithError(c, err)
		return nil, false
	}
	return body, true
}
