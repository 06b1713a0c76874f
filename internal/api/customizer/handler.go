package customizer

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront-customizer/internal/app/http/middleware"
	"storefront-customizer/internal/customizer"
	"storefront-customizer/internal/domain/layout"
	"storefront-customizer/internal/infra/logger"
)

// Handler exposes customizer.Service over HTTP.
type Handler struct {
	svc *customizer.Service
	log *logger.Logger
}

func NewHandler(svc *customizer.Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log.With("handler", "customizer")}
}

// Register mounts the routes on an authenticated group.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("/pages/:page_type", h.GetDraft)
	g.GET("/pages/:page_type/preview", h.PreviewDraft)
	g.PUT("/pages/:page_type/draft", h.SaveDraft)
	g.DELETE("/pages/:page_type/draft", h.DiscardDraft)
	g.POST("/pages/:page_type/publish", h.Publish)
	g.POST("/pages/:page_type/sections", h.AddSection)

	g.PATCH("/sections/:id", h.UpdateSection)
	g.DELETE("/sections/:id", h.DeleteSection)
	g.POST("/sections/:id/blocks", h.AddBlock)
	g.PATCH("/blocks/:id", h.UpdateBlock)
	g.DELETE("/blocks/:id", h.DeleteBlock)

	g.GET("/pages/:page_type/versions", h.ListVersions)
	g.POST("/pages/:page_type/versions", h.CreateSnapshot)
	g.POST("/pages/:page_type/versions/:version_id/restore", h.RestoreVersion)

	g.GET("/theme-settings", h.GetThemeSettings)
	g.PUT("/theme-settings", h.SaveThemeSettings)
}

// pageRef reads the page from the path and the handle from ?handle=, falling
// back to the body's handle.
func pageRef(c *gin.Context, bodyHandle string) customizer.PageRef {
	handle := c.Query("handle")
	if handle == "" {
		handle = bodyHandle
	}
	return customizer.PageRef{PageType: c.Param("page_type"), PageHandle: handle}
}

func idParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		reject(c, layout.CodeValidation)
		return 0, false
	}
	return uint(v), true
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		reject(c, layout.CodeValidation)
		return false
	}
	return true
}

// ------------------------------
// pages
// ------------------------------

func (h *Handler) GetDraft(c *gin.Context) {
	res := h.svc.GetDraft(c.Request.Context(), middleware.IdentityFrom(c), pageRef(c, ""))
	respond(c, http.StatusOK, res)
}

func (h *Handler) PreviewDraft(c *gin.Context) {
	res := h.svc.PreviewDraft(c.Request.Context(), middleware.IdentityFrom(c), pageRef(c, ""), c.Query("device"))
	respond(c, http.StatusOK, res)
}

func (h *Handler) SaveDraft(c *gin.Context) {
	var req SaveDraftRequest
	if !bind(c, &req) {
		return
	}
	sections := make([]layout.SectionInput, 0, len(req.Sections))
	for _, s := range req.Sections {
		sections = append(sections, s.input())
	}
	var css *string
	if req.CustomCSS != nil {
		v := cleanCSS(*req.CustomCSS)
		css = &v
	}
	res := h.svc.SaveDraft(c.Request.Context(), middleware.IdentityFrom(c), customizer.SaveDraftRequest{
		Page:      pageRef(c, req.Handle),
		Sections:  sections,
		CustomCSS: css,
	})
	respond(c, http.StatusOK, res)
}

func (h *Handler) DiscardDraft(c *gin.Context) {
	res := h.svc.DiscardDraft(c.Request.Context(), middleware.IdentityFrom(c), pageRef(c, ""))
	respond(c, http.StatusOK, res)
}

func (h *Handler) Publish(c *gin.Context) {
	res := h.svc.Publish(c.Request.Context(), middleware.IdentityFrom(c), pageRef(c, ""))
	if res.Success && len(res.Data.Warnings) > 0 {
		h.log.Warn("published with warnings", "layout_id", res.Data.LayoutID, "warnings", len(res.Data.Warnings))
	}
	respond(c, http.StatusOK, res)
}

// ------------------------------
// sections & blocks
// ------------------------------

func (h *Handler) AddSection(c *gin.Context) {
	var req AddSectionRequest
	if !bind(c, &req) {
		return
	}
	res := h.svc.AddSection(c.Request.Context(), middleware.IdentityFrom(c), customizer.AddSectionRequest{
		Page:        pageRef(c, req.Handle),
		SectionType: layout.SectionType(strings.TrimSpace(req.SectionType)),
		SectionID:   req.SectionID,
		Settings:    req.Settings,
		Position:    req.Position,
		Blocks:      blockInputs(req.Blocks),
	})
	respond(c, http.StatusCreated, res)
}

func (h *Handler) UpdateSection(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req UpdateSectionRequest
	if !bind(c, &req) {
		return
	}
	res := h.svc.UpdateSection(c.Request.Context(), middleware.IdentityFrom(c), id, req.patch())
	respond(c, http.StatusOK, res)
}

func (h *Handler) DeleteSection(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res := h.svc.DeleteSection(c.Request.Context(), middleware.IdentityFrom(c), id)
	respond(c, http.StatusOK, res)
}

func (h *Handler) AddBlock(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req AddBlockRequest
	if !bind(c, &req) {
		return
	}
	res := h.svc.AddBlock(c.Request.Context(), middleware.IdentityFrom(c), id, customizer.AddBlockRequest{
		Block:    req.BlockDTO.input(),
		Position: req.Position,
	})
	respond(c, http.StatusCreated, res)
}

func (h *Handler) UpdateBlock(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req UpdateBlockRequest
	if !bind(c, &req) {
		return
	}
	res := h.svc.UpdateBlock(c.Request.Context(), middleware.IdentityFrom(c), id, req.patch())
	respond(c, http.StatusOK, res)
}

func (h *Handler) DeleteBlock(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res := h.svc.DeleteBlock(c.Request.Context(), middleware.IdentityFrom(c), id)
	respond(c, http.StatusOK, res)
}

// ------------------------------
// versions
// ------------------------------

func (h *Handler) ListVersions(c *gin.Context) {
	res := h.svc.ListVersions(c.Request.Context(), middleware.IdentityFrom(c), pageRef(c, ""))
	respond(c, http.StatusOK, res)
}

func (h *Handler) CreateSnapshot(c *gin.Context) {
	var req SnapshotRequest
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}
	res := h.svc.CreateManualSnapshot(c.Request.Context(), middleware.IdentityFrom(c), pageRef(c, req.Handle), req.Notes)
	respond(c, http.StatusCreated, res)
}

func (h *Handler) RestoreVersion(c *gin.Context) {
	versionID, ok := idParam(c, "version_id")
	if !ok {
		return
	}
	res := h.svc.RestoreVersion(c.Request.Context(), middleware.IdentityFrom(c), pageRef(c, ""), versionID)
	respond(c, http.StatusOK, res)
}

// ------------------------------
// theme settings
// ------------------------------

func (h *Handler) GetThemeSettings(c *gin.Context) {
	respond(c, http.StatusOK, h.svc.GetThemeSettings(c.Request.Context(), middleware.IdentityFrom(c)))
}

func (h *Handler) SaveThemeSettings(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		reject(c, layout.CodeValidation)
		return
	}
	respond(c, http.StatusOK, h.svc.SaveThemeSettings(c.Request.Context(), middleware.IdentityFrom(c), json.RawMessage(raw)))
}
