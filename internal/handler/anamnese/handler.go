package anamnese

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/anamnese-api/internal/middleware"
	"github.com/jwalitptl/anamnese-api/internal/model"
	"github.com/jwalitptl/anamnese-api/internal/service/export"
	apperrors "github.com/jwalitptl/anamnese-api/pkg/errors"
	"github.com/jwalitptl/anamnese-api/pkg/httputil"
	"github.com/jwalitptl/anamnese-api/pkg/metrics"
)

// RecordService is the record store as seen by the transport.
type RecordService interface {
	Now() time.Time
	Create(ctx context.Context, user *model.User, input *model.AnamneseInput) (*model.Anamnese, error)
	List(ctx context.Context, user *model.User, search string) ([]*model.Anamnese, error)
	Get(ctx context.Context, user *model.User, rawID string) (*model.Anamnese, error)
	Update(ctx context.Context, user *model.User, rawID string, patch *model.AnamnesePatch) (*model.Anamnese, error)
	Delete(ctx context.Context, user *model.User, rawID string) error
}

type SummaryService interface {
	Generate(ctx context.Context, user *model.User, rawID string) (string, error)
}

type Handler struct {
	records  RecordService
	summary  SummaryService
	metrics  *metrics.Metrics
	auth     middleware.Authenticator
	auditLog *middleware.AuditMiddleware
}

func NewHandler(records RecordService, summary SummaryService, auth middleware.Authenticator, audit *middleware.AuditMiddleware, m *metrics.Metrics) *Handler {
	return &Handler{
		records:  records,
		summary:  summary,
		metrics:  m,
		auth:     auth,
		auditLog: audit,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	anamneses := r.Group("/anamneses", middleware.RequireAuth(h.auth))
	if h.auditLog != nil {
		anamneses.Use(h.auditLog.AuditLog("anamnese"))
	}
	{
		anamneses.POST("", h.CreateAnamnese)
		anamneses.GET("", h.ListAnamneses)
		anamneses.GET("/:id", h.GetAnamnese)
		anamneses.PUT("/:id", h.UpdateAnamnese)
		anamneses.DELETE("/:id", h.DeleteAnamnese)
		anamneses.POST("/:id/generate-summary", h.GenerateSummary)
		anamneses.GET("/:id/pdf", h.ExportPDF)
		anamneses.GET("/:id/json", h.ExportJSON)
	}
}

type summaryResponse struct {
	ResumoClinico string `json:"resumo_clinico"`
}

func (h *Handler) CreateAnamnese(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("failed to read request body", err))
		return
	}

	input, err := model.ValidateInput(body, h.records.Now())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	record, err := h.records.Create(c.Request.Context(), middleware.CurrentUser(c), input)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, record)
}

func (h *Handler) ListAnamneses(c *gin.Context) {
	list, err := h.records.List(c.Request.Context(), middleware.CurrentUser(c), c.Query("search"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if list == nil {
		list = []*model.Anamnese{}
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) GetAnamnese(c *gin.Context) {
	record, err := h.records.Get(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, record)
}

func (h *Handler) UpdateAnamnese(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("failed to read request body", err))
		return
	}

	patch, err := model.ValidatePatch(body, h.records.Now())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	record, err := h.records.Update(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), patch)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, record)
}

func (h *Handler) DeleteAnamnese(c *gin.Context) {
	if err := h.records.Delete(c.Request.Context(), middleware.CurrentUser(c), c.Param("id")); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "Anamnese deleted")
}

func (h *Handler) GenerateSummary(c *gin.Context) {
	text, err := h.summary.Generate(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, summaryResponse{ResumoClinico: text})
}

func (h *Handler) ExportPDF(c *gin.Context) {
	h.export(c, "pdf", "application/pdf", export.PDF)
}

func (h *Handler) ExportJSON(c *gin.Context) {
	h.export(c, "json", "application/json", export.JSON)
}

func (h *Handler) export(c *gin.Context, format, contentType string, render func(*model.Anamnese) ([]byte, error)) {
	record, err := h.records.Get(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	data, err := render(record)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Internal(fmt.Errorf("failed to render %s export: %w", format, err)))
		return
	}

	h.metrics.ObserveExport(format)
	httputil.RespondWithAttachment(c, contentType, fmt.Sprintf("anamnese_%s.%s", record.ID, format), data)
}
