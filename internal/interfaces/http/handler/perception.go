package handler

import (
	"context"

	perceptionapp "github.com/erp/perception/internal/application/perception"
	"github.com/erp/perception/internal/domain/trade"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PerceptionService is the application surface the handler drives
type PerceptionService interface {
	ApplyManually(ctx context.Context, tenantID uuid.UUID, kind trade.Kind, id uuid.UUID) (*perceptionapp.ApplyResult, error)
	Summary(ctx context.Context, tenantID uuid.UUID, kind trade.Kind, id uuid.UUID) (*perceptionapp.SummaryResponse, error)
	AddLine(ctx context.Context, tenantID uuid.UUID, kind trade.Kind, id uuid.UUID, req perceptionapp.AddLineRequest) (*perceptionapp.DocumentResponse, error)
	UpdateLine(ctx context.Context, tenantID uuid.UUID, kind trade.Kind, id, lineID uuid.UUID, req perceptionapp.UpdateLineRequest) (*perceptionapp.DocumentResponse, error)
	RemoveLine(ctx context.Context, tenantID uuid.UUID, kind trade.Kind, id, lineID uuid.UUID) (*perceptionapp.DocumentResponse, error)
	ChangeParty(ctx context.Context, tenantID uuid.UUID, kind trade.Kind, id uuid.UUID, req perceptionapp.ChangePartyRequest) (*perceptionapp.DocumentResponse, error)
	Confirm(ctx context.Context, tenantID uuid.UUID, kind trade.Kind, id uuid.UUID) (*perceptionapp.DocumentResponse, error)
	CreatePOSOrder(ctx context.Context, tenantID uuid.UUID, input perceptionapp.PosOrderInput) (*perceptionapp.PosOrderResponse, error)
	PostInvoice(ctx context.Context, tenantID, id uuid.UUID) (*perceptionapp.DocumentResponse, error)
	SetupAccounts(ctx context.Context, tenantID uuid.UUID) (*perceptionapp.SetupResult, error)
}

var _ PerceptionService = (*perceptionapp.Service)(nil)

// PerceptionHandler handles the RG 5329 perception endpoints
type PerceptionHandler struct {
	BaseHandler
	service PerceptionService
}

// NewPerceptionHandler creates a new PerceptionHandler
func NewPerceptionHandler(service PerceptionService) *PerceptionHandler {
	return &PerceptionHandler{service: service}
}

// RegisterRoutes mounts the perception routes under /perception
func (h *PerceptionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/perception")

	docs := g.Group("/documents/:kind/:id")
	docs.POST("/apply", h.Apply)
	docs.GET("/summary", h.Summary)
	docs.POST("/confirm", h.Confirm)
	docs.POST("/lines", h.AddLine)
	docs.PATCH("/lines/:lineId", h.UpdateLine)
	docs.DELETE("/lines/:lineId", h.RemoveLine)
	docs.PUT("/party", h.ChangeParty)

	g.POST("/pos-orders", h.CreatePOSOrder)
	g.POST("/invoices/:id/post", h.PostInvoice)
	g.POST("/setup/accounts", h.SetupAccounts)
}

// Apply runs the manual "apply RG 5329" action.
// A failed apply is still a 200 carrying a danger notification.
// POST /api/v1/perception/documents/:kind/:id/apply
func (h *PerceptionHandler) Apply(c *gin.Context) {
	tenantID, kind, id, ok := h.documentParams(c)
	if !ok {
		return
	}
	result, err := h.service.ApplyManually(c.Request.Context(), tenantID, kind, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Summary returns the perception base and total of a document
// GET /api/v1/perception/documents/:kind/:id/summary
func (h *PerceptionHandler) Summary(c *gin.Context) {
	tenantID, kind, id, ok := h.documentParams(c)
	if !ok {
		return
	}
	summary, err := h.service.Summary(c.Request.Context(), tenantID, kind, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Confirm confirms a document, restoring perception taxes stripped on the way
// POST /api/v1/perception/documents/:kind/:id/confirm
func (h *PerceptionHandler) Confirm(c *gin.Context) {
	tenantID, kind, id, ok := h.documentParams(c)
	if !ok {
		return
	}
	doc, err := h.service.Confirm(c.Request.Context(), tenantID, kind, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// AddLine adds a line to a draft document
// POST /api/v1/perception/documents/:kind/:id/lines
func (h *PerceptionHandler) AddLine(c *gin.Context) {
	tenantID, kind, id, ok := h.documentParams(c)
	if !ok {
		return
	}
	var req perceptionapp.AddLineRequest
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := h.service.AddLine(c.Request.Context(), tenantID, kind, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// UpdateLine edits a document line
// PATCH /api/v1/perception/documents/:kind/:id/lines/:lineId
func (h *PerceptionHandler) UpdateLine(c *gin.Context) {
	tenantID, kind, id, ok := h.documentParams(c)
	if !ok {
		return
	}
	lineID, err := uuid.Parse(c.Param("lineId"))
	if err != nil {
		h.BadRequest(c, "Invalid line ID format")
		return
	}
	var req perceptionapp.UpdateLineRequest
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := h.service.UpdateLine(c.Request.Context(), tenantID, kind, id, lineID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// RemoveLine deletes a document line
// DELETE /api/v1/perception/documents/:kind/:id/lines/:lineId
func (h *PerceptionHandler) RemoveLine(c *gin.Context) {
	tenantID, kind, id, ok := h.documentParams(c)
	if !ok {
		return
	}
	lineID, err := uuid.Parse(c.Param("lineId"))
	if err != nil {
		h.BadRequest(c, "Invalid line ID format")
		return
	}
	doc, err := h.service.RemoveLine(c.Request.Context(), tenantID, kind, id, lineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// ChangeParty reassigns the customer or vendor of a document
// PUT /api/v1/perception/documents/:kind/:id/party
func (h *PerceptionHandler) ChangeParty(c *gin.Context) {
	tenantID, kind, id, ok := h.documentParams(c)
	if !ok {
		return
	}
	var req perceptionapp.ChangePartyRequest
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := h.service.ChangeParty(c.Request.Context(), tenantID, kind, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// CreatePOSOrder stores an order pushed by the point of sale
// POST /api/v1/perception/pos-orders
func (h *PerceptionHandler) CreatePOSOrder(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	var input perceptionapp.PosOrderInput
	if !h.BindJSON(c, &input) {
		return
	}
	order, err := h.service.CreatePOSOrder(c.Request.Context(), tenantID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// PostInvoice posts an invoice and writes its perception journal items
// POST /api/v1/perception/invoices/:id/post
func (h *PerceptionHandler) PostInvoice(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}
	doc, err := h.service.PostInvoice(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// SetupAccounts creates the perception liability account and links the taxes to it
// POST /api/v1/perception/setup/accounts
func (h *PerceptionHandler) SetupAccounts(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	result, err := h.service.SetupAccounts(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// documentParams parses tenant, kind and id, answering 400 when one is malformed
func (h *PerceptionHandler) documentParams(c *gin.Context) (uuid.UUID, trade.Kind, uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return uuid.Nil, "", uuid.Nil, false
	}
	kind := trade.Kind(c.Param("kind"))
	if !kind.IsValid() {
		h.BadRequest(c, "Unknown document kind: "+c.Param("kind"))
		return uuid.Nil, "", uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return uuid.Nil, "", uuid.Nil, false
	}
	return tenantID, kind, id, true
}
