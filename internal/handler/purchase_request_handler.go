package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/propertypulse/backend/internal/middleware"
	"github.com/propertypulse/backend/internal/model"
	"github.com/propertypulse/backend/internal/service"
)

type PurchaseRequestHandler struct {
	svc service.PurchaseRequestService
}

func NewPurchaseRequestHandler(svc service.PurchaseRequestService) *PurchaseRequestHandler {
	return &PurchaseRequestHandler{svc: svc}
}

type PurchaseRequestResponse struct {
	ID            uint64  `json:"id"`
	PropertyID    uint64  `json:"propertyId"`
	PropertyTitle string  `json:"propertyTitle"`
	TenantID      uint64  `json:"tenantId"`
	TenantName    string  `json:"tenantName"`
	LandlordID    uint64  `json:"landlordId"`
	LandlordName  string  `json:"landlordName"`
	RequestDate   string  `json:"requestDate"`
	Status        string  `json:"status"`
	ResponseDate  *string `json:"responseDate,omitempty"`
	ResponseNotes string  `json:"responseNotes,omitempty"`
	PurchasePrice string  `json:"purchasePrice"`
	OrderID       string  `json:"paymentOrderId,omitempty"`
	PaymentID     string  `json:"paymentTransactionId,omitempty"`
	PaymentStatus string  `json:"paymentStatus,omitempty"`
	PaymentDate   *string `json:"paymentDate,omitempty"`
	InvoiceURL    string  `json:"invoiceUrl,omitempty"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

func toPurchaseRequestResponse(r *model.PurchaseRequest) PurchaseRequestResponse {
	formatPtr := func(t *time.Time) *string {
		if t == nil {
			return nil
		}
		val := t.Format(time.RFC3339)
		return &val
	}
	return PurchaseRequestResponse{
		ID:            r.ID,
		PropertyID:    r.PropertyID,
		PropertyTitle: r.PropertyTitle,
		TenantID:      r.TenantID,
		TenantName:    r.TenantName,
		LandlordID:    r.LandlordID,
		LandlordName:  r.LandlordName,
		RequestDate:   r.RequestDate.Format(time.RFC3339),
		Status:        string(r.Status),
		ResponseDate:  formatPtr(r.ResponseDate),
		ResponseNotes: r.ResponseNotes,
		PurchasePrice: r.PurchasePrice.String(),
		OrderID:       r.PaymentOrderID,
		PaymentID:     r.PaymentTransactionID,
		PaymentStatus: string(r.PaymentStatus),
		PaymentDate:   formatPtr(r.PaymentDate),
		InvoiceURL:    r.InvoiceURL,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     r.UpdatedAt.Format(time.RFC3339),
	}
}

func (h *PurchaseRequestHandler) Create(c echo.Context) error {
	actor := middleware.ActingUser(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing user"))
	}
	propertyID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid property id"))
	}
	req, err := h.svc.Create(c.Request().Context(), propertyID, actor)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toPurchaseRequestResponse(req))
}

func (h *PurchaseRequestHandler) UpdateStatus(c echo.Context) error {
	actor := middleware.ActingUser(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing user"))
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid request id"))
	}
	var body struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	req, err := h.svc.UpdateStatus(c.Request().Context(), id, model.PurchaseRequestStatus(body.Status), body.Notes, actor)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toPurchaseRequestResponse(req))
}

func (h *PurchaseRequestHandler) InitiatePayment(c echo.Context) error {
	actor := middleware.ActingUser(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing user"))
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid request id"))
	}
	req, err := h.svc.InitiatePayment(c.Request().Context(), id, actor)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toPurchaseRequestResponse(req))
}

func (h *PurchaseRequestHandler) ProcessPayment(c echo.Context) error {
	actor := middleware.ActingUser(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing user"))
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid request id"))
	}
	var body struct {
		PaymentID string `json:"paymentId"`
		Signature string `json:"signature"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if body.PaymentID == "" || body.Signature == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "paymentId and signature are required"))
	}
	req, err := h.svc.ProcessPayment(c.Request().Context(), id, body.PaymentID, body.Signature, actor)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toPurchaseRequestResponse(req))
}

func (h *PurchaseRequestHandler) Cancel(c echo.Context) error {
	actor := middleware.ActingUser(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing user"))
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid request id"))
	}
	req, err := h.svc.Cancel(c.Request().Context(), id, actor)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toPurchaseRequestResponse(req))
}

func (h *PurchaseRequestHandler) Get(c echo.Context) error {
	actor := middleware.ActingUser(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing user"))
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid request id"))
	}
	req, err := h.svc.Get(c.Request().Context(), id, actor)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toPurchaseRequestResponse(req))
}

func (h *PurchaseRequestHandler) Invoice(c echo.Context) error {
	actor := middleware.ActingUser(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing user"))
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid request id"))
	}
	url, err := h.svc.InvoiceURL(c.Request().Context(), id, actor)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"invoiceUrl": url})
}

func (h *PurchaseRequestHandler) ListForTenant(c echo.Context) error {
	actor := middleware.ActingUser(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing user"))
	}
	page, size := pageParams(c)
	list, err := h.svc.ListByTenant(c.Request().Context(), actor, page, size)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch purchase requests"))
	}
	return c.JSON(http.StatusOK, toPurchaseRequestResponses(list))
}

func (h *PurchaseRequestHandler) ListForLandlord(c echo.Context) error {
	actor := middleware.ActingUser(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing user"))
	}
	page, size := pageParams(c)
	list, err := h.svc.ListByLandlord(c.Request().Context(), actor, page, size)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch purchase requests"))
	}
	return c.JSON(http.StatusOK, toPurchaseRequestResponses(list))
}

func (h *PurchaseRequestHandler) PurchasedProperties(c echo.Context) error {
	actor := middleware.ActingUser(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing user"))
	}
	list, err := h.svc.PurchasedProperties(c.Request().Context(), actor)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch properties"))
	}
	return c.JSON(http.StatusOK, toPropertyResponses(list))
}

func (h *PurchaseRequestHandler) SoldProperties(c echo.Context) error {
	actor := middleware.ActingUser(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing user"))
	}
	list, err := h.svc.SoldProperties(c.Request().Context(), actor)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch properties"))
	}
	return c.JSON(http.StatusOK, toPropertyResponses(list))
}

func toPurchaseRequestResponses(list []model.PurchaseRequest) []PurchaseRequestResponse {
	resp := make([]PurchaseRequestResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toPurchaseRequestResponse(&list[i]))
	}
	return resp
}

func pageParams(c echo.Context) (page, size int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	size, _ = strconv.Atoi(c.QueryParam("size"))
	return page, size
}
