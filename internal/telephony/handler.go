package telephony

import (
	"net/http"

	"leadchat_backend/platform/apperr"
	"leadchat_backend/platform/httpkit"
	"leadchat_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// PlaceCallRequest initiates a click-to-call for the authenticated operator.
type PlaceCallRequest struct {
	Phone string `json:"phone" validate:"required"`
}

// PlaceCallResponse reports how far the call attempt got. Result carries the
// session state reached, on success and failure alike.
type PlaceCallResponse struct {
	OK      bool        `json:"ok"`
	Result  string      `json:"result,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

type Handler struct {
	svc *Service
	val *validator.Validator
}

func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/calls", h.PlaceCall)
}

func (h *Handler) PlaceCall(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req PlaceCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	session, err := h.svc.PlaceCall(c.Request.Context(), identity.UserID(), req.Phone)
	if err != nil {
		status := http.StatusInternalServerError
		response := PlaceCallResponse{OK: false, Result: session.State, Error: err.Error()}
		if domainErr, ok := err.(*apperr.Error); ok {
			status = domainErr.HTTPStatus()
			response.Error = domainErr.Message
			response.Details = domainErr.Details
		}
		httpkit.JSON(c, status, response)
		return
	}

	httpkit.OK(c, PlaceCallResponse{OK: true, Result: session.State})
}
