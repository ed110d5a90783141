package handler

import (
	"net/http"

	"approvalflow/internal/authz"
	"approvalflow/internal/middleware"
	"approvalflow/internal/service"
	"approvalflow/pkg/apperror"
	"approvalflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type RequestHandler struct {
	requestService service.RequestService
}

func NewRequestHandler(requestService service.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

// writeError maps an *apperror.AppError to its HTTP status; anything else
// becomes a generic 500 so internal detail never leaks to the client.
// Wrapped error detail is only exposed in debug mode.
func writeError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperror.AppError); ok {
		if appErr.Err != nil && gin.Mode() == gin.DebugMode {
			c.JSON(appErr.HTTPStatus, response.ErrorWithDetail(appErr.Message, appErr.Err.Error()))
			return
		}
		c.JSON(appErr.HTTPStatus, response.Error(appErr.Message))
		return
	}
	c.JSON(http.StatusInternalServerError, response.Error("Internal server error"))
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/api/requests")
	{
		requests.POST("", middleware.RequireOperation(authz.OpCreateRequest), h.CreateRequest)
		requests.GET("/my-requests", middleware.RequireOperation(authz.OpListOwn), h.GetMyRequests)
		requests.GET("/pending", middleware.RequireOperation(authz.OpListPending), h.GetPendingRequests)
		requests.GET("", middleware.RequireOperation(authz.OpListAll), h.GetAllRequests)
		requests.GET("/:id", middleware.RequireOperation(authz.OpViewRequest), h.GetRequestByID)
		requests.PUT("/:id/approve", middleware.RequireOperation(authz.OpResolveRequest), h.ApproveRequest)
		requests.PUT("/:id/reject", middleware.RequireOperation(authz.OpResolveRequest), h.RejectRequest)
	}
}

// CreateRequest handles POST /api/requests
// @Summary      Create a new request
// @Description  Creates a pending request owned by the authenticated creator
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRequestDTO  true  "Create Request Payload"
// @Success      201      {object}  response.Response{data=service.RequestResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/requests [post]
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	var req service.CreateRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Please provide all required fields (title, description, category)"))
		return
	}

	result, err := h.requestService.Create(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success("Request created successfully", result))
}

// GetMyRequests handles GET /api/requests/my-requests
// @Summary      List own requests
// @Description  Returns the authenticated creator's requests, newest first
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.RequestResponse}
// @Failure      401  {object}  response.Response
// @Router       /api/requests/my-requests [get]
func (h *RequestHandler) GetMyRequests(c *gin.Context) {
	results, err := h.requestService.ListMine(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.List(results, len(results)))
}

// GetPendingRequests handles GET /api/requests/pending
// @Summary      List pending requests
// @Description  Returns all PENDING requests for approvers, newest first
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.RequestResponse}
// @Failure      403  {object}  response.Response
// @Router       /api/requests/pending [get]
func (h *RequestHandler) GetPendingRequests(c *gin.Context) {
	results, err := h.requestService.ListPending(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.List(results, len(results)))
}

// GetAllRequests handles GET /api/requests
// @Summary      List all requests
// @Description  Returns every request regardless of status, newest first
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.RequestResponse}
// @Failure      403  {object}  response.Response
// @Router       /api/requests [get]
func (h *RequestHandler) GetAllRequests(c *gin.Context) {
	results, err := h.requestService.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.List(results, len(results)))
}

// GetRequestByID handles GET /api/requests/:id
// @Summary      Get a request by id
// @Description  Returns a single request for any authenticated caller
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id} [get]
func (h *RequestHandler) GetRequestByID(c *gin.Context) {
	result, err := h.requestService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("", result))
}

// ApproveRequest handles PUT /api/requests/:id/approve
// @Summary      Approve a pending request
// @Description  Moves a PENDING request to APPROVED. Self-approval is forbidden.
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id}/approve [put]
func (h *RequestHandler) ApproveRequest(c *gin.Context) {
	result, err := h.requestService.Resolve(c.Request.Context(), c.Param("id"), c.GetString("userID"), service.DecisionApprove, "")
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Request approved successfully", result))
}

// RejectRequest handles PUT /api/requests/:id/reject
// @Summary      Reject a pending request
// @Description  Moves a PENDING request to REJECTED. Self-rejection is forbidden.
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true   "Request ID"
// @Param        payload  body      service.RejectRequestDTO  false  "Optional rejection reason"
// @Success      200      {object}  response.Response{data=service.RequestResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/requests/{id}/reject [put]
func (h *RequestHandler) RejectRequest(c *gin.Context) {
	var req service.RejectRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		// Allow empty body — reason is optional
		req.Reason = ""
	}

	result, err := h.requestService.Resolve(c.Request.Context(), c.Param("id"), c.GetString("userID"), service.DecisionReject, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Request rejected successfully", result))
}
