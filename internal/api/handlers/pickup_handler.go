package handlers

import (
	"net/http"
	"time"

	"recycle-it-api-server/internal/models"
	"recycle-it-api-server/internal/workflow"

	"github.com/gin-gonic/gin"
)

// PickupHandler xử lý các thao tác pickup của người dùng và admin.
// Mọi thay đổi trạng thái đi qua workflow.Service, handler chỉ bind/validate request.
type PickupHandler struct {
	Workflow *workflow.Service
}

type SchedulePickupRequest struct {
	DeviceType    string         `json:"deviceType" binding:"required"`
	Brand         string         `json:"brand" binding:"required"`
	Model         string         `json:"model"`
	Condition     string         `json:"condition"`
	Weight        models.Weight  `json:"weight"`
	PickupAddress models.Address `json:"pickupAddress" binding:"required"`
	PreferredDate time.Time      `json:"preferredPickupDate" binding:"required"`
}

// SchedulePickup tạo yêu cầu thu gom mới cho user đang đăng nhập.
func (h *PickupHandler) SchedulePickup(c *gin.Context) {
	var req SchedulePickupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	pickup, err := h.Workflow.CreatePickup(c.Request.Context(), workflow.CreatePickupInput{
		UserID:        accountID(c),
		DeviceType:    req.DeviceType,
		Brand:         req.Brand,
		Model:         req.Model,
		Condition:     req.Condition,
		Weight:        req.Weight,
		Address:       req.PickupAddress,
		PreferredDate: req.PreferredDate,
	})
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	respondCreated(c, "Pickup scheduled", pickup)
}

// GetMyPickups trả về các pickup của user đang đăng nhập.
func (h *PickupHandler) GetMyPickups(c *gin.Context) {
	pickups, err := h.Workflow.ListPickups(c.Request.Context(), workflow.PickupFilter{
		UserID: accountID(c),
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to list pickups")
		return
	}
	respondOK(c, "", pickups)
}

// GetAllPickups (admin) có thể lọc theo status qua query param.
func (h *PickupHandler) GetAllPickups(c *gin.Context) {
	pickups, err := h.Workflow.ListPickups(c.Request.Context(), workflow.PickupFilter{
		Status: c.Query("status"),
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to list pickups")
		return
	}
	respondOK(c, "", pickups)
}

func (h *PickupHandler) GetPickupByID(c *gin.Context) {
	pickup, err := h.Workflow.GetPickup(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	respondOK(c, "", pickup)
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// UpdateStatus áp dụng một bước chuyển trạng thái hợp lệ theo bảng chuyển.
func (h *PickupHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	pickup, err := h.Workflow.UpdateStatus(c.Request.Context(),
		c.Param("id"), workflow.PickupStatus(req.Status), req.Reason, accountID(c))
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	respondOK(c, "Pickup status updated", pickup)
}

type CancelPickupRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CancelPickup hủy pickup với lý do bắt buộc. User chỉ hủy được pickup của mình.
func (h *PickupHandler) CancelPickup(c *gin.Context) {
	var req CancelPickupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	pickup, err := h.Workflow.GetPickup(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	if pickup.UserID != accountID(c) {
		respondError(c, http.StatusForbidden, "You can only cancel your own pickups")
		return
	}

	updated, err := h.Workflow.UpdateStatus(c.Request.Context(),
		pickup.PickupID, workflow.StatusCancelled, req.Reason, accountID(c))
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	respondOK(c, "Pickup cancelled", updated)
}

type AssignRecyclerRequest struct {
	RecyclerID string `json:"recyclerID" binding:"required"`
}

// AssignRecycler (admin) gán thủ công một recycler; dùng chung cơ chế CAS với
// luồng recycler tự nhận, nên không bao giờ ghi đè một pickup đã có người nhận.
func (h *PickupHandler) AssignRecycler(c *gin.Context) {
	var req AssignRecyclerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	pickup, err := h.Workflow.AcceptPickup(c.Request.Context(), c.Param("id"), req.RecyclerID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	respondOK(c, "Recycler assigned", pickup)
}

type AssignPartnerRequest struct {
	PartnerID string `json:"partnerID" binding:"required"`
}

// AssignPartner gán đối tác vận chuyển cho pickup đã Scheduled.
func (h *PickupHandler) AssignPartner(c *gin.Context) {
	var req AssignPartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	pickup, err := h.Workflow.AssignPartner(c.Request.Context(), c.Param("id"), req.PartnerID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	respondOK(c, "Delivery partner assigned", pickup)
}
