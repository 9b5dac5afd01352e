package handlers

import (
	"net/http"

	"recycle-it-api-server/internal/workflow"

	"github.com/gin-gonic/gin"
)

// RecyclerPickupHandler gồm các thao tác nghiệp vụ của recycler trên pickup:
// nhận, xác nhận đã nhận hàng, kiểm định, đề xuất và chốt thanh toán.
type RecyclerPickupHandler struct {
	Workflow *workflow.Service
}

// AcceptPickup: recycler nhận một pickup Pending. Ai nhận trước thắng.
func (h *RecyclerPickupHandler) AcceptPickup(c *gin.Context) {
	pickup, err := h.Workflow.AcceptPickup(c.Request.Context(), c.Param("id"), accountID(c))
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	respondOK(c, "Pickup accepted", pickup)
}

// UpdateStatus: recycler được gán cập nhật trạng thái pickup theo lifecycle.
func (h *RecyclerPickupHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	pickup, err := h.Workflow.UpdateStatusByRecycler(c.Request.Context(),
		c.Param("id"), workflow.PickupStatus(req.Status), req.Reason, accountID(c))
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	respondOK(c, "Pickup status updated", pickup)
}

// AssignPartner: recycler được gán đặt đối tác vận chuyển cho pickup.
func (h *RecyclerPickupHandler) AssignPartner(c *gin.Context) {
	var req AssignPartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	pickup, err := h.Workflow.AssignPartnerByRecycler(c.Request.Context(),
		c.Param("id"), req.PartnerID, accountID(c))
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	respondOK(c, "Delivery partner assigned", pickup)
}

// ConfirmReceived: thiết bị đã tới cơ sở tái chế (Collected -> Delivered).
func (h *RecyclerPickupHandler) ConfirmReceived(c *gin.Context) {
	pickup, err := h.Workflow.ConfirmReceived(c.Request.Context(), c.Param("id"), accountID(c))
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	respondOK(c, "Receipt confirmed", pickup)
}

// StartInspection mở phiên kiểm định cho pickup đã Delivered.
func (h *RecyclerPickupHandler) StartInspection(c *gin.Context) {
	inspection, err := h.Workflow.StartInspection(c.Request.Context(), c.Param("id"), accountID(c))
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	respondOK(c, "Inspection started", inspection)
}

// GetInspectionStatus trả về kết quả/tiến độ kiểm định của một pickup.
func (h *RecyclerPickupHandler) GetInspectionStatus(c *gin.Context) {
	inspection, err := h.Workflow.GetInspection(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	respondOK(c, "", inspection)
}

type CompleteInspectionRequest struct {
	Condition      string  `json:"condition" binding:"required"`
	EstimatedValue float64 `json:"estimatedValue"`
	Notes          string  `json:"notes"`
}

// CompleteInspection ghi nhận kết quả kiểm định (condition + giá trị ước tính).
func (h *RecyclerPickupHandler) CompleteInspection(c *gin.Context) {
	var req CompleteInspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	inspection, err := h.Workflow.CompleteInspection(c.Request.Context(),
		c.Param("id"), req.Condition, req.EstimatedValue, req.Notes)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	respondOK(c, "Inspection completed", inspection)
}

type ProposePaymentRequest struct {
	Amount float64 `json:"amount" binding:"required"`
	Notes  string  `json:"notes"`
}

// ProposePayment đề xuất số tiền trả cho user sau khi kiểm định xong.
func (h *RecyclerPickupHandler) ProposePayment(c *gin.Context) {
	var req ProposePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	payment, err := h.Workflow.ProposePayment(c.Request.Context(), c.Param("id"), req.Amount, req.Notes)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	respondCreated(c, "Payment proposed", payment)
}

// FinalizePayment chốt khoản thanh toán đã đề xuất của pickup này qua cổng
// thanh toán. Khi provider duyệt, pickup được Verified tự động.
func (h *RecyclerPickupHandler) FinalizePayment(c *gin.Context) {
	payment, err := h.Workflow.GetPaymentByPickup(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	finalized, err := h.Workflow.FinalizePayment(c.Request.Context(), payment.PaymentID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	respondOK(c, "Payment finalized", finalized)
}

type RejectPickupRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectPickup: recycler từ chối pickup (ví dụ nhiễm độc, sai mô tả).
func (h *RecyclerPickupHandler) RejectPickup(c *gin.Context) {
	var req RejectPickupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	pickup, err := h.Workflow.RejectPickup(c.Request.Context(), c.Param("id"), req.Reason, accountID(c))
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	respondOK(c, "Pickup rejected", pickup)
}
