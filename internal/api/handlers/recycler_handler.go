package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"recycle-it-api-server/internal/models"
	"recycle-it-api-server/internal/s3"
	"recycle-it-api-server/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// RecyclerHandler quản lý hồ sơ doanh nghiệp tái chế và giấy tờ xác minh.
type RecyclerHandler struct {
	DB         *mongo.Database
	S3Uploader *s3.Uploader
	Workflow   *workflow.Service
}

// GetProfile trả về hồ sơ của recycler đang đăng nhập.
func (h *RecyclerHandler) GetProfile(c *gin.Context) {
	var recycler models.Recycler
	err := h.DB.Collection("recyclers").FindOne(context.Background(),
		bson.M{"recyclerID": accountID(c)}).Decode(&recycler)
	if err != nil {
		respondError(c, http.StatusNotFound, "Recycler not found")
		return
	}
	respondOK(c, "", recycler)
}

type UpdateRecyclerProfileRequest struct {
	BusinessName string          `json:"businessName"`
	Phone        string          `json:"phone"`
	Address      *models.Address `json:"address"`
}

// UpdateProfile chỉ cho phép sửa các trường hồ sơ, không đụng tới status/terms.
func (h *RecyclerHandler) UpdateProfile(c *gin.Context) {
	var req UpdateRecyclerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	if req.BusinessName != "" {
		set["businessName"] = req.BusinessName
	}
	if req.Phone != "" {
		set["phone"] = req.Phone
	}
	if req.Address != nil {
		if req.Address.Pincode != "" {
			if err := workflow.ValidatePincode(req.Address.Pincode); err != nil {
				respondWorkflowError(c, err)
				return
			}
		}
		set["address"] = req.Address
	}

	result, err := h.DB.Collection("recyclers").UpdateOne(context.Background(),
		bson.M{"recyclerID": accountID(c)},
		bson.M{"$set": set})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	if result.MatchedCount == 0 {
		respondError(c, http.StatusNotFound, "Recycler not found")
		return
	}

	respondOK(c, "Profile updated", nil)
}

// UploadDocuments nhận giấy phép tái chế (multipart) và đẩy lên S3.
// Mỗi file trở thành một MediaPointer gắn vào hồ sơ recycler.
func (h *RecyclerHandler) UploadDocuments(c *gin.Context) {
	if h.S3Uploader == nil {
		respondError(c, http.StatusServiceUnavailable, "File storage is not configured")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	files := form.File["documents"]
	if len(files) == 0 {
		respondError(c, http.StatusBadRequest, "At least one document is required")
		return
	}

	recyclerID := accountID(c)
	var pointers []models.MediaPointer

	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, "Failed to read uploaded file")
			return
		}

		docID := uuid.New().String()
		objectKey := fmt.Sprintf("recyclers/%s/documents/%s-%s", recyclerID, docID, fileHeader.Filename)
		contentType := fileHeader.Header.Get("Content-Type")

		url, err := h.S3Uploader.UploadFile(c.Request.Context(), file, objectKey, contentType)
		file.Close()
		if err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to upload document")
			return
		}

		pointers = append(pointers, models.MediaPointer{
			ID:       docID,
			URL:      url,
			FileName: fileHeader.Filename,
			FileType: contentType,
		})
	}

	_, err = h.DB.Collection("recyclers").UpdateOne(context.Background(),
		bson.M{"recyclerID": recyclerID},
		bson.M{
			"$push": bson.M{"documents": bson.M{"$each": pointers}},
			"$set":  bson.M{"updatedAt": time.Now()},
		})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to save document references")
		return
	}

	respondCreated(c, "Documents uploaded", gin.H{"documents": pointers})
}

// GetAssignedPickups liệt kê các pickup đã gán cho recycler đang đăng nhập.
func (h *RecyclerHandler) GetAssignedPickups(c *gin.Context) {
	pickups, err := h.Workflow.ListPickups(c.Request.Context(), workflow.PickupFilter{
		RecyclerID: accountID(c),
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to list pickups")
		return
	}
	respondOK(c, "", pickups)
}

// GetAvailablePickups liệt kê các pickup Pending chưa có recycler nhận.
func (h *RecyclerHandler) GetAvailablePickups(c *gin.Context) {
	pickups, err := h.Workflow.ListPickups(c.Request.Context(), workflow.PickupFilter{
		Status:     string(workflow.StatusPending),
		Unassigned: true,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to list pickups")
		return
	}
	respondOK(c, "", pickups)
}
