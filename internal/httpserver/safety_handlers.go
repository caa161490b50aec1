package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Block and report fields may come from the query string or a JSON body
type blockRequest struct {
	Reason string `form:"reason" json:"reason"`
}

type reportRequest struct {
	ReportType  string `form:"report_type" json:"report_type"`
	Description string `form:"description" json:"description"`
}

func (h *handler) blockUser(c *gin.Context) {
	var req blockRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	if req.Reason == "" {
		req.Reason = c.Query("reason")
	}
	if err := h.svc.Safety.BlockUser(c.Request.Context(), currentUser(c), c.Param("user_id"), optional(req.Reason)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User blocked successfully"})
}

func (h *handler) unblockUser(c *gin.Context) {
	if err := h.svc.Safety.UnblockUser(c.Request.Context(), currentUser(c), c.Param("user_id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User unblocked successfully"})
}

func (h *handler) listBlocked(c *gin.Context) {
	blocked, err := h.svc.Safety.ListBlocked(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, blocked)
}

func (h *handler) reportUser(c *gin.Context) {
	var req reportRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	if req.ReportType == "" {
		req.ReportType = c.Query("report_type")
	}
	if req.Description == "" {
		req.Description = c.Query("description")
	}

	report, err := h.svc.Safety.ReportUser(c.Request.Context(), currentUser(c), c.Param("user_id"), req.ReportType, optional(req.Description))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":   "Report submitted successfully. Our team will review it shortly.",
		"report_id": report.ID,
	})
}

func (h *handler) listReports(c *gin.Context) {
	reports, err := h.svc.Safety.ListMyReports(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (h *handler) reveal(c *gin.Context) {
	res, err := h.svc.Reveal.Reveal(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handler) revealStatus(c *gin.Context) {
	status, err := h.svc.Reveal.Status(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
