package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type locationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

type createMatchRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (h *handler) updateLocation(c *gin.Context) {
	var req locationRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	if err := h.svc.Matching.UpdateLocation(c.Request.Context(), currentUser(c), *req.Latitude, *req.Longitude); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Location updated"})
}

func (h *handler) findNearby(c *gin.Context) {
	radius, err := radiusParam(c)
	if err != nil {
		fail(c, err)
		return
	}
	nearby, err := h.svc.Matching.FindNearby(c.Request.Context(), currentUser(c), radius)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nearby)
}

func (h *handler) createMatch(c *gin.Context) {
	var req createMatchRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	res, err := h.svc.Matching.CreateMatch(c.Request.Context(), currentUser(c), req.UserID)
	if err != nil {
		fail(c, err)
		return
	}

	message := "Match already exists"
	status := http.StatusOK
	if res.Created {
		message = "Match created"
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"message": message, "match_id": res.MatchID, "created": res.Created})
}

func (h *handler) listMatches(c *gin.Context) {
	matches, err := h.svc.Matching.ListMyMatches(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, matches)
}

func (h *handler) hotspots(c *gin.Context) {
	report, err := h.svc.Hotspots.ComputeHotspots(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *handler) nearbyActivity(c *gin.Context) {
	radius, err := radiusParam(c)
	if err != nil {
		fail(c, err)
		return
	}
	activity, err := h.svc.Hotspots.NearbyActivity(c.Request.Context(), currentUser(c), radius)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, activity)
}
