package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handler) dailyMissions(c *gin.Context) {
	daily, err := h.svc.Missions.GetDailyMissions(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, daily)
}

func (h *handler) completeMission(c *gin.Context) {
	res, err := h.svc.Missions.CompleteMission(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if res.AlreadyCompleted {
		c.JSON(http.StatusOK, gin.H{"message": res.Message, "already_completed": true})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handler) missionStats(c *gin.Context) {
	stats, err := h.svc.Missions.GetMissionStats(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *handler) weeklyPreview(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Missions.GetWeeklyPreview())
}
