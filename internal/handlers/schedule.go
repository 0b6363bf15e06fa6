package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/davidkych/cursus-backend/internal/scheduler"
)

type ScheduleRequest struct {
	ExecAt       string                 `json:"exec_at" binding:"required"`
	PromptType   string                 `json:"prompt_type" binding:"required,oneof=log.append http.call"`
	Payload      map[string]interface{} `json:"payload"`
	Tag          string                 `json:"tag"`
	SecondaryTag string                 `json:"secondary_tag"`
	TertiaryTag  string                 `json:"tertiary_tag"`
}

// CreateSchedule handles POST /api/schedule. The exec_at wall time is read
// as Hong Kong local time and must be at least a minute out.
func CreateSchedule(sched *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ScheduleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		execAt, err := scheduler.ParseExecAt(req.ExecAt, time.Now())
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "SCHED", err.Error())
			return
		}

		ctx, cancel := dbContext()
		defer cancel()

		id, err := sched.Create(ctx, scheduler.JobSpec{
			ExecAtUTC:    execAt,
			PromptType:   req.PromptType,
			Payload:      req.Payload,
			Tag:          req.Tag,
			SecondaryTag: req.SecondaryTag,
			TertiaryTag:  req.TertiaryTag,
		})
		if err != nil {
			log.Println("[SCHED] [ERROR] create failed:", err)
			respondWithError(c, http.StatusInternalServerError, "SCHED", "could not schedule job")
			return
		}

		c.Header("Location", "/api/schedule/"+id)
		c.Header("Retry-After", "5")
		c.JSON(http.StatusAccepted, gin.H{"id": id})
	}
}

// scheduleListItem is the slim listing shape; the full document stays
// behind the per-id status route.
type scheduleListItem struct {
	InstanceID string    `json:"instanceId"`
	ExecAtUTC  time.Time `json:"exec_at_utc"`
	PromptType string    `json:"prompt_type"`
	Status     string    `json:"runtimeStatus"`
}

// ListSchedules handles GET /api/schedule.
func ListSchedules(sched *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := dbContext()
		defer cancel()

		jobs, err := sched.List(ctx)
		if err != nil {
			log.Println("[SCHED] [ERROR] list failed:", err)
			respondWithError(c, http.StatusInternalServerError, "SCHED", "db error")
			return
		}

		items := make([]scheduleListItem, 0, len(jobs))
		for _, job := range jobs {
			items = append(items, scheduleListItem{
				InstanceID: job.InstanceID,
				ExecAtUTC:  job.ExecAtUTC,
				PromptType: job.PromptType,
				Status:     job.Status,
			})
		}

		c.JSON(http.StatusOK, gin.H{"jobs": items})
	}
}

// GetScheduleStatus handles GET /api/schedule/:id.
func GetScheduleStatus(sched *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := dbContext()
		defer cancel()

		job, err := sched.Status(ctx, c.Param("id"))
		if err == scheduler.ErrNotFound {
			respondWithError(c, http.StatusNotFound, "SCHED", "schedule not found")
			return
		}
		if err != nil {
			log.Println("[SCHED] [ERROR] status failed:", err)
			respondWithError(c, http.StatusInternalServerError, "SCHED", "db error")
			return
		}

		c.JSON(http.StatusOK, job)
	}
}

// TerminateSchedule handles DELETE /api/schedule/:id. Terminating purges
// the record, so a second delete reports 404.
func TerminateSchedule(sched *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := dbContext()
		defer cancel()

		err := sched.Terminate(ctx, c.Param("id"))
		if err == scheduler.ErrNotFound {
			respondWithError(c, http.StatusNotFound, "SCHED", "schedule not found or already completed")
			return
		}
		if err != nil {
			log.Println("[SCHED] [ERROR] terminate failed:", err)
			respondWithError(c, http.StatusInternalServerError, "SCHED", "db error")
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// WipeSchedules handles POST /api/schedule/wipe.
func WipeSchedules(sched *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := dbContext()
		defer cancel()

		terminated, err := sched.Wipe(ctx)
		if err != nil {
			log.Println("[SCHED] [ERROR] wipe failed:", err)
			respondWithError(c, http.StatusInternalServerError, "SCHED", "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"terminated": terminated,
			"total":      len(terminated),
		})
	}
}
