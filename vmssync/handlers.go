package vmssync

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/admiralorbiter/VMS-sub007/config"
	"github.com/admiralorbiter/VMS-sub007/models"
	"github.com/admiralorbiter/VMS-sub007/utils"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			if fields := utils.ProcessValidationErrors(err); fields != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": fields})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		info, err := models.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

func LogoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := models.Logout(c.Request.Context()); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// TriggerSyncHandler creates one Pending run per selected entity type and
// publishes a single dispatch message carrying the whole run-id map, so the
// worker imports the types in stage order within one pipeline pass.
func TriggerSyncHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := utils.GetUsernameFromContext(c.Request.Context())
		if !ok || strings.TrimSpace(username) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req TriggerSyncRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		selected, err := SelectEntityTypes(req.Entities, req.Exclude)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		runIds := make(map[string]uint, len(selected))
		for _, entityType := range selected {
			run, err := models.CreateSyncRun(ctx, entityType, models.SyncTriggeredManual, req.DryRun, nil)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			runIds[entityType] = run.ID
		}

		payload := SyncDispatchPayload{
			RunIds:           runIds,
			Entities:         selected,
			DryRun:           req.DryRun,
			ValidateOnly:     req.ValidateOnly,
			ChunkSize:        req.ChunkSize,
			InterPageDelayMs: req.InterPageDelayMs,
			TriggeredBy:      models.SyncTriggeredManual,
		}
		if err := PublishDispatch(ctx, payload); err != nil {
			// The Pending rows stay put for inspection or retry.
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "runIds": runIds})
			return
		}

		c.JSON(http.StatusOK, gin.H{"runIds": runIds})
	}
}

func SyncRunsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 50
		if v := strings.TrimSpace(c.Query("limit")); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
				limit = n
			}
		}

		runs, err := models.ListSyncRuns(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		items := make([]SyncRunResponse, 0, len(runs))
		for _, run := range runs {
			items = append(items, mapRunToResponse(run))
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func SyncRunDetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
			return
		}

		ctx := c.Request.Context()
		run, err := models.GetSyncRun(ctx, id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		importErrors, err := models.ListImportErrors(ctx, run.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		results, err := models.ListValidationResults(ctx, run.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		resp := SyncRunDetailResponse{
			SyncRunResponse:   mapRunToResponse(run),
			Errors:            mapErrorsToResponse(importErrors),
			ValidationResults: mapResultsToResponse(results),
		}
		if score, err := models.GetQualityScoreForRun(ctx, run.ID); err == nil {
			s := score.Score.StringFixed(2)
			resp.Score = &s
		}
		c.JSON(http.StatusOK, resp)
	}
}

// RetrySyncRunHandler clones a finished run as a fresh Pending run pointing
// back at its parent. When checkpoint resume is on the clone inherits the
// parent's cursor so the retry continues from the last committed page.
func RetrySyncRunHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := utils.GetUsernameFromContext(c.Request.Context())
		if !ok || strings.TrimSpace(username) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
			return
		}

		ctx := c.Request.Context()
		run, err := models.GetSyncRun(ctx, id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !run.Status.IsTerminal() {
			c.JSON(http.StatusConflict, gin.H{"error": "run is still in progress"})
			return
		}

		newRun, err := models.CreateSyncRun(ctx, run.EntityType, models.SyncTriggeredRetry, run.DryRun, &run.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if config.CheckpointResumeEnabled() && len(run.CursorJSON) > 0 {
			if err := newRun.SaveCursor(ctx, run.CursorJSON); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		}

		payload := SyncDispatchPayload{
			RunIds:      map[string]uint{run.EntityType: newRun.ID},
			Entities:    []string{run.EntityType},
			DryRun:      run.DryRun,
			TriggeredBy: models.SyncTriggeredRetry,
		}
		if err := PublishDispatch(ctx, payload); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"id": newRun.ID})
	}
}

// SyncStatusHandler reports, per entity type in stage order, the most recent
// run and the most recent quality score.
func SyncStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		entityTypes := models.AllEntityTypes()

		latest, err := models.LatestRunPerEntity(ctx, entityTypes)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		items := make([]EntityStatusResponse, 0, len(entityTypes))
		for _, entityType := range entityTypes {
			item := EntityStatusResponse{EntityType: entityType}
			if run, ok := latest[entityType]; ok {
				resp := mapRunToResponse(run)
				item.LastRun = &resp
			}
			if score, err := models.LatestQualityScore(ctx, entityType); err == nil {
				s := score.Score.StringFixed(2)
				item.LastScore = &s
				item.ScoredAt = formatTime(&score.ComputedAt)
			}
			items = append(items, item)
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}
