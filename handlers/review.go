package handlers

import (
	"net/http"

	"github.com/edunexus/nexus_backend/config"
	"github.com/edunexus/nexus_backend/middlewares"
	"github.com/edunexus/nexus_backend/models"
	"github.com/edunexus/nexus_backend/workflow"
	"github.com/gin-gonic/gin"
)

// URL segment -> entity kind. The API speaks plural resource names; the
// engine speaks EntityType.
var entityTypeBySegment = map[string]models.EntityType{
	"jobs":          models.EntityTypeJob,
	"projects":      models.EntityTypeProject,
	"universities":  models.EntityTypeUniversity,
	"verifications": models.EntityTypeVerificationRequest,
	"proposals":     models.EntityTypeGovernanceProposal,
}

func entityTypeParam(c *gin.Context) (models.EntityType, bool) {
	entityType, ok := entityTypeBySegment[c.Param("entity")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown entity kind"})
		return "", false
	}
	return entityType, true
}

type transitionRequest struct {
	ExpectedStatus     models.ApprovalStatus `json:"expected_status" binding:"required"`
	Reason             string                `json:"reason"`
	Comments           string                `json:"comments"`
	PublishImmediately bool                  `json:"publish_immediately"`
}

// TransitionHandler serves all five review actions on one route shape:
// POST /review/:entity/:id/:action
func TransitionHandler(action models.ApprovalAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorId, ok := middlewares.RequireAuth(c)
		if !ok {
			return
		}
		entityType, ok := entityTypeParam(c)
		if !ok {
			return
		}
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input transitionRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		record, err := workflow.Transition(c.Request.Context(), workflow.TransitionInput{
			EntityType:         entityType,
			EntityId:           id,
			Action:             action,
			ActorId:            actorId,
			ExpectedStatus:     input.ExpectedStatus,
			Reason:             input.Reason,
			Comments:           input.Comments,
			PublishImmediately: input.PublishImmediately,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

// ApprovalHistoryHandler lists the append-only decision trail for one entity,
// oldest first.
func ApprovalHistoryHandler(c *gin.Context) {
	actorId, ok := middlewares.RequireAuth(c)
	if !ok {
		return
	}
	entityType, ok := entityTypeParam(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	desc, ok := workflow.DescriptorFor(entityType)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown entity kind"})
		return
	}
	entity, err := desc.Load(config.GetDB().WithContext(c.Request.Context()), id)
	if err != nil {
		respondError(c, err)
		return
	}

	records, err := models.ListApprovalRecords(c.Request.Context(), actorId, entity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
