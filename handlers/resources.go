package handlers

import (
	"net/http"
	"strconv"

	"github.com/edunexus/nexus_backend/middlewares"
	"github.com/edunexus/nexus_backend/models"
	"github.com/gin-gonic/gin"
)

func idParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func CreateOrganizationHandler(c *gin.Context) {
	if _, ok := middlewares.RequireAuth(c); !ok {
		return
	}
	var input models.NewOrganization
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	org, err := models.CreateOrganization(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, org)
}

func GetOrganizationHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	org, err := models.GetOrganization(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

func AssignMembershipHandler(c *gin.Context) {
	actorId, ok := middlewares.RequireAuth(c)
	if !ok {
		return
	}
	var input models.NewMembership
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	membership, err := models.AssignMembership(c.Request.Context(), actorId, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, membership)
}

type removeMembershipRequest struct {
	PrincipalId int              `json:"principal_id" binding:"required"`
	ScopeId     int              `json:"scope_id" binding:"required"`
	ScopeKind   models.ScopeKind `json:"scope_kind" binding:"required"`
}

func RemoveMembershipHandler(c *gin.Context) {
	actorId, ok := middlewares.RequireAuth(c)
	if !ok {
		return
	}
	var input removeMembershipRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	removed, err := models.RemoveMembership(c.Request.Context(), actorId, input.PrincipalId, input.ScopeId, input.ScopeKind)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func CreateJobHandler(c *gin.Context) {
	if _, ok := middlewares.RequireAuth(c); !ok {
		return
	}
	var input models.NewJob
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	job, err := models.CreateJob(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func GetJobHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	job, err := models.GetJob(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func CreateProjectHandler(c *gin.Context) {
	if _, ok := middlewares.RequireAuth(c); !ok {
		return
	}
	var input models.NewProject
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	project, err := models.CreateProject(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func GetProjectHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	project, err := models.GetProject(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func CreateUniversityHandler(c *gin.Context) {
	if _, ok := middlewares.RequireAuth(c); !ok {
		return
	}
	var input models.NewUniversity
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	university, err := models.CreateUniversity(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, university)
}

func CreateVerificationRequestHandler(c *gin.Context) {
	if _, ok := middlewares.RequireAuth(c); !ok {
		return
	}
	var input models.NewVerificationRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	request, err := models.CreateVerificationRequest(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

func CreateGovernanceProposalHandler(c *gin.Context) {
	if _, ok := middlewares.RequireAuth(c); !ok {
		return
	}
	var input models.NewGovernanceProposal
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	proposal, err := models.CreateGovernanceProposal(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, proposal)
}

func GetScoreSummaryHandler(c *gin.Context) {
	if _, ok := middlewares.RequireAuth(c); !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	summaries, err := models.GetScoreSummary(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}
