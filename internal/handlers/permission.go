package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/teamforge/teamforge-api/internal/dto"
	apierrors "github.com/teamforge/teamforge-api/internal/errors"
	"github.com/teamforge/teamforge-api/internal/middleware"
	"github.com/teamforge/teamforge-api/internal/models"
	"github.com/teamforge/teamforge-api/internal/services"
)

// PermissionHandler exposes the decision engine, the role catalog and the
// permission matrix store over HTTP.
type PermissionHandler struct {
	checker       *services.PermissionChecker
	roleHierarchy *services.RoleHierarchyService
	matrixService *services.PermissionMatrixService
}

// NewPermissionHandler creates a new PermissionHandler.
func NewPermissionHandler(
	checker *services.PermissionChecker,
	roleHierarchy *services.RoleHierarchyService,
	matrixService *services.PermissionMatrixService,
) *PermissionHandler {
	return &PermissionHandler{
		checker:       checker,
		roleHierarchy: roleHierarchy,
		matrixService: matrixService,
	}
}

// CheckPermission resolves a single permission decision
func (h *PermissionHandler) CheckPermission(c *gin.Context) {
	var req dto.CheckPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	decision, err := h.checker.Check(
		services.PermissionActor{UserID: req.UserID, RoleName: req.RoleName},
		req.Resource,
		req.Action,
		req.Context.ToPermissionContext(),
	)
	if err != nil {
		if errors.Is(err, services.ErrNoEntityContext) {
			apierrors.BadRequest(c, err.Error())
			return
		}
		apierrors.InternalError(c, "Failed to resolve permission")
		return
	}

	c.JSON(http.StatusOK, decision)
}

// CheckPermissionBatch resolves several permission decisions in one call
func (h *PermissionHandler) CheckPermissionBatch(c *gin.Context) {
	var req dto.BatchCheckPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	actor := services.PermissionActor{UserID: req.UserID, RoleName: req.RoleName}
	requests := make([]services.CheckRequest, len(req.Checks))
	for i, check := range req.Checks {
		requests[i] = services.CheckRequest{
			Actor:    actor,
			Resource: check.Resource,
			Action:   check.Action,
			Context:  check.Context.ToPermissionContext(),
		}
	}

	result := h.checker.CheckMany(requests, req.RequireAll)
	c.JSON(http.StatusOK, result)
}

// GetRoleTree returns the role catalog with inheritance edges
func (h *PermissionHandler) GetRoleTree(c *gin.Context) {
	nodes, err := h.roleHierarchy.RoleTree()
	if err != nil {
		apierrors.InternalError(c, "Failed to load role catalog")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"roles": nodes,
	})
}

// GetInheritedPermissions returns a role's effective default permissions
func (h *PermissionHandler) GetInheritedPermissions(c *gin.Context) {
	roleName := c.Param("role_name")

	permissions, err := h.roleHierarchy.InheritedPermissions(roleName)
	if err != nil {
		if errors.Is(err, services.ErrRoleNotFound) {
			apierrors.NotFound(c, err.Error())
			return
		}
		apierrors.InternalError(c, "Failed to resolve permissions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"role_name":   roleName,
		"permissions": permissions,
	})
}

// AssessMigrationImpact grades the risk of moving between catalog roles
func (h *PermissionHandler) AssessMigrationImpact(c *gin.Context) {
	var req dto.MigrationImpactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	impact, err := h.roleHierarchy.AssessMigrationImpact(req.FromRole, req.ToRole)
	if err != nil {
		if errors.Is(err, services.ErrRoleNotFound) {
			apierrors.NotFound(c, err.Error())
			return
		}
		apierrors.InternalError(c, "Failed to assess migration")
		return
	}

	c.JSON(http.StatusOK, impact)
}

// GetMatrix returns the active permission matrix of an entity
func (h *PermissionHandler) GetMatrix(c *gin.Context) {
	entityType, entityID, ok := parseEntityParams(c)
	if !ok {
		return
	}

	matrix, err := h.matrixService.GetActiveMatrix(entityType, entityID)
	if err != nil {
		respondMatrixError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMatrixDTO(*matrix))
}

// ReplaceMatrix installs a new active matrix for an entity, superseding the
// previous version
func (h *PermissionHandler) ReplaceMatrix(c *gin.Context) {
	entityType, entityID, ok := parseEntityParams(c)
	if !ok {
		return
	}

	var req dto.ReplaceMatrixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.ReplaceMatrixInput{
		EntityType:  entityType,
		EntityID:    entityID,
		Rules:       req.Rules,
		Inheritance: models.DefaultInheritance(),
	}
	if req.Inheritance != nil {
		input.Inheritance = *req.Inheritance
	}
	if req.Compliance != nil {
		input.Compliance = *req.Compliance
	}
	if userID, exists := middleware.GetUserID(c); exists {
		input.ActorID = &userID
	}

	matrix, err := h.matrixService.ReplaceMatrix(input)
	if err != nil {
		respondMatrixError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToMatrixDTO(*matrix))
}

// GetMatrixHistory returns all matrix versions of an entity, newest first
func (h *PermissionHandler) GetMatrixHistory(c *gin.Context) {
	entityType, entityID, ok := parseEntityParams(c)
	if !ok {
		return
	}

	history, err := h.matrixService.GetHistory(entityType, entityID)
	if err != nil {
		respondMatrixError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"history": dto.ToMatrixDTOs(history),
	})
}

func parseEntityParams(c *gin.Context) (models.EntityType, uint64, bool) {
	entityType := models.EntityType(c.Param("entity_type"))
	if !entityType.Valid() {
		apierrors.BadRequest(c, "Invalid entity type")
		return "", 0, false
	}

	entityID, err := strconv.ParseUint(c.Param("entity_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid entity ID")
		return "", 0, false
	}

	return entityType, entityID, true
}

func respondMatrixError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrMatrixNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvalidEntityType),
		errors.Is(err, services.ErrInvalidRuleCategory),
		errors.Is(err, services.ErrInvalidRuleAction):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
