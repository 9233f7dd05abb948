package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/teamforge/teamforge-api/internal/metrics"
	"github.com/teamforge/teamforge-api/internal/models"
	"github.com/teamforge/teamforge-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrMatrixNotFound      = errors.New("no active permission matrix for entity")
	ErrInvalidEntityType   = errors.New("invalid entity type")
	ErrInvalidRuleCategory = errors.New("unrecognized rule category")
	ErrInvalidRuleAction   = errors.New("rule action name cannot be empty")
)

// PermissionMatrixService manages per-entity permission matrices. Writes are
// validated and replace the active matrix atomically; matrices are never
// mutated in place or hard-deleted.
type PermissionMatrixService struct {
	matrixRepo repository.PermissionMatrixRepository
	auditRepo  repository.AuditLogRepository
	log        *logrus.Logger
}

// NewPermissionMatrixService creates a new PermissionMatrixService.
func NewPermissionMatrixService(
	matrixRepo repository.PermissionMatrixRepository,
	auditRepo repository.AuditLogRepository,
	log *logrus.Logger,
) *PermissionMatrixService {
	return &PermissionMatrixService{
		matrixRepo: matrixRepo,
		auditRepo:  auditRepo,
		log:        log,
	}
}

// ReplaceMatrixInput carries a full replacement matrix for one entity.
type ReplaceMatrixInput struct {
	EntityType  models.EntityType
	EntityID    uint64
	Rules       models.RuleSet
	Inheritance models.InheritanceSettings
	Compliance  models.ComplianceSettings
	ActorID     *uint64
}

// ReplaceMatrix validates and installs a new active matrix for the entity,
// superseding the previous one. Malformed rule sets are rejected at write
// time, never coerced.
func (s *PermissionMatrixService) ReplaceMatrix(input ReplaceMatrixInput) (*models.PermissionMatrix, error) {
	if !input.EntityType.Valid() {
		return nil, ErrInvalidEntityType
	}
	if err := validateRules(input.Rules); err != nil {
		return nil, err
	}

	matrix := &models.PermissionMatrix{
		EntityType:  input.EntityType,
		EntityID:    input.EntityID,
		Rules:       input.Rules,
		Inheritance: input.Inheritance,
		Compliance:  input.Compliance,
		CreatedBy:   input.ActorID,
	}

	replaced, err := s.matrixRepo.ReplaceActive(matrix)
	if err != nil {
		return nil, fmt.Errorf("failed to replace permission matrix: %w", err)
	}

	metrics.MatrixReplacements.WithLabelValues(string(input.EntityType)).Inc()
	s.log.WithFields(logrus.Fields{
		"entity_type": input.EntityType,
		"entity_id":   input.EntityID,
		"matrix_id":   replaced.ID,
	}).Info("permission matrix replaced")

	if replaced.Compliance.AuditRequired {
		s.appendAudit(input, replaced.ID)
	}

	return replaced, nil
}

// EnsureDefaultMatrix installs the safe default matrix for a freshly created
// entity: no explicit rules, inheritance on, standard compliance.
func (s *PermissionMatrixService) EnsureDefaultMatrix(entityType models.EntityType, entityID uint64, actorID *uint64) (*models.PermissionMatrix, error) {
	return s.ReplaceMatrix(ReplaceMatrixInput{
		EntityType:  entityType,
		EntityID:    entityID,
		Rules:       models.RuleSet{},
		Inheritance: models.DefaultInheritance(),
		Compliance:  models.ComplianceSettings{RetentionPeriodDays: 365, ComplianceLevel: "standard"},
		ActorID:     actorID,
	})
}

// GetActiveMatrix returns the entity's active matrix.
func (s *PermissionMatrixService) GetActiveMatrix(entityType models.EntityType, entityID uint64) (*models.PermissionMatrix, error) {
	if !entityType.Valid() {
		return nil, ErrInvalidEntityType
	}
	matrix, err := s.matrixRepo.FindActive(entityType, entityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatrixNotFound
		}
		return nil, fmt.Errorf("failed to find permission matrix: %w", err)
	}
	return matrix, nil
}

// GetHistory returns every matrix ever written for the entity, newest first.
func (s *PermissionMatrixService) GetHistory(entityType models.EntityType, entityID uint64) ([]models.PermissionMatrix, error) {
	if !entityType.Valid() {
		return nil, ErrInvalidEntityType
	}
	history, err := s.matrixRepo.History(entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load matrix history: %w", err)
	}
	return history, nil
}

func (s *PermissionMatrixService) appendAudit(input ReplaceMatrixInput, matrixID uint64) {
	entry := &models.AuditLog{
		ID:         uuid.NewString(),
		EntityType: input.EntityType,
		EntityID:   input.EntityID,
		Action:     "permission_matrix.replace",
		ActorID:    input.ActorID,
		Detail:     fmt.Sprintf("matrix %d activated", matrixID),
		CreatedAt:  time.Now(),
	}
	if err := s.auditRepo.Append(entry); err != nil {
		// The matrix is already committed; an audit write failure is logged
		// rather than unwound.
		s.log.WithError(err).Warn("failed to append matrix audit entry")
	}
}

// validateRules rejects rule sets with unknown categories or empty action
// names.
func validateRules(rules models.RuleSet) error {
	for category, actions := range rules {
		if !models.KnownCategory(category) {
			return fmt.Errorf("%w: %q", ErrInvalidRuleCategory, category)
		}
		for action := range actions {
			if action == "" {
				return ErrInvalidRuleAction
			}
		}
	}
	return nil
}
