package repository

import (
	"strings"

	"github.com/teamforge/teamforge-api/internal/constants"
	"github.com/teamforge/teamforge-api/internal/models"
	"gorm.io/gorm"
)

// GormDepartmentRepository is a GORM implementation of DepartmentRepository
type GormDepartmentRepository struct {
	db *gorm.DB
}

// NewDepartmentRepository creates a new DepartmentRepository
func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &GormDepartmentRepository{db: db}
}

// Create inserts a department with its hierarchy fields already computed
func (r *GormDepartmentRepository) Create(dept *models.Department) error {
	return r.db.Create(dept).Error
}

// FindByID finds a department by ID
func (r *GormDepartmentRepository) FindByID(id uint64) (*models.Department, error) {
	var dept models.Department
	if err := r.db.First(&dept, id).Error; err != nil {
		return nil, err
	}
	return &dept, nil
}

// Update persists mutable department attributes
func (r *GormDepartmentRepository) Update(dept *models.Department) error {
	return r.db.Save(dept).Error
}

// Ancestors returns the department's ancestors, nearest first, resolved from
// the materialized path in a single query.
func (r *GormDepartmentRepository) Ancestors(id uint64) ([]models.Department, error) {
	dept, err := r.FindByID(id)
	if err != nil {
		return nil, err
	}

	ids := dept.AncestorIDs()
	if len(ids) == 0 {
		return []models.Department{}, nil
	}

	var rows []models.Department
	if err := r.db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint64]models.Department, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	// Path is stored root first; callers want nearest first.
	ordered := make([]models.Department, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if row, ok := byID[ids[i]]; ok {
			ordered = append(ordered, row)
		}
	}
	return ordered, nil
}

// ListChildren returns the direct children of a department
func (r *GormDepartmentRepository) ListChildren(parentID uint64) ([]models.Department, error) {
	var depts []models.Department
	if err := r.db.Where("parent_department_id = ? AND is_active = ?", parentID, true).
		Find(&depts).Error; err != nil {
		return nil, err
	}
	return depts, nil
}

// ListByOrganization returns all active departments of an organization
func (r *GormDepartmentRepository) ListByOrganization(orgID uint64) ([]models.Department, error) {
	var depts []models.Department
	if err := r.db.Where("organization_id = ? AND is_active = ?", orgID, true).
		Order("hierarchy_level ASC, id ASC").
		Find(&depts).Error; err != nil {
		return nil, err
	}
	return depts, nil
}

// MoveSubtree re-parents a department and rewrites hierarchy level and path
// for the moved department and every descendant inside one transaction.
//
// Cycle detection does a fresh walk up the new parent's parent pointers
// under the same transaction rather than trusting the materialized path;
// the move is rejected before any row is written.
func (r *GormDepartmentRepository) MoveSubtree(id uint64, newParentID *uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var moved models.Department
		if err := tx.First(&moved, id).Error; err != nil {
			return err
		}

		newLevel := 0
		newPath := ""
		if newParentID != nil {
			if *newParentID == id {
				return ErrCycleDetected
			}

			var parent models.Department
			if err := tx.First(&parent, *newParentID).Error; err != nil {
				return err
			}
			if parent.OrganizationID != moved.OrganizationID {
				return ErrCrossOrganizationMove
			}

			ancestorIDs, err := walkAncestors(tx, &parent, id)
			if err != nil {
				return err
			}
			// The chain includes the new parent, so its length is the
			// moved department's new level.
			newPath = models.JoinPath(ancestorIDs)
			newLevel = len(ancestorIDs)
		}

		oldChildPrefix := moved.ChildPath()
		levelDelta := newLevel - moved.HierarchyLevel

		var descendants []models.Department
		if err := tx.Where("hierarchy_path = ? OR hierarchy_path LIKE ?",
			oldChildPrefix, oldChildPrefix+"/%").
			Find(&descendants).Error; err != nil {
			return err
		}

		deepest := moved.HierarchyLevel
		for _, d := range descendants {
			if d.HierarchyLevel > deepest {
				deepest = d.HierarchyLevel
			}
		}
		if deepest+levelDelta >= constants.MaxHierarchyDepth {
			return ErrDepthExceeded
		}

		moved.ParentDepartmentID = newParentID
		moved.HierarchyLevel = newLevel
		moved.HierarchyPath = newPath
		if err := tx.Save(&moved).Error; err != nil {
			return err
		}

		newChildPrefix := moved.ChildPath()
		for i := range descendants {
			d := &descendants[i]
			d.HierarchyPath = newChildPrefix + strings.TrimPrefix(d.HierarchyPath, oldChildPrefix)
			d.HierarchyLevel += levelDelta
			if err := tx.Save(d).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// walkAncestors follows parent pointers from start upward, returning the id
// chain root first and including start itself. It fails with
// ErrCycleDetected if forbiddenID appears anywhere on the chain.
func walkAncestors(tx *gorm.DB, start *models.Department, forbiddenID uint64) ([]uint64, error) {
	chain := []uint64{start.ID}
	cursor := *start
	for cursor.ParentDepartmentID != nil {
		nextID := *cursor.ParentDepartmentID
		if nextID == forbiddenID {
			return nil, ErrCycleDetected
		}
		if len(chain) >= constants.MaxHierarchyDepth {
			return nil, ErrDepthExceeded
		}
		var next models.Department
		if err := tx.First(&next, nextID).Error; err != nil {
			return nil, err
		}
		chain = append(chain, next.ID)
		cursor = next
	}

	// Collected nearest first; reverse to root first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// DeactivateSubtree soft-disables a department and everything below it.
// Data is preserved; only visibility cascades.
func (r *GormDepartmentRepository) DeactivateSubtree(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var dept models.Department
		if err := tx.First(&dept, id).Error; err != nil {
			return err
		}

		childPrefix := dept.ChildPath()
		if err := tx.Model(&models.Department{}).
			Where("id = ? OR hierarchy_path = ? OR hierarchy_path LIKE ?",
				id, childPrefix, childPrefix+"/%").
			Update("is_active", false).Error; err != nil {
			return err
		}
		return nil
	})
}

// AddMember inserts a department membership
func (r *GormDepartmentRepository) AddMember(member *models.DepartmentMember) error {
	return r.db.Create(member).Error
}

// FindActiveMember finds the active membership for (department, user)
func (r *GormDepartmentRepository) FindActiveMember(departmentID, userID uint64) (*models.DepartmentMember, error) {
	var member models.DepartmentMember
	if err := r.db.Where("department_id = ? AND user_id = ? AND is_active = ?",
		departmentID, userID, true).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// DeactivateMember soft-removes a user from a department
func (r *GormDepartmentRepository) DeactivateMember(departmentID, userID uint64) error {
	return r.db.Model(&models.DepartmentMember{}).
		Where("department_id = ? AND user_id = ? AND is_active = ?", departmentID, userID, true).
		Update("is_active", false).Error
}

// ListMembers returns active members of a department
func (r *GormDepartmentRepository) ListMembers(departmentID uint64) ([]models.DepartmentMember, error) {
	var members []models.DepartmentMember
	if err := r.db.Preload("User").
		Where("department_id = ? AND is_active = ?", departmentID, true).
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
