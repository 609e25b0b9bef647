// internal/app/policy/task.go
package policy

import (
	"github.com/dalemusser/crmhub/internal/app/system/authz"
	"github.com/dalemusser/crmhub/internal/domain/models"
)

// TaskCreator grants the principal that created the task.
func TaskCreator(p *models.User, t *models.Task) bool {
	return authz.IsSelf(p, t.CreatedBy)
}

// TaskAssignee grants the principal the task is assigned to.
func TaskAssignee(p *models.User, t *models.Task) bool {
	return authz.IsSelf(p, t.AssignedTo)
}

var (
	taskRead  = AnyOf[models.Task](Staff[models.Task], TaskCreator, TaskAssignee)
	taskWrite = AnyOf[models.Task](Staff[models.Task], TaskCreator, TaskAssignee)
)

// CanReadTask reports whether p may see t.
func CanReadTask(p *models.User, t *models.Task) bool { return taskRead(p, t) }

// CanWriteTask reports whether p may update t, comment on it, or change its attachments.
func CanWriteTask(p *models.User, t *models.Task) bool { return taskWrite(p, t) }

// CanCreateTask reports whether p may create tasks. There is no ownership
// before a task exists, so this is role-only.
func CanCreateTask(p *models.User) bool { return authz.IsStaff(p) }

// CanDeleteTask reports whether p may hard-delete t.
func CanDeleteTask(p *models.User, t *models.Task) bool {
	return t != nil && canDelete(p, models.EntityTask, false)
}
