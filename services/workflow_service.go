package services

import (
	"errors"
	"fmt"
	"itr_flow_app_go/models"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Workflow-related errors
var (
	ErrInvalidTransition      = errors.New("invalid case transition")
	ErrNotAssigned            = errors.New("case is not assigned to this actor")
	ErrConcurrentModification = errors.New("case is being modified concurrently, retry")
)

// WorkflowEngine orchestrates case transitions, assignment, rejection and
// reapplication. Every operation runs as one atomically committed unit of work:
// the case row (and wallet row, when money moves) is locked before mutation, and
// a failed step rolls back everything.
type WorkflowEngine struct {
	db       *gorm.DB
	notifier *NotificationService
}

// NewWorkflowEngine constructs the engine with its storage dependency. The
// notifier is optional; notifications are best-effort and never fail an
// operation.
func NewWorkflowEngine(database *gorm.DB, notifier *NotificationService) *WorkflowEngine {
	return &WorkflowEngine{db: database, notifier: notifier}
}

// lockCase fetches the case with an exclusive row lock inside the caller's
// transaction. SQLite has no FOR UPDATE; there the transaction writer lock
// provides the exclusion.
func lockCase(tx *gorm.DB, caseID string) (*models.Case, error) {
	q := tx
	if tx.Dialector.Name() != "sqlite" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var caseRecord models.Case
	if err := q.First(&caseRecord, "id = ?", caseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, translateLockErr(err)
	}
	return &caseRecord, nil
}

// translateLockErr surfaces lock-wait timeouts as ErrConcurrentModification so
// callers can retry; anything else passes through untouched.
func translateLockErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "lock wait timeout") {
		return ErrConcurrentModification
	}
	return err
}

// TakeCase lets a subadmin claim a pending case from the queue
func (e *WorkflowEngine) TakeCase(actor models.Actor, caseID string) (*models.Case, error) {
	if !actor.IsSubadmin() {
		return nil, ErrInvalidTransition
	}

	var taken *models.Case
	err := e.db.Transaction(func(tx *gorm.DB) error {
		caseRecord, err := lockCase(tx, caseID)
		if err != nil {
			return err
		}
		if caseRecord.Status != models.CaseStatusPending {
			return ErrInvalidTransition
		}
		if caseRecord.SubadminID != nil {
			return ErrInvalidTransition
		}

		if err := tx.Model(&models.Case{}).
			Where("id = ?", caseID).
			Update("subadmin_id", actor.ID).Error; err != nil {
			return fmt.Errorf("failed to claim case: %w", err)
		}
		if err := tx.Where("case_id = ? AND kind = ?", caseID, models.AssignmentSubadminQueue).
			Delete(&models.CaseAssignment{}).Error; err != nil {
			return fmt.Errorf("failed to dequeue case: %w", err)
		}
		if err := RecordMilestone(tx, caseID, models.MilestoneTaken, time.Now()); err != nil {
			return err
		}

		e.writeAudit(tx, actor, caseID, models.AuditActionAssign, "subadmin took case")
		caseRecord.SubadminID = &actor.ID
		taken = caseRecord
		return nil
	})
	if err != nil {
		return nil, translateLockErr(err)
	}

	e.notifyAgent(taken, "Case taken up", "Your ITR case has been taken up for review.")
	return taken, nil
}

// AssignCA forwards a taken case to a chartered accountant, moving it to
// IN_PROGRESS and linking the subadmin to the CA
func (e *WorkflowEngine) AssignCA(actor models.Actor, caseID, caID string) (*models.Case, error) {
	var assigned *models.Case
	err := e.db.Transaction(func(tx *gorm.DB) error {
		caseRecord, err := lockCase(tx, caseID)
		if err != nil {
			return err
		}
		if !CanTransition(actor.Role, caseRecord.Status, models.CaseStatusInProgress) {
			return ErrInvalidTransition
		}
		if caseRecord.SubadminID == nil || *caseRecord.SubadminID != actor.ID {
			return ErrNotAssigned
		}

		var ca models.User
		if err := tx.First(&ca, "id = ? AND role = ?", caID, models.RoleCA).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("chartered accountant %s: %w", caID, gorm.ErrRecordNotFound)
			}
			return err
		}

		if err := tx.Model(&models.Case{}).
			Where("id = ?", caseID).
			Updates(map[string]interface{}{
				"ca_id":  caID,
				"status": models.CaseStatusInProgress,
			}).Error; err != nil {
			return fmt.Errorf("failed to assign CA: %w", err)
		}

		link := &models.CaseAssignment{
			CaseID:     caseID,
			Kind:       models.AssignmentCAQueue,
			SubadminID: &actor.ID,
			CAID:       &caID,
		}
		if err := tx.Create(link).Error; err != nil {
			return fmt.Errorf("failed to create CA link: %w", err)
		}
		if err := RecordMilestone(tx, caseID, models.MilestoneCAAssigned, time.Now()); err != nil {
			return err
		}

		e.writeAudit(tx, actor, caseID, models.AuditActionAssign, "case assigned to CA "+caID)
		caseRecord.CAID = &caID
		caseRecord.Status = models.CaseStatusInProgress
		assigned = caseRecord
		return nil
	})
	if err != nil {
		return nil, translateLockErr(err)
	}

	e.notifyAgent(assigned, "Case in progress", "Your ITR case has been assigned to a chartered accountant.")
	return assigned, nil
}

// MarkFilled records that the assigned CA finished the filing work,
// IN_PROGRESS -> FILLED
func (e *WorkflowEngine) MarkFilled(actor models.Actor, caseID string) (*models.Case, error) {
	var filled *models.Case
	err := e.db.Transaction(func(tx *gorm.DB) error {
		caseRecord, err := lockCase(tx, caseID)
		if err != nil {
			return err
		}
		if !CanTransition(actor.Role, caseRecord.Status, models.CaseStatusFilled) {
			return ErrInvalidTransition
		}
		if actor.IsCA() && (caseRecord.CAID == nil || *caseRecord.CAID != actor.ID) {
			return ErrNotAssigned
		}

		if err := tx.Model(&models.Case{}).
			Where("id = ?", caseID).
			Update("status", models.CaseStatusFilled).Error; err != nil {
			return fmt.Errorf("failed to mark case filled: %w", err)
		}
		if err := RecordMilestone(tx, caseID, models.MilestoneFilled, time.Now()); err != nil {
			return err
		}

		e.writeAudit(tx, actor, caseID, models.AuditActionUpdate, "CA marked case filled")
		caseRecord.Status = models.CaseStatusFilled
		filled = caseRecord
		return nil
	})
	if err != nil {
		return nil, translateLockErr(err)
	}

	e.notifyAgent(filled, "Return filled", "Your ITR has been prepared and filed by the CA.")
	return filled, nil
}

// StartEVerification moves a filled case into the e-verification step,
// FILLED -> E_VERIFICATION
func (e *WorkflowEngine) StartEVerification(actor models.Actor, caseID string) (*models.Case, error) {
	var verified *models.Case
	err := e.db.Transaction(func(tx *gorm.DB) error {
		caseRecord, err := lockCase(tx, caseID)
		if err != nil {
			return err
		}
		if !CanTransition(actor.Role, caseRecord.Status, models.CaseStatusEVerification) {
			return ErrInvalidTransition
		}

		if err := tx.Model(&models.Case{}).
			Where("id = ?", caseID).
			Update("status", models.CaseStatusEVerification).Error; err != nil {
			return fmt.Errorf("failed to start e-verification: %w", err)
		}
		if err := RecordMilestone(tx, caseID, models.MilestoneEVerified, time.Now()); err != nil {
			return err
		}

		e.writeAudit(tx, actor, caseID, models.AuditActionUpdate, "e-verification started")
		caseRecord.Status = models.CaseStatusEVerification
		verified = caseRecord
		return nil
	})
	if err != nil {
		return nil, translateLockErr(err)
	}

	e.notifyAgent(verified, "E-verification", "Your ITR case has entered e-verification.")
	return verified, nil
}

// Complete closes the case after the e-verification check,
// FILLED/E_VERIFICATION -> COMPLETED
func (e *WorkflowEngine) Complete(actor models.Actor, caseID string) (*models.Case, error) {
	var completed *models.Case
	err := e.db.Transaction(func(tx *gorm.DB) error {
		caseRecord, err := lockCase(tx, caseID)
		if err != nil {
			return err
		}
		if !CanTransition(actor.Role, caseRecord.Status, models.CaseStatusCompleted) {
			return ErrInvalidTransition
		}

		if err := tx.Model(&models.Case{}).
			Where("id = ?", caseID).
			Update("status", models.CaseStatusCompleted).Error; err != nil {
			return fmt.Errorf("failed to complete case: %w", err)
		}
		if err := RecordMilestone(tx, caseID, models.MilestoneCompleted, time.Now()); err != nil {
			return err
		}

		e.writeAudit(tx, actor, caseID, models.AuditActionComplete, "case completed")
		caseRecord.Status = models.CaseStatusCompleted
		completed = caseRecord
		return nil
	})
	if err != nil {
		return nil, translateLockErr(err)
	}

	e.notifyAgent(completed, "Case completed", "Your ITR filing is complete.")
	return completed, nil
}

// Reject moves a non-terminal case to REJECTED, recording the reason and the
// optional extra charge the agent must pay to reapply. Rejecting a completed
// case fails with ErrInvalidTransition, never silently succeeds. One unified
// path is used for all rejecting roles: the CA link is always cleared.
func (e *WorkflowEngine) Reject(actor models.Actor, caseID, reason string, extraCharge *decimal.Decimal) (*models.Case, error) {
	actorType, ok := map[string]string{
		models.RoleSubadmin:   models.RejectedBySubadmin,
		models.RoleCA:         models.RejectedByCA,
		models.RoleSuperadmin: models.RejectedBySuperadmin,
	}[actor.Role]
	if !ok {
		return nil, ErrInvalidTransition
	}
	if extraCharge != nil && extraCharge.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	var rejected *models.Case
	err := e.db.Transaction(func(tx *gorm.DB) error {
		caseRecord, err := lockCase(tx, caseID)
		if err != nil {
			return err
		}
		if !CanTransition(actor.Role, caseRecord.Status, models.CaseStatusRejected) {
			return ErrInvalidTransition
		}

		if err := tx.Model(&models.Case{}).
			Where("id = ?", caseID).
			Updates(map[string]interface{}{
				"status":       models.CaseStatusRejected,
				"comment":      reason,
				"extra_charge": extraCharge,
			}).Error; err != nil {
			return fmt.Errorf("failed to reject case: %w", err)
		}

		if _, err := AppendRejection(tx, caseID, actorType, actor.ID, reason, extraCharge); err != nil {
			return err
		}
		if err := tx.Where("case_id = ? AND kind = ?", caseID, models.AssignmentCAQueue).
			Delete(&models.CaseAssignment{}).Error; err != nil {
			return fmt.Errorf("failed to clear CA link: %w", err)
		}

		e.writeAudit(tx, actor, caseID, models.AuditActionReject, "case rejected: "+reason)
		caseRecord.Status = models.CaseStatusRejected
		caseRecord.Comment = &reason
		caseRecord.ExtraCharge = extraCharge
		rejected = caseRecord
		return nil
	})
	if err != nil {
		return nil, translateLockErr(err)
	}

	e.notifyAgent(rejected, "Case rejected", "Your ITR case was rejected: "+reason)
	return rejected, nil
}

// Reapply returns a REJECTED case to PENDING. If an extra charge is owed the
// agent's wallet is debited inside the same unit of work; a failed debit aborts
// the reapplication and leaves the case REJECTED. A superadmin reapply is an
// undo-reject and never charges. The case re-enters the assignment pool clean:
// comment, extra charge, CA assignment, link rows and queue entries are cleared,
// and the flow timestamps of the rejected cycle are reset. Rejection history is
// kept untouched.
func (e *WorkflowEngine) Reapply(actor models.Actor, caseID string) (*models.Case, error) {
	var reapplied *models.Case
	err := e.db.Transaction(func(tx *gorm.DB) error {
		caseRecord, err := lockCase(tx, caseID)
		if err != nil {
			return err
		}
		// A racing reapply that lost the lock sees the committed PENDING
		// status here and fails.
		if caseRecord.Status != models.CaseStatusRejected {
			return ErrInvalidTransition
		}
		if !CanTransition(actor.Role, caseRecord.Status, models.CaseStatusPending) {
			return ErrInvalidTransition
		}
		if actor.IsAgent() && caseRecord.AgentID != actor.ID {
			return ErrNotCaseOwner
		}

		// Debit first: if the wallet cannot cover the extra charge the whole
		// reapplication rolls back and the status stays REJECTED.
		if caseRecord.ExtraCharge != nil && caseRecord.ExtraCharge.GreaterThan(decimal.Zero) && !actor.IsSuperadmin() {
			ref := caseID
			if _, err := DebitTx(tx, caseRecord.AgentID, *caseRecord.ExtraCharge,
				models.ReferenceITRExtraCharge, &ref, "reapplication extra charge"); err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Case{}).
			Where("id = ?", caseID).
			Updates(map[string]interface{}{
				"status":       models.CaseStatusPending,
				"comment":      nil,
				"extra_charge": nil,
				"ca_id":        nil,
			}).Error; err != nil {
			return fmt.Errorf("failed to reset case: %w", err)
		}

		if err := tx.Where("case_id = ?", caseID).
			Delete(&models.CaseAssignment{}).Error; err != nil {
			return fmt.Errorf("failed to clear assignment entries: %w", err)
		}
		if err := ResetFlowForReapply(tx, caseID); err != nil {
			return err
		}

		// Cases rejected before any subadmin took them re-enter the queue
		if caseRecord.SubadminID == nil {
			queueEntry := &models.CaseAssignment{
				CaseID: caseID,
				Kind:   models.AssignmentSubadminQueue,
			}
			if err := tx.Create(queueEntry).Error; err != nil {
				return fmt.Errorf("failed to re-enqueue case: %w", err)
			}
		}

		e.writeAudit(tx, actor, caseID, models.AuditActionReapply, "case reapplied")
		caseRecord.Status = models.CaseStatusPending
		caseRecord.Comment = nil
		caseRecord.ExtraCharge = nil
		caseRecord.CAID = nil
		reapplied = caseRecord
		return nil
	})
	if err != nil {
		return nil, translateLockErr(err)
	}

	e.notifyAgent(reapplied, "Case reapplied", "Your ITR case has been resubmitted for filing.")
	return reapplied, nil
}

// PayFilingFee debits the filing fee from the owning agent's wallet against the
// case. The case status is unaffected.
func (e *WorkflowEngine) PayFilingFee(actor models.Actor, caseID string, amount decimal.Decimal) (*models.WalletTransaction, error) {
	var entry *models.WalletTransaction
	err := e.db.Transaction(func(tx *gorm.DB) error {
		caseRecord, err := lockCase(tx, caseID)
		if err != nil {
			return err
		}
		if actor.IsAgent() && caseRecord.AgentID != actor.ID {
			return ErrNotCaseOwner
		}

		ref := caseID
		entry, err = DebitTx(tx, caseRecord.AgentID, amount, models.ReferenceITRPayment, &ref, "ITR filing fee")
		if err != nil {
			return err
		}

		e.writeAudit(tx, actor, caseID, models.AuditActionDebit, "filing fee paid: "+amount.String())
		return nil
	})
	if err != nil {
		return nil, translateLockErr(err)
	}
	return entry, nil
}

// writeAudit appends an audit row inside the operation's transaction so the
// audit trail commits with the change it describes
func (e *WorkflowEngine) writeAudit(tx *gorm.DB, actor models.Actor, caseID string, action models.AuditAction, description string) {
	entry := &models.AuditLog{
		ActorID:      &actor.ID,
		ActorRole:    actor.Role,
		ResourceType: "Case",
		ResourceID:   caseID,
		Action:       action,
		Description:  description,
	}
	if err := tx.Create(entry).Error; err != nil {
		log.Printf("[AUDIT] Failed to create audit log: %v", err)
	}
}

// notifyAgent sends a best-effort notification to the case's owning agent.
// Notification failures never fail the workflow operation.
func (e *WorkflowEngine) notifyAgent(caseRecord *models.Case, title, message string) {
	if e.notifier == nil || caseRecord == nil {
		return
	}
	notification := &models.Notification{
		UserID:  caseRecord.AgentID,
		CaseID:  &caseRecord.ID,
		Type:    models.NotificationTypeCaseUpdate,
		Title:   title,
		Message: message,
	}
	if err := e.notifier.CreateNotification(notification); err != nil {
		log.Printf("[NOTIFY] Failed to create notification for case %s: %v", caseRecord.ID, err)
	}
}
