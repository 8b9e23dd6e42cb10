package services

import (
	"itr_flow_app_go/models"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupWorkflowTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	db.AutoMigrate(
		&models.User{}, &models.Customer{}, &models.Case{}, &models.CaseFlow{},
		&models.RejectionEntry{}, &models.CaseAssignment{}, &models.CaseDocument{},
		&models.Wallet{}, &models.WalletTransaction{}, &models.Notification{},
		&models.AuditLog{},
	)
	return db
}

type workflowFixture struct {
	db         *gorm.DB
	engine     *WorkflowEngine
	agent      models.Actor
	subadmin   models.Actor
	ca         models.Actor
	superadmin models.Actor
	caseID     string
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()
	db := setupWorkflowTestDB()

	users := []models.User{
		{Name: "Agent", Email: "agent@example.com", Password: "x", Role: models.RoleAgent},
		{Name: "Subadmin", Email: "sub@example.com", Password: "x", Role: models.RoleSubadmin},
		{Name: "CA", Email: "ca@example.com", Password: "x", Role: models.RoleCA},
		{Name: "Superadmin", Email: "super@example.com", Password: "x", Role: models.RoleSuperadmin},
	}
	for i := range users {
		require.NoError(t, db.Create(&users[i]).Error)
	}

	_, err := EnsureWallet(db, users[0].ID)
	require.NoError(t, err)

	customer := &models.Customer{AgentID: users[0].ID, Name: "Ravi Kumar", PanNumber: "ABCDE1234F"}
	require.NoError(t, CreateCustomer(db, customer))

	caseRecord, err := CreateCase(db, users[0].ID, customer.ID, "2025-26")
	require.NoError(t, err)

	notifier := NewNotificationService(db, nil)
	return &workflowFixture{
		db:         db,
		engine:     NewWorkflowEngine(db, notifier),
		agent:      users[0].Actor(),
		subadmin:   users[1].Actor(),
		ca:         users[2].Actor(),
		superadmin: users[3].Actor(),
		caseID:     caseRecord.ID,
	}
}

func (f *workflowFixture) status(t *testing.T) string {
	t.Helper()
	caseRecord, err := GetCaseByID(f.db, f.caseID)
	require.NoError(t, err)
	return caseRecord.Status
}

// advance drives the case from PENDING to the requested status
func (f *workflowFixture) advance(t *testing.T, to string) {
	t.Helper()

	_, err := f.engine.TakeCase(f.subadmin, f.caseID)
	require.NoError(t, err)
	if to == models.CaseStatusPending {
		return
	}
	_, err = f.engine.AssignCA(f.subadmin, f.caseID, f.ca.ID)
	require.NoError(t, err)
	if to == models.CaseStatusInProgress {
		return
	}
	_, err = f.engine.MarkFilled(f.ca, f.caseID)
	require.NoError(t, err)
	if to == models.CaseStatusFilled {
		return
	}
	_, err = f.engine.StartEVerification(f.ca, f.caseID)
	require.NoError(t, err)
	if to == models.CaseStatusEVerification {
		return
	}
	_, err = f.engine.Complete(f.superadmin, f.caseID)
	require.NoError(t, err)
}

func TestWorkflowHappyPath(t *testing.T) {
	f := newWorkflowFixture(t)

	f.advance(t, models.CaseStatusCompleted)
	assert.Equal(t, models.CaseStatusCompleted, f.status(t))

	flow, _, err := GetHistory(f.db, f.caseID)
	require.NoError(t, err)
	assert.NotNil(t, flow.SubmittedAt)
	assert.NotNil(t, flow.TakenAt)
	assert.NotNil(t, flow.CAAssignedAt)
	assert.NotNil(t, flow.FilledAt)
	assert.NotNil(t, flow.EVerifiedAt)
	assert.NotNil(t, flow.CompletedAt)

	// Subadmin queue entry was consumed, CA link created
	var assignments []models.CaseAssignment
	f.db.Where("case_id = ?", f.caseID).Find(&assignments)
	require.Len(t, assignments, 1)
	assert.Equal(t, models.AssignmentCAQueue, assignments[0].Kind)

	// Every transition left an audit row
	trail, err := GetAuditTrail(f.db, "Case", f.caseID, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(trail), 5)

	// And the agent was notified along the way
	notifier := NewNotificationService(f.db, nil)
	count, err := notifier.GetNotificationCount(f.agent.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, int64(5))
}

func TestWorkflowGuards(t *testing.T) {
	t.Run("Only a subadmin takes a case", func(t *testing.T) {
		f := newWorkflowFixture(t)
		_, err := f.engine.TakeCase(f.ca, f.caseID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("A taken case cannot be taken again", func(t *testing.T) {
		f := newWorkflowFixture(t)
		_, err := f.engine.TakeCase(f.subadmin, f.caseID)
		require.NoError(t, err)
		_, err = f.engine.TakeCase(f.subadmin, f.caseID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("Only the claiming subadmin assigns the CA", func(t *testing.T) {
		f := newWorkflowFixture(t)
		_, err := f.engine.TakeCase(f.subadmin, f.caseID)
		require.NoError(t, err)

		intruder := models.Actor{ID: "someone-else", Role: models.RoleSubadmin}
		_, err = f.engine.AssignCA(intruder, f.caseID, f.ca.ID)
		assert.ErrorIs(t, err, ErrNotAssigned)
	})

	t.Run("Assigning a non-CA user fails", func(t *testing.T) {
		f := newWorkflowFixture(t)
		_, err := f.engine.TakeCase(f.subadmin, f.caseID)
		require.NoError(t, err)

		_, err = f.engine.AssignCA(f.subadmin, f.caseID, f.agent.ID)
		assert.Error(t, err)
		assert.Equal(t, models.CaseStatusPending, f.status(t))
	})

	t.Run("Only the assigned CA marks filled", func(t *testing.T) {
		f := newWorkflowFixture(t)
		f.advance(t, models.CaseStatusInProgress)

		other := models.Actor{ID: "other-ca", Role: models.RoleCA}
		_, err := f.engine.MarkFilled(other, f.caseID)
		assert.ErrorIs(t, err, ErrNotAssigned)
	})

	t.Run("Completing a pending case fails", func(t *testing.T) {
		f := newWorkflowFixture(t)
		_, err := f.engine.Complete(f.superadmin, f.caseID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("Missing case surfaces not found", func(t *testing.T) {
		f := newWorkflowFixture(t)
		_, err := f.engine.TakeCase(f.subadmin, "missing")
		assert.ErrorIs(t, err, ErrCaseNotFound)
	})
}

func TestReject(t *testing.T) {
	t.Run("Rejecting a completed case fails and changes nothing", func(t *testing.T) {
		f := newWorkflowFixture(t)
		f.advance(t, models.CaseStatusCompleted)

		_, err := f.engine.Reject(f.superadmin, f.caseID, "too late", nil)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, models.CaseStatusCompleted, f.status(t))

		_, rejections, _ := GetHistory(f.db, f.caseID)
		assert.Empty(t, rejections)
	})

	t.Run("Agents cannot reject", func(t *testing.T) {
		f := newWorkflowFixture(t)
		_, err := f.engine.Reject(f.agent, f.caseID, "nope", nil)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("Rejection records reason, charge and history, and clears the CA link", func(t *testing.T) {
		f := newWorkflowFixture(t)
		f.advance(t, models.CaseStatusInProgress)

		charge := decimal.NewFromInt(150)
		rejected, err := f.engine.Reject(f.subadmin, f.caseID, "missing Form 16", &charge)
		require.NoError(t, err)
		assert.Equal(t, models.CaseStatusRejected, rejected.Status)

		caseRecord, _ := GetCaseByID(f.db, f.caseID)
		require.NotNil(t, caseRecord.Comment)
		assert.Equal(t, "missing Form 16", *caseRecord.Comment)
		require.NotNil(t, caseRecord.ExtraCharge)
		assert.Equal(t, "150", caseRecord.ExtraCharge.String())

		_, rejections, _ := GetHistory(f.db, f.caseID)
		require.Len(t, rejections, 1)
		assert.Equal(t, models.RejectedBySubadmin, rejections[0].ActorType)
		assert.Equal(t, f.subadmin.ID, rejections[0].ActorID)

		var links []models.CaseAssignment
		f.db.Where("case_id = ? AND kind = ?", f.caseID, models.AssignmentCAQueue).Find(&links)
		assert.Empty(t, links, "unified reject clears the subadmin-CA link")
	})

	t.Run("Non-positive extra charge is rejected", func(t *testing.T) {
		f := newWorkflowFixture(t)
		zero := decimal.Zero
		_, err := f.engine.Reject(f.subadmin, f.caseID, "bad charge", &zero)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestReapply(t *testing.T) {
	t.Run("Reapply requires a rejected case", func(t *testing.T) {
		f := newWorkflowFixture(t)
		_, err := f.engine.Reapply(f.agent, f.caseID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("Insufficient balance aborts the whole reapplication", func(t *testing.T) {
		f := newWorkflowFixture(t)
		f.advance(t, models.CaseStatusInProgress)

		charge := decimal.NewFromInt(150)
		_, err := f.engine.Reject(f.subadmin, f.caseID, "missing Form 16", &charge)
		require.NoError(t, err)

		_, err = Recharge(f.db, f.agent.ID, decimal.NewFromInt(100), "pay-1")
		require.NoError(t, err)

		_, err = f.engine.Reapply(f.agent, f.caseID)
		assert.ErrorIs(t, err, ErrInsufficientFunds)

		assert.Equal(t, models.CaseStatusRejected, f.status(t))

		entries, _ := GetTransactions(f.db, f.agent.ID)
		assert.Len(t, entries, 1, "no debit row appended")
		wallet, _ := GetWalletByAgent(f.db, f.agent.ID)
		assert.Equal(t, "100", wallet.Balance.String())
	})

	t.Run("Paid reapplication debits once and resets the case", func(t *testing.T) {
		f := newWorkflowFixture(t)
		f.advance(t, models.CaseStatusInProgress)

		charge := decimal.NewFromInt(150)
		_, err := f.engine.Reject(f.subadmin, f.caseID, "missing Form 16", &charge)
		require.NoError(t, err)

		_, err = Recharge(f.db, f.agent.ID, decimal.NewFromInt(500), "pay-2")
		require.NoError(t, err)

		reapplied, err := f.engine.Reapply(f.agent, f.caseID)
		require.NoError(t, err)
		assert.Equal(t, models.CaseStatusPending, reapplied.Status)

		wallet, _ := GetWalletByAgent(f.db, f.agent.ID)
		assert.Equal(t, "350", wallet.Balance.String())

		entries, _ := GetTransactions(f.db, f.agent.ID)
		require.Len(t, entries, 2)
		debit := entries[1]
		assert.Equal(t, models.TransactionTypeDebit, debit.Type)
		assert.Equal(t, "500", debit.BalanceBefore.String())
		assert.Equal(t, "350", debit.BalanceAfter.String())
		assert.Equal(t, models.ReferenceITRExtraCharge, debit.ReferenceType)
		require.NotNil(t, debit.ReferenceID)
		assert.Equal(t, f.caseID, *debit.ReferenceID)

		caseRecord, _ := GetCaseByID(f.db, f.caseID)
		assert.Nil(t, caseRecord.Comment)
		assert.Nil(t, caseRecord.ExtraCharge)
		assert.Nil(t, caseRecord.CAID)
		assert.NotNil(t, caseRecord.SubadminID, "subadmin assignment survives reapply")

		var assignments []models.CaseAssignment
		f.db.Where("case_id = ?", f.caseID).Find(&assignments)
		assert.Empty(t, assignments, "queue and link rows are cleared")

		flow, rejections, _ := GetHistory(f.db, f.caseID)
		assert.Nil(t, flow.CAAssignedAt)
		assert.Nil(t, flow.FilledAt)
		assert.Len(t, rejections, 1, "rejection history is permanent")
	})

	t.Run("Free reapplication when no charge is owed", func(t *testing.T) {
		f := newWorkflowFixture(t)
		_, err := f.engine.Reject(f.superadmin, f.caseID, "wrong year", nil)
		require.NoError(t, err)

		_, err = f.engine.Reapply(f.agent, f.caseID)
		require.NoError(t, err)
		assert.Equal(t, models.CaseStatusPending, f.status(t))

		entries, _ := GetTransactions(f.db, f.agent.ID)
		assert.Empty(t, entries)
	})

	t.Run("Superadmin undo-reject never charges", func(t *testing.T) {
		f := newWorkflowFixture(t)
		charge := decimal.NewFromInt(150)
		_, err := f.engine.Reject(f.subadmin, f.caseID, "missing Form 16", &charge)
		require.NoError(t, err)

		_, err = f.engine.Reapply(f.superadmin, f.caseID)
		require.NoError(t, err)
		assert.Equal(t, models.CaseStatusPending, f.status(t))

		entries, _ := GetTransactions(f.db, f.agent.ID)
		assert.Empty(t, entries, "no debit for an undo-reject")
	})

	t.Run("Only the owning agent reapplies their case", func(t *testing.T) {
		f := newWorkflowFixture(t)
		_, err := f.engine.Reject(f.superadmin, f.caseID, "wrong year", nil)
		require.NoError(t, err)

		stranger := models.Actor{ID: "other-agent", Role: models.RoleAgent}
		_, err = f.engine.Reapply(stranger, f.caseID)
		assert.ErrorIs(t, err, ErrNotCaseOwner)
	})

	t.Run("The second of two racing reapplies fails and the agent pays once", func(t *testing.T) {
		f := newWorkflowFixture(t)
		f.advance(t, models.CaseStatusInProgress)

		charge := decimal.NewFromInt(150)
		_, err := f.engine.Reject(f.subadmin, f.caseID, "missing Form 16", &charge)
		require.NoError(t, err)
		_, err = Recharge(f.db, f.agent.ID, decimal.NewFromInt(500), "pay-3")
		require.NoError(t, err)

		// First reapply wins the row lock and commits
		_, err = f.engine.Reapply(f.agent, f.caseID)
		require.NoError(t, err)

		// The loser observes the committed PENDING status
		_, err = f.engine.Reapply(f.agent, f.caseID)
		assert.ErrorIs(t, err, ErrInvalidTransition)

		entries, _ := GetTransactions(f.db, f.agent.ID)
		require.Len(t, entries, 2, "exactly one debit")
		wallet, _ := GetWalletByAgent(f.db, f.agent.ID)
		assert.Equal(t, "350", wallet.Balance.String())

		replayed, err := ReplayBalance(f.db, f.agent.ID)
		require.NoError(t, err)
		assert.True(t, replayed.Equal(wallet.Balance))
	})

	t.Run("A case rejected before being taken re-enters the queue", func(t *testing.T) {
		f := newWorkflowFixture(t)
		_, err := f.engine.Reject(f.superadmin, f.caseID, "bad PAN", nil)
		require.NoError(t, err)

		_, err = f.engine.Reapply(f.agent, f.caseID)
		require.NoError(t, err)

		var queue []models.CaseAssignment
		f.db.Where("case_id = ? AND kind = ?", f.caseID, models.AssignmentSubadminQueue).Find(&queue)
		assert.Len(t, queue, 1)
	})
}

func TestPayFilingFee(t *testing.T) {
	f := newWorkflowFixture(t)
	_, err := Recharge(f.db, f.agent.ID, decimal.NewFromInt(300), "pay-4")
	require.NoError(t, err)

	t.Run("Fee is debited against the case", func(t *testing.T) {
		entry, err := f.engine.PayFilingFee(f.agent, f.caseID, decimal.NewFromInt(200))
		require.NoError(t, err)
		assert.Equal(t, models.ReferenceITRPayment, entry.ReferenceType)
		require.NotNil(t, entry.ReferenceID)
		assert.Equal(t, f.caseID, *entry.ReferenceID)

		wallet, _ := GetWalletByAgent(f.db, f.agent.ID)
		assert.Equal(t, "100", wallet.Balance.String())
		assert.Equal(t, models.CaseStatusPending, f.status(t), "payment does not move the case")
	})

	t.Run("A stranger cannot pay against another agent's case", func(t *testing.T) {
		stranger := models.Actor{ID: "other-agent", Role: models.RoleAgent}
		_, err := f.engine.PayFilingFee(stranger, f.caseID, decimal.NewFromInt(50))
		assert.ErrorIs(t, err, ErrNotCaseOwner)
	})
}
