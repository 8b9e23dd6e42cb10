package services

import (
	"errors"
	"fmt"
	"itr_flow_app_go/models"
	"time"

	"gorm.io/gorm"
)

// Case-related errors
var (
	ErrCaseNotFound     = errors.New("case not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrDuplicateCase    = errors.New("a case already exists for this customer and assessment year")
	ErrNotCaseOwner     = errors.New("case does not belong to this agent")
	ErrEditNotGranted   = errors.New("agent edit has not been granted for this case")
)

// customerFieldColumns is the closed set of customer fields reachable through
// field updates. Update sets are built from this map only, never from raw
// request bodies.
var customerFieldColumns = map[string]string{
	"name":           "name",
	"pan_number":     "pan_number",
	"aadhaar_number": "aadhaar_number",
	"mobile":         "mobile",
	"email":          "email",
	"father_name":    "father_name",
	"address":        "address",
	"city":           "city",
	"state":          "state",
	"pincode":        "pincode",
	"bank_name":      "bank_name",
	"account_number": "account_number",
	"ifsc_code":      "ifsc_code",
	"income_source":  "income_source",
}

// customerFieldValue returns the current value of an editable customer field
func customerFieldValue(customer *models.Customer, field string) string {
	switch field {
	case "name":
		return customer.Name
	case "pan_number":
		return customer.PanNumber
	case "aadhaar_number":
		return customer.AadhaarNumber
	case "mobile":
		return customer.Mobile
	case "email":
		return customer.Email
	case "father_name":
		return customer.FatherName
	case "address":
		return customer.Address
	case "city":
		return customer.City
	case "state":
		return customer.State
	case "pincode":
		return customer.Pincode
	case "bank_name":
		return customer.BankName
	case "account_number":
		return customer.AccountNumber
	case "ifsc_code":
		return customer.IFSCCode
	case "income_source":
		return customer.IncomeSource
	}
	return ""
}

// CreateCustomer registers a taxpayer under the owning agent
func CreateCustomer(db *gorm.DB, customer *models.Customer) error {
	if err := db.Create(customer).Error; err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// GetCustomerByID retrieves a customer by ID
func GetCustomerByID(db *gorm.DB, customerID string) (*models.Customer, error) {
	var customer models.Customer
	if err := db.First(&customer, "id = ?", customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// CreateCase submits a customer for filing. The new case starts PENDING with its
// flow record stamped and a queue entry waiting for a subadmin to take it, all
// created atomically.
func CreateCase(db *gorm.DB, agentID, customerID, assessmentYear string) (*models.Case, error) {
	customer, err := GetCustomerByID(db, customerID)
	if err != nil {
		return nil, err
	}
	if customer.AgentID != agentID {
		return nil, ErrNotCaseOwner
	}

	var count int64
	if err := db.Model(&models.Case{}).
		Where("customer_id = ? AND assessment_year = ?", customerID, assessmentYear).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check for existing case: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateCase
	}

	caseRecord := &models.Case{
		CustomerID:     customerID,
		AgentID:        agentID,
		AssessmentYear: assessmentYear,
		Status:         models.CaseStatusPending,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(caseRecord).Error; err != nil {
			return fmt.Errorf("failed to create case: %w", err)
		}
		if _, err := CreateFlow(tx, caseRecord.ID, time.Now()); err != nil {
			return err
		}
		queueEntry := &models.CaseAssignment{
			CaseID: caseRecord.ID,
			Kind:   models.AssignmentSubadminQueue,
		}
		if err := tx.Create(queueEntry).Error; err != nil {
			return fmt.Errorf("failed to enqueue case for subadmin: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return caseRecord, nil
}

// GetCaseByID retrieves a case with its workflow relationships
func GetCaseByID(db *gorm.DB, caseID string) (*models.Case, error) {
	var caseRecord models.Case
	err := db.Preload("Customer").
		Preload("Flow").
		Preload("Rejections").
		Preload("Documents").
		First(&caseRecord, "id = ?", caseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}
	return &caseRecord, nil
}

// UpdateCustomerFields applies field edits for a case's customer through the
// permission gate. Any denied field aborts the whole update; nothing is written
// partially. An agent edit consumes the case's one-shot edit grant in the same
// transaction.
func UpdateCustomerFields(db *gorm.DB, actor models.Actor, caseID string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		caseRecord, err := lockCase(tx, caseID)
		if err != nil {
			return err
		}

		if actor.IsAgent() {
			if caseRecord.AgentID != actor.ID {
				return ErrNotCaseOwner
			}
			if !caseRecord.AgentEdit {
				return ErrEditNotGranted
			}
		}

		var customer models.Customer
		if err := tx.First(&customer, "id = ?", caseRecord.CustomerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCustomerNotFound
			}
			return err
		}

		updates := make(map[string]interface{}, len(fields))
		for field, value := range fields {
			column, known := customerFieldColumns[field]
			if !known {
				return fmt.Errorf("%w: %s", ErrFieldNotPermitted, field)
			}
			if !CanEditField(actor.Role, field, customerFieldValue(&customer, field)) {
				return fmt.Errorf("%w: %s", ErrFieldNotPermitted, field)
			}
			updates[column] = value
		}

		if err := tx.Model(&models.Customer{}).
			Where("id = ?", customer.ID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update customer fields: %w", err)
		}

		// The agent edit grant is one-shot
		if actor.IsAgent() {
			if err := tx.Model(&models.Case{}).
				Where("id = ?", caseID).
				Update("agent_edit", false).Error; err != nil {
				return fmt.Errorf("failed to consume agent edit grant: %w", err)
			}
		}
		return nil
	})
}

// GrantAgentEdit opens the one-shot edit window for the owning agent. Only a
// subadmin or superadmin may grant it.
func GrantAgentEdit(db *gorm.DB, actor models.Actor, caseID string) error {
	if !actor.IsSubadmin() && !actor.IsSuperadmin() {
		return ErrFieldNotPermitted
	}
	result := db.Model(&models.Case{}).Where("id = ?", caseID).Update("agent_edit", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCaseNotFound
	}
	return nil
}

// AttachDocument records an uploaded file against the actor's document slot on
// the case. The storage key is opaque; bytes live with the storage provider.
func AttachDocument(db *gorm.DB, actor models.Actor, caseID string, result *StorageResult) (*models.CaseDocument, error) {
	slot := actor.Role
	if !models.IsValidDocumentSlot(slot) {
		return nil, ErrFieldNotPermitted
	}

	doc := &models.CaseDocument{
		CaseID:           caseID,
		Slot:             slot,
		StorageKey:       result.Key,
		FileName:         result.FileName,
		FileOriginalName: result.FileOriginalName,
		FileSize:         result.FileSize,
		MimeType:         result.MimeType,
		UploadedByID:     &actor.ID,
	}

	slotColumn := map[string]string{
		models.DocumentSlotAgent:      "agent_document",
		models.DocumentSlotSubadmin:   "subadmin_document",
		models.DocumentSlotCA:         "ca_document",
		models.DocumentSlotSuperadmin: "superadmin_document",
	}[slot]

	err := db.Transaction(func(tx *gorm.DB) error {
		var caseRecord models.Case
		if err := tx.First(&caseRecord, "id = ?", caseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCaseNotFound
			}
			return err
		}
		if err := tx.Create(doc).Error; err != nil {
			return fmt.Errorf("failed to record document: %w", err)
		}
		if err := tx.Model(&models.Case{}).
			Where("id = ?", caseID).
			Update(slotColumn, result.Key).Error; err != nil {
			return fmt.Errorf("failed to set document slot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}
