package models

import (
	"time"

	"github.com/erp/payables/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayableEntryModel is the persistence model for the PayableEntry aggregate root.
// The recurrence block is stored inline; a NULL recurrence_id means standalone.
type PayableEntryModel struct {
	TenantAggregateModel
	EntryNumber       string                   `gorm:"type:varchar(50);not null;index"`
	CustomerID        uuid.UUID                `gorm:"type:uuid;not null;index"`
	CategoryID        *uuid.UUID               `gorm:"type:uuid;index"`
	DocumentTypeID    *uuid.UUID               `gorm:"type:uuid"`
	DocumentID        string                   `gorm:"type:varchar(100)"`
	BankAccountID     *uuid.UUID               `gorm:"type:uuid;index"`
	Description       string                   `gorm:"type:varchar(500)"`
	Remark            string                   `gorm:"type:text"`
	GrossAmount       decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	NetAmount         decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	PaidAmount        decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	DueDate           time.Time                `gorm:"not null;index"`
	IssueDate         time.Time                `gorm:"not null"`
	PaymentDate       *time.Time               `gorm:"default:null"`
	InstallmentLabel  string                   `gorm:"type:varchar(7);not null;default:'001/001'"`
	RecurrenceID      *uuid.UUID               `gorm:"type:uuid;index"`
	RecurrenceCurrent int                      `gorm:"not null;default:0"`
	RecurrenceTotal   int                      `gorm:"not null;default:0"`
	RecurrencePeriod  finance.RecurrencePeriod `gorm:"type:varchar(20)"`
	WeekendRule       finance.WeekendRule      `gorm:"type:varchar(20)"`
	RepeatDay         int                      `gorm:"not null;default:0"`
	Cancelled         bool                     `gorm:"not null;default:false;index"`
	CancelledAt       *time.Time               `gorm:"default:null"`
	CancelReason      string                   `gorm:"type:varchar(500)"`
	Launches          []PayableLaunchModel     `gorm:"foreignKey:EntryID;references:ID"`
}

// TableName returns the table name for GORM
func (PayableEntryModel) TableName() string {
	return "payable_entries"
}

// ToDomain converts the persistence model to a domain PayableEntry.
func (m *PayableEntryModel) ToDomain() *finance.PayableEntry {
	e := &finance.PayableEntry{
		EntryNumber:      m.EntryNumber,
		CustomerID:       m.CustomerID,
		CategoryID:       m.CategoryID,
		DocumentTypeID:   m.DocumentTypeID,
		DocumentID:       m.DocumentID,
		BankAccountID:    m.BankAccountID,
		Description:      m.Description,
		Remark:           m.Remark,
		GrossAmount:      m.GrossAmount,
		NetAmount:        m.NetAmount,
		PaidAmount:       m.PaidAmount,
		DueDate:          finance.DateOnly(m.DueDate),
		IssueDate:        finance.DateOnly(m.IssueDate),
		PaymentDate:      m.PaymentDate,
		InstallmentLabel: m.InstallmentLabel,
		Cancelled:        m.Cancelled,
		CancelledAt:      m.CancelledAt,
		CancelReason:     m.CancelReason,
		Launches:         make([]finance.Launch, len(m.Launches)),
	}
	m.PopulateTenantAggregateRoot(&e.TenantAggregateRoot)

	if m.RecurrenceID != nil {
		e.Recurrence = &finance.RecurrenceInfo{
			RecurrenceID: *m.RecurrenceID,
			Current:      m.RecurrenceCurrent,
			Total:        m.RecurrenceTotal,
			Period:       m.RecurrencePeriod,
			WeekendRule:  m.WeekendRule,
			RepeatDay:    m.RepeatDay,
		}
	}
	for i := range m.Launches {
		e.Launches[i] = m.Launches[i].ToDomain()
	}
	return e
}

// FromDomain populates the persistence model from a domain PayableEntry.
func (m *PayableEntryModel) FromDomain(e *finance.PayableEntry) {
	m.FromDomainTenantAggregateRoot(e.TenantAggregateRoot)
	m.EntryNumber = e.EntryNumber
	m.CustomerID = e.CustomerID
	m.CategoryID = e.CategoryID
	m.DocumentTypeID = e.DocumentTypeID
	m.DocumentID = e.DocumentID
	m.BankAccountID = e.BankAccountID
	m.Description = e.Description
	m.Remark = e.Remark
	m.GrossAmount = e.GrossAmount
	m.NetAmount = e.NetAmount
	m.PaidAmount = e.PaidAmount
	m.DueDate = e.DueDate
	m.IssueDate = e.IssueDate
	m.PaymentDate = e.PaymentDate
	m.InstallmentLabel = e.InstallmentLabel
	m.Cancelled = e.Cancelled
	m.CancelledAt = e.CancelledAt
	m.CancelReason = e.CancelReason
	m.ApplyRecurrence(e.Recurrence)

	m.Launches = make([]PayableLaunchModel, len(e.Launches))
	for i, l := range e.Launches {
		m.Launches[i] = PayableLaunchModelFromDomain(e.ID, i, l)
	}
}

// ApplyRecurrence writes the inline recurrence columns; nil clears them.
func (m *PayableEntryModel) ApplyRecurrence(r *finance.RecurrenceInfo) {
	if r == nil {
		m.RecurrenceID = nil
		m.RecurrenceCurrent = 0
		m.RecurrenceTotal = 0
		m.RecurrencePeriod = ""
		m.WeekendRule = ""
		m.RepeatDay = 0
		return
	}
	id := r.RecurrenceID
	m.RecurrenceID = &id
	m.RecurrenceCurrent = r.Current
	m.RecurrenceTotal = r.Total
	m.RecurrencePeriod = r.Period
	m.WeekendRule = r.WeekendRule
	m.RepeatDay = r.RepeatDay
}

// PayableEntryModelFromDomain creates a new persistence model from a domain PayableEntry.
func PayableEntryModelFromDomain(e *finance.PayableEntry) *PayableEntryModel {
	m := &PayableEntryModel{}
	m.FromDomain(e)
	return m
}

// PayableLaunchModel is one row of an entry's ledger. Position keeps the fold order.
type PayableLaunchModel struct {
	ID           uuid.UUID               `gorm:"type:uuid;primary_key"`
	EntryID      uuid.UUID               `gorm:"type:uuid;not null;index"`
	Position     int                     `gorm:"not null"`
	TypeID       string                  `gorm:"type:varchar(50);not null"`
	Operation    finance.LaunchOperation `gorm:"type:varchar(10);not null"`
	IsSettlement bool                    `gorm:"not null;default:false"`
	Amount       decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	Date         time.Time               `gorm:"not null"`
	Description  string                  `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (PayableLaunchModel) TableName() string {
	return "payable_launches"
}

// ToDomain converts the persistence model to a domain Launch.
func (m *PayableLaunchModel) ToDomain() finance.Launch {
	return finance.Launch{
		ID:           m.ID,
		Amount:       m.Amount,
		Date:         finance.DateOnly(m.Date),
		TypeID:       m.TypeID,
		Operation:    m.Operation,
		IsSettlement: m.IsSettlement,
		Description:  m.Description,
	}
}

// PayableLaunchModelFromDomain creates a launch row at the given ledger position.
func PayableLaunchModelFromDomain(entryID uuid.UUID, position int, l finance.Launch) PayableLaunchModel {
	return PayableLaunchModel{
		ID:           l.ID,
		EntryID:      entryID,
		Position:     position,
		TypeID:       l.TypeID,
		Operation:    l.Operation,
		IsSettlement: l.IsSettlement,
		Amount:       l.Amount,
		Date:         l.Date,
		Description:  l.Description,
	}
}
