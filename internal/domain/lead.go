package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LeadStatus string

const (
	LeadPendingData        LeadStatus = "PendingData"
	LeadQuotedNoPreference LeadStatus = "QuotedNoPreference"
	LeadAssignedToBroker   LeadStatus = "AssignedToBroker"
)

func (s LeadStatus) Valid() bool {
	return s == LeadPendingData || s == LeadQuotedNoPreference || s == LeadAssignedToBroker
}

type BrokerLeadStatus string

const (
	BrokerLeadNew           BrokerLeadStatus = "New"
	BrokerLeadContacted     BrokerLeadStatus = "Contacted"
	BrokerLeadInterested    BrokerLeadStatus = "Interested"
	BrokerLeadNegotiation   BrokerLeadStatus = "Negotiation"
	BrokerLeadNotInterested BrokerLeadStatus = "NotInterested"
	BrokerLeadClosedWon     BrokerLeadStatus = "ClosedWon"
	BrokerLeadClosedLost    BrokerLeadStatus = "ClosedLost"
)

func (s BrokerLeadStatus) Valid() bool {
	switch s {
	case BrokerLeadNew, BrokerLeadContacted, BrokerLeadInterested, BrokerLeadNegotiation,
		BrokerLeadNotInterested, BrokerLeadClosedWon, BrokerLeadClosedLost:
		return true
	}
	return false
}

// Terminal reports whether no further broker status change is accepted.
func (s BrokerLeadStatus) Terminal() bool {
	return s == BrokerLeadClosedWon || s == BrokerLeadClosedLost
}

// Lead is a prospective customer. AssignedBrokerID is set iff Status is AssignedToBroker.
type Lead struct {
	ID                      uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name                    string           `gorm:"column:name" json:"name"`
	PhoneNumber             string           `gorm:"column:phone_number;index" json:"phone_number"`
	Email                   string           `gorm:"column:email" json:"email"`
	Municipality            string           `gorm:"column:municipality" json:"municipality"`
	VehicleMake             string           `gorm:"column:vehicle_make" json:"vehicle_make"`
	VehicleModel            string           `gorm:"column:vehicle_model" json:"vehicle_model"`
	VehicleYear             int              `gorm:"column:vehicle_year" json:"vehicle_year"`
	VehicleValue            decimal.Decimal  `gorm:"column:vehicle_value;type:numeric(18,2);not null;default:0" json:"vehicle_value"`
	SelectedInsurer         string           `gorm:"column:selected_insurer" json:"selected_insurer"`
	SelectedQuotePrice      *decimal.Decimal `gorm:"column:selected_quote_price;type:numeric(18,2)" json:"selected_quote_price"`
	Status                  LeadStatus       `gorm:"column:status;type:varchar(30);not null;index" json:"status"`
	AssignedBrokerID        *uuid.UUID       `gorm:"column:assigned_broker_id;type:uuid;index" json:"assigned_broker_id"`
	AssignedAt              *time.Time       `gorm:"column:assigned_at" json:"assigned_at"`
	SLAFirstContactDeadline *time.Time       `gorm:"column:sla_first_contact_deadline" json:"sla_first_contact_deadline"`
	SLAReassignmentDeadline *time.Time       `gorm:"column:sla_reassignment_deadline" json:"sla_reassignment_deadline"`
	FirstContactedAt        *time.Time       `gorm:"column:first_contacted_at" json:"first_contacted_at"`
	BrokerStatus            BrokerLeadStatus `gorm:"column:broker_status;type:varchar(20);not null;index" json:"broker_status"`
	ClosedAmount            *decimal.Decimal `gorm:"column:closed_amount;type:numeric(18,2)" json:"closed_amount"`
	BrokerNotes             string           `gorm:"column:broker_notes" json:"broker_notes"`
	Version                 int64            `gorm:"column:version;not null;default:0" json:"-"`
	CreatedAt               time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt               time.Time        `json:"updated_at"`
}

func (Lead) TableName() string {
	return "leads"
}

func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// AssignmentCursor persists the round-robin rotation position.
type AssignmentCursor struct {
	Name         string     `gorm:"column:name;primaryKey" json:"name"`
	LastBrokerID *uuid.UUID `gorm:"column:last_broker_id;type:uuid" json:"last_broker_id"`
	Version      int64      `gorm:"column:version;not null;default:0" json:"version"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (AssignmentCursor) TableName() string {
	return "assignment_cursors"
}

// LeadRotationCursor is the cursor used for automatic lead assignment.
const LeadRotationCursor = "lead_round_robin"
