package domain

import "errors"

var (
	ErrInsurerNotFound      = errors.New("Insurer not found")
	ErrInsurerNameTaken     = errors.New("An insurer with this name already exists")
	ErrExclusionNotFound    = errors.New("Vehicle exclusion not found")
	ErrBrokerNotFound       = errors.New("Broker not found")
	ErrBrokerInactive       = errors.New("Broker subscription is not active")
	ErrBrokerHasLeads       = errors.New("Broker still has assigned leads")
	ErrBrokerEmailTaken     = errors.New("A broker with this email already exists")
	ErrLeadNotFound         = errors.New("Lead not found")
	ErrLeadNotAssigned      = errors.New("Lead is not assigned to a broker")
	ErrLeadClosed           = errors.New("Lead is already closed")
	ErrNoEligibleBrokers    = errors.New("No eligible brokers available")
	ErrPlanNotFound         = errors.New("Subscription plan not found")
	ErrPlanInactive         = errors.New("Subscription plan is not active")
	ErrPlanInUse            = errors.New("Subscription plan is assigned to broker accounts")
	ErrAccountNotFound      = errors.New("Account not found")
	ErrAccountAlreadyExists = errors.New("Broker already has an account")
	ErrAccountNotSuspended  = errors.New("Account is not suspended")
	ErrOutstandingBalance   = errors.New("Account has an outstanding balance")
	ErrDuplicateCharge      = errors.New("Billing period already charged")
	ErrInvalidAmount        = errors.New("Amount must be a positive number")
	ErrConcurrentUpdate     = errors.New("Record was modified concurrently, retry the operation")
	ErrJobRunning           = errors.New("Job is already running")
)
