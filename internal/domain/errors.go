package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidTerm         = errors.New("term must be at least one period")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrOverpaymentRejected = errors.New("payment exceeds outstanding balance beyond tolerance")
	ErrUnbalancedEntry     = errors.New("journal entry debits and credits do not balance")
	ErrPeriodClosed        = errors.New("period is closed for posting")
	ErrPeriodAlreadyClosed = errors.New("period has already been closed")
	ErrAlreadyReversed     = errors.New("repayment has already been reversed")
	ErrConcurrencyConflict = errors.New("concurrent modification, please retry")
	ErrLoanNotPending      = errors.New("loan is not pending approval")
	ErrLoanNotActive       = errors.New("loan is not active")
	ErrInvalidTransition   = errors.New("invalid loan status transition")
	ErrSystemAccount       = errors.New("system accounts cannot be deleted")
)
