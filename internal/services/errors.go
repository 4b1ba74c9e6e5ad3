package services

import "errors"

var (
	ErrDepotNotFound     = errors.New("depot not found")
	ErrFuelTypeNotFound  = errors.New("fuel type not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrCaseNotFound      = errors.New("crisis case not found")
	ErrTankNotFound      = errors.New("tank not found")
	ErrStaleProposal     = errors.New("proposal is no longer valid, re-fetch options and retry")
	ErrInvalidTransition = errors.New("invalid crisis case status transition")
)
