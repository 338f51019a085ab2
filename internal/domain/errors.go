package domain

import "errors"

// Lookup and constraint failures shared by every record store.
var (
	ErrApiaryNotFound     = errors.New("apiary not found")
	ErrHiveNotFound       = errors.New("hive not found")
	ErrInspectionNotFound = errors.New("inspection not found")
	ErrTreatmentNotFound  = errors.New("treatment not found")
	ErrHarvestNotFound    = errors.New("harvest not found")
	ErrDuplicateQR        = errors.New("qr string already assigned to another hive")
)
