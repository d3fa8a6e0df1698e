package store

import "errors"

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrPatientNotFound = errors.New("patient not found")
	ErrQueueNotFound   = errors.New("no patient holds that queue number")
	ErrRoomInactive    = errors.New("room is inactive")
	ErrInvalidState    = errors.New("patient state does not allow this action")
	ErrRoomStaffed     = errors.New("room already has an active doctor")
	ErrRoomHasQueue    = errors.New("room still has queued patients")
	ErrDuplicateHN     = errors.New("hn already registered")
)
