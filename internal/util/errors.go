package util

import "errors"

var (
	ErrNotFound         = errors.New("resource not found")
	ErrNotMember        = errors.New("observer is not a member of this case list")
	ErrMembershipExists = errors.New("observer is already a member of this case list")
	ErrCaseListClosed   = errors.New("case list is past its end date")
	ErrInvitationUsed   = errors.New("invitation key has already been accepted")
	ErrPermissionDenied = errors.New("permission denied")
	// ErrTypeMismatch is the integrity failure raised when a submitted field
	// identifier disagrees with the stored question type.
	ErrTypeMismatch = errors.New("field identifier does not match question type")
)
