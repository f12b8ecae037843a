package service

import "errors"

var (
	// ErrInvalidCredentials is returned when login email/password do not match.
	ErrInvalidCredentials = errors.New("email or password is incorrect")

	// ErrUnauthorized is returned when a token is missing, invalid or expired.
	ErrUnauthorized = errors.New("you are not authorized")

	// ErrStaleToken is returned when a token was issued before the user's
	// password was last changed.
	ErrStaleToken = errors.New("token is invalid, password has been changed")

	// ErrForbidden is returned when the acting user may not perform the operation.
	ErrForbidden = errors.New("forbidden access")

	// ErrEditWindowExpired is returned when a timesheet is mutated more than
	// 24 hours after creation by a user without the edit-window bypass.
	ErrEditWindowExpired = errors.New("trip can no longer be modified after 24 hours")

	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = errors.New("email already exists")

	// ErrDuplicateTripID is returned when the trip ID is already used by
	// another entry.
	ErrDuplicateTripID = errors.New("trip id already exists")

	// ErrOverlappingInterval is returned when a trip's time interval overlaps
	// an existing entry on the same date.
	ErrOverlappingInterval = errors.New("a trip already exists for this date and time")

	// ErrAdminBulkDelete is returned when a bulk user delete targets an
	// admin-role account.
	ErrAdminBulkDelete = errors.New("admin users cannot be bulk deleted")

	// ErrSelfUpdate is returned when an admin uses the admin-update path on
	// their own account.
	ErrSelfUpdate = errors.New("you cannot update your own profile")

	// ErrUserNotFound is returned when the referenced user does not exist or
	// is not active.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsersNotFound is returned when a bulk operation references missing users.
	ErrUsersNotFound = errors.New("selected users not found")

	// ErrSessionNotFound is returned when the referenced session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrPasswordIncorrect is returned when the supplied current password does
	// not match the stored hash.
	ErrPasswordIncorrect = errors.New("old password is incorrect")

	// ErrValidation is returned when request fields are malformed.
	ErrValidation = errors.New("invalid request")
)
