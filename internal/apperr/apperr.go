package apperr

import (
	"fmt"
	"net/http"
)

// Kind classifies an error into one of the stable, machine-readable
// categories the API exposes. The HTTP status is derived from it.
type Kind int

const (
	// Auth
	KindMissingToken Kind = iota
	KindInvalidToken
	KindInvalidCredentials
	KindTokenExpired
	KindAccountLocked
	KindUnauthorized
	KindInsufficientPermissions

	// User
	KindUserNotFound
	KindEmailExists
	KindUsernameExists

	// Room
	KindRoomNotFound
	KindAlreadyJoined
	KindNotMember
	KindRoomFull
	KindRoomNameExists
	KindPrivateNoAccess
	KindOwnerRequired

	// Validation
	KindValidation

	// Rate limiting. Declared for the envelope contract; no component in
	// this service enforces them.
	KindRateLimitExceeded
	KindLoginAttempts

	// Server
	KindDatabase
	KindCache
	KindInternal
)

// Error is the single error type crossing service boundaries. Details
// carries field-level validation messages when Kind is KindValidation.
type Error struct {
	Kind    Kind
	Details map[string][]string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code(), e.Message(), e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code(), e.Message())
}

func (e *Error) Unwrap() error { return e.cause }

// New returns an error of the given kind.
func New(kind Kind) *Error {
	return &Error{Kind: kind}
}

// Wrap returns an error of the given kind carrying cause for logging.
// The cause is never serialized to clients.
func Wrap(kind Kind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}

// Validation returns a KindValidation error with field-level details.
func Validation(details map[string][]string) *Error {
	return &Error{Kind: KindValidation, Details: details}
}

// Code returns the stable machine-readable error code.
func (e *Error) Code() string {
	switch e.Kind {
	case KindMissingToken:
		return "AUTH_MISSING_TOKEN"
	case KindInvalidToken:
		return "AUTH_INVALID_TOKEN"
	case KindInvalidCredentials:
		return "AUTH_INVALID_CREDENTIALS"
	case KindTokenExpired:
		return "AUTH_TOKEN_EXPIRED"
	case KindAccountLocked:
		return "AUTH_ACCOUNT_LOCKED"
	case KindUnauthorized:
		return "AUTH_UNAUTHORIZED"
	case KindInsufficientPermissions:
		return "AUTH_INSUFFICIENT_PERMISSIONS"
	case KindUserNotFound:
		return "USER_NOT_FOUND"
	case KindEmailExists:
		return "USER_EMAIL_EXISTS"
	case KindUsernameExists:
		return "USER_USERNAME_EXISTS"
	case KindRoomNotFound:
		return "ROOM_NOT_FOUND"
	case KindAlreadyJoined:
		return "ROOM_ALREADY_JOINED"
	case KindNotMember:
		return "ROOM_NOT_MEMBER"
	case KindRoomFull:
		return "ROOM_FULL"
	case KindRoomNameExists:
		return "ROOM_NAME_EXISTS"
	case KindPrivateNoAccess:
		return "ROOM_PRIVATE_NO_ACCESS"
	case KindOwnerRequired:
		return "ROOM_OWNER_REQUIRED"
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindRateLimitExceeded:
		return "RATE_LIMIT_EXCEEDED"
	case KindLoginAttempts:
		return "RATE_LIMIT_LOGIN_ATTEMPTS"
	case KindDatabase:
		return "DATABASE_ERROR"
	case KindCache:
		return "CACHE_ERROR"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}

// Message returns the user-facing message for the error.
func (e *Error) Message() string {
	switch e.Kind {
	case KindMissingToken:
		return "Authentication token is required"
	case KindInvalidToken:
		return "Invalid authentication token"
	case KindInvalidCredentials:
		return "Invalid email or password"
	case KindTokenExpired:
		return "Authentication token has expired"
	case KindAccountLocked:
		return "Your account has been locked"
	case KindUnauthorized:
		return "Authentication required"
	case KindInsufficientPermissions:
		return "You don't have permission to perform this action"
	case KindUserNotFound:
		return "User not found"
	case KindEmailExists:
		return "Email address is already registered"
	case KindUsernameExists:
		return "Username is already taken"
	case KindRoomNotFound:
		return "Room not found"
	case KindAlreadyJoined:
		return "You have already joined this room"
	case KindNotMember:
		return "You are not a member of this room"
	case KindRoomFull:
		return "Room has reached maximum capacity"
	case KindRoomNameExists:
		return "Room name is already taken"
	case KindPrivateNoAccess:
		return "This is a private room"
	case KindOwnerRequired:
		return "Only room owner can perform this action"
	case KindValidation:
		return "Input validation failed"
	case KindRateLimitExceeded:
		return "Too many requests. Please try again later"
	case KindLoginAttempts:
		return "Too many login attempts. Please try again later"
	case KindDatabase:
		return "Database operation failed"
	case KindCache:
		return "Cache operation failed"
	default:
		return "An unexpected error occurred. Please try again later"
	}
}

// Status returns the HTTP status code derived from the error kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindMissingToken, KindInvalidToken, KindInvalidCredentials,
		KindTokenExpired, KindUnauthorized:
		return http.StatusUnauthorized
	case KindAccountLocked, KindInsufficientPermissions, KindNotMember,
		KindPrivateNoAccess, KindOwnerRequired:
		return http.StatusForbidden
	case KindUserNotFound, KindRoomNotFound:
		return http.StatusNotFound
	case KindEmailExists, KindUsernameExists, KindAlreadyJoined,
		KindRoomFull, KindRoomNameExists:
		return http.StatusConflict
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindRateLimitExceeded, KindLoginAttempts:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// IsServer reports whether the error is an internal failure whose cause
// should be logged but never surfaced to the client.
func (e *Error) IsServer() bool {
	return e.Status() == http.StatusInternalServerError
}
