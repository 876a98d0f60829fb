package httputil

// Machine-readable error codes returned in ErrorResponse.Code.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeInvalidToken     = "INVALID_OR_EXPIRED_TOKEN"
	CodeCapacity         = "CAPACITY_EXCEEDED"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInvalidCreds     = "INVALID_CREDENTIALS"
	CodeEmailNotVerified = "EMAIL_NOT_VERIFIED"
	CodeCSRF             = "CSRF_TOKEN_INVALID"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	CodeInternal         = "INTERNAL_ERROR"
)
