package apierror

// Error type URIs following the urn:liftbeat:error:* pattern.
// These are used as the "type" field in RFC 9457 Problem Details.
const (
	// TypeValidation indicates request validation failed (400)
	TypeValidation = "urn:liftbeat:error:validation"

	// TypeBadRequest indicates a malformed or invalid request (400)
	TypeBadRequest = "urn:liftbeat:error:bad_request"

	// TypeUnauthorized indicates missing or invalid authentication (401)
	TypeUnauthorized = "urn:liftbeat:error:unauthorized"

	// TypeRateLimit indicates too many requests (429)
	TypeRateLimit = "urn:liftbeat:error:rate_limit"

	// TypeUpstream indicates a required event-store fetch failed (500)
	TypeUpstream = "urn:liftbeat:error:upstream"

	// TypeInternal indicates an unexpected server error (500)
	TypeInternal = "urn:liftbeat:error:internal"
)

// Titles for each error type - human-readable summaries
const (
	TitleValidation   = "Validation Error"
	TitleBadRequest   = "Bad Request"
	TitleUnauthorized = "Authentication Required"
	TitleRateLimit    = "Rate Limit Exceeded"
	TitleUpstream     = "Event Store Unavailable"
	TitleInternal     = "Internal Server Error"
)
