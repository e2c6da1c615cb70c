package utils

// Error codes returned in the "code" field of failed api responses.
const (
	ErrorAdminAuthFail       = 1001
	ErrorInvalidRequest      = 1002
	ErrorParticipantNotFound = 1003
	ErrorWrongPage           = 1004
	ErrorSessionNotFound     = 1005
	ErrorSessionBootstrap    = 1006
	ErrorInternal            = 1099
)
