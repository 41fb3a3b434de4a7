package v1

// Errors
const (
	UnknownErrorCode    = 0
	UnknownErrorMessage = "unknown error"

	IdentityNotFoundCode    = 2001
	IdentityNotFoundMessage = "identity not found"
	HandleTakenCode         = 2002
	HandleTakenMessage      = "handle already linked to another user"
	UnknownPlatformCode     = 2003
	UnknownPlatformMessage  = "unknown platform"
)

type ErrorCode int
type ErrorMessage string

type ErrorStruct struct {
	ErrorCode    `json:"error_code"`
	ErrorMessage `json:"error_message"`
}

type ValidationErrorStruct struct {
	ErrorCode    int               `json:"error_code"`
	ErrorMessage string            `json:"error_message"`
	Errors       []ValidationError `json:"validation_errors"`
}

type ValidationError struct {
	FieldKey     string `json:"field_key"`
	ErrorMessage string `json:"error_message"`
}

func getErrorStruct(code ErrorCode) *ErrorStruct {
	errorStruct := &ErrorStruct{
		ErrorCode:    UnknownErrorCode,
		ErrorMessage: UnknownErrorMessage,
	}

	switch code {
	case IdentityNotFoundCode:
		errorStruct.ErrorCode = IdentityNotFoundCode
		errorStruct.ErrorMessage = IdentityNotFoundMessage
	case HandleTakenCode:
		errorStruct.ErrorCode = HandleTakenCode
		errorStruct.ErrorMessage = HandleTakenMessage
	case UnknownPlatformCode:
		errorStruct.ErrorCode = UnknownPlatformCode
		errorStruct.ErrorMessage = UnknownPlatformMessage
	}

	return errorStruct
}
