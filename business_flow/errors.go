// Package businessflow contains the core business logic and use cases for carbon tracking workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// User-related errors
	ErrUserNotFound    = errors.New("user not found")
	ErrAccountInactive = errors.New("account is inactive")

	// Bill-related errors
	ErrBillNotFound        = errors.New("bill not found")
	ErrBillAccessDenied    = errors.New("bill access denied")
	ErrUnknownBillCategory = errors.New("unknown bill category")
	ErrBillAmountRequired  = errors.New("bill amount or units must be provided")
	ErrBillDateInvalid     = errors.New("bill date is invalid")

	// Extraction-related errors
	ErrExtractionParse       = errors.New("extraction reply could not be parsed")
	ErrExtractionIncomplete  = errors.New("extraction reply is missing required fields")
	ErrUnreadablePDF         = errors.New("pdf has no extractable text")
	ErrRequiresManualInput   = errors.New("bill requires manual input")
	ErrExtractionUnavailable = errors.New("extraction service unavailable")
	ErrUnsupportedFileType   = errors.New("unsupported file type")

	// Score-related errors
	ErrScoreNotFound    = errors.New("carbon score not found")
	ErrInvalidMonthKey  = errors.New("month key must be formatted YYYY-MM")
	ErrScoreComputation = errors.New("carbon score computation failed")

	// Budget-related errors
	ErrBudgetNotFound     = errors.New("carbon budget not found")
	ErrBudgetTargetTooLow = errors.New("budget target must be positive")

	// Challenge-related errors
	ErrChallengeNotFound      = errors.New("challenge not found")
	ErrChallengeAlreadyJoined = errors.New("challenge already joined")
	ErrChallengeNotJoined     = errors.New("challenge not joined")
	ErrChallengeInactive      = errors.New("challenge is inactive")
	ErrInvalidProgress        = errors.New("progress must be between 0 and 100")

	// Filter errors
	ErrInvalidPage           = errors.New("page must be at least 1")
	ErrInvalidPageSize       = errors.New("page size must be between 1 and 100")
	ErrStartDateAfterEndDate = errors.New("start date cannot be after end date")

	// Cache errors
	ErrCacheNotAvailable = errors.New("cache not available")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsBillNotFound(err error) bool {
	return errors.Is(err, ErrBillNotFound)
}

func IsBillAccessDenied(err error) bool {
	return errors.Is(err, ErrBillAccessDenied)
}

func IsUnknownBillCategory(err error) bool {
	return errors.Is(err, ErrUnknownBillCategory)
}

func IsBillAmountRequired(err error) bool {
	return errors.Is(err, ErrBillAmountRequired)
}

func IsBillDateInvalid(err error) bool {
	return errors.Is(err, ErrBillDateInvalid)
}

func IsExtractionParse(err error) bool {
	return errors.Is(err, ErrExtractionParse)
}

func IsExtractionIncomplete(err error) bool {
	return errors.Is(err, ErrExtractionIncomplete)
}

func IsUnreadablePDF(err error) bool {
	return errors.Is(err, ErrUnreadablePDF)
}

func IsRequiresManualInput(err error) bool {
	return errors.Is(err, ErrRequiresManualInput)
}

func IsExtractionUnavailable(err error) bool {
	return errors.Is(err, ErrExtractionUnavailable)
}

func IsUnsupportedFileType(err error) bool {
	return errors.Is(err, ErrUnsupportedFileType)
}

func IsScoreNotFound(err error) bool {
	return errors.Is(err, ErrScoreNotFound)
}

func IsInvalidMonthKey(err error) bool {
	return errors.Is(err, ErrInvalidMonthKey)
}

func IsBudgetNotFound(err error) bool {
	return errors.Is(err, ErrBudgetNotFound)
}

func IsBudgetTargetTooLow(err error) bool {
	return errors.Is(err, ErrBudgetTargetTooLow)
}

func IsChallengeNotFound(err error) bool {
	return errors.Is(err, ErrChallengeNotFound)
}

func IsChallengeAlreadyJoined(err error) bool {
	return errors.Is(err, ErrChallengeAlreadyJoined)
}

func IsChallengeNotJoined(err error) bool {
	return errors.Is(err, ErrChallengeNotJoined)
}

func IsChallengeInactive(err error) bool {
	return errors.Is(err, ErrChallengeInactive)
}

func IsInvalidProgress(err error) bool {
	return errors.Is(err, ErrInvalidProgress)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}

func IsStartDateAfterEndDate(err error) bool {
	return errors.Is(err, ErrStartDateAfterEndDate)
}

func IsCacheNotAvailable(err error) bool {
	return errors.Is(err, ErrCacheNotAvailable)
}
