package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// Kind groups errors by who can fix them. Clients branch on Kind, humans read Remediation.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuth           Kind = "auth"
	KindConflict       Kind = "conflict"
	KindNotFound       Kind = "not_found"
	KindInfrastructure Kind = "infrastructure"
)

var defaultRemediation = map[Kind]string{
	KindValidation:     "Check the highlighted fields and submit again.",
	KindAuth:           "Sign in again or contact support if the problem persists.",
	KindConflict:       "The request cannot be applied in the current state. Review your account and try a different action.",
	KindNotFound:       "The item no longer exists. Refresh and try again.",
	KindInfrastructure: "Something went wrong on our side. Wait a moment and try again.",
}

var (
	ErrValidation         = New(KindValidation, "VALIDATION_ERROR", "invalid request", http.StatusBadRequest)
	ErrInvalidAmount      = New(KindValidation, "INVALID_AMOUNT", "amount must be greater than zero", http.StatusBadRequest)
	ErrAmountTooLarge     = New(KindValidation, "AMOUNT_TOO_LARGE", "amount exceeds the supported maximum", http.StatusBadRequest).withRemediation("Use a smaller amount.")
	ErrAmountOutOfRange   = New(KindValidation, "AMOUNT_OUT_OF_RANGE", "amount is outside the package range", http.StatusBadRequest).withRemediation("Choose an amount between the package minimum and maximum.")
	ErrAmountBelowMinimum = New(KindValidation, "AMOUNT_BELOW_MINIMUM", "amount is below the minimum withdrawal", http.StatusBadRequest).withRemediation("Request at least the minimum withdrawal amount.")
	ErrInvalidSetting     = New(KindValidation, "INVALID_SETTING", "setting value is not valid", http.StatusBadRequest)

	ErrUnauthorized       = New(KindAuth, "UNAUTHORIZED", "authentication required", http.StatusUnauthorized)
	ErrInvalidCredentials = New(KindAuth, "INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized).withRemediation("Check your email and password and try again.")
	ErrInvalidToken       = New(KindAuth, "INVALID_TOKEN", "invalid or expired token", http.StatusUnauthorized)
	ErrForbidden          = New(KindAuth, "FORBIDDEN", "access denied", http.StatusForbidden)
	ErrAccountInactive    = New(KindAuth, "ACCOUNT_INACTIVE", "account is not active yet", http.StatusForbidden).withRemediation("Send an activation payment and wait for an administrator to approve it.")
	ErrAdminInactive      = New(KindAuth, "ADMIN_INACTIVE", "administrator account is disabled", http.StatusForbidden)

	ErrEmailExists          = New(KindConflict, "EMAIL_EXISTS", "email already registered", http.StatusConflict).withRemediation("Sign in with this email or use another one.")
	ErrPhoneExists          = New(KindConflict, "PHONE_EXISTS", "phone number already registered", http.StatusConflict).withRemediation("Sign in with the account that owns this phone number or use another one.")
	ErrDuplicateAccount     = New(KindConflict, "ACCOUNT_EXISTS", "an account with these details already exists", http.StatusConflict)
	ErrInsufficientBalance  = New(KindConflict, "INSUFFICIENT_BALANCE", "insufficient balance", http.StatusUnprocessableEntity).withRemediation("Top up your balance or choose a smaller amount.")
	ErrPackageUnavailable   = New(KindConflict, "PACKAGE_UNAVAILABLE", "package is not available", http.StatusUnprocessableEntity).withRemediation("Pick one of the active packages.")
	ErrPackageLimitReached  = New(KindConflict, "PACKAGE_LIMIT_REACHED", "package usage limit reached", http.StatusUnprocessableEntity).withRemediation("You have used this package the maximum number of times. Pick another package.")
	ErrReferralRequirement  = New(KindConflict, "REFERRAL_REQUIREMENT_NOT_MET", "not enough referrals to withdraw", http.StatusUnprocessableEntity).withRemediation("Invite more people with your referral link before withdrawing.")
	ErrNonBusinessDay       = New(KindConflict, "NON_BUSINESS_DAY", "withdrawals are only accepted Monday to Friday", http.StatusUnprocessableEntity).withRemediation("Submit your withdrawal on a business day.")
	ErrInvalidTransition    = New(KindConflict, "INVALID_STATE_TRANSITION", "request has already been processed", http.StatusConflict).withRemediation("Only pending requests can be approved or rejected.")
	ErrPackageInUse         = New(KindConflict, "PACKAGE_IN_USE", "package has investments and cannot be deleted", http.StatusConflict).withRemediation("Deactivate the package instead.")
	ErrPackageNameExists    = New(KindConflict, "PACKAGE_NAME_EXISTS", "a package with this name already exists", http.StatusConflict)
	ErrRateLimited          = New(KindConflict, "RATE_LIMITED", "too many requests", http.StatusTooManyRequests).withRemediation("Slow down and retry in a few seconds.")

	ErrNotFound           = New(KindNotFound, "NOT_FOUND", "resource not found", http.StatusNotFound)
	ErrAccountNotFound    = New(KindNotFound, "ACCOUNT_NOT_FOUND", "account not found", http.StatusNotFound)
	ErrPackageNotFound    = New(KindNotFound, "PACKAGE_NOT_FOUND", "package not found", http.StatusNotFound)
	ErrPaymentNotFound    = New(KindNotFound, "PAYMENT_NOT_FOUND", "payment request not found", http.StatusNotFound)
	ErrWithdrawalNotFound = New(KindNotFound, "WITHDRAWAL_NOT_FOUND", "withdrawal request not found", http.StatusNotFound)

	ErrInternal = New(KindInfrastructure, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
	ErrStorage  = New(KindInfrastructure, "STORAGE_ERROR", "storage is unavailable", http.StatusServiceUnavailable)
	ErrUpload   = New(KindInfrastructure, "UPLOAD_FAILED", "could not store the uploaded file", http.StatusBadGateway).withRemediation("Retry the upload or submit the payment without a screenshot.")
	ErrCanceled = New(KindInfrastructure, "REQUEST_CANCELED", "request canceled", http.StatusRequestTimeout)
)

type AppError struct {
	Kind        Kind
	Code        string
	Message     string
	Remediation string
	StatusCode  int
	Details     map[string]interface{}
	Err         error
}

func New(kind Kind, code, message string, statusCode int) *AppError {
	return &AppError{
		Kind:        kind,
		Code:        code,
		Message:     message,
		Remediation: defaultRemediation[kind],
		StatusCode:  statusCode,
	}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on Code so that errors.Is works against the package sentinels after cloning.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	clone := e.clone()
	clone.Details = make(map[string]interface{}, len(details))
	for k, v := range details {
		clone.Details[k] = v
	}
	return clone
}

func (e *AppError) WithError(err error) *AppError {
	clone := e.clone()
	clone.Err = err
	return clone
}

func (e *AppError) WithMessage(message string) *AppError {
	clone := e.clone()
	clone.Message = message
	return clone
}

func (e *AppError) withRemediation(text string) *AppError {
	e.Remediation = text
	return e
}

func (e *AppError) clone() *AppError {
	clone := *e
	if e.Details != nil {
		clone.Details = make(map[string]interface{}, len(e.Details))
		for k, v := range e.Details {
			clone.Details[k] = v
		}
	}
	return &clone
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// FromError classifies any error into the taxonomy. Unknown errors become infrastructure errors.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound.WithError(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCanceled.WithError(err)
	}
	return ErrInternal.WithError(err)
}

// Storage wraps a persistence failure unless it is already classified.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsAppError(err); ok {
		return err
	}
	return ErrStorage.WithError(err)
}

// NotFoundOr maps gorm.ErrRecordNotFound to notFound and everything else to a storage error.
func NotFoundOr(err error, notFound *AppError) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound.WithError(err)
	}
	return Storage(err)
}
