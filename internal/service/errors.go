package service

import "errors"

// Ledger validation errors. These are local rejections: nothing was written.
var (
	ErrInvalidAmount       = errors.New("amount must be positive with at most two decimals")
	ErrInvalidType         = errors.New("movement type must be INCOME or EXPENSE")
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountInactive     = errors.New("account is inactive")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrCategoryDirection   = errors.New("category direction does not match movement type")
	ErrSubcategoryNotFound = errors.New("subcategory not found")
	ErrSubcategoryMismatch = errors.New("subcategory does not belong to category")
	ErrSameAccount         = errors.New("source and destination accounts must differ")
	ErrCurrencyMismatch    = errors.New("accounts must share a currency")
)

// IsLedgerRejection reports whether err is one of the ledger's validation
// sentinels: a final rejection of the request, as opposed to a transient
// storage failure that a retry could succeed on.
func IsLedgerRejection(err error) bool {
	for _, sentinel := range []error{
		ErrInvalidAmount, ErrInvalidType, ErrAccountNotFound, ErrAccountInactive,
		ErrCategoryNotFound, ErrCategoryDirection, ErrSubcategoryNotFound,
		ErrSubcategoryMismatch, ErrSameAccount, ErrCurrencyMismatch,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// Identity link and OTP errors.
var (
	ErrLinkNotFound         = errors.New("identity link not found")
	ErrLinkNotPending       = errors.New("identity link is not pending verification")
	ErrAddressAlreadyLinked = errors.New("address already verified for a user")
	ErrOTPNotFound          = errors.New("no active code for this address")
	ErrOTPExpired           = errors.New("code has expired")
	ErrOTPExhausted         = errors.New("code attempts exhausted")
	ErrOTPInvalid           = errors.New("code does not match")
)
