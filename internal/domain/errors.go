package domain

import "errors"

// Бизнес-ошибки (маппятся на HTTP коды в transport/web/v1)
var (
	ErrBadParams        = errors.New("bad_params")         // 400
	ErrNotFound         = errors.New("not_found")          // 404
	ErrMethodNotAllowed = errors.New("method_not_allowed") // 405
	ErrChecksumMismatch = errors.New("checksum_mismatch")  // 422, сессия остаётся pending
	ErrDerivationFailed = errors.New("derivation_failed")  // 422, сессия переходит в failed
	ErrDuplicateSession = errors.New("duplicate_session")  // гонка finalize; наружу — как успех
	ErrUnexpected       = errors.New("unexpected")         // 500
)

// Коды ошибок в конверте ответа
const (
	ErrCodeBadParams        = 1000
	ErrCodeNotFound         = 1004
	ErrCodeMethodNotAllowed = 1005
	ErrCodeChecksumMismatch = 1022
	ErrCodeDerivationFailed = 1023
	ErrCodeUnexpected       = 1500
)
