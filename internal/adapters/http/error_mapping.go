package httpadapter

import (
	"net/http"

	"github.com/mkarpenko/fashion-rag-service/internal/core/domain"
)

// mapErrorToHTTPStatus translates domain error kinds to HTTP statuses.
// storeStatus lets endpoints disagree on how a store outage reads: an
// ingest call is a bad gateway, a chat call is service unavailable.
func mapErrorToHTTPStatus(err error, storeStatus int) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrConfiguration):
		return http.StatusInternalServerError
	case domain.IsKind(err, domain.ErrStoreUnavailable):
		return storeStatus
	default:
		return http.StatusInternalServerError
	}
}
