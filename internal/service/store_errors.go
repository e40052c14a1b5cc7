package service

import (
	"errors"

	"github.com/noah-isme/lakgs-api/internal/repository"
	appErrors "github.com/noah-isme/lakgs-api/pkg/errors"
	"github.com/noah-isme/lakgs-api/pkg/graphdb"
)

// storeError maps repository failures onto HTTP-aware errors. notFound is
// used for repository.ErrNoRows.
func storeError(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	case graphdb.IsUnavailable(err):
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable, "")
	default:
		return appErrors.Wrap(err, appErrors.ErrStoreQuery, "")
	}
}
