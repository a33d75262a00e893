package oci

import (
	"errors"
	"fmt"
	"net/http"

	"oras.land/oras-go/v2/errdef"
	"oras.land/oras-go/v2/registry/remote/errcode"

	"github.com/meigma/homemap/source"
)

var (
	// ErrInvalidReference indicates the artifact reference could not be parsed.
	ErrInvalidReference = errors.New("oci: invalid reference")

	// ErrManifestInvalid indicates the resolved manifest is malformed or of
	// an unsupported media type.
	ErrManifestInvalid = errors.New("oci: invalid manifest")

	// ErrUnauthorized indicates the registry rejected the credentials.
	ErrUnauthorized = errors.New("oci: unauthorized")

	// ErrForbidden indicates the credentials lack access to the repository.
	ErrForbidden = errors.New("oci: forbidden")
)

// mapError maps ORAS errors to package and source sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, errdef.ErrNotFound) {
		return fmt.Errorf("%w: %v", source.ErrNotFound, err)
	}
	var errResp *errcode.ErrorResponse
	if errors.As(err, &errResp) {
		switch errResp.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", source.ErrNotFound, err)
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrForbidden, err)
		}
	}
	return err
}
