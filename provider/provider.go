// Package provider contains the machine-translation backends dyntl ships
// with. Every provider translates one plain-text string per call and
// reports failures as *dyntl.ProviderError.
package provider

import (
	"net/http"

	"github.com/ZaguanLabs/dyntl"
)

// Provider is an alias to the main package interface for convenience.
type Provider = dyntl.Provider

// TranslateRequest is an alias to the main package type.
type TranslateRequest = dyntl.TranslateRequest

// retryableStatus reports whether an HTTP status is worth retrying.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}
