// Package services holds the Azure-backed implementations of the storage,
// session, outbox and mail seams.
package services

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

const (
	// Standard Azurite account name and key
	azuriteAccountName = "devstoreaccount1"
	azuriteAccountKey  = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="
)

// isLocal reports whether the service URL points at the Azurite emulator.
func isLocal(serviceURL string) bool {
	return strings.HasPrefix(serviceURL, "http://")
}

func azuriteCredentials() (string, string) {
	return azuriteAccountName, azuriteAccountKey
}

func newDefaultAzureCredential() (azcore.TokenCredential, error) {
	slog.Info("using default Azure credentials")
	return azidentity.NewDefaultAzureCredential(nil)
}

// hasErrorCode reports whether err is an Azure response error with one of
// the given codes.
func hasErrorCode(err error, codes ...string) bool {
	var azErr *azcore.ResponseError
	if !errors.As(err, &azErr) {
		return false
	}
	for _, code := range codes {
		if azErr.ErrorCode == code {
			return true
		}
	}
	return false
}
