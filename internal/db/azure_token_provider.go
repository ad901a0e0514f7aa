package db

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// AzureCredentialProvider acquires Azure SQL tokens from an azcore credential.
type AzureCredentialProvider struct {
	credential  azcore.TokenCredential
	description string
}

// NewAzureServicePrincipalProvider creates a token provider for Service Principal auth.
// All three parameters are required.
func NewAzureServicePrincipalProvider(tenantID, clientID, clientSecret string) (*AzureCredentialProvider, error) {
	if tenantID == "" || clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("azure service principal requires tenantID, clientID, and clientSecret")
	}

	cred, err := azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	return &AzureCredentialProvider{
		credential:  cred,
		description: fmt.Sprintf("AzureServicePrincipal(tenant=%s, client=%s)", tenantID, clientID),
	}, nil
}

// NewAzureDefaultCredentialProvider uses the DefaultAzureCredential chain
// (environment, workload identity, managed identity, Azure CLI).
func NewAzureDefaultCredentialProvider() (*AzureCredentialProvider, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure default credential: %w", err)
	}
	return &AzureCredentialProvider{credential: cred, description: "AzureDefaultCredential"}, nil
}

func (p *AzureCredentialProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	token, err := p.credential.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{AzureSQLScope},
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("azure token acquisition failed: %w", err)
	}
	return token.Token, token.ExpiresOn, nil
}

func (p *AzureCredentialProvider) String() string {
	return p.description
}
