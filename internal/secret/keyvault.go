package secret

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

// KeyVaultSource reads one secret from Azure Key Vault using the default
// credential chain (managed identity in App Service, CLI login locally).
type KeyVaultSource struct {
	client     *azsecrets.Client
	secretName string
}

func NewKeyVaultSource(vaultURL, secretName string) (*KeyVaultSource, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("create azure credential failed: %w", err)
	}
	client, err := azsecrets.NewClient(vaultURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create key vault client failed: %w", err)
	}
	return &KeyVaultSource{client: client, secretName: secretName}, nil
}

func (s *KeyVaultSource) Fetch(ctx context.Context) (string, error) {
	resp, err := s.client.GetSecret(ctx, s.secretName, "", nil)
	if err != nil {
		return "", fmt.Errorf("get secret %q failed: %w", s.secretName, err)
	}
	if resp.Value == nil {
		return "", ErrEmptySecret
	}
	return *resp.Value, nil
}
