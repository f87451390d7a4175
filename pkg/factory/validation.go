package factory

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/clustermon/cim-provider-kit/pkg/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateProviderConfig checks a provider configuration before it is
// handed to a constructor. Structural rules come from the validate tags
// on the config type; cross-field rules live here.
func ValidateProviderConfig(config types.ProviderConfig) error {
	if err := validate.Struct(config); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return fmt.Errorf("invalid provider config: field %s failed %s validation", errs[0].Field(), errs[0].Tag())
		}
		return fmt.Errorf("invalid provider config: %w", err)
	}

	if config.ClientID != "" && config.TokenURL == "" {
		return fmt.Errorf("invalid provider config: token_url is required when client_id is set")
	}
	if config.BaseURL == "" && config.ClientID != "" {
		return fmt.Errorf("invalid provider config: client_id requires base_url")
	}
	if config.StaleAfter != 0 && config.PollInterval != 0 && config.StaleAfter < config.PollInterval {
		return fmt.Errorf("invalid provider config: stale_after must be at least the poll interval")
	}

	return nil
}
