package config

import (
	"github.com/spf13/viper"

	"github.com/tyleshq/tyles/internal/cache"
	"github.com/tyleshq/tyles/internal/gateway"
	"github.com/tyleshq/tyles/internal/identity"
	"github.com/tyleshq/tyles/internal/ingest"
)

// LoadRESTGatewayConfig loads the remote data gateway settings.
func LoadRESTGatewayConfig() (*gateway.RESTConfig, error) {
	config := gateway.RESTConfig{
		BaseURL:      viper.GetString("gateway.base_url"),
		APIKey:       viper.GetString("gateway.api_key"),
		ServiceToken: viper.GetString("gateway.service_token"),
	}
	if config.ServiceToken == "" {
		config.ServiceToken = config.APIKey
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadFirebaseConfig loads the identity provider settings.
func LoadFirebaseConfig() (*identity.FirebaseConfig, error) {
	config := identity.FirebaseConfig{
		ProjectID:             viper.GetString("firebase.project_id"),
		CredentialsFile:       ExpandPath(viper.GetString("firebase.credentials_file")),
		CredentialsJSONBase64: viper.GetString("firebase.credentials_json"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadPlaidConfig loads the Plaid ingestion settings.
func LoadPlaidConfig() (*ingest.PlaidConfig, error) {
	config := ingest.PlaidConfig{
		ClientID:    viper.GetString("plaid.client_id"),
		Secret:      viper.GetString("plaid.secret"),
		Environment: viper.GetString("plaid.environment"),
		AccessToken: viper.GetString("plaid.access_token"),
	}
	if config.Environment == "" {
		config.Environment = "sandbox"
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadRedisConfig loads cache settings. A nil result with no error
// means Redis is not configured and the in-memory cache should be used.
func LoadRedisConfig() *cache.RedisConfig {
	addr := viper.GetString("redis.address")
	if addr == "" {
		return nil
	}
	return &cache.RedisConfig{
		Address:  addr,
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	}
}
