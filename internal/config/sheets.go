package config

import (
	"github.com/spf13/viper"

	"github.com/tyleshq/tyles/internal/sheets"
)

// LoadSheetsConfig loads Google Sheets export configuration. Viper keys
// (config file or TYLES_ env vars) take precedence over the direct
// GOOGLE_SHEETS_* environment variables read by sheets.LoadFromEnv.
func LoadSheetsConfig() (*sheets.Config, error) {
	config := sheets.LoadFromEnv()

	if v := viper.GetString("sheets.service_account_path"); v != "" {
		config.ServiceAccountPath = ExpandPath(v)
	}
	if v := viper.GetString("sheets.client_id"); v != "" {
		config.ClientID = v
	}
	if v := viper.GetString("sheets.client_secret"); v != "" {
		config.ClientSecret = v
	}
	if v := viper.GetString("sheets.refresh_token"); v != "" {
		config.RefreshToken = v
	}
	if v := viper.GetString("sheets.spreadsheet_id"); v != "" {
		config.SpreadsheetID = v
	}
	if v := viper.GetString("sheets.spreadsheet_name"); v != "" {
		config.SpreadsheetName = v
	}
	if v := viper.GetInt("sheets.batch_size"); v > 0 {
		config.BatchSize = v
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}
