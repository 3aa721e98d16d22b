package config

// Config represents the complete configuration structure
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	API      APIConfig      `mapstructure:"api"`
	Accounts AccountsConfig `mapstructure:"accounts"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AppConfig holds the API app credentials and OAuth settings
type AppConfig struct {
	ClientIdentifier string   `mapstructure:"client_identifier"`
	ClientSecret     string   `mapstructure:"client_secret"`
	Scopes           []string `mapstructure:"scopes"`
	RedirectURI      string   `mapstructure:"redirect_uri"`
}

// APIConfig holds API connection details
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// AccountsConfig controls persistent account storage
type AccountsConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
