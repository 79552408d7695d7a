package config

import "os"

const (
	PassphraseEnv = "AP_AIRDROP_PASSPHRASE"
	DbPathEnv     = "AP_AIRDROP_DB_PATH"
	CatalogURLEnv = "AP_AIRDROP_CATALOG_URL"
)

// applyEnvOverrides lets the environment win over the file. The passphrase is
// expected to come from there rather than from a file on disk.
func applyEnvOverrides(raw *ConfigRaw) {
	if v := os.Getenv(PassphraseEnv); v != "" {
		raw.Passphrase = v
	}
	if v := os.Getenv(DbPathEnv); v != "" {
		raw.DbPath = v
	}
	if v := os.Getenv(CatalogURLEnv); v != "" {
		raw.CatalogURL = v
	}
}
