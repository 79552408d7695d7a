package migrations

import (
	"github.com/AvaProtocol/ap-airdrop/core/migrator"
)

// Migrations contains the list of database migrations to be applied on startup.
// The name is recorded in the key-value store once applied, prefix it with the
// timestamp in format of YYYYMMDD-HHMMSS so the list sorts in the order it runs.
var Migrations = []migrator.Migration{
	{
		Name:     "20261001-120000-wallet-generation-layout",
		Function: WalletGenerationLayout,
	},
}
