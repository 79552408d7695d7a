package cascade

const (
	AlreadyRunningWarning = "cascade already in progress"

	InsufficientWalletsMessage = "not enough wallets for a cascade"
	MissingDestinationMessage  = "destination address is required"
	InsufficientGasMessage     = "insufficient gas for transfer"
	NetworkCongestionMessage   = "network congestion, transfer dropped"
	InsufficientBalanceMessage = "balance does not exceed the gas reserve"

	BalanceWriteError = "cannot record wallet balance"
)
