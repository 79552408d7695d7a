package taskengine

const (
	AlreadyRunningWarning = "task run already in progress"

	NoWalletsMessage  = "no wallets to run tasks for"
	NoNetworksMessage = "no networks to run tasks on"

	InvalidOptionsError  = "invalid run options"
	CompletionWriteError = "cannot record task completion"
)
