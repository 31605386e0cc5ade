package audithook

import "log/slog"

// Option configures an Extension.
type Option func(*Extension)

// WithLogger sets the logger for the extension.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) {
		e.logger = logger
	}
}

// WithEnabledActions restricts auditing to the given actions.
// Without it every action in AllActions is audited.
func WithEnabledActions(actions ...string) Option {
	return func(e *Extension) {
		e.only = toSet(actions)
	}
}

// WithDisabledActions skips the given actions. Disabling wins over enabling.
func WithDisabledActions(actions ...string) Option {
	return func(e *Extension) {
		if e.skip == nil {
			e.skip = make(map[string]bool, len(actions))
		}
		for _, a := range actions {
			e.skip[a] = true
		}
	}
}

// AllActions lists every action the extension can record.
func AllActions() []string {
	return []string{
		ActionLedgerStarted,
		ActionLedgerStopped,
		ActionTransferApplied,
		ActionMintApplied,
		ActionBurnApplied,
		ActionTransferRejected,
		ActionJournalFlushed,
	}
}

func toSet(actions []string) map[string]bool {
	set := make(map[string]bool, len(actions))
	for _, a := range actions {
		set[a] = true
	}
	return set
}
