package console

import (
	"time"
)

// Action kinds reported to observers.
const (
	ActionSetBroker      = "settings.broker"
	ActionSetMode        = "settings.mode"
	ActionSetTradingMode = "settings.trading_mode"
	ActionKillSwitch     = "settings.kill_switch"
	ActionRiskLimits     = "settings.risk_limits"
	ActionTokens         = "settings.tokens"
	ActionCancelOrder    = "orders.cancel"
	ActionCreateConfig   = "strategy.create"
	ActionActivateConfig = "strategy.activate"
	ActionDeleteConfig   = "strategy.delete"
	ActionRunStrategy    = "strategy.run"
	ActionCreateList     = "watchlist.create"
	ActionSetAuto        = "watchlist.auto"
	ActionDeleteList     = "watchlist.delete"
	ActionAddSymbol      = "watchlist.add_symbol"
	ActionRemoveSymbol   = "watchlist.remove_symbol"
	ActionSignIn         = "auth.sign_in"
	ActionSignOut        = "auth.sign_out"
	ActionChangePassword = "auth.change_password"
)

// Action describes one mutation attempt after it resolved.
type Action struct {
	Kind   string
	Target string
	Detail string
	Err    error
	At     time.Time
}

func (a Action) Failed() bool {
	return a.Err != nil
}

type Observer interface {
	Observe(a Action)
}

type ObserverFunc func(a Action)

func (f ObserverFunc) Observe(a Action) {
	f(a)
}

// Observers fans an action out to every non-nil observer.
type Observers []Observer

func (o Observers) Observe(a Action) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(a)
		}
	}
}

func report(obs Observer, kind, target, detail string, err error) {
	if obs == nil {
		return
	}
	obs.Observe(Action{
		Kind:   kind,
		Target: target,
		Detail: detail,
		Err:    err,
		At:     time.Now(),
	})
}
