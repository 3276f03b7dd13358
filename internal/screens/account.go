package screens

import (
	"context"

	"healthkit-bridge/internal/catalog"
)

// SignInScopes are requested by the main screen.
var SignInScopes = []catalog.Scope{
	catalog.ScopeStepBoth,
	catalog.ScopeHeightWeightBoth,
	catalog.ScopeHeartRateBoth,
}

// Main is the landing screen; it signs in and applies for scopes.
type Main struct {
	*base
}

func NewMain(d Deps) *Main {
	return &Main{base: newBase("main", "HealthKit Demo", d)}
}

func (s *Main) Mount(context.Context) error {
	s.open()
	return nil
}

func (s *Main) Actions() []Action {
	return []Action{
		{Name: "signIn", Description: "Sign in and apply for step, height/weight and heart rate scopes", Run: s.signIn},
	}
}

func (s *Main) signIn(ctx context.Context) error {
	out := s.deps.Facade.SignIn(ctx, SignInScopes)
	if acct, ok := out.Value(); ok {
		s.log.Info("signed in", map[string]interface{}{
			"openId": acct.OpenID,
			"scopes": len(acct.Scopes),
		})
	}
	return out.Err()
}
