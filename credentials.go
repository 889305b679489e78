package authflow

import (
	"context"
	"fmt"
)

// timestampFormat is the calendar format used for subscription windows
// attached to session credentials.
const timestampFormat = "2006-01-02 15:04:05"

// BuildCredentials assembles a fresh authorization payload for a user from
// persisted state. Every grant source is additive into a new value; an
// installed credentials object is never patched in place. Tiers outside the
// known 1..4 range contribute no tier feature.
func (e *Engine) BuildCredentials(ctx context.Context, user *UserRecord, authProvider string) (*SessionCredentials, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	creds := NewSessionCredentials(user)
	creds.AuthProvider = authProvider
	creds.AddRoles(RoleUser)

	features, err := e.roleFeatures.FeaturesOf(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("feature lookup: %w", err)
	}
	creds.AddFeatures(features...)

	roles, err := e.roleFeatures.RolesOf(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("role lookup: %w", err)
	}
	creds.AddRoles(roles...)

	sub, err := e.subscriptions.ActiveSubscription(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("subscription lookup: %w", err)
	}

	if sub != nil {
		creds.Subscription = &SubscriptionWindow{
			Start: sub.CreatedDate.Format(timestampFormat),
			End:   sub.EndDate.Format(timestampFormat),
		}
	}
	if sub != nil || user.TwitchSubscriber {
		creds.AddRoles(RoleSubscriber)
		creds.AddFeatures(FeatureSubscriber)
	}
	if user.TwitchSubscriber {
		creds.AddFeatures(FeatureSubscriberT0)
	}
	if sub != nil {
		switch sub.Tier {
		case 1:
			creds.AddFeatures(FeatureSubscriberT1)
		case 2:
			creds.AddFeatures(FeatureSubscriberT2)
		case 3:
			creds.AddFeatures(FeatureSubscriberT3)
		case 4:
			creds.AddFeatures(FeatureSubscriberT4)
		}
	}

	e.metrics.Inc(MetricCredentialsRebuilt)

	return creds, nil
}
