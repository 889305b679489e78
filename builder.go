package authflow

import (
	"errors"

	"github.com/calebhart/authflow/cache"
	"github.com/calebhart/authflow/rememberme"
	"github.com/redis/go-redis/v9"
)

// Builder wires the engine's collaborators. All stores are injected
// explicitly; there are no process-wide singletons.
type Builder struct {
	config Config
	redis  *redis.Client

	users         UserStore
	roleFeatures  RoleFeatureStore
	subscriptions SubscriptionStore
	updateCache   Cache
	cipher        Crypto
	chat          ChatSessionMirror
	auditSink     AuditSink

	built bool
}

// New returns a Builder preloaded with default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies a Redis client. When no explicit Cache is injected,
// the update-flag cache is backed by this client.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithUserStore supplies the persisted account collaborator. Required.
func (b *Builder) WithUserStore(s UserStore) *Builder {
	b.users = s
	return b
}

// WithRoleFeatureStore supplies the grant lookup collaborator. Required.
func (b *Builder) WithRoleFeatureStore(s RoleFeatureStore) *Builder {
	b.roleFeatures = s
	return b
}

// WithSubscriptionStore supplies the subscription lookup collaborator.
// Required.
func (b *Builder) WithSubscriptionStore(s SubscriptionStore) *Builder {
	b.subscriptions = s
	return b
}

// WithCache supplies the update-flag cache. Optional when a Redis client is
// provided via WithRedis.
func (b *Builder) WithCache(c Cache) *Builder {
	b.updateCache = c
	return b
}

// WithCipher supplies the symmetric cipher for remember-me tokens. Required.
func (b *Builder) WithCipher(c Crypto) *Builder {
	b.cipher = c
	return b
}

// WithChatMirror supplies the chat-session mirror. Required.
func (b *Builder) WithChatMirror(m ChatSessionMirror) *Builder {
	b.chat = m
	return b
}

// WithAuditSink supplies the audit event sink. Events are discarded when
// auditing is disabled in config.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the wiring and constructs the Engine. A Builder can be
// used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.users == nil {
		return nil, errors.New("user store required")
	}
	if b.roleFeatures == nil {
		return nil, errors.New("role/feature store required")
	}
	if b.subscriptions == nil {
		return nil, errors.New("subscription store required")
	}
	if b.cipher == nil {
		return nil, errors.New("cipher required")
	}
	if b.chat == nil {
		return nil, errors.New("chat session mirror required")
	}

	updateCache := b.updateCache
	if updateCache == nil {
		if b.redis == nil {
			return nil, errors.New("cache or redis client required")
		}
		updateCache = cache.NewRedis(b.redis, cfg.Session.RedisPrefix)
	}

	engine := &Engine{
		config:        cfg,
		users:         b.users,
		roleFeatures:  b.roleFeatures,
		subscriptions: b.subscriptions,
		updateCache:   updateCache,
		chat:          b.chat,
	}

	engine.rememberMe = rememberme.NewManager(b.cipher, rememberme.Config{
		ExpiryJitter:   cfg.RememberMe.ExpiryJitter,
		MinTokenLength: cfg.RememberMe.MinTokenLength,
	})
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
