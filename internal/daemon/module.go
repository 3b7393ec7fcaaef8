package daemon

import (
	"context"
	"path/filepath"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/matheus3301/chatrise/internal/api"
	"github.com/matheus3301/chatrise/internal/auth"
	"github.com/matheus3301/chatrise/internal/bus"
	"github.com/matheus3301/chatrise/internal/chatlist"
	"github.com/matheus3301/chatrise/internal/config"
	"github.com/matheus3301/chatrise/internal/contacts"
	"github.com/matheus3301/chatrise/internal/files"
	"github.com/matheus3301/chatrise/internal/lock"
	"github.com/matheus3301/chatrise/internal/logging"
	"github.com/matheus3301/chatrise/internal/messaging"
	"github.com/matheus3301/chatrise/internal/presence"
	"github.com/matheus3301/chatrise/internal/profile"
	"github.com/matheus3301/chatrise/internal/session"
	"github.com/matheus3301/chatrise/internal/store"
)

const redisDialTimeout = 5 * time.Second

// Params holds the resolved configuration passed to the fx module.
type Params struct {
	Config *config.Config
	// Console mirrors logs to stderr.
	Console bool
}

// Settings is the server configuration with defaults resolved.
type Settings struct {
	config.ServerConfig
	Presence config.PresenceConfig
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideSettings,
			provideLogger,
			provideBus,
			provideLock,
			provideStore,
			provideFiles,
			providePresenceIndex,
			providePresence,
			provideAuth,
			provideProfile,
			provideContacts,
			provideMessaging,
			provideChatList,
			provideServices,
			newPruner,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideSettings(p Params) Settings {
	cfg := p.Config
	if cfg == nil {
		cfg = config.Default()
	}
	s := Settings{ServerConfig: cfg.Server, Presence: cfg.Presence}
	if s.DataDir == "" {
		s.DataDir = session.ServerDir()
	}
	if s.Listen == "" {
		s.Listen = config.DefaultListen
	}
	return s
}

func provideLogger(p Params, s Settings) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Path:    filepath.Join(s.DataDir, "logs", "chatrised.log"),
		Level:   s.LogLevel,
		Console: p.Console,
	}, zap.String("component", "chatrised"))
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(s Settings, logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring data dir lock", zap.String("dir", s.DataDir))
	l, err := lock.Acquire(s.DataDir, s.Listen)
	if err != nil {
		return nil, err
	}
	logger.Info("data dir lock acquired")
	return l, nil
}

// provideStore takes the lock as a dependency so the database is only
// opened by the lock holder.
func provideStore(s Settings, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := filepath.Join(s.DataDir, "chatrise.db")
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("from", result.From), zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideFiles(s Settings) (*files.Store, error) {
	return files.New(filepath.Join(s.DataDir, "files"), s.FilesBaseURL)
}

// providePresenceIndex returns nil when no Redis URL is configured.
func providePresenceIndex(s Settings, logger *zap.Logger) (*presence.RedisIndex, error) {
	if s.RedisURL == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	idx, err := presence.NewRedisIndex(ctx, s.RedisURL)
	if err != nil {
		return nil, err
	}
	logger.Info("presence index connected")
	return idx, nil
}

func providePresence(s Settings, db *store.DB, b *bus.Bus, idx *presence.RedisIndex, logger *zap.Logger) *presence.Service {
	return presence.NewService(db, b, idx, presence.Options{
		OfflineAfter:  s.Presence.OfflineAfter,
		SweepInterval: s.Presence.SweepInterval,
	}, logger)
}

func provideAuth(s Settings, db *store.DB, p *presence.Service, logger *zap.Logger) (*auth.Service, error) {
	secret := []byte(s.JWTSecret)
	if len(secret) == 0 {
		var err error
		secret, err = auth.LoadOrCreateSecret(filepath.Join(s.DataDir, "jwt.secret"))
		if err != nil {
			return nil, err
		}
	}
	return auth.NewService(db, auth.Config{Secret: secret, TokenTTL: s.TokenTTL}, p, logger), nil
}

func provideProfile(db *store.DB, fs *files.Store, logger *zap.Logger) *profile.Service {
	return profile.NewService(db, fs, logger)
}

func provideContacts(db *store.DB, b *bus.Bus, logger *zap.Logger) *contacts.Manager {
	return contacts.NewManager(db, b, logger)
}

func provideMessaging(s Settings, db *store.DB, b *bus.Bus, fs *files.Store, logger *zap.Logger) *messaging.Service {
	return messaging.NewService(db, b, fs, s.MaxAttachment, logger)
}

func provideChatList(s Settings, db *store.DB, c *contacts.Manager, m *messaging.Service) *chatlist.Aggregator {
	source := chatlist.FromFriends
	if s.ChatSource == config.ChatSourceMessages {
		source = chatlist.FromMessages
	}
	return chatlist.NewAggregator(db, c, m, source)
}

type serviceDeps struct {
	fx.In

	Bus      *bus.Bus
	Logger   *zap.Logger
	Auth     *auth.Service
	Profile  *profile.Service
	Contacts *contacts.Manager
	Messages *messaging.Service
	Chats    *chatlist.Aggregator
	Presence *presence.Service
}

func provideServices(d serviceDeps) *api.Services {
	return &api.Services{
		Auth:     api.NewAuthService(d.Auth, d.Profile),
		Profile:  api.NewProfileService(d.Profile),
		Contact:  api.NewContactService(d.Contacts),
		Message:  api.NewMessageService(d.Messages),
		Chat:     api.NewChatService(d.Chats, d.Bus, d.Logger),
		Presence: api.NewPresenceService(d.Presence),
	}
}

type lifecycleDeps struct {
	fx.In

	Server   *Server
	Lock     *lock.Lock
	DB       *store.DB
	Index    *presence.RedisIndex
	Presence *presence.Service
	Pruner   *pruner
	Logger   *zap.Logger
}

func registerLifecycle(lc fx.Lifecycle, d lifecycleDeps) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			d.Presence.Start(context.Background())
			d.Pruner.Start(context.Background())

			// Start gRPC server in background.
			go func() {
				if err := d.Server.Start(); err != nil {
					d.Logger.Error("gRPC server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			d.Server.Stop(ctx)
			d.Pruner.Stop()
			d.Presence.Stop()
			if d.Index != nil {
				if err := d.Index.Close(); err != nil {
					d.Logger.Warn("error closing presence index", zap.Error(err))
				}
			}
			if err := d.DB.Close(); err != nil {
				d.Logger.Warn("error closing store", zap.Error(err))
			}
			if err := d.Lock.Release(); err != nil {
				d.Logger.Warn("error releasing lock", zap.Error(err))
			}
			d.Logger.Info("daemon stopped")
			_ = d.Logger.Sync()
			return nil
		},
	})
}
