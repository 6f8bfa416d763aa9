package app

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"family-registry-go/internal/config"
	"family-registry-go/internal/db"
	"family-registry-go/internal/domain/access"
	accountdomain "family-registry-go/internal/domain/account"
	auditdomain "family-registry-go/internal/domain/audit"
	"family-registry-go/internal/domain/contact"
	familydomain "family-registry-go/internal/domain/family"
	integritydomain "family-registry-go/internal/domain/integrity"
	roledomain "family-registry-go/internal/domain/role"
	transferdomain "family-registry-go/internal/domain/transfer"
	"family-registry-go/internal/queue/rabbitmq"
	accountrepo "family-registry-go/internal/repository/postgres/account"
	auditrepo "family-registry-go/internal/repository/postgres/audit"
	familyrepo "family-registry-go/internal/repository/postgres/family"
	integrityrepo "family-registry-go/internal/repository/postgres/integrity"
	rolerepo "family-registry-go/internal/repository/postgres/role"
	transferrepo "family-registry-go/internal/repository/postgres/transfer"
	"family-registry-go/internal/security"
	"family-registry-go/internal/transport/httpserver"
	"family-registry-go/internal/transport/httpserver/handler"
	accounthandler "family-registry-go/internal/transport/httpserver/handler/accounts"
	adminhandler "family-registry-go/internal/transport/httpserver/handler/admin"
	commonhandler "family-registry-go/internal/transport/httpserver/handler/common"
	familyhandler "family-registry-go/internal/transport/httpserver/handler/families"
	authmw "family-registry-go/internal/transport/httpserver/middleware"
	"family-registry-go/pkg/logger"
	"github.com/robfig/cron"
	"gorm.io/gorm"
)

type App struct {
	cfg        config.Config
	log        logger.Logger
	httpServer *http.Server
	db         *gorm.DB
	recorder   *auditdomain.AsyncRecorder
	sinkCloser io.Closer
	scheduler  *cron.Cron
}

// Services groups the domain services built on top of one database.
type Services struct {
	Guard     *access.Guard
	Roles     *roledomain.Service
	Accounts  *accountdomain.Service
	Families  *familydomain.Service
	Transfers *transferdomain.Service
	Integrity *integritydomain.Service
	Audit     *auditdomain.Service
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing database", "driver", cfg.DB.Driver)
	dbConn, err := db.Open(cfg.DB, log.Named("db"))
	if err != nil {
		return nil, err
	}
	application := &App{cfg: cfg, log: log, db: dbConn}

	if cfg.DB.AutoMigrate {
		if err := db.Migrate(dbConn, cfg.DB, log); err != nil {
			_ = application.Close()
			return nil, err
		}
	}

	log.Info("app: initializing audit sink", "sink", cfg.Audit.Sink)
	sink, closer, err := newAuditSink(cfg, dbConn, log)
	if err != nil {
		_ = application.Close()
		return nil, err
	}
	application.sinkCloser = closer
	application.recorder = auditdomain.NewAsyncRecorder(sink, log.Named("audit"), cfg.Audit.Buffer)

	services, err := NewServices(cfg, dbConn, application.recorder, log)
	if err != nil {
		_ = application.Close()
		return nil, err
	}

	ctx := context.Background()
	if err := services.Roles.EnsureSystemRoles(ctx); err != nil {
		_ = application.Close()
		return nil, fmt.Errorf("ensure system roles: %w", err)
	}
	if cfg.Bootstrap.AdminEmail != "" {
		err := services.Accounts.EnsureBootstrapAdmin(ctx, accountdomain.BootstrapAdmin{
			Name:     cfg.Bootstrap.AdminName,
			Email:    cfg.Bootstrap.AdminEmail,
			Password: cfg.Bootstrap.AdminPassword,
		})
		if err != nil {
			_ = application.Close()
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	if cfg.Integrity.Schedule != "" {
		scheduler, err := scheduleIntegrity(cfg.Integrity, services.Integrity, log.Named("integrity"))
		if err != nil {
			_ = application.Close()
			return nil, err
		}
		application.scheduler = scheduler
	}

	log.Info("app: initializing router")
	tokens := security.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	router := httpserver.NewRouter(cfg, NewHandlers(services, tokens, log), authmw.NewTokenAuth(cfg.Auth, tokens, services.Accounts, log))

	log.Info("app: initializing http server")
	application.httpServer = httpserver.New(cfg, router, log)
	return application, nil
}

// NewServices wires repositories and domain services. Audit entries go to
// recorder.
func NewServices(cfg config.Config, dbConn *gorm.DB, recorder auditdomain.Recorder, log logger.Logger) (*Services, error) {
	externalRefs := make([]accountdomain.ExternalRef, 0, len(cfg.Accounts.ExternalRefs))
	for _, value := range cfg.Accounts.ExternalRefs {
		ref, err := accountdomain.ParseExternalRef(value)
		if err != nil {
			return nil, fmt.Errorf("config: ACCOUNT_EXTERNAL_REFS: %w", err)
		}
		externalRefs = append(externalRefs, ref)
	}

	txRunner := db.NewTxRunner(cfg.DB.Driver, cfg.DB.TxMaxAttempts, log)
	roleRepo := rolerepo.NewPostgres(dbConn)
	accountRepo := accountrepo.NewPostgres(dbConn, txRunner)

	guard := access.NewGuard(accountRepo, roleRepo)
	hasher := security.NewBcryptHasher(cfg.Accounts.BcryptCost)
	contacts := contact.NewValidator()

	roles := roledomain.NewService(roleRepo, accountRepo, recorder, log)
	return &Services{
		Guard: guard,
		Roles: roles,
		Accounts: accountdomain.NewService(accountRepo, accountdomain.Deps{
			Roles:    roles,
			Guard:    guard,
			Hasher:   hasher,
			Contacts: contacts,
			Audit:    recorder,
			Log:      log,
		}, accountdomain.Settings{
			AutoApprove:  cfg.Accounts.AutoApprove,
			ExternalRefs: externalRefs,
		}),
		Families: familydomain.NewService(familyrepo.NewPostgres(dbConn, txRunner), familydomain.Deps{
			Roles:    roles,
			Guard:    guard,
			Hasher:   hasher,
			Contacts: contacts,
			Audit:    recorder,
			Log:      log,
		}, familydomain.Settings{FreeMemberLimit: cfg.Family.FreeMemberLimit}),
		Transfers: transferdomain.NewService(transferrepo.NewPostgres(dbConn, txRunner), transferdomain.Deps{
			Guard: guard,
			Audit: recorder,
			Log:   log,
		}),
		Integrity: integritydomain.NewService(integrityrepo.NewPostgres(dbConn, txRunner), integritydomain.Deps{
			Guard: guard,
			Audit: recorder,
			Log:   log,
		}),
		Audit: auditdomain.NewService(auditrepo.NewPostgres(dbConn)),
	}, nil
}

func NewHandlers(services *Services, tokens *security.TokenService, log logger.Logger) *handler.Handlers {
	return &handler.Handlers{
		Common:   commonhandler.New(services.Accounts, services.Guard, tokens, log),
		Accounts: accounthandler.New(services.Accounts, services.Roles, services.Guard, log),
		Families: familyhandler.New(services.Families, services.Transfers, log),
		Admin:    adminhandler.New(services.Audit, services.Integrity, services.Guard, log),
	}
}

func newAuditSink(cfg config.Config, dbConn *gorm.DB, log logger.Logger) (auditdomain.Sink, io.Closer, error) {
	switch cfg.Audit.Sink {
	case config.AuditSinkLog:
		return auditdomain.NewLogSink(log), nil, nil
	case config.AuditSinkAMQP:
		publisher, err := rabbitmq.Dial(cfg.Audit)
		if err != nil {
			return nil, nil, err
		}
		return publisher, publisher, nil
	default:
		return auditdomain.NewRepositorySink(auditrepo.NewPostgres(dbConn)), nil, nil
	}
}

func scheduleIntegrity(cfg config.IntegrityConfig, integrity *integritydomain.Service, log logger.Logger) (*cron.Cron, error) {
	scheduler := cron.New()
	err := scheduler.AddFunc(cfg.Schedule, func() {
		report, err := integrity.Run(context.Background(), cfg.Repair)
		if err != nil {
			log.InternalError("integrity.schedule: sweep failed", err, "repair", cfg.Repair)
			return
		}
		if !report.Clean() {
			log.Warn("integrity.schedule: issues found",
				"multiple_primaries", len(report.MultiplePrimaries),
				"member_mismatches", len(report.MemberMismatches),
				"one_sided_links", len(report.OneSidedLinks),
				"repaired", report.Repaired,
			)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("config: INTEGRITY_SCHEDULE %q: %w", cfg.Schedule, err)
	}
	scheduler.Start()
	log.Info("integrity.schedule: started", "schedule", cfg.Schedule, "repair", cfg.Repair)
	return scheduler, nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

// Close stops the scheduler, drains queued audit entries and closes the
// connections, in that order.
func (a *App) Close() error {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.recorder != nil {
		a.recorder.Close()
	}
	if a.sinkCloser != nil {
		if err := a.sinkCloser.Close(); err != nil {
			a.log.Error("app: close audit sink failed", "err", err)
		}
	}
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
