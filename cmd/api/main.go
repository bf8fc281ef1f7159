package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/campuskit/registrar/internal/academic"
	academicrepo "github.com/campuskit/registrar/internal/academic/repo"
	"github.com/campuskit/registrar/internal/account"
	accountentity "github.com/campuskit/registrar/internal/account/entity"
	accountrepo "github.com/campuskit/registrar/internal/account/repo"
	"github.com/campuskit/registrar/internal/admin"
	adminrepo "github.com/campuskit/registrar/internal/admin/repo"
	"github.com/campuskit/registrar/internal/assets"
	"github.com/campuskit/registrar/internal/auth"
	"github.com/campuskit/registrar/internal/cache"
	"github.com/campuskit/registrar/internal/faculty"
	facultyrepo "github.com/campuskit/registrar/internal/faculty/repo"
	"github.com/campuskit/registrar/internal/identity"
	"github.com/campuskit/registrar/internal/metrics"
	"github.com/campuskit/registrar/internal/provision"
	"github.com/campuskit/registrar/internal/router"
	"github.com/campuskit/registrar/internal/student"
	studentrepo "github.com/campuskit/registrar/internal/student/repo"
	"github.com/campuskit/registrar/pkg/database"
	"github.com/campuskit/registrar/pkg/utilities"
)

type schemaStep struct {
	name   string
	ensure func(context.Context) error
}

// schemaSteps lists the DDL steps in dependency order: accounts and the
// academic reference tables carry no outgoing references, while the profile
// tables reference both and must come last.
func schemaSteps(
	accounts *accountrepo.Repo,
	academic *academicrepo.Repo,
	students *studentrepo.Repo,
	faculty *facultyrepo.Repo,
	admins *adminrepo.Repo,
) []schemaStep {
	return []schemaStep{
		{"accounts", accounts.EnsureTable},
		{"academic", academic.EnsureTables},
		{"students", students.EnsureTable},
		{"faculty", faculty.EnsureTable},
		{"admins", admins.EnsureTable},
	}
}

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	// init logger
	lg, err := utilities.NewLogger(utilities.LogConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting registrar")

	// init db
	db, err := database.Connect(database.ConfigFromEnv())
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// shared infrastructure
	m := metrics.New()
	profileCache := cache.New(cache.ConfigFromEnv(), sugar)
	defer profileCache.Close()

	uploader, err := assets.NewUploader(ctx, assets.ConfigFromEnv())
	if err != nil {
		sugar.Fatalf("asset store: %v", err)
	}
	if uploader == nil {
		sugar.Info("asset uploads disabled")
	}

	// services
	accounts := accountrepo.NewRepo(db)
	allocator := identity.NewAllocator()
	academicSvc := academic.NewService(db, m, sugar)
	studentSvc := student.NewService(db, profileCache, m, sugar)
	facultySvc := faculty.NewService(db, profileCache, m, sugar)
	adminSvc := admin.NewService(db, profileCache, m, sugar)

	accountSvc := account.NewService(accounts, profileCache, sugar)
	accountSvc.RegisterFinder(accountentity.RoleStudent, account.ProfileFinderFunc(func(ctx context.Context, id string) (any, error) {
		return studentSvc.Repo().GetByPublicID(ctx, id)
	}))
	accountSvc.RegisterFinder(accountentity.RoleFaculty, account.ProfileFinderFunc(func(ctx context.Context, id string) (any, error) {
		return facultySvc.Repo().GetByPublicID(ctx, id)
	}))
	adminFinder := account.ProfileFinderFunc(func(ctx context.Context, id string) (any, error) {
		return adminSvc.Repo().GetByPublicID(ctx, id)
	})
	accountSvc.RegisterFinder(accountentity.RoleAdmin, adminFinder)
	accountSvc.RegisterFinder(accountentity.RoleSuperAdmin, adminFinder)

	var provUploader provision.Uploader
	if uploader != nil {
		provUploader = uploader
	}
	provSvc := provision.NewService(
		database.NewTxRunner(db),
		allocator,
		accounts,
		studentSvc.Repo(),
		facultySvc.Repo(),
		adminSvc.Repo(),
		academicSvc.Repo(),
		provUploader,
		m,
		sugar,
	)

	// schema
	setupCtx, cancelSetup := context.WithTimeout(ctx, 30*time.Second)
	defer cancelSetup()
	for _, step := range schemaSteps(accounts, academicSvc.Repo(), studentSvc.Repo(), facultySvc.Repo(), adminSvc.Repo()) {
		if err := step.ensure(setupCtx); err != nil {
			sugar.Fatalf("ensure %s tables: %v", step.name, err)
		}
	}
	if err := allocator.EnsureTable(setupCtx, db); err != nil {
		sugar.Fatalf("ensure sequence table: %v", err)
	}

	handler := router.RegisterRoutes(router.Handlers{
		Provision: provision.NewHandler(provSvc, sugar),
		Accounts:  account.NewHandler(accountSvc, sugar),
		Students:  student.NewHandler(studentSvc, sugar),
		Faculty:   faculty.NewHandler(facultySvc, sugar),
		Admins:    admin.NewHandler(adminSvc, sugar),
		Academic:  academic.NewHandler(academicSvc, sugar),
	}, auth.Secret(), sugar)

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = "0.0.0.0:8431"
	}
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// run server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	sugar.Infow("service is running; press Ctrl+C to stop", "addr", addr)

	<-ctx.Done()

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(doneCtx); err != nil {
		sugar.Warnf("db ping on shutdown failed: %v", err)
	}

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
