package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"

	"philbox/config"
	"philbox/internal/domain/entity"
	"philbox/internal/domain/repository"
	"philbox/internal/domain/service"
	"philbox/internal/infra/auth"
	logs "philbox/internal/infra/log"
	"philbox/internal/infra/persistence/postgres"
	"philbox/internal/infra/pubsub"
	"philbox/internal/usecase"
	"philbox/internal/usecase/impl"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// adminFlags describe the optional super admin created after the catalogue is seeded.
type adminFlags struct {
	email    string
	name     string
	password string
}

type seedParams struct {
	fx.In

	Lc         fx.Lifecycle
	Shutdowner fx.Shutdowner
	Roles      usecase.RoleUsecase
	Repos      repository.RepositoryFactory
	Hasher     service.PasswordHasher
	Clock      service.Clock
	Logger     *slog.Logger
}

func main() {
	var admin adminFlags
	flag.StringVar(&admin.email, "admin-email", "", "Create a super admin with this email")
	flag.StringVar(&admin.name, "admin-name", "Super Admin", "Full name of the super admin")
	flag.StringVar(&admin.password, "admin-password", os.Getenv("SEED_ADMIN_PASSWORD"), "Password of the super admin (or SEED_ADMIN_PASSWORD)")
	flag.Parse()

	exitCode := 0
	app := fx.New(
		fx.Provide(
			config.New,
			logs.New,
			context.Background,
			postgres.New,
			postgres.NewRepositoryFactory,
			postgres.NewTransactionManager,
			service.NewSystemClock,
			auth.NewBcryptHasher,
			impl.NewRoleService,
		),
		pubsub.Module,
		fx.Invoke(func(params seedParams) {
			params.Lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go func() {
						if err := seed(context.Background(), params, admin); err != nil {
							params.Logger.Error("Seeding failed", slog.Any("error", err))
							exitCode = 1
						}
						_ = params.Shutdowner.Shutdown(fx.ExitCode(exitCode))
					}()

					return nil
				},
			})
		}),
		fx.NopLogger,
	)
	app.Run()
	os.Exit(exitCode)
}

func seed(ctx context.Context, params seedParams, admin adminFlags) error {
	if err := params.Roles.SeedDefaults(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(admin.email) == "" {
		return nil
	}

	return createSuperAdmin(ctx, params, admin)
}

// createSuperAdmin inserts an active, verified super admin. An existing account is left untouched.
func createSuperAdmin(ctx context.Context, params seedParams, admin adminFlags) error {
	if err := params.Hasher.ValidatePasswordStrength(admin.password); err != nil {
		return errors.Wrap(err, "super admin password rejected")
	}
	hash, err := params.Hasher.Hash(admin.password)
	if err != nil {
		return errors.Wrap(err, "failed to hash super admin password")
	}

	role, err := params.Repos.RoleRepo().FindByName(ctx, entity.RoleSuperAdmin)
	if err != nil {
		return errors.Wrap(err, "failed to find super admin role")
	}

	now := params.Clock.Now()
	actor := &entity.Actor{
		ID:               uuid.New(),
		Kind:             entity.ActorKindAdmin,
		Email:            entity.NormalizeEmail(admin.email),
		FullName:         strings.TrimSpace(admin.name),
		PasswordHash:     &hash,
		IsVerified:       true,
		TwoFactorEnabled: true,
		Status:           entity.AccountStatusActive,
		RoleID:           &role.ID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = params.Repos.ActorRepo(entity.ActorKindAdmin).Create(ctx, actor)
	if errors.Is(err, repository.ErrActorEmailTaken) {
		params.Logger.Info("Super admin already exists", slog.String("email", actor.Email))

		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to create super admin")
	}

	params.Logger.Info("Super admin created", slog.String("email", actor.Email), slog.String("id", actor.ID.String()))

	return nil
}
