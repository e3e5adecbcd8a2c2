// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"time"

	"philbox/internal/domain/entity"
	domainerrors "philbox/internal/domain/errors"
	"philbox/internal/domain/repository"
	"philbox/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// actorRepository implements repository.ActorRepository for the table of one actor kind.
type actorRepository struct {
	db   *gorm.DB
	kind entity.ActorKind
}

// NewActorRepository is the constructor for actorRepository.
func NewActorRepository(db *gorm.DB, kind entity.ActorKind) repository.ActorRepository {
	return &actorRepository{db: db, kind: kind}
}

// ActorTable names the table an actor kind is stored in.
func ActorTable(kind entity.ActorKind) string {
	return string(kind) + "s"
}

func (repo *actorRepository) Kind() entity.ActorKind {
	return repo.kind
}

func (repo *actorRepository) table(ctx context.Context) *gorm.DB {
	return repo.db.WithContext(ctx).Table(ActorTable(repo.kind))
}

// FindByID retrieves an actor by ID.
func (repo *actorRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Actor, error) {
	return repo.take(repo.table(ctx).Where("id = ?", id), "failed to find actor by id")
}

// FindByIDPrimary reads from the primary so a freshly written status is never missed on a replica.
func (repo *actorRepository) FindByIDPrimary(ctx context.Context, id uuid.UUID) (*entity.Actor, error) {
	query := repo.table(ctx).Clauses(dbresolver.Write).Where("id = ?", id)

	return repo.take(query, "failed to find actor by id on primary")
}

// FindByEmail retrieves an actor by its normalized email.
func (repo *actorRepository) FindByEmail(ctx context.Context, email string) (*entity.Actor, error) {
	query := repo.table(ctx).Where("email = ?", entity.NormalizeEmail(email))

	return repo.take(query, "failed to find actor by email")
}

// FindByOAuthSubject retrieves an actor linked to an external identity.
func (repo *actorRepository) FindByOAuthSubject(ctx context.Context, provider, subject string) (*entity.Actor, error) {
	query := repo.table(ctx).Where("oauth_provider = ? AND oauth_subject = ?", provider, subject)

	return repo.take(query, "failed to find actor by oauth subject")
}

// FindByResetToken retrieves the actor holding a live reset token hash.
func (repo *actorRepository) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*entity.Actor, error) {
	if tokenHash == "" {
		return nil, repository.ErrActorNotFound
	}
	query := repo.table(ctx).Where("reset_token_hash = ? AND reset_token_expires_at > ?", tokenHash, now)

	return repo.take(query, "failed to find actor by reset token")
}

// FindByVerificationToken retrieves the unverified actor holding a live verification token hash.
func (repo *actorRepository) FindByVerificationToken(ctx context.Context, tokenHash string, now time.Time) (*entity.Actor, error) {
	if tokenHash == "" {
		return nil, repository.ErrActorNotFound
	}
	query := repo.table(ctx).
		Where("verification_token_hash = ? AND verification_expires_at > ? AND is_verified = ?", tokenHash, now, false)

	return repo.take(query, "failed to find actor by verification token")
}

// Create persists a new actor.
func (repo *actorRepository) Create(ctx context.Context, actor *entity.Actor) error {
	actorM := fromActorDomain(actor)

	if err := repo.table(ctx).Create(actorM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return errors.WithStack(repository.ErrActorEmailTaken)
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrRoleNotFound.WrapMessage("invalid role reference")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required actor information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create "+string(repo.kind))
	}

	actor.CreatedAt = actorM.CreatedAt
	actor.UpdatedAt = actorM.UpdatedAt

	return nil
}

// LinkOAuth attaches an external identity to an actor that has none yet. Linking
// also completes email verification, since the provider vouched for the address.
func (repo *actorRepository) LinkOAuth(ctx context.Context, id uuid.UUID, provider, subject string, now time.Time) (bool, error) {
	result := repo.table(ctx).
		Where("id = ? AND oauth_subject = ?", id, "").
		Updates(map[string]any{
			"oauth_provider":          provider,
			"oauth_subject":           subject,
			"is_verified":             true,
			"verification_token_hash": "",
			"verification_expires_at": nil,
			"updated_at":              now,
		})
	if err := result.Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return false, nil
		}

		return false, errors.Wrap(err, "failed to link oauth identity")
	}

	return result.RowsAffected == 1, nil
}

// SetOTP stores a second-factor code, replacing any outstanding one.
func (repo *actorRepository) SetOTP(ctx context.Context, id uuid.UUID, code string, expiresAt, now time.Time) error {
	return repo.updateByID(ctx, id, map[string]any{
		"otp_code":       code,
		"otp_expires_at": expiresAt,
	}, now, "failed to set otp")
}

// ConsumeOTP clears the code in one statement, guarded by the code and its expiry.
func (repo *actorRepository) ConsumeOTP(ctx context.Context, id uuid.UUID, code string, now time.Time) (bool, error) {
	if code == "" {
		return false, nil
	}
	result := repo.table(ctx).
		Where("id = ? AND otp_code = ? AND otp_expires_at > ?", id, code, now).
		Updates(map[string]any{
			"otp_code":       "",
			"otp_expires_at": nil,
			"updated_at":     now,
		})
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "failed to consume otp")
	}

	return result.RowsAffected == 1, nil
}

// SetResetToken stores a reset token hash and its expiry.
func (repo *actorRepository) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt, now time.Time) error {
	return repo.updateByID(ctx, id, map[string]any{
		"reset_token_hash":       tokenHash,
		"reset_token_expires_at": expiresAt,
	}, now, "failed to set reset token")
}

// ConsumeResetToken swaps the password hash and clears the token while it is still live.
func (repo *actorRepository) ConsumeResetToken(ctx context.Context, id uuid.UUID, tokenHash, passwordHash string, now time.Time) (bool, error) {
	result := repo.table(ctx).
		Where("id = ? AND reset_token_hash = ? AND reset_token_expires_at > ?", id, tokenHash, now).
		Updates(map[string]any{
			"password_hash":          passwordHash,
			"reset_token_hash":       "",
			"reset_token_expires_at": nil,
			"updated_at":             now,
		})
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "failed to consume reset token")
	}

	return result.RowsAffected == 1, nil
}

// MarkVerified sets the verified flag and clears the verification token while it is still live.
func (repo *actorRepository) MarkVerified(ctx context.Context, id uuid.UUID, tokenHash string, now time.Time) (bool, error) {
	result := repo.table(ctx).
		Where("id = ? AND verification_token_hash = ? AND verification_expires_at > ? AND is_verified = ?", id, tokenHash, now, false).
		Updates(map[string]any{
			"is_verified":             true,
			"verification_token_hash": "",
			"verification_expires_at": nil,
			"updated_at":              now,
		})
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "failed to mark actor verified")
	}

	return result.RowsAffected == 1, nil
}

// UpdateStatus changes the account status.
func (repo *actorRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.AccountStatus, now time.Time) error {
	return repo.updateByID(ctx, id, map[string]any{"status": string(status)}, now, "failed to update status")
}

// UpdateLastLogin records a successful login instant.
func (repo *actorRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return repo.updateByID(ctx, id, map[string]any{"last_login_at": at}, at, "failed to update last login")
}

// UpdateTwoFactor toggles the second-factor requirement.
func (repo *actorRepository) UpdateTwoFactor(ctx context.Context, id uuid.UUID, enabled bool, now time.Time) error {
	return repo.updateByID(ctx, id, map[string]any{"two_factor_enabled": enabled}, now, "failed to update two factor")
}

func (repo *actorRepository) updateByID(ctx context.Context, id uuid.UUID, columns map[string]any, now time.Time, msg string) error {
	columns["updated_at"] = now

	result := repo.table(ctx).Where("id = ?", id).Updates(columns)
	if result.Error != nil {
		return errors.Wrap(result.Error, msg)
	}
	if result.RowsAffected == 0 {
		return repository.ErrActorNotFound
	}

	return nil
}

func (repo *actorRepository) take(query *gorm.DB, msg string) (*entity.Actor, error) {
	var actorM model.ActorModel
	if err := query.Take(&actorM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrActorNotFound
		}

		return nil, errors.Wrap(err, msg)
	}

	return toActorDomain(repo.kind, &actorM), nil
}

// --- Mapper Functions ---

func toActorDomain(kind entity.ActorKind, data *model.ActorModel) *entity.Actor {
	if data == nil {
		return nil
	}

	return &entity.Actor{
		ID:                    data.ID,
		Kind:                  kind,
		Email:                 data.Email,
		FullName:              data.FullName,
		PasswordHash:          data.PasswordHash,
		OAuthProvider:         data.OAuthProvider,
		OAuthSubject:          data.OAuthSubject,
		ContactNumber:         data.ContactNumber,
		Gender:                data.Gender,
		DateOfBirth:           data.DateOfBirth,
		IsVerified:            data.IsVerified,
		VerificationTokenHash: data.VerificationTokenHash,
		VerificationExpiresAt: data.VerificationExpiresAt,
		ResetTokenHash:        data.ResetTokenHash,
		ResetTokenExpiresAt:   data.ResetTokenExpiresAt,
		TwoFactorEnabled:      data.TwoFactorEnabled,
		OTPCode:               data.OTPCode,
		OTPExpiresAt:          data.OTPExpiresAt,
		Status:                entity.AccountStatus(data.Status),
		RoleID:                data.RoleID,
		LastLoginAt:           data.LastLoginAt,
		CreatedAt:             data.CreatedAt,
		UpdatedAt:             data.UpdatedAt,
	}
}

func fromActorDomain(data *entity.Actor) *model.ActorModel {
	if data == nil {
		return nil
	}

	return &model.ActorModel{
		ID:                    data.ID,
		Email:                 entity.NormalizeEmail(data.Email),
		FullName:              data.FullName,
		PasswordHash:          data.PasswordHash,
		OAuthProvider:         data.OAuthProvider,
		OAuthSubject:          data.OAuthSubject,
		ContactNumber:         data.ContactNumber,
		Gender:                data.Gender,
		DateOfBirth:           data.DateOfBirth,
		IsVerified:            data.IsVerified,
		VerificationTokenHash: data.VerificationTokenHash,
		VerificationExpiresAt: data.VerificationExpiresAt,
		ResetTokenHash:        data.ResetTokenHash,
		ResetTokenExpiresAt:   data.ResetTokenExpiresAt,
		TwoFactorEnabled:      data.TwoFactorEnabled,
		OTPCode:               data.OTPCode,
		OTPExpiresAt:          data.OTPExpiresAt,
		Status:                string(data.Status),
		RoleID:                data.RoleID,
		LastLoginAt:           data.LastLoginAt,
		CreatedAt:             data.CreatedAt,
		UpdatedAt:             data.UpdatedAt,
	}
}
