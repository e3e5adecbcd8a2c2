package impl

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"philbox/internal/domain/entity"
	domainerrors "philbox/internal/domain/errors"
	"philbox/internal/domain/repository"
	"philbox/internal/domain/service"

	"github.com/google/uuid"
)

// memStore is an in-memory stand-in for the relational store shared by all fake repositories.
type memStore struct {
	mu        sync.Mutex
	actors    map[entity.ActorKind]map[uuid.UUID]*entity.Actor
	roles     map[uuid.UUID]*entity.Role
	perms     map[entity.PermissionKey]*entity.Permission
	docs      map[uuid.UUID]*entity.DoctorDocuments
	apps      map[uuid.UUID]*entity.DoctorApplication
	profiles  map[uuid.UUID]*entity.DoctorProfile
	addresses map[uuid.UUID]*entity.Address

	// afterEmailLookup, when set, runs after each FindByEmail, outside the lock.
	afterEmailLookup func()
}

func newMemStore() *memStore {
	actors := make(map[entity.ActorKind]map[uuid.UUID]*entity.Actor)
	for _, kind := range entity.ActorKinds() {
		actors[kind] = make(map[uuid.UUID]*entity.Actor)
	}

	return &memStore{
		actors:    actors,
		roles:     make(map[uuid.UUID]*entity.Role),
		perms:     make(map[entity.PermissionKey]*entity.Permission),
		docs:      make(map[uuid.UUID]*entity.DoctorDocuments),
		apps:      make(map[uuid.UUID]*entity.DoctorApplication),
		profiles:  make(map[uuid.UUID]*entity.DoctorProfile),
		addresses: make(map[uuid.UUID]*entity.Address),
	}
}

func cloneActor(a *entity.Actor) *entity.Actor {
	c := *a

	return &c
}

func cloneDocs(d *entity.DoctorDocuments) *entity.DoctorDocuments {
	c := *d
	c.ExperienceLetters = slices.Clone(d.ExperienceLetters)

	return &c
}

func cloneApp(a *entity.DoctorApplication) *entity.DoctorApplication {
	c := *a

	return &c
}

func cloneRole(r *entity.Role) *entity.Role {
	c := *r
	c.Permissions = slices.Clone(r.Permissions)

	return &c
}

// memFactory implements repository.RepositoryFactory and repository.TransactionManager.
type memFactory struct {
	store *memStore
}

func (f *memFactory) ActorRepo(kind entity.ActorKind) repository.ActorRepository {
	return &memActorRepo{store: f.store, kind: kind}
}

func (f *memFactory) RoleRepo() repository.RoleRepository {
	return &memRoleRepo{store: f.store}
}

func (f *memFactory) DoctorRepo() repository.DoctorRepository {
	return &memDoctorRepo{store: f.store}
}

func (f *memFactory) AddressRepo() repository.AddressRepository {
	return &memAddressRepo{store: f.store}
}

// Execute runs fn against the same store. The fake does not roll back.
func (f *memFactory) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(f)
}

type memActorRepo struct {
	store *memStore
	kind  entity.ActorKind
}

func (r *memActorRepo) table() map[uuid.UUID]*entity.Actor {
	return r.store.actors[r.kind]
}

func (r *memActorRepo) find(match func(*entity.Actor) bool) (*entity.Actor, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, a := range r.table() {
		if match(a) {
			return cloneActor(a), nil
		}
	}

	return nil, repository.ErrActorNotFound
}

func (r *memActorRepo) mutate(id uuid.UUID, fn func(*entity.Actor) bool) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	a, ok := r.table()[id]
	if !ok {
		return false, repository.ErrActorNotFound
	}

	return fn(a), nil
}

func (r *memActorRepo) Kind() entity.ActorKind { return r.kind }

func (r *memActorRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Actor, error) {
	return r.find(func(a *entity.Actor) bool { return a.ID == id })
}

func (r *memActorRepo) FindByIDPrimary(ctx context.Context, id uuid.UUID) (*entity.Actor, error) {
	return r.FindByID(ctx, id)
}

func (r *memActorRepo) FindByEmail(_ context.Context, email string) (*entity.Actor, error) {
	actor, err := r.find(func(a *entity.Actor) bool { return a.Email == email })
	if hook := r.store.afterEmailLookup; hook != nil {
		hook()
	}

	return actor, err
}

func (r *memActorRepo) FindByOAuthSubject(_ context.Context, provider, subject string) (*entity.Actor, error) {
	return r.find(func(a *entity.Actor) bool { return a.OAuthProvider == provider && a.OAuthSubject == subject })
}

func (r *memActorRepo) FindByResetToken(_ context.Context, tokenHash string, now time.Time) (*entity.Actor, error) {
	return r.find(func(a *entity.Actor) bool {
		return a.ResetTokenHash == tokenHash && a.ResetTokenExpiresAt != nil && now.Before(*a.ResetTokenExpiresAt)
	})
}

func (r *memActorRepo) FindByVerificationToken(_ context.Context, tokenHash string, now time.Time) (*entity.Actor, error) {
	return r.find(func(a *entity.Actor) bool {
		return !a.IsVerified && a.VerificationTokenHash == tokenHash &&
			a.VerificationExpiresAt != nil && now.Before(*a.VerificationExpiresAt)
	})
}

func (r *memActorRepo) Create(_ context.Context, actor *entity.Actor) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, a := range r.table() {
		if a.Email == actor.Email {
			return repository.ErrActorEmailTaken
		}
	}
	r.table()[actor.ID] = cloneActor(actor)

	return nil
}

func (r *memActorRepo) LinkOAuth(_ context.Context, id uuid.UUID, provider, subject string, now time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, other := range r.table() {
		if other.OAuthProvider == provider && other.OAuthSubject == subject {
			return false, nil
		}
	}
	a, ok := r.table()[id]
	if !ok || a.OAuthSubject != "" {
		return false, nil
	}
	a.OAuthProvider = provider
	a.OAuthSubject = subject
	a.MarkVerified()
	a.UpdatedAt = now

	return true, nil
}

func (r *memActorRepo) SetOTP(_ context.Context, id uuid.UUID, code string, expiresAt, now time.Time) error {
	_, err := r.mutate(id, func(a *entity.Actor) bool {
		a.OTPCode = code
		a.OTPExpiresAt = &expiresAt
		a.UpdatedAt = now

		return true
	})

	return err
}

func (r *memActorRepo) ConsumeOTP(_ context.Context, id uuid.UUID, code string, now time.Time) (bool, error) {
	return r.mutate(id, func(a *entity.Actor) bool {
		if !a.OTPMatches(code, now) {
			return false
		}
		a.ClearOTP()

		return true
	})
}

func (r *memActorRepo) SetResetToken(_ context.Context, id uuid.UUID, tokenHash string, expiresAt, now time.Time) error {
	_, err := r.mutate(id, func(a *entity.Actor) bool {
		a.ResetTokenHash = tokenHash
		a.ResetTokenExpiresAt = &expiresAt
		a.UpdatedAt = now

		return true
	})

	return err
}

func (r *memActorRepo) ConsumeResetToken(_ context.Context, id uuid.UUID, tokenHash, passwordHash string, now time.Time) (bool, error) {
	return r.mutate(id, func(a *entity.Actor) bool {
		if a.ResetTokenHash != tokenHash || a.ResetTokenExpiresAt == nil || !now.Before(*a.ResetTokenExpiresAt) {
			return false
		}
		a.PasswordHash = &passwordHash
		a.ClearResetToken()

		return true
	})
}

func (r *memActorRepo) MarkVerified(_ context.Context, id uuid.UUID, tokenHash string, now time.Time) (bool, error) {
	return r.mutate(id, func(a *entity.Actor) bool {
		if a.IsVerified || a.VerificationTokenHash != tokenHash ||
			a.VerificationExpiresAt == nil || !now.Before(*a.VerificationExpiresAt) {
			return false
		}
		a.MarkVerified()

		return true
	})
}

func (r *memActorRepo) UpdateStatus(_ context.Context, id uuid.UUID, status entity.AccountStatus, now time.Time) error {
	_, err := r.mutate(id, func(a *entity.Actor) bool {
		a.Status = status
		a.UpdatedAt = now

		return true
	})

	return err
}

func (r *memActorRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.mutate(id, func(a *entity.Actor) bool {
		a.LastLoginAt = &at
		a.UpdatedAt = at

		return true
	})

	return err
}

func (r *memActorRepo) UpdateTwoFactor(_ context.Context, id uuid.UUID, enabled bool, now time.Time) error {
	_, err := r.mutate(id, func(a *entity.Actor) bool {
		a.TwoFactorEnabled = enabled
		a.UpdatedAt = now

		return true
	})

	return err
}

type memRoleRepo struct {
	store *memStore
}

func (r *memRoleRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Role, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	role, ok := r.store.roles[id]
	if !ok {
		return nil, repository.ErrRoleNotFound
	}

	return cloneRole(role), nil
}

func (r *memRoleRepo) FindByName(_ context.Context, name entity.RoleName) (*entity.Role, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, role := range r.store.roles {
		if role.Name == name {
			return cloneRole(role), nil
		}
	}

	return nil, repository.ErrRoleNotFound
}

func (r *memRoleRepo) List(_ context.Context) ([]*entity.Role, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	roles := make([]*entity.Role, 0, len(r.store.roles))
	for _, role := range r.store.roles {
		roles = append(roles, cloneRole(role))
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })

	return roles, nil
}

func (r *memRoleRepo) ListPermissions(_ context.Context) ([]*entity.Permission, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	perms := make([]*entity.Permission, 0, len(r.store.perms))
	for _, p := range r.store.perms {
		c := *p
		perms = append(perms, &c)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i].Name() < perms[j].Name() })

	return perms, nil
}

func (r *memRoleRepo) UpsertPermission(_ context.Context, key entity.PermissionKey) (*entity.Permission, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if p, ok := r.store.perms[key]; ok {
		return p, nil
	}
	p := &entity.Permission{ID: uuid.New(), Resource: key.Resource, Action: key.Action, Description: key.Description()}
	r.store.perms[key] = p

	return p, nil
}

func (r *memRoleRepo) UpsertRole(_ context.Context, name entity.RoleName, description string) (*entity.Role, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, role := range r.store.roles {
		if role.Name == name {
			role.Description = description

			return cloneRole(role), nil
		}
	}
	role := &entity.Role{ID: uuid.New(), Name: name, Description: description}
	r.store.roles[role.ID] = role

	return cloneRole(role), nil
}

func (r *memRoleRepo) ReplacePermissions(_ context.Context, roleID uuid.UUID, permissions []*entity.Permission) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	role, ok := r.store.roles[roleID]
	if !ok {
		return repository.ErrRoleNotFound
	}
	role.Permissions = role.Permissions[:0:0]
	for _, p := range permissions {
		role.Permissions = append(role.Permissions, *p)
	}

	return nil
}

type memDoctorRepo struct {
	store *memStore
}

func (r *memDoctorRepo) FindDocuments(_ context.Context, doctorID uuid.UUID) (*entity.DoctorDocuments, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	docs, ok := r.store.docs[doctorID]
	if !ok {
		return nil, repository.ErrDocumentsNotFound
	}

	return cloneDocs(docs), nil
}

func (r *memDoctorRepo) SaveDocuments(_ context.Context, docs *entity.DoctorDocuments) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if stored, ok := r.store.docs[docs.DoctorID]; ok {
		docs.ID = stored.ID
		docs.CreatedAt = stored.CreatedAt
	}
	r.store.docs[docs.DoctorID] = cloneDocs(docs)

	return nil
}

func (r *memDoctorRepo) FindApplicationByDoctor(_ context.Context, doctorID uuid.UUID) (*entity.DoctorApplication, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, app := range r.store.apps {
		if app.DoctorID == doctorID {
			return cloneApp(app), nil
		}
	}

	return nil, repository.ErrApplicationNotFound
}

func (r *memDoctorRepo) FindApplication(_ context.Context, id uuid.UUID) (*entity.DoctorApplication, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	app, ok := r.store.apps[id]
	if !ok {
		return nil, repository.ErrApplicationNotFound
	}

	return cloneApp(app), nil
}

func (r *memDoctorRepo) ListApplications(_ context.Context, filter repository.ApplicationFilter) ([]*entity.DoctorApplication, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var matched []*entity.DoctorApplication
	for _, app := range r.store.apps {
		if filter.Status == "" || app.Status == filter.Status {
			matched = append(matched, cloneApp(app))
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := min(filter.Offset, len(matched))
	end := len(matched)
	if filter.Limit > 0 {
		end = min(start+filter.Limit, len(matched))
	}

	return matched[start:end], total, nil
}

func (r *memDoctorRepo) CreateApplication(_ context.Context, app *entity.DoctorApplication) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, stored := range r.store.apps {
		if stored.DocumentsID == app.DocumentsID {
			return false, nil
		}
	}
	r.store.apps[app.ID] = cloneApp(app)

	return true, nil
}

func (r *memDoctorRepo) ReopenApplication(
	_ context.Context,
	app *entity.DoctorApplication,
	from ...entity.ApplicationStatus,
) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.apps[app.ID]
	if !ok || !slices.Contains(from, stored.Status) {
		return false, nil
	}
	stored.DocumentsID = app.DocumentsID
	stored.ResetForReview()
	stored.UpdatedAt = app.UpdatedAt

	return true, nil
}

func (r *memDoctorRepo) TransitionApplication(
	_ context.Context,
	id uuid.UUID,
	decision repository.ApplicationDecision,
	excluded ...entity.ApplicationStatus,
) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	app, ok := r.store.apps[id]
	if !ok || slices.Contains(excluded, app.Status) {
		return false, nil
	}
	reviewer := decision.ReviewedBy
	at := decision.ReviewedAt
	app.Status = decision.Status
	app.Comment = decision.Comment
	app.ReviewedBy = &reviewer
	app.ReviewedAt = &at
	app.UpdatedAt = at

	return true, nil
}

func (r *memDoctorRepo) FindProfile(_ context.Context, doctorID uuid.UUID) (*entity.DoctorProfile, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	profile, ok := r.store.profiles[doctorID]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	c := *profile

	return &c, nil
}

func (r *memDoctorRepo) SaveProfile(_ context.Context, profile *entity.DoctorProfile) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c := *profile
	r.store.profiles[profile.DoctorID] = &c

	return nil
}

type memAddressRepo struct {
	store *memStore
}

func (r *memAddressRepo) FindByCustomer(_ context.Context, customerID uuid.UUID) (*entity.Address, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	addr, ok := r.store.addresses[customerID]
	if !ok {
		return nil, repository.ErrAddressNotFound
	}
	c := *addr

	return &c, nil
}

func (r *memAddressRepo) ExistsForCustomer(_ context.Context, customerID uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	_, ok := r.store.addresses[customerID]

	return ok, nil
}

func (r *memAddressRepo) Save(_ context.Context, address *entity.Address) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c := *address
	r.store.addresses[address.CustomerID] = &c

	return nil
}

// memSessionStore keeps sessions by token.
type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]entity.Session
	touches  int
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]entity.Session)}
}

func (s *memSessionStore) Get(_ context.Context, token string) (*entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[token]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	sess := stored
	sess.Slots = make(map[entity.ActorKind]*entity.SessionSlot, len(stored.Slots))
	for kind, slot := range stored.Slots {
		c := *slot
		sess.Slots[kind] = &c
	}

	return &sess, nil
}

func (s *memSessionStore) Save(_ context.Context, sess *entity.Session, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *sess
	stored.Slots = make(map[entity.ActorKind]*entity.SessionSlot, len(sess.Slots))
	for kind, slot := range sess.Slots {
		c := *slot
		stored.Slots[kind] = &c
	}
	s.sessions[sess.Token] = stored

	return nil
}

func (s *memSessionStore) Touch(_ context.Context, token string, expiresAt time.Time, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[token]
	if !ok {
		return repository.ErrSessionNotFound
	}
	stored.ExpiresAt = expiresAt
	s.sessions[token] = stored
	s.touches++

	return nil
}

func (s *memSessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)

	return nil
}

func (s *memSessionStore) has(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[token]

	return ok
}

// fakeHasher prefixes passwords instead of hashing them.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (fakeHasher) Check(password, hash string) bool {
	return hash == "hashed:"+password
}

func (fakeHasher) ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return domainerrors.ErrPasswordStrength.WithDetails("must be at least 8 characters long")
	}

	return nil
}

// fakeTokens issues sequential tokens and a fixed OTP code.
type fakeTokens struct {
	mu      sync.Mutex
	seq     int
	otpCode string
	otpTTL  time.Duration
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{otpCode: "123456", otpTTL: 5 * time.Minute}
}

func (f *fakeTokens) next(prefix string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++

	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeTokens) IssueOpaqueToken() (string, string, error) {
	plain := f.next("tok")

	return plain, f.HashToken(plain), nil
}

func (f *fakeTokens) HashToken(plain string) string {
	return "sha:" + plain
}

func (f *fakeTokens) GenerateOTP(now time.Time) (string, time.Time, error) {
	return f.otpCode, now.Add(f.otpTTL), nil
}

func (f *fakeTokens) NewSessionToken() (string, error) {
	return f.next("sess"), nil
}

// fixedClock returns a settable instant.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock() *fixedClock {
	return &fixedClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// recordingMetrics counts observations by "<event>:<labels>".
type recordingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

var _ service.MetricsRecorder = (*recordingMetrics)(nil)

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{counts: make(map[string]int)}
}

func (m *recordingMetrics) inc(parts ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counts[strings.Join(parts, ":")]++
}

func (m *recordingMetrics) count(parts ...string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.counts[strings.Join(parts, ":")]
}

func (m *recordingMetrics) LoginAttempt(kind entity.ActorKind, outcome string) {
	m.inc("login", string(kind), outcome)
}

func (m *recordingMetrics) OTPVerification(kind entity.ActorKind, outcome string) {
	m.inc("otp", string(kind), outcome)
}

func (m *recordingMetrics) PasswordReset(kind entity.ActorKind, stage string) {
	m.inc("reset", string(kind), stage)
}

func (m *recordingMetrics) OnboardingTransition(status entity.ApplicationStatus) {
	m.inc("onboarding", string(status))
}

func (m *recordingMetrics) SessionResolution(kind entity.ActorKind, outcome string) {
	m.inc("session", string(kind), outcome)
}

func (m *recordingMetrics) CollaboratorFailure(collaborator string) {
	m.inc("collaborator", collaborator)
}
