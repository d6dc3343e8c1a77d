package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/aldergrove/cms-auth/internal/core/domain"
	"github.com/aldergrove/cms-auth/internal/infra/config"
	"github.com/aldergrove/cms-auth/internal/infra/security"
	"github.com/aldergrove/cms-auth/internal/repository"
)

type guardPersonRepo struct {
	persons map[int64]*domain.Person
}

func (r *guardPersonRepo) GetByID(_ context.Context, id int64) (*domain.Person, error) {
	if p, ok := r.persons[id]; ok {
		copy := *p
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (r *guardPersonRepo) GetByEmail(_ context.Context, email string) (*domain.Person, error) {
	for _, p := range r.persons {
		if p.Email == email {
			copy := *p
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

type guardLoginRepo struct {
	logins  map[string]*domain.Login
	touched []string
}

func (r *guardLoginRepo) Create(_ context.Context, login *domain.Login) error {
	login.ID = int64(len(r.logins) + 1)
	r.logins[login.Token] = login
	return nil
}

func (r *guardLoginRepo) GetByToken(_ context.Context, token string) (*domain.Login, error) {
	if l, ok := r.logins[token]; ok {
		copy := *l
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (r *guardLoginRepo) Touch(_ context.Context, token string, personID int64, at time.Time) error {
	l, ok := r.logins[token]
	if !ok {
		return repository.ErrNotFound
	}
	l.UpdatedAt = at
	l.UpdatedBy = personID
	r.touched = append(r.touched, token)
	return nil
}

func (r *guardLoginRepo) DeleteByToken(_ context.Context, token string) error {
	delete(r.logins, token)
	return nil
}

func (r *guardLoginRepo) DeleteByPerson(_ context.Context, personID int64) error {
	for token, l := range r.logins {
		if l.PersonID == personID {
			delete(r.logins, token)
		}
	}
	return nil
}

func (r *guardLoginRepo) DeleteInactiveSince(context.Context, time.Time) (int64, error) {
	return 0, errors.New("unexpected call: DeleteInactiveSince")
}

type fakeSession struct {
	personID int64
	token    string
	bound    bool
}

func (s *fakeSession) Credentials() (int64, string, bool) {
	if !s.bound {
		return 0, "", false
	}
	return s.personID, s.token, true
}

func (s *fakeSession) SetCredentials(personID int64, token string) error {
	s.personID = personID
	s.token = token
	s.bound = true
	return nil
}

func (s *fakeSession) Clear() error {
	s.personID = 0
	s.token = ""
	s.bound = false
	return nil
}

type recordingPublisher struct {
	succeeded []domain.LoginSucceededEvent
	failed    []domain.LoginFailedEvent
	logouts   []domain.LogoutEvent
}

func (p *recordingPublisher) PublishLoginSucceeded(_ context.Context, e domain.LoginSucceededEvent) error {
	p.succeeded = append(p.succeeded, e)
	return nil
}

func (p *recordingPublisher) PublishLoginFailed(_ context.Context, e domain.LoginFailedEvent) error {
	p.failed = append(p.failed, e)
	return nil
}

func (p *recordingPublisher) PublishLogout(_ context.Context, e domain.LogoutEvent) error {
	p.logouts = append(p.logouts, e)
	return nil
}

func (p *recordingPublisher) PublishTokenRejected(context.Context, domain.TokenRejectedEvent) error {
	return errors.New("unexpected call: PublishTokenRejected")
}

func guardFixture(t *testing.T) (*LoginGuard, *guardPersonRepo, *guardLoginRepo, *recordingPublisher, time.Time) {
	t.Helper()

	hash, err := security.HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	persons := &guardPersonRepo{persons: map[int64]*domain.Person{
		42: {ID: 42, Email: "pat@example.com", PasswordHash: hash},
	}}
	logins := &guardLoginRepo{logins: map[string]*domain.Login{}}
	events := &recordingPublisher{}

	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	cfg := &config.AppConfig{
		Login: config.LoginSettings{InactivityWindow: time.Hour},
	}

	guard := NewLoginGuard(cfg, persons, logins, events, zaptest.NewLogger(t)).
		WithClock(func() time.Time { return now })

	return guard, persons, logins, events, now
}

func TestAttemptEstablishesSession(t *testing.T) {
	guard, _, logins, events, _ := guardFixture(t)
	sess := &fakeSession{}

	person, err := guard.Attempt(context.Background(), sess, "pat@example.com", "correct horse battery", "203.0.113.9")
	if err != nil {
		t.Fatalf("expected login success, got %v", err)
	}
	if person.ID != 42 {
		t.Fatalf("unexpected person %d", person.ID)
	}

	personID, token, ok := sess.Credentials()
	if !ok || personID != 42 {
		t.Fatalf("expected bound session, got %d %v", personID, ok)
	}
	if len(token) != domain.LoginTokenLength {
		t.Fatalf("expected %d char token, got %d", domain.LoginTokenLength, len(token))
	}
	if _, ok := logins.logins[token]; !ok {
		t.Fatal("expected login record persisted")
	}
	if len(events.succeeded) != 1 {
		t.Fatalf("expected one success event, got %d", len(events.succeeded))
	}
}

func TestAttemptRejectsWrongPassword(t *testing.T) {
	guard, _, _, events, _ := guardFixture(t)
	sess := &fakeSession{}

	_, err := guard.Attempt(context.Background(), sess, "pat@example.com", "wrong", "203.0.113.9")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if sess.bound {
		t.Fatal("session must stay anonymous")
	}
	if len(events.failed) != 1 {
		t.Fatalf("expected one failure event, got %d", len(events.failed))
	}
}

func TestAttemptRejectsUnknownEmail(t *testing.T) {
	guard, _, _, _, _ := guardFixture(t)

	_, err := guard.Attempt(context.Background(), &fakeSession{}, "nobody@example.com", "whatever", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAttemptRejectsBannedPerson(t *testing.T) {
	guard, persons, _, _, _ := guardFixture(t)
	persons.persons[42].Banned = true

	_, err := guard.Attempt(context.Background(), &fakeSession{}, "pat@example.com", "correct horse battery", "")
	if !errors.Is(err, ErrPersonBanned) {
		t.Fatalf("expected ErrPersonBanned, got %v", err)
	}
}

func TestUserRefreshesLoginActivity(t *testing.T) {
	guard, _, logins, _, now := guardFixture(t)
	sess := &fakeSession{}

	if _, err := guard.Attempt(context.Background(), sess, "pat@example.com", "correct horse battery", ""); err != nil {
		t.Fatalf("login: %v", err)
	}

	person, err := guard.User(context.Background(), sess)
	if err != nil {
		t.Fatalf("resolve user: %v", err)
	}
	if person == nil || person.ID != 42 {
		t.Fatalf("expected person 42, got %+v", person)
	}
	if len(logins.touched) != 1 {
		t.Fatalf("expected one touch, got %d", len(logins.touched))
	}

	_, token, _ := sess.Credentials()
	if !logins.logins[token].UpdatedAt.Equal(now) {
		t.Fatal("expected updated_at refreshed to now")
	}
}

func TestUserAnonymousWhenLoginRecordGone(t *testing.T) {
	guard, _, logins, _, _ := guardFixture(t)
	sess := &fakeSession{}

	if _, err := guard.Attempt(context.Background(), sess, "pat@example.com", "correct horse battery", ""); err != nil {
		t.Fatalf("login: %v", err)
	}

	// Cleanup or an admin revocation removed the record out from under the
	// still-live browser session.
	_, token, _ := sess.Credentials()
	delete(logins.logins, token)

	person, err := guard.User(context.Background(), sess)
	if err != nil {
		t.Fatalf("resolve user: %v", err)
	}
	if person != nil {
		t.Fatal("expected anonymous after record deletion")
	}
}

func TestUserAnonymousForBannedPersonWithoutMutation(t *testing.T) {
	guard, persons, logins, _, _ := guardFixture(t)
	sess := &fakeSession{}

	if _, err := guard.Attempt(context.Background(), sess, "pat@example.com", "correct horse battery", ""); err != nil {
		t.Fatalf("login: %v", err)
	}
	persons.persons[42].Banned = true

	person, err := guard.User(context.Background(), sess)
	if err != nil {
		t.Fatalf("resolve user: %v", err)
	}
	if person != nil {
		t.Fatal("expected anonymous for banned person")
	}
	if len(logins.logins) != 1 {
		t.Fatal("ban check must not delete the login record")
	}
	if !sess.bound {
		t.Fatal("ban check must not clear the session")
	}
	if len(logins.touched) != 0 {
		t.Fatal("ban check must not refresh activity")
	}
}

func TestUserEmergencyBanForcesLogout(t *testing.T) {
	guard, _, logins, events, _ := guardFixture(t)
	sess := &fakeSession{}

	if _, err := guard.Attempt(context.Background(), sess, "pat@example.com", "correct horse battery", ""); err != nil {
		t.Fatalf("login: %v", err)
	}

	guard.cfg.Login.BanAllUsers = true

	person, err := guard.User(context.Background(), sess)
	if err != nil {
		t.Fatalf("resolve user: %v", err)
	}
	if person != nil {
		t.Fatal("expected anonymous under emergency ban")
	}
	if len(logins.logins) != 0 {
		t.Fatal("expected login record deleted")
	}
	if sess.bound {
		t.Fatal("expected session cleared")
	}
	if len(events.logouts) != 1 || !events.logouts[0].Forced {
		t.Fatalf("expected one forced logout event, got %+v", events.logouts)
	}
}

func TestLogoutIsQuietForAnonymousSession(t *testing.T) {
	guard, _, _, events, _ := guardFixture(t)

	if err := guard.Logout(context.Background(), &fakeSession{}, false); err != nil {
		t.Fatalf("expected quiet logout, got %v", err)
	}
	if len(events.logouts) != 0 {
		t.Fatal("anonymous logout must not publish an event")
	}
}

func TestBanPersonLoginsRevokesAllSessions(t *testing.T) {
	guard, _, logins, _, _ := guardFixture(t)

	first := &fakeSession{}
	second := &fakeSession{}
	if _, err := guard.Attempt(context.Background(), first, "pat@example.com", "correct horse battery", ""); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := guard.Attempt(context.Background(), second, "pat@example.com", "correct horse battery", ""); err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := guard.BanPersonLogins(context.Background(), 42); err != nil {
		t.Fatalf("ban person logins: %v", err)
	}
	if len(logins.logins) != 0 {
		t.Fatalf("expected all login records gone, got %d", len(logins.logins))
	}
}
