package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"plata-bot/internal/models"
	"plata-bot/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memLinkStore struct {
	mu    sync.Mutex
	links map[uuid.UUID]*models.IdentityLink
}

func newMemLinkStore() *memLinkStore {
	return &memLinkStore{links: make(map[uuid.UUID]*models.IdentityLink)}
}

func (s *memLinkStore) Create(_ context.Context, link *models.IdentityLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *link
	s.links[link.ID] = &cp
	return nil
}

func (s *memLinkStore) GetByAddress(_ context.Context, channel, address string) (*models.IdentityLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *models.IdentityLink
	for _, l := range s.links {
		if l.Channel != channel || l.Address != address {
			continue
		}
		// Verified links win over pending ones, like the repository ordering.
		if best == nil || (l.Status == models.LinkStatusVerified && best.Status != models.LinkStatusVerified) {
			best = l
		}
	}
	if best == nil {
		return nil, pgx.ErrNoRows
	}
	cp := *best
	return &cp, nil
}

func (s *memLinkStore) GetByUserAndAddress(_ context.Context, userID uuid.UUID, channel, address string) (*models.IdentityLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.links {
		if l.UserID == userID && l.Channel == channel && l.Address == address {
			cp := *l
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *memLinkStore) VerifiedUserFor(_ context.Context, channel, address string) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.links {
		if l.Channel == channel && l.Address == address && l.Status == models.LinkStatusVerified {
			return l.UserID, true, nil
		}
	}
	return uuid.Nil, false, nil
}

func (s *memLinkStore) MarkVerified(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.links[id]
	if !ok {
		return pgx.ErrNoRows
	}
	for _, l := range s.links {
		if l.ID != id && l.Channel == target.Channel && l.Address == target.Address && l.Status == models.LinkStatusVerified {
			return repository.ErrConflict
		}
	}
	target.Status = models.LinkStatusVerified
	target.VerifiedAt = &at
	target.UpdatedAt = at
	return nil
}

func (s *memLinkStore) Touch(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.links[id]
	if !ok {
		return pgx.ErrNoRows
	}
	l.UpdatedAt = at
	return nil
}

// captureNotifier records sends and signals on a channel since replies are
// dispatched from goroutines.
type captureNotifier struct {
	mu    sync.Mutex
	sends []string
	ch    chan string
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{ch: make(chan string, 16)}
}

func (n *captureNotifier) Send(_ context.Context, address, text string) error {
	n.mu.Lock()
	n.sends = append(n.sends, text)
	n.mu.Unlock()
	n.ch <- text
	return nil
}

func (n *captureNotifier) wait(t *testing.T) string {
	t.Helper()
	select {
	case text := <-n.ch:
		return text
	case <-time.After(time.Second):
		t.Fatal("no outbound message arrived")
		return ""
	}
}

type linkFixture struct {
	svc      *LinkService
	links    *memLinkStore
	otps     *memOTPStore
	notifier *captureNotifier
}

func newLinkFixture() *linkFixture {
	links := newMemLinkStore()
	otps := newMemOTPStore()
	notifier := newCaptureNotifier()
	otpService := NewOTPService(otps, plainHasher{}, 10*time.Minute, 3, zap.NewNop())
	svc := NewLinkService(links, otpService, notifier, NewTextComposer(), "whatsapp", zap.NewNop())
	return &linkFixture{svc: svc, links: links, otps: otps, notifier: notifier}
}

// latestCode digs the plaintext code out of the transparent hash so tests can
// complete the verification loop.
func (f *linkFixture) latestCode(t *testing.T, userID uuid.UUID, address string) string {
	t.Helper()
	rec, err := f.otps.GetLatestActive(context.Background(), userID, "whatsapp", address)
	require.NoError(t, err)
	return rec.CodeHash[len("h:"):]
}

func TestResolveUnknownAddress(t *testing.T) {
	f := newLinkFixture()

	res, err := f.svc.Resolve(context.Background(), "+549110001")
	require.NoError(t, err)
	assert.Equal(t, models.LinkStatusNotAssociated, res.Status)
	assert.Nil(t, res.Link)
}

func TestRequestAndVerifyLink(t *testing.T) {
	f := newLinkFixture()
	ctx := context.Background()
	userID := uuid.New()
	address := "+549110001"

	link, err := f.svc.RequestLink(ctx, userID, address)
	require.NoError(t, err)
	assert.Equal(t, models.LinkStatusPending, link.Status)
	f.notifier.wait(t) // the OTP went out

	res, err := f.svc.Resolve(ctx, address)
	require.NoError(t, err)
	assert.Equal(t, models.LinkStatusPending, res.Status)

	code := f.latestCode(t, userID, address)
	require.NoError(t, f.svc.VerifyLink(ctx, userID, address, code))

	res, err = f.svc.Resolve(ctx, address)
	require.NoError(t, err)
	assert.Equal(t, models.LinkStatusVerified, res.Status)
	assert.Equal(t, userID, res.UserID)
}

func TestRequestLinkTwiceReissues(t *testing.T) {
	f := newLinkFixture()
	ctx := context.Background()
	userID := uuid.New()
	address := "+549110001"

	first, err := f.svc.RequestLink(ctx, userID, address)
	require.NoError(t, err)
	f.notifier.wait(t)

	second, err := f.svc.RequestLink(ctx, userID, address)
	require.NoError(t, err)
	f.notifier.wait(t)

	assert.Equal(t, first.ID, second.ID, "a second request refreshes, not duplicates")

	code := f.latestCode(t, userID, address)
	assert.NoError(t, f.svc.VerifyLink(ctx, userID, address, code))
}

func TestVerifyLinkWrongCode(t *testing.T) {
	f := newLinkFixture()
	ctx := context.Background()
	userID := uuid.New()
	address := "+549110001"

	_, err := f.svc.RequestLink(ctx, userID, address)
	require.NoError(t, err)
	f.notifier.wait(t)

	code := f.latestCode(t, userID, address)
	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}

	err = f.svc.VerifyLink(ctx, userID, address, wrong)
	assert.ErrorIs(t, err, ErrOTPInvalid)

	res, err := f.svc.Resolve(ctx, address)
	require.NoError(t, err)
	assert.Equal(t, models.LinkStatusPending, res.Status, "a failed code leaves the link pending")
}

func TestVerifyLinkWithoutRequest(t *testing.T) {
	f := newLinkFixture()
	err := f.svc.VerifyLink(context.Background(), uuid.New(), "+549110001", "123456")
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

// One verified link per address: a second user can neither request nor verify
// against a taken address, and the first link stays intact.
func TestAddressExclusivity(t *testing.T) {
	f := newLinkFixture()
	ctx := context.Background()
	owner := uuid.New()
	intruder := uuid.New()
	address := "+549110001"

	_, err := f.svc.RequestLink(ctx, owner, address)
	require.NoError(t, err)
	f.notifier.wait(t)
	require.NoError(t, f.svc.VerifyLink(ctx, owner, address, f.latestCode(t, owner, address)))

	_, err = f.svc.RequestLink(ctx, intruder, address)
	assert.ErrorIs(t, err, ErrAddressAlreadyLinked)

	err = f.svc.VerifyLink(ctx, intruder, address, "123456")
	assert.ErrorIs(t, err, ErrAddressAlreadyLinked)

	res, err := f.svc.Resolve(ctx, address)
	require.NoError(t, err)
	assert.Equal(t, owner, res.UserID, "the original link is untouched")
	assert.Equal(t, models.LinkStatusVerified, res.Status)
}

func TestVerifyLinkAlreadyVerified(t *testing.T) {
	f := newLinkFixture()
	ctx := context.Background()
	userID := uuid.New()
	address := "+549110001"

	_, err := f.svc.RequestLink(ctx, userID, address)
	require.NoError(t, err)
	f.notifier.wait(t)
	code := f.latestCode(t, userID, address)
	require.NoError(t, f.svc.VerifyLink(ctx, userID, address, code))

	err = f.svc.VerifyLink(ctx, userID, address, code)
	assert.ErrorIs(t, err, ErrAddressAlreadyLinked)
}

func TestReissueOTPRequiresPending(t *testing.T) {
	f := newLinkFixture()
	ctx := context.Background()
	userID := uuid.New()
	address := "+549110001"

	_, err := f.svc.RequestLink(ctx, userID, address)
	require.NoError(t, err)
	f.notifier.wait(t)
	require.NoError(t, f.svc.VerifyLink(ctx, userID, address, f.latestCode(t, userID, address)))

	res, err := f.svc.Resolve(ctx, address)
	require.NoError(t, err)
	err = f.svc.ReissueOTP(ctx, res.Link)
	assert.ErrorIs(t, err, ErrLinkNotPending)
}
