package links

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/vendo/internal/cache"
	"github.com/magabrotheeeer/vendo/internal/config"
	"github.com/magabrotheeeer/vendo/internal/hub"
	"github.com/magabrotheeeer/vendo/internal/models"
	"github.com/magabrotheeeer/vendo/internal/storage"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) ListLinks(ctx context.Context, userID string) ([]models.LinkBlock, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LinkBlock), args.Error(1)
}
func (m *RepoMock) AddLink(ctx context.Context, userID string, link models.LinkBlock) error {
	return m.Called(ctx, userID, link).Error(0)
}
func (m *RepoMock) RemoveLink(ctx context.Context, userID, id string) (int, error) {
	args := m.Called(ctx, userID, id)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) ReorderLinks(ctx context.Context, userID string, ids []string) error {
	return m.Called(ctx, userID, ids).Error(0)
}
func (m *RepoMock) IncrementClicks(ctx context.Context, userID, id string, delta int64) error {
	return m.Called(ctx, userID, id, delta).Error(0)
}

type OwnersMock struct{ mock.Mock }

func (m *OwnersMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type UsersMock struct{ mock.Mock }

func (m *UsersMock) Get(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *UsersMock) SetHubMode(ctx context.Context, id, mode string) (*models.User, error) {
	args := m.Called(ctx, id, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type SafetyMock struct{ mock.Mock }

func (m *SafetyMock) ClassifyContentSafety(ctx context.Context, url, title string) (models.SafetyVerdict, error) {
	args := m.Called(ctx, url, title)
	return args.Get(0).(models.SafetyVerdict), args.Error(1)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(message any) error {
	return m.Called(message).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

type fixture struct {
	svc       *Service
	repo      *RepoMock
	owners    *OwnersMock
	users     *UsersMock
	safety    *SafetyMock
	publisher *PublisherMock
	cache     *cache.Cache
	mr        *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := cache.InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	f := &fixture{
		repo:      new(RepoMock),
		owners:    new(OwnersMock),
		users:     new(UsersMock),
		safety:    new(SafetyMock),
		publisher: new(PublisherMock),
		cache:     c,
		mr:        mr,
	}
	cfg := config.Hub{PublicURLTemplate: "https://vendo.page/%s", QRSize: 128, UnblurTTL: time.Hour}
	f.svc = New(f.repo, f.owners, f.users, f.safety, f.publisher, c, cfg, newNoopLogger())
	f.svc.now = func() time.Time { return time.Unix(1700000000, 0) }
	return f
}

func owner(mode string) *models.User {
	return &models.User{ID: "usr_owner0001", Username: "sarah", HubMode: mode}
}

func rawLinks() []models.LinkBlock {
	return []models.LinkBlock{
		{ID: "a", Title: "Shop", URL: "https://gumroad.com/sarah", Clicks: 10, Type: models.LinkShop},
		{ID: "b", Title: "Hero", URL: "https://video.example/h", Clicks: 1, Type: models.LinkHero, IsNSFW: true},
		{ID: "c", Title: "Social", URL: "https://instagram.com/sarah", Clicks: 50, Type: models.LinkSocial},
	}
}

func TestList(t *testing.T) {
	f := newFixture(t)
	f.users.On("Get", mock.Anything, "usr_owner0001").Return(owner("performance"), nil)
	f.repo.On("ListLinks", mock.Anything, "usr_owner0001").Return(rawLinks(), nil).Once()

	v, err := f.svc.List(context.Background(), "usr_owner0001", "")
	require.NoError(t, err)
	assert.Equal(t, hub.ModePerformance, v.Mode)
	assert.Equal(t, []string{"b", "c", "a"}, hub.IDs(v.Links))
	assert.Equal(t, "c", v.TopLinkID)

	v, err = f.svc.List(context.Background(), "usr_owner0001", hub.ModeGrouped)
	require.NoError(t, err)
	assert.NotEmpty(t, v.Groups)
	f.repo.AssertNumberOfCalls(t, "ListLinks", 1)

	_, err = f.svc.List(context.Background(), "usr_owner0001", "random")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestList_SimulatedClicksAreDisplayOnly(t *testing.T) {
	f := newFixture(t)
	f.users.On("Get", mock.Anything, "usr_owner0001").Return(owner("performance"), nil)
	f.repo.On("ListLinks", mock.Anything, "usr_owner0001").Return(rawLinks(), nil).Once()
	require.NoError(t, f.cache.AddSimulatedClicks("usr_owner0001", "a", 45))

	v, err := f.svc.List(context.Background(), "usr_owner0001", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, hub.IDs(v.Links))
	assert.Equal(t, int64(55), v.Links[1].Clicks)
	assert.Equal(t, "a", v.TopLinkID)

	var cached []models.LinkBlock
	found, err := f.cache.Get(cache.LinksKey("usr_owner0001"), &cached)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, rawLinks(), cached)
	f.repo.AssertNotCalled(t, "IncrementClicks", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdd(t *testing.T) {
	tests := []struct {
		name     string
		req      models.NewLink
		verdict  *models.SafetyVerdict
		wantURL  string
		wantType models.LinkType
		wantNSFW bool
		wantErr  error
	}{
		{
			name:     "phone becomes contact",
			req:      models.NewLink{Title: "Call me", URL: "+1 555 123 4567"},
			wantURL:  "tel:+15551234567",
			wantType: models.LinkContact,
		},
		{
			name:     "shop domain",
			req:      models.NewLink{Title: "Store", URL: "gumroad.com/x"},
			wantURL:  "https://gumroad.com/x",
			wantType: models.LinkShop,
		},
		{
			name:     "plain domain",
			req:      models.NewLink{Title: "<b>Site</b>", URL: "example.com"},
			wantURL:  "https://example.com",
			wantType: models.LinkCustom,
		},
		{
			name:     "hero is always checked",
			req:      models.NewLink{Title: "Hero", URL: "video.example/x", Type: models.LinkHero},
			verdict:  &models.SafetyVerdict{IsNSFW: true, Reason: "explicit"},
			wantURL:  "https://video.example/x",
			wantType: models.LinkHero,
			wantNSFW: true,
		},
		{
			name:     "explicit safety check",
			req:      models.NewLink{Title: "Site", URL: "example.com", CheckSafety: true},
			verdict:  &models.SafetyVerdict{IsNSFW: false},
			wantURL:  "https://example.com",
			wantType: models.LinkCustom,
		},
		{
			name:    "empty title after sanitizing",
			req:     models.NewLink{Title: "<script></script>", URL: "example.com"},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "unknown type",
			req:     models.NewLink{Title: "x", URL: "example.com", Type: "weird"},
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.verdict != nil {
				f.safety.On("ClassifyContentSafety", mock.Anything, tt.wantURL, mock.Anything).Return(*tt.verdict, nil)
			}
			f.repo.On("AddLink", mock.Anything, "usr_owner0001", mock.Anything).Return(nil)

			block, err := f.svc.Add(context.Background(), "usr_owner0001", tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				f.repo.AssertNotCalled(t, "AddLink", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, block.URL)
			assert.Equal(t, tt.wantType, block.Type)
			assert.Equal(t, tt.wantNSFW, block.IsNSFW)
			assert.Zero(t, block.Clicks)
			assert.NotEmpty(t, block.ID)
			if tt.verdict == nil {
				f.safety.AssertNotCalled(t, "ClassifyContentSafety", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestAdd_SafetyFailureAddsNothing(t *testing.T) {
	f := newFixture(t)
	f.safety.On("ClassifyContentSafety", mock.Anything, mock.Anything, mock.Anything).
		Return(models.SafetyVerdict{}, errors.New("quota"))

	_, err := f.svc.Add(context.Background(), "usr_owner0001",
		models.NewLink{Title: "Hero", URL: "x.io", Type: models.LinkHero})
	require.Error(t, err)
	f.repo.AssertNotCalled(t, "AddLink", mock.Anything, mock.Anything, mock.Anything)
}

func TestRemove(t *testing.T) {
	f := newFixture(t)
	f.repo.On("RemoveLink", mock.Anything, "usr_owner0001", "a").Return(1, nil)
	f.repo.On("RemoveLink", mock.Anything, "usr_owner0001", "zzz").Return(0, nil)

	require.NoError(t, f.svc.Remove(context.Background(), "usr_owner0001", "a"))
	assert.ErrorIs(t, f.svc.Remove(context.Background(), "usr_owner0001", "zzz"), ErrNotFound)
}

func TestMove_MaterializesDisplayedOrderAndSwitchesToManual(t *testing.T) {
	f := newFixture(t)
	f.users.On("Get", mock.Anything, "usr_owner0001").Return(owner("performance"), nil)
	f.repo.On("ListLinks", mock.Anything, "usr_owner0001").Return(rawLinks(), nil)
	f.repo.On("ReorderLinks", mock.Anything, "usr_owner0001", []string{"b", "a", "c"}).Return(nil)
	f.users.On("SetHubMode", mock.Anything, "usr_owner0001", "manual").Return(owner("manual"), nil)

	v, err := f.svc.Move(context.Background(), "usr_owner0001", "a", hub.Up)
	require.NoError(t, err)
	assert.Equal(t, hub.ModeManual, v.Mode)
	assert.Equal(t, []string{"b", "a", "c"}, hub.IDs(v.Links))
	f.repo.AssertExpectations(t)
	f.users.AssertExpectations(t)
}

func TestMove_Errors(t *testing.T) {
	f := newFixture(t)
	f.users.On("Get", mock.Anything, "usr_owner0001").Return(owner("manual"), nil)
	f.repo.On("ListLinks", mock.Anything, "usr_owner0001").Return(rawLinks(), nil)

	_, err := f.svc.Move(context.Background(), "usr_owner0001", "zzz", hub.Up)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Move(context.Background(), "usr_owner0001", "a", "sideways")
	assert.ErrorIs(t, err, ErrInvalidDirection)
}

func TestMove_EdgeIsNoopButStillManual(t *testing.T) {
	f := newFixture(t)
	f.users.On("Get", mock.Anything, "usr_owner0001").Return(owner("manual"), nil)
	f.repo.On("ListLinks", mock.Anything, "usr_owner0001").Return(rawLinks(), nil)
	f.repo.On("ReorderLinks", mock.Anything, "usr_owner0001", []string{"a", "b", "c"}).Return(nil)

	v, err := f.svc.Move(context.Background(), "usr_owner0001", "a", hub.Up)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, hub.IDs(v.Links))
	f.users.AssertNotCalled(t, "SetHubMode", mock.Anything, mock.Anything, mock.Anything)
}

func TestSetMode(t *testing.T) {
	f := newFixture(t)
	f.users.On("SetHubMode", mock.Anything, "usr_owner0001", "grouped").Return(owner("grouped"), nil)

	require.NoError(t, f.svc.SetMode(context.Background(), "usr_owner0001", hub.ModeGrouped))
	assert.ErrorIs(t, f.svc.SetMode(context.Background(), "usr_owner0001", "chaos"), ErrInvalidMode)
}

func TestQR(t *testing.T) {
	f := newFixture(t)
	f.users.On("Get", mock.Anything, "usr_owner0001").Return(owner("performance"), nil)
	f.repo.On("ListLinks", mock.Anything, "usr_owner0001").Return(rawLinks(), nil)

	qr, err := f.svc.QR(context.Background(), "usr_owner0001")
	require.NoError(t, err)
	assert.NotEmpty(t, qr.PNG)
	assert.Equal(t, hub.Revision(rawLinks()), qr.Revision)
}

func TestPage_BlurUntilToggled(t *testing.T) {
	f := newFixture(t)
	f.owners.On("GetUserByUsername", mock.Anything, "sarah").Return(owner("performance"), nil)
	f.repo.On("ListLinks", mock.Anything, "usr_owner0001").Return(rawLinks(), nil)

	page, err := f.svc.Page(context.Background(), "sarah", "viewer-1")
	require.NoError(t, err)
	require.Len(t, page.Blocks, 3)
	hero := page.Blocks[0]
	assert.Equal(t, "b", hero.ID)
	assert.True(t, hero.Blurred)
	assert.Empty(t, hero.URL)

	block, err := f.svc.ToggleBlur(context.Background(), "sarah", "viewer-1", "b")
	require.NoError(t, err)
	assert.False(t, block.Blurred)
	assert.Equal(t, "https://video.example/h", block.URL)

	page, err = f.svc.Page(context.Background(), "sarah", "viewer-1")
	require.NoError(t, err)
	assert.False(t, page.Blocks[0].Blurred)

	other, err := f.svc.Page(context.Background(), "sarah", "viewer-2")
	require.NoError(t, err)
	assert.True(t, other.Blocks[0].Blurred)

	f.mr.FastForward(2 * time.Hour)
	page, err = f.svc.Page(context.Background(), "sarah", "viewer-1")
	require.NoError(t, err)
	assert.True(t, page.Blocks[0].Blurred)
}

func TestToggleBlur_Twice(t *testing.T) {
	f := newFixture(t)
	f.owners.On("GetUserByUsername", mock.Anything, "sarah").Return(owner("performance"), nil)
	f.repo.On("ListLinks", mock.Anything, "usr_owner0001").Return(rawLinks(), nil)

	_, err := f.svc.ToggleBlur(context.Background(), "sarah", "v", "b")
	require.NoError(t, err)
	block, err := f.svc.ToggleBlur(context.Background(), "sarah", "v", "b")
	require.NoError(t, err)
	assert.True(t, block.Blurred)

	_, err = f.svc.ToggleBlur(context.Background(), "sarah", "", "b")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPage_UnknownOwner(t *testing.T) {
	f := newFixture(t)
	f.owners.On("GetUserByUsername", mock.Anything, "ghost").Return(nil, storage.ErrNotFound)

	_, err := f.svc.Page(context.Background(), "ghost", "v")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve(t *testing.T) {
	f := newFixture(t)
	f.owners.On("GetUserByUsername", mock.Anything, "sarah").Return(owner("performance"), nil)
	f.repo.On("ListLinks", mock.Anything, "usr_owner0001").Return(rawLinks(), nil)
	f.publisher.On("Publish", models.ClickEvent{
		UserID: "usr_owner0001", LinkID: "a", Viewer: "v", Clicked: 1700000000,
	}).Return(nil)

	url, err := f.svc.Resolve(context.Background(), "sarah", "v", "a")
	require.NoError(t, err)
	assert.Equal(t, "https://gumroad.com/sarah", url)
	f.publisher.AssertExpectations(t)

	_, err = f.svc.Resolve(context.Background(), "sarah", "v", "b")
	assert.ErrorIs(t, err, ErrBlurred)

	_, err = f.svc.Resolve(context.Background(), "sarah", "v", "zzz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve_PublishFailureStillRedirects(t *testing.T) {
	f := newFixture(t)
	f.owners.On("GetUserByUsername", mock.Anything, "sarah").Return(owner("performance"), nil)
	f.repo.On("ListLinks", mock.Anything, "usr_owner0001").Return(rawLinks(), nil)
	f.publisher.On("Publish", mock.Anything).Return(errors.New("broker down"))

	url, err := f.svc.Resolve(context.Background(), "sarah", "v", "c")
	require.NoError(t, err)
	assert.Equal(t, "https://instagram.com/sarah", url)
}

func TestClickHandler(t *testing.T) {
	f := newFixture(t)
	f.repo.On("IncrementClicks", mock.Anything, "usr_owner0001", "a", int64(1)).Return(nil).Once()
	f.repo.On("IncrementClicks", mock.Anything, "usr_owner0001", "gone", int64(1)).Return(storage.ErrNotFound).Once()
	f.repo.On("IncrementClicks", mock.Anything, "usr_owner0001", "c", int64(1)).Return(errors.New("db down")).Once()
	handle := f.svc.ClickHandler(context.Background())

	require.NoError(t, f.cache.Set(cache.LinksKey("usr_owner0001"), rawLinks(), time.Minute))
	body, _ := json.Marshal(models.ClickEvent{UserID: "usr_owner0001", LinkID: "a"})
	require.NoError(t, handle(body))
	assert.False(t, f.mr.Exists(cache.LinksKey("usr_owner0001")))

	body, _ = json.Marshal(models.ClickEvent{UserID: "usr_owner0001", LinkID: "gone"})
	assert.NoError(t, handle(body))

	body, _ = json.Marshal(models.ClickEvent{UserID: "usr_owner0001", LinkID: "c"})
	assert.Error(t, handle(body))

	assert.NoError(t, handle([]byte("{not json")))
	assert.NoError(t, handle([]byte(`{}`)))
	f.repo.AssertExpectations(t)
}
