package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/samber/do"
	"github.com/stretchr/testify/require"

	"boostbot/internal/interfaces"
	"boostbot/internal/models"
)

const third = 1.0 / 3.0

// fixedRate makes every interval grow by rateMin + f*(rateMax-rateMin).
type fixedRate float64

func (f fixedRate) Float64() float64 { return float64(f) }

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[int64]*models.UserProfile
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: map[int64]*models.UserProfile{}}
}

func (f *fakeProfiles) get(userID int64) *models.UserProfile {
	p, ok := f.profiles[userID]
	if !ok {
		p = &models.UserProfile{UserID: userID, Language: models.LanguageEnglish}
		f.profiles[userID] = p
	}
	return p
}

func (f *fakeProfiles) GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := *f.get(userID)
	return &v, nil
}

func (f *fakeProfiles) SetFreeBoostUsed(ctx context.Context, userID int64, used bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.get(userID).FreeBoostUsed = used
	return nil
}

func (f *fakeProfiles) SetLastFinalBalance(ctx context.Context, userID int64, balance float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.get(userID).LastFinalBalance = &balance
	return nil
}

func (f *fakeProfiles) SetChatStatus(ctx context.Context, userID int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.get(userID).ChatStatus = &status
	return nil
}

func (f *fakeProfiles) setLanguage(userID int64, lang string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.get(userID).Language = lang
}

type sentMessage struct {
	UserID  int64
	Text    string
	Photo   *models.Photo
	Buttons [][]models.Button
}

type fakeGateway struct {
	mu     sync.Mutex
	sent   []sentMessage
	errs   []error
	fileID string
}

// failWith queues errors returned by the next sends, in order.
func (f *fakeGateway) failWith(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, errs...)
}

func (f *fakeGateway) next() error {
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *fakeGateway) SendText(ctx context.Context, userID int64, text string, buttons [][]models.Button) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.next(); err != nil {
		return err
	}
	f.sent = append(f.sent, sentMessage{UserID: userID, Text: text, Buttons: buttons})
	return nil
}

func (f *fakeGateway) SendPhoto(ctx context.Context, userID int64, photo models.Photo, caption string, buttons [][]models.Button) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.next(); err != nil {
		return "", err
	}
	f.sent = append(f.sent, sentMessage{UserID: userID, Text: caption, Photo: &photo, Buttons: buttons})
	return f.fileID, nil
}

func (f *fakeGateway) messages(kind models.MessageKind) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, m := range f.sent {
		if strings.HasPrefix(m.Text, string(kind)+"|") {
			out = append(out, m)
		}
	}
	return out
}

// fakeTemplates renders "<kind>|<lang>|k=v,..." so tests can tell messages apart.
type fakeTemplates struct{}

func (fakeTemplates) Render(ctx context.Context, kind models.MessageKind, lang string, fields map[string]string) (string, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, fields[k]))
	}
	return fmt.Sprintf("%s|%s|%s", kind, lang, strings.Join(parts, ",")), nil
}

type fakeMedia struct {
	mu         sync.Mutex
	photos     map[models.MessageKind]models.Photo
	remembered map[models.MessageKind]string
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{photos: map[models.MessageKind]models.Photo{}, remembered: map[models.MessageKind]string{}}
}

func (f *fakeMedia) Resolve(ctx context.Context, kind models.MessageKind) (*models.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.remembered[kind]; ok {
		return &models.Photo{FileID: id}, nil
	}
	if p, ok := f.photos[kind]; ok {
		return &p, nil
	}
	return nil, nil
}

func (f *fakeMedia) Remember(ctx context.Context, kind models.MessageKind, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remembered[kind] = fileID
	return nil
}

type fakeConfigs map[string]string

func (f fakeConfigs) GetStringConfig(ctx context.Context, key string, defaultValue string) (string, error) {
	if v, ok := f[key]; ok {
		return v, nil
	}
	return defaultValue, nil
}

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

type testEnv struct {
	mr        *miniredis.Miniredis
	redis     *redis.Client
	clock     *clock
	profiles  *fakeProfiles
	gateway   *fakeGateway
	media     *fakeMedia
	settings  models.BoostSettings
	boost     *ServiceBoost
	notifier  *ServiceNotifier
	scheduler *ServiceScheduler
}

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr, client := newMiniRedisClient(t)
	env := &testEnv{
		mr:       mr,
		redis:    client,
		clock:    &clock{now: t0},
		profiles: newFakeProfiles(),
		gateway:  &fakeGateway{},
		media:    newFakeMedia(),
		settings: DefaultBoostSettings(),
	}

	injector := do.New()
	do.ProvideNamedValue[redis.UniversalClient](injector, "redis-db", client)
	do.ProvideValue(injector, redsync.New(goredis.NewPool(client)))
	do.ProvideValue[interfaces.ProfileStore](injector, env.profiles)
	do.ProvideValue[interfaces.Gateway](injector, env.gateway)
	do.ProvideValue[interfaces.TemplateProvider](injector, fakeTemplates{})
	do.ProvideValue[interfaces.MediaResolver](injector, env.media)
	do.ProvideValue(injector, env.settings)
	do.ProvideValue[RateSource](injector, fixedRate(third))
	do.ProvideValue(injector, zerolog.Nop())
	do.Provide(injector, NewServiceNotifier)
	do.Provide(injector, NewServiceBoost)
	do.Provide(injector, NewServiceScheduler)

	var err error
	env.notifier, err = do.Invoke[*ServiceNotifier](injector)
	require.NoError(t, err)
	env.boost, err = do.Invoke[*ServiceBoost](injector)
	require.NoError(t, err)
	env.scheduler, err = do.Invoke[*ServiceScheduler](injector)
	require.NoError(t, err)

	env.boost.now = env.clock.Now
	env.notifier.now = env.clock.Now

	return env
}

func (env *testEnv) session(t *testing.T, userID int64) *models.BoostSession {
	t.Helper()
	session, err := env.boost.GetUserSession(context.Background(), userID)
	require.NoError(t, err)
	return session
}
