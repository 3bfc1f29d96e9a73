package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayyanintl/surgishop/config"
	"github.com/dayyanintl/surgishop/internal/dbtest"
	"github.com/dayyanintl/surgishop/internal/domain"
	"github.com/dayyanintl/surgishop/internal/events"
	"github.com/dayyanintl/surgishop/internal/mail"
	"github.com/dayyanintl/surgishop/internal/ratelimit"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (r *recordingSender) Send(_ context.Context, msg mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingSender) messages() []mail.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mail.Message(nil), r.sent...)
}

func newTestApp(t *testing.T) (*Application, *recordingSender) {
	t.Helper()
	cfg := *config.DefaultAppConfig
	cfg.System.Workdir = t.TempDir()
	cfg.Database.Type = "sqlite"
	cfg.Web.Secret = "test-secret"
	cfg.Shop.OwnerEmail = "owner@example.com"

	a := NewApplication(&cfg)
	a.OverrideDB(dbtest.Open(t))
	require.NoError(t, a.SetupServices())
	sender := &recordingSender{}
	require.NoError(t, a.OverrideMailSender(sender))
	t.Cleanup(a.Release)
	return a, sender
}

func TestSetupServices(t *testing.T) {
	a, _ := newTestApp(t)
	assert.NotNil(t, a.Tokens())
	assert.NotNil(t, a.Passwords())
	assert.NotNil(t, a.Orders())
	assert.NotNil(t, a.Stats())
	assert.NotNil(t, a.Uploader())
	assert.IsType(t, ratelimit.NopLimiter{}, a.Limiter())
}

func TestCheckCategoriesIsIdempotent(t *testing.T) {
	a, _ := newTestApp(t)
	a.checkCategories()
	a.checkCategories()

	var count int64
	a.DB().Model(&domain.Category{}).Count(&count)
	assert.Equal(t, int64(len(a.Config().Shop.DefaultCategories)), count)
}

func TestInitDbReseeds(t *testing.T) {
	a, _ := newTestApp(t)
	a.checkCategories()
	dbtest.Product(t, a.DB(), "Gauze", "GA-1", "1.00", 10)

	a.InitDb()

	var categories, products int64
	require.NoError(t, a.DB().Model(&domain.Category{}).Count(&categories).Error)
	require.NoError(t, a.DB().Model(&domain.Product{}).Count(&products).Error)
	assert.Equal(t, int64(len(a.Config().Shop.DefaultCategories)), categories)
	assert.Zero(t, products)
}

func TestCheckOwnerRestoresRole(t *testing.T) {
	a, _ := newTestApp(t)
	u := dbtest.User(t, a.DB(), "Owner@Example.com", domain.RoleCustomer)

	a.checkOwner()

	var got domain.User
	require.NoError(t, a.DB().First(&got, "id = ?", u.ID).Error)
	assert.Equal(t, domain.RoleOwner, got.Role)
	assert.True(t, got.IsOwner)
}

func TestPurgeVerificationCodes(t *testing.T) {
	a, _ := newTestApp(t)
	u := dbtest.User(t, a.DB(), "a@example.com", domain.RoleCustomer)
	now := time.Now()
	codes := []domain.EmailVerification{
		{UserID: u.ID, Code: "111111", ExpiresAt: now.Add(time.Hour)},
		{UserID: u.ID, Code: "222222", ExpiresAt: now.Add(time.Hour), IsUsed: true},
		{UserID: u.ID, Code: "333333", ExpiresAt: now.Add(-48 * time.Hour)},
	}
	require.NoError(t, a.DB().Create(&codes).Error)

	a.SchedPurgeVerificationCodes()

	var left []domain.EmailVerification
	require.NoError(t, a.DB().Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "111111", left[0].Code)
}

func TestPruneAuditLogs(t *testing.T) {
	a, _ := newTestApp(t)
	a.Config().Shop.AuditRetentionDays = 30
	old := domain.NewAuditLog("", "old", "", "")
	old.Timestamp = time.Now().AddDate(0, 0, -31)
	require.NoError(t, a.DB().Create(old).Error)
	require.NoError(t, a.DB().Create(domain.NewAuditLog("", "fresh", "", "")).Error)

	a.SchedPruneAuditLogs()

	var logs []domain.AuditLog
	require.NoError(t, a.DB().Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "fresh", logs[0].Action)
}

func TestEventSubscribersSendMail(t *testing.T) {
	a, sender := newTestApp(t)

	a.Events().Publish(events.TopicUserSignedUp, events.UserSignedUp{Email: "new@example.com", Code: "123456", TTLHours: 24})
	a.Events().Publish(events.TopicOrderPlaced, events.OrderPlaced{OrderID: "o-1", OrderNo: "42", TotalAmount: decimal.NewFromInt(10)})
	a.Events().Publish(events.TopicOrderStatusChanged, events.OrderStatusChanged{OrderNo: "42", UserEmail: "buyer@example.com", To: domain.OrderShipped})
	a.Events().Wait()

	assert.Eventually(t, func() bool { return len(sender.messages()) == 3 }, 2*time.Second, 10*time.Millisecond)
	recipients := map[string]bool{}
	for _, m := range sender.messages() {
		recipients[m.To] = true
	}
	assert.True(t, recipients["new@example.com"])
	assert.True(t, recipients["owner@example.com"])
	assert.True(t, recipients["buyer@example.com"])
}
