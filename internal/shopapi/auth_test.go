package shopapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dayyanintl/surgishop/internal/auth"
	"github.com/dayyanintl/surgishop/internal/dbtest"
	"github.com/dayyanintl/surgishop/internal/domain"
)

func latestCode(t *testing.T, h *harness, email string) domain.EmailVerification {
	t.Helper()
	var u domain.User
	require.NoError(t, h.app.DB().Where("email = ?", email).First(&u).Error)
	var v domain.EmailVerification
	require.NoError(t, h.app.DB().
		Where("user_id = ? AND is_used = ?", u.ID, false).
		Order("created_at DESC").
		First(&v).Error)
	return v
}

func TestSignupVerifyLogin(t *testing.T) {
	h := newHarness(t)

	rec := h.request(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": " Jane@Example.com ", "password": "s3cure-pass", "full_name": "Jane",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var user domain.User
	decode(t, rec, &user)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, domain.RoleCustomer, user.Role)
	assert.False(t, user.IsVerified)
	assert.NotContains(t, rec.Body.String(), "password")

	assert.Eventually(t, func() bool { return len(h.mail.to("jane@example.com")) == 1 }, 5*time.Second, 20*time.Millisecond)

	rec = h.request(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": "jane@example.com", "password": "another-pass",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "USER_EXISTS", errorCode(t, rec))

	code := latestCode(t, h, "jane@example.com").Code
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	rec = h.request(http.MethodPost, "/api/v1/auth/verify", "", map[string]string{
		"email": "jane@example.com", "code": wrong,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_CODE", errorCode(t, rec))

	rec = h.request(http.MethodPost, "/api/v1/auth/verify", "", map[string]string{
		"email": "jane@example.com", "code": code,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var saved domain.User
	require.NoError(t, h.app.DB().Where("email = ?", "jane@example.com").First(&saved).Error)
	assert.True(t, saved.IsVerified)

	rec = h.request(http.MethodPost, "/api/v1/auth/verify", "", map[string]string{
		"email": "jane@example.com", "code": code,
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "already verified")

	rec = h.request(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "jane@example.com", "password": "wrong-pass",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec))

	rec = h.request(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "JANE@example.com", "password": "s3cure-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var pair auth.TokenPair
	decode(t, rec, &pair)
	assert.NotEmpty(t, pair.AccessToken)
	assert.Equal(t, "bearer", pair.TokenType)

	rec = h.request(http.MethodGet, "/api/v1/users/me", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me domain.User
	decode(t, rec, &me)
	assert.Equal(t, saved.ID, me.ID)

	rec = h.request(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": pair.RefreshToken})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = h.request(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": pair.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, rec))
}

func TestSignupOwnerEmailGetsOwnerRole(t *testing.T) {
	h := newHarness(t)
	rec := h.request(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": "Owner@Example.com", "password": "s3cure-pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var user domain.User
	decode(t, rec, &user)
	assert.Equal(t, domain.RoleOwner, user.Role)
	assert.True(t, user.IsOwner)
}

func TestSignupValidation(t *testing.T) {
	h := newHarness(t)
	rec := h.request(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": "not-an-email", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))

	rec = h.request(http.MethodPost, "/api/v1/auth/signup", "", "{broken")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// Another signup for the same address lands between the existence check and
// the insert.
func TestSignupLosesRaceToSameEmail(t *testing.T) {
	h := newHarness(t)
	db := h.app.DB()
	fired := false
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:competing_signup", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "users" {
			return
		}
		fired = true
		dbtest.User(t, db, "race@example.com", domain.RoleCustomer)
	}))

	rec := h.request(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": "race@example.com", "password": "password123", "full_name": "Second",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "USER_EXISTS", errorCode(t, rec))

	var users int64
	require.NoError(t, db.Model(&domain.User{}).Where("email = ?", "race@example.com").Count(&users).Error)
	assert.Equal(t, int64(1), users)
}

func TestVerifyExpiredCode(t *testing.T) {
	h := newHarness(t)
	rec := h.request(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": "late@example.com", "password": "s3cure-pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	v := latestCode(t, h, "late@example.com")
	require.NoError(t, h.app.DB().Model(&v).Update("expires_at", time.Now().Add(-time.Minute)).Error)

	rec = h.request(http.MethodPost, "/api/v1/auth/verify", "", map[string]string{
		"email": "late@example.com", "code": v.Code,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CODE_EXPIRED", errorCode(t, rec))
}

func TestResendInvalidatesOldCode(t *testing.T) {
	h := newHarness(t)
	rec := h.request(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": "again@example.com", "password": "s3cure-pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	first := latestCode(t, h, "again@example.com")

	rec = h.request(http.MethodPost, "/api/v1/auth/resend", "", map[string]string{"email": "again@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)

	var old domain.EmailVerification
	require.NoError(t, h.app.DB().First(&old, "id = ?", first.ID).Error)
	assert.True(t, old.IsUsed)

	rec = h.request(http.MethodPost, "/api/v1/auth/resend", "", map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, _ = h.user("done@example.com", domain.RoleCustomer)
	rec = h.request(http.MethodPost, "/api/v1/auth/resend", "", map[string]string{"email": "done@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ALREADY_VERIFIED", errorCode(t, rec))
}
