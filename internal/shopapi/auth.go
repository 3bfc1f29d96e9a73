package shopapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dayyanintl/surgishop/internal/auth"
	"github.com/dayyanintl/surgishop/internal/domain"
	"github.com/dayyanintl/surgishop/internal/events"
	"github.com/dayyanintl/surgishop/internal/ratelimit"
	"github.com/dayyanintl/surgishop/internal/webserver"
)

const verificationCodeLength = 6

type signupPayload struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	FullName string `json:"full_name" validate:"max=255"`
}

type loginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type verifyPayload struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type resendPayload struct {
	Email string `json:"email" validate:"required,email"`
}

type refreshPayload struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func registerAuthRoutes() {
	webserver.ApiPOST("/auth/signup", Signup, authLimit)
	webserver.ApiPOST("/auth/login", Login, authLimit)
	webserver.ApiPOST("/auth/verify", VerifyEmail, authLimit)
	webserver.ApiPOST("/auth/resend", ResendCode, authLimit)
	webserver.ApiPOST("/auth/refresh", RefreshToken)
}

// authLimit throttles credential endpoints per client IP.
func authLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		appCtx := GetAppContext(c)
		mw := ratelimit.Middleware(appCtx.Limiter(), appCtx.Config().Redis.LoginLimit, time.Minute)
		return mw(next)(c)
	}
}

// issueCode invalidates earlier unused codes and stores a fresh one.
func issueCode(tx *gorm.DB, userID string, ttl time.Duration) (string, error) {
	code, err := auth.NewVerificationCode(verificationCodeLength)
	if err != nil {
		return "", err
	}
	if err := tx.Model(&domain.EmailVerification{}).
		Where("user_id = ? AND is_used = ?", userID, false).
		Update("is_used", true).Error; err != nil {
		return "", err
	}
	v := &domain.EmailVerification{
		UserID:    userID,
		Code:      code,
		ExpiresAt: time.Now().Add(ttl),
	}
	return code, tx.Create(v).Error
}

func codeTTL(c echo.Context) (time.Duration, int) {
	hours := GetAppContext(c).Config().Shop.VerifyCodeTTLHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour, hours
}

// Signup registers a customer account and mails a verification code
// @Summary register a new account
// @Tags Auth
// @Router /api/v1/auth/signup [post]
func Signup(c echo.Context) error {
	var payload signupPayload
	if handled, err := bindAndValidate(c, &payload); handled {
		return err
	}
	appCtx := GetAppContext(c)
	email := domain.NormalizeEmail(payload.Email)

	if taken, err := emailRegistered(GetDB(c), email); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query users", err.Error())
	} else if taken {
		return fail(c, http.StatusBadRequest, "USER_EXISTS", "Email already registered", nil)
	}

	hash, err := appCtx.Passwords().Hash(payload.Password)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to hash password", nil)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     payload.FullName,
		Role:         domain.RoleCustomer,
	}
	if owner := domain.NormalizeEmail(appCtx.Config().Shop.OwnerEmail); owner != "" && owner == email {
		user.Role = domain.RoleOwner
		user.IsOwner = true
	}

	ttl, hours := codeTTL(c)
	var code string
	err = GetDB(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		code, err = issueCode(tx, user.ID, ttl)
		return err
	})
	if err != nil {
		// a concurrent signup for the same address wins the unique index
		if taken, qerr := emailRegistered(GetDB(c), email); qerr == nil && taken {
			return fail(c, http.StatusBadRequest, "USER_EXISTS", "Email already registered", nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create user", err.Error())
	}

	zap.L().Info("user signed up", zap.String("namespace", "api"), zap.String("email", email), zap.String("role", user.Role))
	appCtx.Events().Publish(events.TopicUserSignedUp, events.UserSignedUp{
		UserID:     user.ID,
		Email:      user.Email,
		Code:       code,
		TTLHours:   hours,
		OccurredAt: time.Now(),
	})
	return created(c, user)
}

func emailRegistered(db *gorm.DB, email string) (bool, error) {
	var count int64
	err := db.Model(&domain.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// Login exchanges credentials for a token pair
// @Summary login
// @Tags Auth
// @Router /api/v1/auth/login [post]
func Login(c echo.Context) error {
	var payload loginPayload
	if handled, err := bindAndValidate(c, &payload); handled {
		return err
	}
	appCtx := GetAppContext(c)

	var user domain.User
	err := GetDB(c).Where("email = ?", domain.NormalizeEmail(payload.Email)).First(&user).Error
	if err != nil && !isNotFound(err) {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query users", err.Error())
	}
	if err != nil || !appCtx.Passwords().Verify(payload.Password, user.PasswordHash) {
		return fail(c, http.StatusBadRequest, "INVALID_CREDENTIALS", "Incorrect email or password", nil)
	}

	pair, err := appCtx.Tokens().Issue(user.ID, user.Role)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue token", nil)
	}
	return ok(c, pair)
}

// VerifyEmail redeems a signup verification code
func VerifyEmail(c echo.Context) error {
	var payload verifyPayload
	if handled, err := bindAndValidate(c, &payload); handled {
		return err
	}

	var user domain.User
	if err := GetDB(c).Where("email = ?", domain.NormalizeEmail(payload.Email)).First(&user).Error; err != nil {
		if isNotFound(err) {
			return fail(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found", nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query users", err.Error())
	}
	if user.IsVerified {
		return message(c, "Email already verified")
	}

	var v domain.EmailVerification
	err := GetDB(c).
		Where("user_id = ? AND code = ? AND is_used = ?", user.ID, payload.Code, false).
		Order("created_at DESC").
		First(&v).Error
	if err != nil {
		if isNotFound(err) {
			return fail(c, http.StatusBadRequest, "INVALID_CODE", "Invalid verification code", nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query verification", err.Error())
	}
	if v.Expired(time.Now()) {
		return fail(c, http.StatusBadRequest, "CODE_EXPIRED", "Verification code has expired", nil)
	}

	err = GetDB(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("is_verified", true).Error; err != nil {
			return err
		}
		return tx.Model(&v).Update("is_used", true).Error
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to verify email", err.Error())
	}
	return message(c, "Email verified successfully")
}

// ResendCode issues a new verification code for an unverified account
func ResendCode(c echo.Context) error {
	var payload resendPayload
	if handled, err := bindAndValidate(c, &payload); handled {
		return err
	}
	appCtx := GetAppContext(c)

	var user domain.User
	if err := GetDB(c).Where("email = ?", domain.NormalizeEmail(payload.Email)).First(&user).Error; err != nil {
		if isNotFound(err) {
			return fail(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found", nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query users", err.Error())
	}
	if user.IsVerified {
		return fail(c, http.StatusBadRequest, "ALREADY_VERIFIED", "Email already verified", nil)
	}

	ttl, hours := codeTTL(c)
	var code string
	err := GetDB(c).Transaction(func(tx *gorm.DB) error {
		var err error
		code, err = issueCode(tx, user.ID, ttl)
		return err
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to issue verification code", err.Error())
	}

	appCtx.Events().Publish(events.TopicUserSignedUp, events.UserSignedUp{
		UserID:     user.ID,
		Email:      user.Email,
		Code:       code,
		TTLHours:   hours,
		OccurredAt: time.Now(),
	})
	return message(c, "Verification code sent")
}

// RefreshToken trades a refresh token for a new pair carrying the current role
func RefreshToken(c echo.Context) error {
	var payload refreshPayload
	if handled, err := bindAndValidate(c, &payload); handled {
		return err
	}
	appCtx := GetAppContext(c)

	claims, err := appCtx.Tokens().ParseRefreshToken(payload.RefreshToken)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid refresh token", nil)
	}
	var user domain.User
	if err := GetDB(c).Where("id = ?", claims.UserID()).First(&user).Error; err != nil {
		return fail(c, http.StatusUnauthorized, "INVALID_TOKEN", "User not found", nil)
	}
	pair, err := appCtx.Tokens().Issue(user.ID, user.Role)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue token", nil)
	}
	return ok(c, pair)
}
