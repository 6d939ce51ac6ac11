package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/greenbasket/backend/internal/config"
	"github.com/greenbasket/backend/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.Migrate(db))
	return db
}

func newTokenService(t *testing.T) *TokenService {
	t.Helper()
	return &TokenService{
		DB:            newTestDB(t),
		JWTSecret:     []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
}

func issueRefresh(t *testing.T, ts *TokenService, userID uint, role string) string {
	t.Helper()
	refresh, err := SignRefreshToken(userID, role, ts.RefreshSecret)
	require.NoError(t, err)
	require.NoError(t, SaveRefreshToken(ts.DB, refresh, userID, role))
	return refresh
}

func TestRotateTokenIssuesNewPairAndRevokesOld(t *testing.T) {
	ts := newTokenService(t)
	old := issueRefresh(t, ts, 7, models.RoleUser)

	access, refresh, err := ts.RotateToken(old)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	require.NotEqual(t, old, refresh)

	var stored models.RefreshToken
	require.NoError(t, ts.DB.Where("token = ?", old).First(&stored).Error)
	require.True(t, stored.Revoked)

	// the old token cannot be rotated a second time
	_, _, err = ts.RotateToken(old)
	require.Error(t, err)
	require.Contains(t, err.Error(), "revoked")

	// the new token can
	_, _, err = ts.RotateToken(refresh)
	require.NoError(t, err)
}

func TestRotateTokenRejectsAccessToken(t *testing.T) {
	ts := newTokenService(t)

	access, err := SignAccessToken(7, models.RoleUser, ts.RefreshSecret)
	require.NoError(t, err)

	_, _, err = ts.RotateToken(access)
	require.Error(t, err)
}

func TestRotateTokenRejectsUnknownToken(t *testing.T) {
	ts := newTokenService(t)

	refresh, err := SignRefreshToken(7, models.RoleUser, ts.RefreshSecret)
	require.NoError(t, err)

	// signed but never persisted
	_, _, err = ts.RotateToken(refresh)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestRotateTokenRejectsExpiredRecord(t *testing.T) {
	ts := newTokenService(t)
	refresh := issueRefresh(t, ts, 7, models.RoleUser)

	require.NoError(t, ts.DB.Model(&models.RefreshToken{}).
		Where("token = ?", refresh).
		Update("expires_at", time.Now().Add(-time.Hour).Unix()).Error)

	_, _, err := ts.RotateToken(refresh)
	require.Error(t, err)
	require.Contains(t, err.Error(), "expired")
}

func requireAuthProbe(ts *TokenService) (echo.HandlerFunc, *uint, *string) {
	var gotUser uint
	var gotRole string
	h := ts.RequireAuth(func(c echo.Context) error {
		gotUser, _ = c.Get("userID").(uint)
		gotRole, _ = c.Get("role").(string)
		return c.NoContent(http.StatusOK)
	})
	return h, &gotUser, &gotRole
}

func TestRequireAuthBearerToken(t *testing.T) {
	ts := newTokenService(t)
	h, gotUser, gotRole := requireAuthProbe(ts)

	access, err := SignAccessToken(42, models.RoleUser, ts.JWTSecret)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+access)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, uint(42), *gotUser)
	require.Equal(t, models.RoleUser, *gotRole)
}

func TestRequireAuthAccessCookie(t *testing.T) {
	ts := newTokenService(t)
	h, gotUser, _ := requireAuthProbe(ts)

	access, err := SignAccessToken(42, models.RoleUser, ts.JWTSecret)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: access})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h(c))
	require.Equal(t, uint(42), *gotUser)
}

func TestRequireAuthRejectsMissingCredentials(t *testing.T) {
	ts := newTokenService(t)
	h, _, _ := requireAuthProbe(ts)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestRequireAuthRejectsForgedToken(t *testing.T) {
	ts := newTokenService(t)
	h, _, _ := requireAuthProbe(ts)

	forged, err := SignAccessToken(42, models.RoleAdmin, []byte("wrong-secret"))
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+forged)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err = h(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestRequireAuthRotatesExpiredAccess(t *testing.T) {
	ts := newTokenService(t)
	h, gotUser, _ := requireAuthProbe(ts)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  float64(42),
		"role": models.RoleUser,
		"exp":  time.Now().Add(-time.Minute).Unix(),
	})
	expiredAccess, err := expired.SignedString(ts.JWTSecret)
	require.NoError(t, err)

	refresh := issueRefresh(t, ts, 42, models.RoleUser)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: expiredAccess})
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: refresh})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, uint(42), *gotUser)

	// fresh cookies were set and the old refresh token is now revoked
	names := map[string]bool{}
	for _, ck := range rec.Result().Cookies() {
		names[ck.Name] = true
	}
	require.True(t, names["accessToken"])
	require.True(t, names["refreshToken"])

	var stored models.RefreshToken
	require.NoError(t, ts.DB.Where("token = ?", refresh).First(&stored).Error)
	require.True(t, stored.Revoked)
}

func TestRequireAdmin(t *testing.T) {
	ts := newTokenService(t)
	h := ts.RequireAdmin(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	adminAccess, err := SignAccessToken(1, models.RoleAdmin, ts.JWTSecret)
	require.NoError(t, err)
	userAccess, err := SignAccessToken(2, models.RoleUser, ts.JWTSecret)
	require.NoError(t, err)

	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+adminAccess)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+userAccess)
	rec = httptest.NewRecorder()
	err = h(e.NewContext(req, rec))
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusForbidden, httpErr.Code)
}
