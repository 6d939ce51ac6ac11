package handlers

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/greenbasket/backend/internal/hash"
	"github.com/greenbasket/backend/internal/mailer"
	"github.com/greenbasket/backend/internal/models"
	"github.com/greenbasket/backend/internal/mykafka"
	svc "github.com/greenbasket/backend/internal/service"
)

const otpTTL = time.Hour

type AuthHandler struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
	Producer      mykafka.Publisher
	Mail          mailer.Sender
}

func (h *AuthHandler) publish(c echo.Context, key string, event map[string]interface{}) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return Fail(c, http.StatusBadRequest, "provide name, email and password")
	}

	var existing models.User
	err := h.DB.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return Fail(c, http.StatusBadRequest, "email already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Fail(c, http.StatusInternalServerError, "something went wrong")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return Fail(c, http.StatusInternalServerError, "something went wrong")
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
		Status:       models.UserActive,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return Fail(c, http.StatusInternalServerError, "failed to create user")
	}

	h.publish(c, fmt.Sprint(user.ID), map[string]interface{}{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	})

	return OK(c, http.StatusCreated, "registered successfully", user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return Fail(c, http.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return Fail(c, http.StatusUnauthorized, "invalid email or password")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return Fail(c, http.StatusUnauthorized, "invalid email or password")
	}
	if user.Status != models.UserActive {
		return Fail(c, http.StatusForbidden, "account is "+user.Status)
	}

	access, err := svc.SignAccessToken(user.ID, user.Role, h.JWTSecret)
	if err != nil {
		return Fail(c, http.StatusInternalServerError, "could not create access token")
	}
	refresh, err := svc.SignRefreshToken(user.ID, user.Role, h.RefreshSecret)
	if err != nil {
		return Fail(c, http.StatusInternalServerError, "could not create refresh token")
	}
	if err := svc.SaveRefreshToken(h.DB, refresh, user.ID, user.Role); err != nil {
		return Fail(c, http.StatusInternalServerError, "could not persist refresh token")
	}

	if err := h.DB.Model(&models.User{}).Where("id = ?", user.ID).
		Update("last_login_at", time.Now().Unix()).Error; err != nil {
		c.Logger().Errorf("last login update error: %v", err)
	}

	c.SetCookie(svc.NewCookie("accessToken", access, "/", time.Now().Add(svc.AccessTokenTTL)))
	c.SetCookie(svc.NewCookie("refreshToken", refresh, "/", time.Now().Add(svc.RefreshTokenTTL)))

	h.publish(c, fmt.Sprint(user.ID), map[string]interface{}{
		"type":   "user_logged_in",
		"userID": user.ID,
	})

	return OK(c, http.StatusOK, "login successful", map[string]string{
		"access_token":  access,
		"refresh_token": refresh,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	if ck, err := c.Cookie("refreshToken"); err == nil && ck.Value != "" {
		ts := svc.TokenService{DB: h.DB, JWTSecret: h.JWTSecret, RefreshSecret: h.RefreshSecret}
		if err := ts.RevokeRefresh(ck.Value); err != nil {
			c.Logger().Errorf("refresh revoke error: %v", err)
		}
	}

	c.SetCookie(svc.NewCookie("accessToken", "", "/", time.Unix(0, 0)))
	c.SetCookie(svc.NewCookie("refreshToken", "", "/", time.Unix(0, 0)))

	return OK(c, http.StatusOK, "logged out", nil)
}

func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		return Fail(c, http.StatusNotFound, "user not found")
	}
	return OK(c, http.StatusOK, "user details", user)
}

func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return Fail(c, http.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Password != "" {
		pwHash, err := hash.HashPassword(req.Password)
		if err != nil {
			return Fail(c, http.StatusInternalServerError, "something went wrong")
		}
		updates["password_hash"] = pwHash
	}
	if len(updates) == 0 {
		return Fail(c, http.StatusBadRequest, "nothing to update")
	}

	if err := h.DB.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return Fail(c, http.StatusInternalServerError, "failed to update profile")
	}
	return OK(c, http.StatusOK, "profile updated", nil)
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return Fail(c, http.StatusBadRequest, "provide email")
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return Fail(c, http.StatusNotFound, "email not registered")
	}

	otp, err := generateOTP()
	if err != nil {
		return Fail(c, http.StatusInternalServerError, "something went wrong")
	}

	if err := h.DB.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"reset_otp":        otp,
		"reset_otp_expiry": time.Now().Add(otpTTL).Unix(),
	}).Error; err != nil {
		return Fail(c, http.StatusInternalServerError, "something went wrong")
	}

	if h.Mail != nil {
		body := fmt.Sprintf("Your password reset code is %s. It expires in 1 hour.", otp)
		if err := h.Mail.Send(user.Email, "Password reset code", body); err != nil {
			c.Logger().Errorf("otp mail error: %v", err)
			return Fail(c, http.StatusInternalServerError, "failed to send reset email")
		}
	}

	return OK(c, http.StatusOK, "reset code sent", nil)
}

func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" || req.OTP == "" {
		return Fail(c, http.StatusBadRequest, "provide email and otp")
	}

	if _, err := h.checkOTP(req.Email, req.OTP); err != nil {
		return Fail(c, http.StatusBadRequest, err.Error())
	}

	return OK(c, http.StatusOK, "otp verified", nil)
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req struct {
		Email       string `json:"email"`
		OTP         string `json:"otp"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" || req.OTP == "" || req.NewPassword == "" {
		return Fail(c, http.StatusBadRequest, "provide email, otp and newPassword")
	}

	user, err := h.checkOTP(req.Email, req.OTP)
	if err != nil {
		return Fail(c, http.StatusBadRequest, err.Error())
	}

	pwHash, err := hash.HashPassword(req.NewPassword)
	if err != nil {
		return Fail(c, http.StatusInternalServerError, "something went wrong")
	}

	if err := h.DB.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"password_hash":    pwHash,
		"reset_otp":        "",
		"reset_otp_expiry": 0,
	}).Error; err != nil {
		return Fail(c, http.StatusInternalServerError, "failed to reset password")
	}

	return OK(c, http.StatusOK, "password reset successful", nil)
}

func (h *AuthHandler) checkOTP(email, otp string) (*models.User, error) {
	var user models.User
	if err := h.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, errors.New("email not registered")
	}
	if user.ResetOTP == "" || user.ResetOTP != otp {
		return nil, errors.New("invalid otp")
	}
	if time.Now().Unix() > user.ResetOTPExpiry {
		return nil, errors.New("otp expired")
	}
	return &user, nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
