package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/xadn01/finnepal/internal/model"
	"github.com/xadn01/finnepal/pkg/config"
	"github.com/xadn01/finnepal/pkg/database"
	"github.com/xadn01/finnepal/pkg/jwtutil"
	"github.com/xadn01/finnepal/pkg/logger"
	"github.com/xadn01/finnepal/prometheus"
)

var authConfig *config.JWTConfig

// InitAuthHandler stores the JWT configuration used for token lifetimes.
func InitAuthHandler(cfg *config.JWTConfig) {
	authConfig = cfg
}

func Register(c echo.Context) error {
	log := logger.FromContext(c)

	// Parse request
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" {
		log.Error("Invalid registration data",
			zap.String("email", req.Email),
			zap.Bool("password_provided", req.Password != ""))
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	// Check if user already exists - track DB query
	defer prometheus.TrackDBOperation("query")(time.Now())
	var existingUser model.User
	result := database.GetDB().Where("email = ?", req.Email).First(&existingUser)
	if result.Error == nil {
		log.Error("User already exists", zap.String("email", req.Email))
		prometheus.RecordAuthError("email_already_exists")
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	// Create new user
	user := model.User{
		Email:    req.Email,
		Password: string(hashedPassword),
		Name:     req.Name,
	}

	// Save to database - track DB insert operation
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&user); result.Error != nil {
		log.Error("Failed to create user", zap.Error(result.Error))
		prometheus.RecordAuthError("user_creation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	log.Info("User registered", zap.String("email", user.Email))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User registered successfully",
		"user": map[string]interface{}{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}

func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.AuthAttemptsCounter.Inc()

	// Parse request
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		TenantID *uint  `json:"tenant_id,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	// Find user in database - track DB operation duration
	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := database.GetDB().Where("email = ?", req.Email).First(&user)
	if result.Error != nil {
		log.Error("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	// Verify password
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password))
	if err != nil {
		log.Error("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	// Handle tenant selection logic
	var selectedTenantID *uint
	var tenantName string
	var userRole string

	if req.TenantID != nil {
		// If tenant ID is provided, verify the user has access to this tenant
		var userTenant model.UserTenant
		result := database.GetDB().Where("user_id = ? AND tenant_id = ? AND active = ?", user.ID, *req.TenantID, true).First(&userTenant)
		if result.Error != nil {
			log.Error("User does not have access to the specified tenant",
				zap.String("email", req.Email),
				zap.Uint("tenant_id", *req.TenantID))
			prometheus.RecordAuthError("tenant_access_denied")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied to the specified tenant"})
		}

		// Get tenant name
		var tenant model.Tenant
		if result := database.GetDB().Select("name").First(&tenant, *req.TenantID); result.Error == nil {
			tenantName = tenant.Name
		}

		selectedTenantID = req.TenantID
		userRole = userTenant.Role
	} else if user.TenantID != nil {
		// Use the user's default tenant if available
		selectedTenantID = user.TenantID

		// Get tenant name and user role
		var tenant model.Tenant
		if result := database.GetDB().Select("name").First(&tenant, *user.TenantID); result.Error == nil {
			tenantName = tenant.Name
		}

		var userTenant model.UserTenant
		if result := database.GetDB().Select("role").Where("user_id = ? AND tenant_id = ?", user.ID, *user.TenantID).First(&userTenant); result.Error == nil {
			userRole = userTenant.Role
		}
	}

	// Generate JWT token with tenant information if available
	var token string
	if selectedTenantID != nil {
		token, err = jwtutil.GenerateTokenWithTenant(user.Email, user.ID, selectedTenantID, tenantName, userRole)
	} else {
		token, err = jwtutil.GenerateToken(user.Email, user.ID)
	}

	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	// Issue a refresh token so the session can outlive the JWT
	refreshToken := model.RefreshToken{
		UserID:    user.ID,
		TenantID:  selectedTenantID,
		ExpiresAt: time.Now().Add(time.Duration(authConfig.RefreshTokenDays) * 24 * time.Hour),
	}
	if result := database.GetDB().Create(&refreshToken); result.Error != nil {
		log.Error("Failed to create refresh token", zap.Error(result.Error))
		prometheus.RecordAuthError("refresh_token_creation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	prometheus.AuthSuccessCounter.Inc()

	// Log with tenant information if available
	if selectedTenantID != nil {
		log.Info("User logged in with tenant context",
			zap.String("email", user.Email),
			zap.Uint("tenant_id", *selectedTenantID),
			zap.String("tenant_name", tenantName),
			zap.String("role", userRole))
	} else {
		log.Info("User logged in", zap.String("email", user.Email))
	}

	// Build response with tenant info if available
	response := echo.Map{
		"token":         token,
		"refresh_token": refreshToken.Token,
		"expires_in":    authConfig.ExpirationHours * 3600,
		"user": map[string]interface{}{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	}

	if selectedTenantID != nil {
		response["tenant"] = map[string]interface{}{
			"id":   *selectedTenantID,
			"name": tenantName,
			"role": userRole,
		}
	}

	return c.JSON(http.StatusOK, response)
}

// RefreshToken exchanges a valid refresh token for a new JWT and rotates the
// refresh token.
func RefreshToken(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}

	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		log.Error("Failed to parse refresh request")
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token is required"})
	}

	// Find the refresh token in the database
	defer prometheus.TrackDBOperation("query")(time.Now())
	var stored model.RefreshToken
	result := database.GetDB().Where("token = ? AND revoked = ?", req.RefreshToken, false).First(&stored)
	if result.Error != nil {
		log.Error("Invalid refresh token")
		prometheus.RecordAuthError("invalid_refresh_token")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	// Check if the token is expired
	if stored.IsExpired() {
		log.Error("Refresh token expired", zap.String("token_id", stored.ID))
		prometheus.RecordAuthError("expired_refresh_token")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh token expired"})
	}

	// Get the user associated with the token
	var user model.User
	if result := database.GetDB().First(&user, stored.UserID); result.Error != nil {
		log.Error("User not found for refresh token", zap.Uint("user_id", stored.UserID))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	// Carry the tenant context of the original session forward
	var tenantName string
	var userRole string
	if stored.TenantID != nil {
		var userTenant model.UserTenant
		result := database.GetDB().Where("user_id = ? AND tenant_id = ? AND active = ?", user.ID, *stored.TenantID, true).First(&userTenant)
		if result.Error != nil {
			log.Error("User lost access to the token's tenant",
				zap.Uint("user_id", user.ID),
				zap.Uint("tenant_id", *stored.TenantID))
			prometheus.RecordAuthError("tenant_access_denied")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied to the specified tenant"})
		}
		userRole = userTenant.Role

		var tenant model.Tenant
		if result := database.GetDB().Select("name").First(&tenant, *stored.TenantID); result.Error == nil {
			tenantName = tenant.Name
		}
	}

	// Rotate: revoke the used token and issue a replacement
	newToken := model.RefreshToken{
		UserID:    user.ID,
		TenantID:  stored.TenantID,
		ExpiresAt: time.Now().Add(time.Duration(authConfig.RefreshTokenDays) * 24 * time.Hour),
	}

	tx := database.GetDB().Begin()
	if err := tx.Model(&stored).Update("revoked", true).Error; err != nil {
		tx.Rollback()
		log.Error("Failed to revoke refresh token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}
	if err := tx.Create(&newToken).Error; err != nil {
		tx.Rollback()
		log.Error("Failed to create refresh token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}
	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit token rotation", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	// Issue a new JWT with the same context
	var token string
	var err error
	if stored.TenantID != nil {
		token, err = jwtutil.GenerateTokenWithTenant(user.Email, user.ID, stored.TenantID, tenantName, userRole)
	} else {
		token, err = jwtutil.GenerateToken(user.Email, user.ID)
	}
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("Refresh token rotated", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{
		"token":         token,
		"refresh_token": newToken.Token,
		"expires_in":    authConfig.ExpirationHours * 3600,
	})
}

// Logout revokes the presented refresh token, or every active token of the
// user when none is given.
func Logout(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.Bind(&req) // body is optional

	defer prometheus.TrackDBOperation("update")(time.Now())
	query := database.GetDB().Model(&model.RefreshToken{}).Where("user_id = ? AND revoked = ?", userID, false)
	if req.RefreshToken != "" {
		query = query.Where("token = ?", req.RefreshToken)
	}
	if result := query.Update("revoked", true); result.Error != nil {
		log.Error("Failed to revoke refresh tokens", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}

	log.Info("User logged out", zap.Uint("user_id", userID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}
