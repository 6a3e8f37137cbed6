package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/achievehub/achievehub/config"
	"github.com/achievehub/achievehub/models"
	"github.com/achievehub/achievehub/store"
	"github.com/achievehub/achievehub/utils"
)

const sessionDuration = 72 * time.Hour

// IDTokenClaims are the identity claims extracted from a verified Google ID
// token.
type IDTokenClaims struct {
	Email      string
	Picture    string
	Audience   string
	IsVerified bool
}

// TokenVerifier validates a Google ID token's signature and audience and
// returns its claims. Injected so handler tests can substitute a stub.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*IDTokenClaims, error)
}

// GoogleVerifier checks ID tokens against Google's tokeninfo endpoint and the
// configured OAuth client id.
type GoogleVerifier struct {
	ClientID   string
	HTTPClient *http.Client
}

// Verify calls the tokeninfo endpoint; Google only answers for tokens whose
// signature is valid, so a 200 response plus an audience match is sufficient.
func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*IDTokenClaims, error) {
	client := v.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://oauth2.googleapis.com/tokeninfo?id_token="+idToken, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token verification failed: %s", resp.Status)
	}

	var payload struct {
		Aud           string `json:"aud"`
		Email         string `json:"email"`
		EmailVerified string `json:"email_verified"`
		Picture       string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	if payload.Aud != v.ClientID {
		return nil, errors.New("token audience mismatch")
	}

	return &IDTokenClaims{
		Email:      payload.Email,
		Picture:    payload.Picture,
		Audience:   payload.Aud,
		IsVerified: payload.EmailVerified == "true",
	}, nil
}

// AuthController handles student and admin authentication.
type AuthController struct {
	users    store.UserStore
	verifier TokenVerifier
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(users store.UserStore, verifier TokenVerifier) *AuthController {
	return &AuthController{users: users, verifier: verifier}
}

// GoogleLogin verifies a Google ID token, enforces the institutional email
// domain, and upserts the student record. Repeated logins with the same email
// return the same user.
func (a *AuthController) GoogleLogin(ctx *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "token is required")
		return
	}

	claims, err := a.verifier.Verify(ctx.Request.Context(), req.Token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, "invalid identity token")
		return
	}

	cfg := config.Get()
	if !strings.HasSuffix(strings.ToLower(claims.Email), "@"+strings.ToLower(cfg.AllowedEmailDomain)) {
		utils.Error(ctx, http.StatusForbidden, fmt.Sprintf("Only @%s emails are allowed.", cfg.AllowedEmailDomain))
		return
	}

	user, err := a.findOrCreateStudent(ctx.Request.Context(), claims)
	if err != nil {
		utils.Sugar.Errorf("google login: failed to persist user: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, "failed to persist user")
		return
	}

	token, err := utils.GenerateToken(user.ID.Hex(), user.Username, user.Role, sessionDuration)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"user": user, "token": token})
}

// AdminLogin verifies the supplied password against the seeded admin's bcrypt
// hash. Unknown emails and wrong passwords fail identically; no record is
// ever provisioned from login input.
func (a *AuthController) AdminLogin(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Username string `json:"username"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := a.users.FindAdminByEmail(ctx.Request.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Error(ctx, http.StatusUnauthorized, "invalid credentials")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, "failed to look up admin")
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := utils.GenerateToken(user.ID.Hex(), user.Username, user.Role, sessionDuration)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"user": user, "token": token})
}

// OAuthRedirect starts the Google authorization-code flow for clients that
// prefer a full redirect over the ID-token exchange.
func (a *AuthController) OAuthRedirect(ctx *gin.Context) {
	cfg, err := oauthConfig()
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	state := uuid.NewString()
	utils.SaveState(state, 10*time.Minute)

	url := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
	utils.Success(ctx, gin.H{"authorization_url": url, "state": state})
}

// OAuthCallback exchanges the authorization code, applies the same domain
// gate and upsert as GoogleLogin, and issues a JWT.
func (a *AuthController) OAuthCallback(ctx *gin.Context) {
	code := ctx.Query("code")
	state := ctx.Query("state")
	if code == "" || state == "" {
		utils.Error(ctx, http.StatusBadRequest, "missing code or state")
		return
	}
	if !utils.ConsumeState(state) {
		utils.Error(ctx, http.StatusBadRequest, "invalid or expired state")
		return
	}

	ocfg, err := oauthConfig()
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	token, err := ocfg.Exchange(ctx.Request.Context(), code)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, "failed to exchange code")
		return
	}

	claims, err := fetchGoogleUserInfo(ctx.Request.Context(), ocfg, token)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "failed to fetch user info")
		return
	}

	appCfg := config.Get()
	if !strings.HasSuffix(strings.ToLower(claims.Email), "@"+strings.ToLower(appCfg.AllowedEmailDomain)) {
		utils.Error(ctx, http.StatusForbidden, fmt.Sprintf("Only @%s emails are allowed.", appCfg.AllowedEmailDomain))
		return
	}

	user, err := a.findOrCreateStudent(ctx.Request.Context(), claims)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "failed to persist user")
		return
	}

	jwtToken, err := utils.GenerateToken(user.ID.Hex(), user.Username, user.Role, sessionDuration)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"user": user, "token": jwtToken})
}

// Logout revokes the presented token until its natural expiry.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusBadRequest, "missing bearer token")
		return
	}
	token := strings.TrimSpace(parts[1])

	expiresAt := time.Now().Add(sessionDuration)
	if claims, err := utils.ParseToken(token); err == nil && claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	utils.BlacklistToken(token, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// findOrCreateStudent looks up the user by email, creating a student record
// with a derived username on first sign-in.
func (a *AuthController) findOrCreateStudent(ctx context.Context, claims *IDTokenClaims) (*models.User, error) {
	user, err := a.users.FindUserByEmail(ctx, claims.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	base := deriveUsername(claims.Email)
	candidate := base
	for attempt := 1; ; attempt++ {
		user, err = a.users.CreateUser(ctx, &models.User{
			Username:   candidate,
			Email:      claims.Email,
			ProfilePic: claims.Picture,
			Role:       models.RoleStudent,
		})
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, store.ErrDuplicateUser) || attempt > 50 {
			return nil, err
		}
		// Another account already derived this username; a concurrent first
		// login with the same email is also caught here, so re-check.
		if existing, lookupErr := a.users.FindUserByEmail(ctx, claims.Email); lookupErr == nil {
			return existing, nil
		}
		candidate = base + strconv.Itoa(attempt)
	}
}

// deriveUsername turns an institutional email into a display username: the
// local part up to the first dot, first letter upper, rest lower.
// "jane.doe@bitsathy.ac.in" becomes "Jane".
func deriveUsername(email string) string {
	local := email
	if at := strings.Index(local, "@"); at >= 0 {
		local = local[:at]
	}
	if dot := strings.Index(local, "."); dot >= 0 {
		local = local[:dot]
	}
	if local == "" {
		return local
	}
	return strings.ToUpper(local[:1]) + strings.ToLower(local[1:])
}

func oauthConfig() (*oauth2.Config, error) {
	cfg := config.Get()
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return nil, errors.New("google oauth not configured")
	}
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  fmt.Sprintf("%s/api/auth/google/callback", cfg.OAuthRedirectBase),
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}, nil
}

func fetchGoogleUserInfo(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (*IDTokenClaims, error) {
	client := cfg.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google user info request failed: %s", resp.Status)
	}

	var payload struct {
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	return &IDTokenClaims{Email: payload.Email, Picture: payload.Picture}, nil
}
