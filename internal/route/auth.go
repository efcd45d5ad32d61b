package route

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    int    `json:"expiresIn"`
	TokenType    string `json:"tokenType"`
}

type registerResponse struct {
	UserID       string `json:"userId"`
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    int    `json:"expiresIn,omitempty"`
	Message      string `json:"message,omitempty"`
}

// register creates a user in Keycloak and logs them in right away.
func (api *API) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respondError(c, http.StatusBadRequest, "Username, email and password are required")
		return
	}

	if !emailPattern.MatchString(req.Email) {
		respondError(c, http.StatusBadRequest, "Invalid email format")
		return
	}

	if len(req.Password) < 6 {
		respondError(c, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	userID, err := api.Identity.RegisterUser(req.Username, req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		respondError(c, http.StatusConflict, err.Error())
		return
	}

	// The realm logs in with email, so use it rather than the username.
	tokens, err := api.Identity.Login(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusCreated, registerResponse{
			UserID:  userID,
			Message: "User created successfully. Please login with your email: " + req.Email,
		})
		return
	}

	c.JSON(http.StatusCreated, registerResponse{
		UserID:       userID,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
		Message:      "User created and logged in successfully",
	})
}

func (api *API) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respondError(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	tokens, err := api.Identity.Login(req.Email, req.Password)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
		TokenType:    tokens.TokenType,
	})
}

// refresh exchanges the refresh token carried in the Authorization header
// for a fresh pair.
func (api *API) refresh(c *gin.Context) {
	refreshToken := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if refreshToken == "" {
		respondError(c, http.StatusBadRequest, "Refresh token is required")
		return
	}

	tokens, err := api.Identity.RefreshToken(refreshToken)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}

	newRefresh := tokens.RefreshToken
	if newRefresh == "" {
		newRefresh = refreshToken
	}

	c.JSON(http.StatusOK, gin.H{
		"accessToken":  tokens.AccessToken,
		"refreshToken": newRefresh,
	})
}

// loginOnToken validates the bearer token and echoes the identity baked
// into it.
func (api *API) loginOnToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"keycloakUserId": c.GetString(ctxUserID),
		"email":          nilIfEmpty(c.GetString(ctxEmail)),
		"fullName":       nilIfEmpty(c.GetString(ctxFullName)),
	})
}
