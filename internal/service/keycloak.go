package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrUserExists is returned when Keycloak already has a user with the same
// username or email.
var ErrUserExists = errors.New("user already exists")

type KeycloakTokens struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in,omitempty"`
	TokenType        string `json:"token_type"`
}

type KeycloakUser struct {
	ID        string `json:"id,omitempty"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Enabled   bool   `json:"enabled"`
}

type keycloakCredential struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

type keycloakUserCreate struct {
	KeycloakUser
	EmailVerified bool                 `json:"emailVerified"`
	Credentials   []keycloakCredential `json:"credentials"`
}

type keycloakError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorMessage     string `json:"errorMessage"`
}

// KeycloakService wraps the identity provider's token endpoint and admin
// API. Everything here is a pass-through; this service never stores
// credentials.
type KeycloakService struct {
	ServerURL     string
	Realm         string
	ClientID      string
	ClientSecret  string
	AdminUsername string
	AdminPassword string

	client *http.Client

	mu          sync.Mutex
	adminToken  string
	adminExpiry time.Time
}

func NewKeycloakService(serverURL, realm, clientID, clientSecret, adminUsername, adminPassword string) *KeycloakService {
	return &KeycloakService{
		ServerURL:     strings.TrimSuffix(serverURL, "/"),
		Realm:         realm,
		ClientID:      clientID,
		ClientSecret:  clientSecret,
		AdminUsername: adminUsername,
		AdminPassword: adminPassword,
		client:        &http.Client{Timeout: 15 * time.Second},
	}
}

// Login runs the password grant against the realm token endpoint. Keycloak
// realms here are configured for login-with-email, so the identifier is
// the user's email address.
func (s *KeycloakService) Login(username, password string) (*KeycloakTokens, error) {
	form := url.Values{}
	form.Set("client_id", s.ClientID)
	form.Set("client_secret", s.ClientSecret)
	form.Set("grant_type", "password")
	form.Set("username", username)
	form.Set("password", password)

	return s.tokenRequest(fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", s.ServerURL, s.Realm), form)
}

// RefreshToken exchanges a refresh token for a new token pair.
func (s *KeycloakService) RefreshToken(refreshToken string) (*KeycloakTokens, error) {
	form := url.Values{}
	form.Set("client_id", s.ClientID)
	form.Set("client_secret", s.ClientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	return s.tokenRequest(fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", s.ServerURL, s.Realm), form)
}

func (s *KeycloakService) tokenRequest(endpoint string, form url.Values) (*KeycloakTokens, error) {
	resp, err := s.client.PostForm(endpoint, form)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		var kcErr keycloakError
		if json.Unmarshal(body, &kcErr) == nil && kcErr.ErrorDescription != "" {
			return nil, errors.New(kcErr.ErrorDescription)
		}
		return nil, fmt.Errorf("token request failed: %s", resp.Status)
	}

	var tokens KeycloakTokens
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// RegisterUser creates a user through the admin API and returns the new
// subject id taken from the Location header.
func (s *KeycloakService) RegisterUser(username, email, password, firstName, lastName string) (string, error) {
	adminToken, err := s.getAdminToken()
	if err != nil {
		return "", fmt.Errorf("failed to get admin token: %w", err)
	}

	payload := keycloakUserCreate{
		KeycloakUser: KeycloakUser{
			Username:  username,
			Email:     email,
			FirstName: firstName,
			LastName:  lastName,
			Enabled:   true,
		},
		EmailVerified: false,
		Credentials: []keycloakCredential{
			{Type: "password", Value: password, Temporary: false},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/admin/realms/%s/users", s.ServerURL, s.Realm), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+adminToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		location := resp.Header.Get("Location")
		userID := location[strings.LastIndex(location, "/")+1:]
		log.Printf("User %s registered in Keycloak with ID %s", username, userID)
		return userID, nil
	case http.StatusConflict:
		return "", ErrUserExists
	default:
		errText, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("registration failed: %s", string(errText))
	}
}

// GetUserByID fetches a user's profile from the admin API.
func (s *KeycloakService) GetUserByID(userID string) (*KeycloakUser, error) {
	adminToken, err := s.getAdminToken()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/admin/realms/%s/users/%s", s.ServerURL, s.Realm, url.PathEscape(userID)), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+adminToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get user info: %s", resp.Status)
	}

	var user KeycloakUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail searches the admin API for an exact email match. Returns
// nil without error when no user matches.
func (s *KeycloakService) GetUserByEmail(email string) (*KeycloakUser, error) {
	adminToken, err := s.getAdminToken()
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("email", email)
	query.Set("exact", "true")

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/admin/realms/%s/users?%s", s.ServerURL, s.Realm, query.Encode()), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+adminToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to search user: %s", resp.Status)
	}

	var users []KeycloakUser
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

// RealmPublicKey fetches the realm's RSA signing key for local token
// verification. Keycloak serves it bare; callers usually want the PEM
// wrapping from WrapPublicKeyPEM.
func (s *KeycloakService) RealmPublicKey() (string, error) {
	resp, err := s.client.Get(fmt.Sprintf("%s/realms/%s", s.ServerURL, s.Realm))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to get realm info: %s", resp.Status)
	}

	var realmInfo struct {
		PublicKey string `json:"public_key"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&realmInfo); err != nil {
		return "", err
	}
	if realmInfo.PublicKey == "" {
		return "", errors.New("public key not found in realm info")
	}
	return realmInfo.PublicKey, nil
}

// WrapPublicKeyPEM turns the bare base64 key Keycloak publishes into a PEM
// block.
func WrapPublicKeyPEM(key string) string {
	if strings.Contains(key, "BEGIN PUBLIC KEY") {
		return key
	}
	var b strings.Builder
	b.WriteString("-----BEGIN PUBLIC KEY-----\n")
	for len(key) > 64 {
		b.WriteString(key[:64])
		b.WriteString("\n")
		key = key[64:]
	}
	b.WriteString(key)
	b.WriteString("\n-----END PUBLIC KEY-----\n")
	return b.String()
}

// getAdminToken returns a cached master-realm admin token, refreshing it
// a minute before expiry.
func (s *KeycloakService) getAdminToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.adminToken != "" && time.Now().Before(s.adminExpiry.Add(-60*time.Second)) {
		return s.adminToken, nil
	}

	form := url.Values{}
	form.Set("client_id", "admin-cli")
	form.Set("grant_type", "password")
	form.Set("username", s.AdminUsername)
	form.Set("password", s.AdminPassword)

	tokens, err := s.tokenRequest(fmt.Sprintf("%s/realms/master/protocol/openid-connect/token", s.ServerURL), form)
	if err != nil {
		return "", err
	}

	s.adminToken = tokens.AccessToken
	s.adminExpiry = time.Now().Add(time.Duration(tokens.ExpiresIn) * time.Second)
	return s.adminToken, nil
}
