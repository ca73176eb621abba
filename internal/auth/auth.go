package auth

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/biocap/tradedesk-api/pkg/response"
)

var (
	ErrInvalidCredentials = errors.New("invalid API credentials")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

// Roles carried in token claims. Analysts submit recommendations, portfolio
// managers disposition them.
const (
	RoleAnalyst = "analyst"
	RolePM      = "pm"
)

// Test credentials
var (
	TestAnalystKey    = "test-analyst-key"
	TestAnalystSecret = "test-analyst-secret"
	TestPMKey         = "test-pm-key"
	TestPMSecret      = "test-pm-secret"
)

// Credentials represents the API authentication credentials
type Credentials struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
}

// TokenResponse represents the JWT token response
type TokenResponse struct {
	Token      string    `json:"jwt_token"`
	Expiration time.Time `json:"expiration"`
}

// Claims represents the JWT claims structure
type Claims struct {
	jwt.RegisteredClaims
	ClientID  string `json:"client_id"`
	AnalystID int64  `json:"analyst_id"`
	Role      string `json:"role"`
}

type account struct {
	secret    string
	analystID int64
	role      string
}

// Service handles authentication and authorization operations
type Service struct {
	jwtSecret []byte
	tokenTTL  time.Duration
	// In a real implementation, this would be replaced with a database
	accounts map[string]account // map[APIKey]account
}

// NewService creates a new authentication service with the given JWT secret
func NewService(jwtSecret string, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		accounts:  make(map[string]account),
	}
}

// RegisterAPICredentials registers credentials for an analyst or PM account
// (for testing/demo purposes)
func (s *Service) RegisterAPICredentials(apiKey, apiSecret string, analystID int64, role string) {
	s.accounts[apiKey] = account{secret: apiSecret, analystID: analystID, role: role}
}

// GenerateToken generates a JWT token for valid API credentials.
// The token includes the client ID, analyst ID and role.
func (s *Service) GenerateToken(creds Credentials) (*TokenResponse, error) {
	acct, ok := s.accounts[creds.APIKey]
	if !ok || acct.secret != creds.APISecret {
		return nil, ErrInvalidCredentials
	}

	expiration := time.Now().Add(s.tokenTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
		ClientID:  creds.APIKey,
		AnalystID: acct.analystID,
		Role:      acct.role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, ErrTokenGeneration
	}

	return &TokenResponse{
		Token:      tokenString,
		Expiration: expiration,
	}, nil
}

// ValidateToken validates a JWT token and returns the claims
// Verifies token signature and expiration
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// GinHandlers contains HTTP handlers for authentication endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for authentication endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// GenerateTokenHandler handles POST requests to generate JWT tokens
// Request body should contain API credentials
func (h *GinHandlers) GenerateTokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var creds Credentials
		if err := c.ShouldBindJSON(&creds); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		token, err := h.service.GenerateToken(creds)
		if errors.Is(err, ErrInvalidCredentials) {
			response.Unauthorized(c, err.Error())
			return
		}
		response.Handle(c, token, err)
	}
}

// AnalystID extracts the analyst ID from claims stored in the gin context.
// Returns 0 if the claims are missing or malformed.
func AnalystID(c *gin.Context) int64 {
	v, exists := c.Get("claims")
	if !exists {
		return 0
	}
	if claims, ok := v.(jwt.MapClaims); ok {
		if id, ok := claims["analyst_id"].(float64); ok {
			return int64(id)
		}
	}
	return 0
}

// Role extracts the role claim from the gin context, empty when absent.
func Role(c *gin.Context) string {
	v, exists := c.Get("claims")
	if !exists {
		return ""
	}
	if claims, ok := v.(jwt.MapClaims); ok {
		if role, ok := claims["role"].(string); ok {
			return role
		}
	}
	return ""
}
