package gateway

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/argon2"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// JWTService handles JWT token operations
type JWTService struct {
	secretKey   []byte
	issuer      string
	tokenExpiry time.Duration
}

// JWTClaims represents the claims in a JWT token
type JWTClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// NewJWTService creates a new JWT service
func NewJWTService(secretKey string, issuer string, expiryHours int) *JWTService {
	return &JWTService{
		secretKey:   []byte(secretKey),
		issuer:      issuer,
		tokenExpiry: time.Duration(expiryHours) * time.Hour,
	}
}

// GenerateToken creates a signed token for username
func (j *JWTService) GenerateToken(username string) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(j.tokenExpiry)
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			NotBefore: jwt.NewNumericDate(now),
		},
		Username: username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// ValidateToken validates a JWT token and returns the claims
func (j *JWTService) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	}, jwt.WithIssuer(j.issuer))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// PasswordService handles password hashing using Argon2
type PasswordService struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLength  uint32
	keyLength   uint32
}

// NewPasswordService creates a new password service with Argon2 settings
func NewPasswordService() *PasswordService {
	return &PasswordService{
		memory:      64 * 1024,
		iterations:  3,
		parallelism: 2,
		saltLength:  16,
		keyLength:   32,
	}
}

// HashPassword returns $argon2id$v=19$m=65536,t=3,p=2$<salt hex>$<hash hex>
func (p *PasswordService) HashPassword(password string) (string, error) {
	salt := make([]byte, p.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, p.iterations, p.memory, p.parallelism, p.keyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%x$%x",
		argon2.Version, p.memory, p.iterations, p.parallelism, salt, hash), nil
}

// VerifyPassword verifies a password against an Argon2 hash
func (p *PasswordService) VerifyPassword(password, hashedPassword string) (bool, error) {
	memory, iterations, parallelism, salt, hash, err := parseHash(hashedPassword)
	if err != nil {
		return false, fmt.Errorf("failed to parse hash: %w", err)
	}

	inputHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(hash)))
	return subtle.ConstantTimeCompare(hash, inputHash) == 1, nil
}

func parseHash(encodedHash string) (memory uint32, iterations uint32, parallelism uint8, salt, hash []byte, err error) {
	// %x stops at '$' so split first
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, fmt.Errorf("invalid hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("invalid hash version: %w", err)
	}
	if version != argon2.Version {
		return 0, 0, 0, nil, nil, fmt.Errorf("incompatible version")
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("invalid hash parameters: %w", err)
	}
	if _, err := fmt.Sscanf(parts[4], "%x", &salt); err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("invalid salt: %w", err)
	}
	if _, err := fmt.Sscanf(parts[5], "%x", &hash); err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("invalid hash: %w", err)
	}

	return memory, iterations, parallelism, salt, hash, nil
}

// AuthMiddleware handles JWT authentication for protected routes
type AuthMiddleware struct {
	jwtService *JWTService
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(jwtService *JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// RequireAuth is a middleware that requires valid JWT authentication
func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			http.Error(w, "Authorization header must start with 'Bearer '", http.StatusUnauthorized)
			return
		}

		claims, err := a.jwtService.ValidateToken(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFromContext extracts the authenticated claims from the request context
func ClaimsFromContext(r *http.Request) (*JWTClaims, bool) {
	claims, ok := r.Context().Value(claimsContextKey).(*JWTClaims)
	return claims, ok
}
