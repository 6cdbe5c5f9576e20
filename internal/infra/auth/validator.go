package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/xela07ax/hotel-guard/internal/domain"
)

// TokenService выпускает и проверяет RS256 токены.
// Токен несет только ID актора: verify(token) -> ActorID.
type TokenService struct {
	publicKey  *rsa.PublicKey
	privateKey *rsa.PrivateKey // nil — сервис умеет только проверять
	issuer     string
	ttl        time.Duration
	now        func() time.Time
}

func NewTokenService(pub *rsa.PublicKey, priv *rsa.PrivateKey, issuer string, ttl time.Duration) (*TokenService, error) {
	if pub == nil && priv != nil {
		pub = &priv.PublicKey
	}
	if pub == nil {
		return nil, errors.New("auth: public key is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{publicKey: pub, privateKey: priv, issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// Issue подписывает токен ЗАКРЫТЫМ КЛЮЧОМ.
func (s *TokenService) Issue(actorID int64) (string, time.Time, error) {
	if s.privateKey == nil {
		return "", time.Time{}, errors.New("auth: private key is not configured")
	}
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := &domain.CustomClaims{
		ActorID: actorID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(actorID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.privateKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify проверяет подпись, срок и издателя, возвращает ID актора.
func (s *TokenService) Verify(tokenStr string) (int64, error) {
	tokenStr = strings.TrimSpace(strings.TrimPrefix(tokenStr, "Bearer "))
	if tokenStr == "" {
		return 0, fmt.Errorf("%w: missing token", domain.ErrUnauthenticated)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &domain.CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.publicKey, nil
	}, opts...)
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("%w: invalid token: %v", domain.ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(*domain.CustomClaims)
	if !ok || claims.ActorID <= 0 {
		return 0, fmt.Errorf("%w: invalid claims", domain.ErrUnauthenticated)
	}
	return claims.ActorID, nil
}

// TTL — срок жизни выпускаемых токенов.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// ParseRSAPublicKey превращает []byte в объект для проверки подписи
func ParseRSAPublicKey(data []byte) (*rsa.PublicKey, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("public key data is empty")
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return key, nil
}

// ParseRSAPrivateKey превращает []byte в объект для подписи
func ParseRSAPrivateKey(data []byte) (*rsa.PrivateKey, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("private key data is empty")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return key, nil
}
