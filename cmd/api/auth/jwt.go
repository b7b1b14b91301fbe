package auth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"chatline/config"
	"chatline/models"
	"chatline/realtime"
)

const (
	RoleUser  = models.RoleUser
	RoleAdmin = models.RoleAdmin
)

var ErrMissingSecret = errors.New("JWT_SECRET is required")

// JWTManager 는 HS256 단일 시크릿 문자열을 사용해 JWT 를 발급/검증한다.
type JWTManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewJWTManager(secret, issuer string, ttl time.Duration) (*JWTManager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if issuer == "" {
		issuer = "chatline"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTManager{secret: []byte(secret), issuer: issuer, ttl: ttl}, nil
}

// NewJWTManagerFromEnv 는 환경변수에서 시크릿/issuer 를 읽어 JWTManager 를 생성한다.
//
// - JWT_SECRET: HS256 서명에 사용할 시크릿 문자열(필수)
// - JWT_ISSUER: iss 클레임 값(선택, 기본값 cfg.Issuer)
func NewJWTManagerFromEnv(cfg config.AuthConfig) (*JWTManager, error) {
	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = cfg.Issuer
	}
	return NewJWTManager(os.Getenv("JWT_SECRET"), issuer, cfg.TokenTTL)
}

func (m *JWTManager) Sign(userID, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"iss":  m.issuer,
		"iat":  now.Unix(),
		"exp":  now.Add(m.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse 는 서명/만료/issuer 를 검증하고 (sub, role) 을 반환한다.
func (m *JWTManager) Parse(tokenString string) (string, string, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", "", err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", "", fmt.Errorf("invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" {
		return "", "", fmt.Errorf("token missing sub claim")
	}
	if role == "" {
		role = RoleUser
	}

	return sub, role, nil
}

// Authenticate 는 웹소켓 핸드셰이크 자격 증명 검증에 쓰인다.
func (m *JWTManager) Authenticate(token string) (realtime.Identity, error) {
	sub, role, err := m.Parse(token)
	if err != nil {
		return realtime.Identity{}, err
	}
	return realtime.Identity{UserID: sub, Role: role}, nil
}
