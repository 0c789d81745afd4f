package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/config"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey       = "user_id"       // int64
	CtxUserRoleKey     = "user_role"     // string
	CtxTokenVersionKey = "token_version" // int
	CtxErrorKey        = "handler_error" // error（アクセスログ用）
)

// アクセストークンのclaims。subとtvは数値でも文字列でも受ける。
type accessClaims struct {
	Sub       json.Number      `json:"sub"`
	Role      string           `json:"role"`
	TV        json.Number      `json:"tv"`
	IssuedAt  *jwt.NumericDate `json:"iat,omitempty"`
	ExpiresAt *jwt.NumericDate `json:"exp,omitempty"`
}

func (c accessClaims) Valid() error {
	return jwt.RegisteredClaims{IssuedAt: c.IssuedAt, ExpiresAt: c.ExpiresAt}.Valid()
}

// トークンから取り出した利用者
type identity struct {
	userID       int64
	role         string
	tokenVersion int
}

func (c accessClaims) identity() (identity, error) {
	userID, err := c.Sub.Int64()
	if err != nil || userID <= 0 {
		return identity{}, errors.New("invalid sub")
	}
	if c.Role == "" {
		return identity{}, errors.New("missing role")
	}
	tv, err := c.TV.Int64()
	if err != nil || tv < 0 {
		return identity{}, errors.New("invalid tv")
	}
	return identity{userID: userID, role: c.Role, tokenVersion: int(tv)}, nil
}

// "Bearer <token>" からtokenを抜く
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get(echo.HeaderAuthorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// HS256のBearerトークンを検証してcontextへ入れる
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	key := func(*jwt.Token) (interface{}, error) { return []byte(cfg.JWTSecret), nil }

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request())
			if !ok {
				return deny(c)
			}

			var claims accessClaims
			token, err := parser.ParseWithClaims(raw, &claims, key)
			if err != nil || !token.Valid {
				return deny(c)
			}
			id, err := claims.identity()
			if err != nil {
				return deny(c)
			}

			c.Set(CtxUserIDKey, id.userID)
			c.Set(CtxUserRoleKey, id.role)
			c.Set(CtxTokenVersionKey, id.tokenVersion)
			return next(c)
		}
	}
}

// AuthJWTが入れた値。なければfalse。
func identityFrom(c echo.Context) (identity, bool) {
	userID, ok := c.Get(CtxUserIDKey).(int64)
	if !ok || userID <= 0 {
		return identity{}, false
	}
	role, _ := c.Get(CtxUserRoleKey).(string)
	tv, ok := c.Get(CtxTokenVersionKey).(int)
	if !ok || tv < 0 {
		return identity{}, false
	}
	return identity{userID: userID, role: role, tokenVersion: tv}, true
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func deny(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized", Kind: "unauthorized"})
}

func forbid(c echo.Context, msg string) error {
	return c.JSON(http.StatusForbidden, errorResponse{Error: msg, Kind: "forbidden"})
}
