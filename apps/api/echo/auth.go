package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core/lms"
	inmemdb "github.com/trezcool/masomo-portal/storage/database/inmem"
)

const contextTokenKey = "userToken"

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (c Claims) IsEditor() bool {
	return lms.IsEditorRole(c.Role)
}

// Tokenizer issues and describes the HS256 tokens of one server.
type Tokenizer struct {
	appName         string
	signingKey      []byte
	expirationDelta time.Duration
}

func NewTokenizer(appName, secretKey string, expirationDelta time.Duration) *Tokenizer {
	if expirationDelta <= 0 {
		expirationDelta = 24 * time.Hour
	}
	return &Tokenizer{
		appName:         appName,
		signingKey:      []byte(secretKey),
		expirationDelta: expirationDelta,
	}
}

func (tk *Tokenizer) jwtConfig() middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    tk.signingKey,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

func (tk *Tokenizer) claims(usr lms.User) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Issuer:    tk.appName,
			Subject:   usr.Email,
			ExpiresAt: now.Add(tk.expirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email: usr.Email,
		Role:  usr.Role,
	}
}

// Generate returns a signed token for usr.
func (tk *Tokenizer) Generate(usr lms.User) (string, error) {
	method := jwt.GetSigningMethod(middleware.AlgorithmHS256)
	token := jwt.NewWithClaims(method, tk.claims(usr))

	ss, err := token.SignedString(tk.signingKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func authenticate(db *inmemdb.DB, email, pwd string) (lms.User, error) {
	acct, err := db.GetAccount(email)
	if err != nil {
		if errors.Cause(err) == inmemdb.ErrNotFound {
			return lms.User{}, errAuthenticationFailed
		}
		return lms.User{}, errors.Wrap(err, "finding account by email")
	}
	if err = acct.CheckPassword(pwd); err != nil {
		return lms.User{}, errAuthenticationFailed
	}
	return acct.User(), nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// editorMiddleware lets teachers and admins through.
func editorMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsEditor() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
