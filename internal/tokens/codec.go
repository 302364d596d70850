package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	Issuer = "IMF Gadgets API"

	AccessTTL  = time.Hour
	RefreshTTL = 30 * 24 * time.Hour
)

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	ErrExpired = errors.New("token expired")
	ErrInvalid = errors.New("token invalid")
	ErrUnknown = errors.New("token verification failed")
)

type Claims struct {
	Email string `json:"email"`
	Type  Kind   `json:"type"`
	jwt.RegisteredClaims

	userID uuid.UUID
}

// UserID is the subject parsed during verification. Claims that did not come
// out of VerifyAccess or VerifyRefresh report uuid.Nil.
func (c *Claims) UserID() uuid.UUID {
	return c.userID
}

type AccessClaims struct{ Claims }

type RefreshClaims struct{ Claims }

type User struct {
	ID    uuid.UUID
	Email string
}

type Pair struct {
	Access           string
	Refresh          string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret []byte) *Codec {
	return &Codec{secret: secret, now: time.Now}
}

// WithClock returns a copy of the codec reading time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	return &Codec{secret: c.secret, now: now}
}

func (c *Codec) Issue(u User) (Pair, error) {
	iat := c.now()

	access, accessExp, err := c.sign(u, KindAccess, iat, "")
	if err != nil {
		return Pair{}, err
	}
	refresh, refreshExp, err := c.sign(u, KindRefresh, iat, uuid.NewString())
	if err != nil {
		return Pair{}, err
	}

	return Pair{
		Access:           access,
		Refresh:          refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// ReissueAccess mints a fresh access token for the holder of a verified refresh token.
func (c *Codec) ReissueAccess(rc *RefreshClaims) (string, time.Time, error) {
	if rc == nil || rc.UserID() == uuid.Nil {
		return "", time.Time{}, ErrInvalid
	}
	return c.sign(User{ID: rc.UserID(), Email: rc.Email}, KindAccess, c.now(), "")
}

func (c *Codec) VerifyAccess(token string) (*AccessClaims, error) {
	claims, err := c.verify(token, KindAccess)
	if err != nil {
		return nil, err
	}
	return &AccessClaims{*claims}, nil
}

func (c *Codec) VerifyRefresh(token string) (*RefreshClaims, error) {
	claims, err := c.verify(token, KindRefresh)
	if err != nil {
		return nil, err
	}
	return &RefreshClaims{*claims}, nil
}

func (c *Codec) sign(u User, kind Kind, iat time.Time, jti string) (string, time.Time, error) {
	exp := iat.Add(maxAge(kind))
	claims := Claims{
		Email: u.Email,
		Type:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, exp, nil
}

func (c *Codec) verify(token string, kind Kind) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, classify(err)
	}

	if claims.IssuedAt == nil {
		return nil, ErrInvalid
	}
	if c.now().Sub(claims.IssuedAt.Time) > maxAge(kind) {
		return nil, ErrExpired
	}
	if claims.Type != kind {
		return nil, ErrInvalid
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalid
	}
	claims.userID = id
	return &claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return ErrInvalid
	default:
		return fmt.Errorf("%w: %v", ErrUnknown, err)
	}
}

func maxAge(kind Kind) time.Duration {
	if kind == KindRefresh {
		return RefreshTTL
	}
	return AccessTTL
}
