package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/seepmela/mela/core"
	"github.com/seepmela/mela/core/applicant"
)

var (
	// appJWTConfig is the default JWT auth middleware config; the signing key
	// is set from Config on server construction.
	appJWTConfig = middleware.JWTConfig{
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "applicantToken",
		Claims:        new(Claims),
	}
	contextApplicantKey = "applicant"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	ApplicantID string `json:"applicant_id,omitempty"` // human-readable, e.g. KMC0042
	FullName    string `json:"full_name,omitempty"`
	Role        string `json:"role,omitempty"`
	IsAdmin     bool   `json:"is_admin,omitempty"`  // -> ADMIN PORTAL
	IsStaff     bool   `json:"is_staff,omitempty"`  // volunteers & coordinators included
}

func GetApplicantClaims(conf *core.Config, app applicant.Applicant) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   app.ID,
			Audience:  "SeepMela",
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		ApplicantID: app.ApplicantID,
		FullName:    app.FullName,
		Role:        app.Role,
		IsAdmin:     app.IsAdmin(),
		IsStaff:     app.Role != applicant.RoleApplicant,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextApplicant(ctx echo.Context, svc *applicant.Service, clms ...Claims) (applicant.Applicant, error) {
	if app, ok := ctx.Get(contextApplicantKey).(applicant.Applicant); ok {
		return app, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return applicant.Applicant{}, errors.Wrap(err, "getting context claims")
		}
	}

	app, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return applicant.Applicant{}, errors.Wrap(err, "finding applicant by ID")
	}
	ctx.Set(contextApplicantKey, app)
	return app, nil
}
