package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/seepmela/mela/core"
	"github.com/seepmela/mela/core/applicant"
)

var errAppNotFoundInCtx = errors.New("applicant object not found in echo.Context")

type applicantApi struct {
	conf       *core.Config
	svc        *applicant.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerApplicantAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := applicantApi{
		conf:       deps.Conf,
		svc:        deps.AppSvc,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	ag := g.Group("/applicants")

	// un-authed endpoints
	// TODO: rate limit `/register` & `/login`
	ag.POST("/register", api.register)
	ag.POST("/login", api.login)
	ag.POST("/change-password", api.changePassword)

	// authed endpoints
	authed := ag.Group("", jwt)
	authed.GET("", api.query, staffMiddleware())
	authed.GET("/summary", api.summary, staffMiddleware())
	authed.DELETE("", api.destroyMultiple, adminMiddleware())
	authed.POST("/notify", api.notify, adminMiddleware())

	// detail endpoints
	dg := authed.Group("/:id", ctxApplicantOrStaffMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.PATCH("/status", api.updateStatus, adminMiddleware())
	dg.PATCH("/interview-marks", api.setInterviewMarks, adminMiddleware())
}

// Handlers

func (api *applicantApi) register(ctx echo.Context) error {
	var data applicant.NewApplicant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewApplicant")
	}
	if err := data.Validate(api.validate, api.translator, api.svc); err != nil {
		return err
	}

	app, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering applicant")
	}
	return ctx.JSON(http.StatusCreated, app)
}

func (api *applicantApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	app, err := api.svc.Authenticate(
		ctx.Request().Context(),
		data.MobileNumber,
		data.Password,
		ctx.RealIP(),
		ctx.Request().UserAgent(),
	)
	if err != nil {
		switch errors.Cause(err) {
		case applicant.ErrNotFound:
			return errAuthenticationFailed
		case applicant.ErrAccountLocked:
			return errAccountLocked
		case applicant.ErrNotSelected:
			return errAccountNotSelected
		case applicant.ErrDropped:
			return errAccountDropped
		}
		return err
	}

	token, err := GenerateToken(GetApplicantClaims(api.conf, app))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, Applicant: app})
}

func (api *applicantApi) changePassword(ctx echo.Context) error {
	var data ChangePasswordRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePasswordRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	err := api.svc.ChangePassword(
		ctx.Request().Context(),
		data.MobileNumber,
		data.OldPassword,
		data.NewPassword,
		data.ConfirmPassword,
	)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been changed."})
}

func (api *applicantApi) query(ctx echo.Context) error {
	filter := new(applicant.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, ApplicantListResponse{Results: []applicant.Applicant{}})
	}
	filter.Clean()

	apps, total, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying applicants")
	}
	if apps == nil {
		apps = []applicant.Applicant{}
	}
	return ctx.JSON(http.StatusOK, ApplicantListResponse{
		Results: apps,
		Count:   total,
		Page:    filter.Page,
		Limit:   filter.Limit,
	})
}

func (api *applicantApi) summary(ctx echo.Context) error {
	counts, err := api.svc.Summary(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "summarizing applicants")
	}
	return ctx.JSON(http.StatusOK, counts)
}

func (api *applicantApi) retrieve(ctx echo.Context) error {
	app, ok := ctx.Get("object").(applicant.Applicant)
	if !ok {
		return errors.Wrap(errAppNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *applicantApi) update(ctx echo.Context) error {
	app, ok := ctx.Get("object").(applicant.Applicant)
	if !ok {
		return errors.Wrap(errAppNotFoundInCtx, "retrieving object from context")
	}

	var data applicant.UpdateApplicant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateApplicant")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	app, err := api.svc.Update(ctx.Request().Context(), app.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *applicantApi) updateStatus(ctx echo.Context) error {
	app, ok := ctx.Get("object").(applicant.Applicant)
	if !ok {
		return errors.Wrap(errAppNotFoundInCtx, "retrieving object from context")
	}

	var data applicant.StatusChange
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusChange")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	app, err := api.svc.UpdateStatus(ctx.Request().Context(), app.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *applicantApi) setInterviewMarks(ctx echo.Context) error {
	app, ok := ctx.Get("object").(applicant.Applicant)
	if !ok {
		return errors.Wrap(errAppNotFoundInCtx, "retrieving object from context")
	}

	var data InterviewMarksRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to InterviewMarksRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	app, err := api.svc.SetInterviewMarks(ctx.Request().Context(), app.ID, *data.InterviewMarks)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *applicantApi) destroyMultiple(ctx echo.Context) error {
	var data DestroyMultipleRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if len(data.IDs) == 0 {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.Delete(ctx.Request().Context(), data.IDs...); err != nil {
		return errors.Wrap(err, "deleting applicants")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *applicantApi) notify(ctx echo.Context) error {
	var data NotifyRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NotifyRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	filter := applicant.QueryFilter{Status: applicant.Status(data.Status)}
	sent, err := api.svc.BulkNotify(ctx.Request().Context(), filter, data.Message)
	if err != nil {
		return errors.Wrap(err, "sending bulk notification")
	}
	return ctx.JSON(http.StatusOK, NotifyResponse{Sent: sent})
}

// ctxApplicantOrStaffMiddleware loads the addressed applicant into the context
// when the caller is staff or the applicant themselves; 404 otherwise.
func ctxApplicantOrStaffMiddleware(svc *applicant.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}

			if ctx.Param("id") == claims.Subject || claims.IsStaff {
				if app, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id")); err == nil {
					ctx.Set("object", app)
					return next(ctx)
				} else if errors.Cause(err) != applicant.ErrNotFound {
					return errors.Wrap(err, "finding applicant by ID")
				}
			}
			return errHttpNotFound
		}
	}
}
