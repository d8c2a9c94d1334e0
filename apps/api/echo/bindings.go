package echoapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/seepmela/mela/core"
	"github.com/seepmela/mela/core/applicant"
)

type (
	// LoginRequest takes a mobile number or an email address.
	LoginRequest struct {
		MobileNumber string `json:"mobile_number" validate:"required"`
		Password     string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token     string              `json:"token"`
		Applicant applicant.Applicant `json:"applicant"`
	}

	ChangePasswordRequest struct {
		MobileNumber    string `json:"mobile_number" validate:"required"`
		OldPassword     string `json:"old_password" validate:"required"`
		NewPassword     string `json:"new_password" validate:"required,min=6"`
		ConfirmPassword string `json:"confirm_password" validate:"required"`
	}

	InterviewMarksRequest struct {
		InterviewMarks *int `json:"interview_marks" validate:"required,min=0,max=30"`
	}

	DestroyMultipleRequest struct {
		IDs []string `json:"ids"`
	}

	// NotifyRequest broadcasts an SMS to all applicants, optionally narrowed
	// to one status.
	NotifyRequest struct {
		Message string `json:"message" validate:"required"`
		Status  string `json:"account_status"`
	}

	NotifyResponse struct {
		Sent int `json:"sent"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	ApplicantListResponse struct {
		Results []applicant.Applicant `json:"results"`
		Count   int                   `json:"count"`
		Page    int                   `json:"page"`
		Limit   int                   `json:"limit"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.MobileNumber = core.CleanString(lr.MobileNumber, true /* lower */)
	return validate.Struct(lr)
}

func (cp *ChangePasswordRequest) Validate(validate *validator.Validate) error {
	cp.MobileNumber = core.CleanString(cp.MobileNumber, true /* lower */)
	return validate.Struct(cp)
}

func (im *InterviewMarksRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(im)
}

func (nr *NotifyRequest) Validate(validate *validator.Validate) error {
	nr.Message = core.CleanString(nr.Message)
	nr.Status = core.CleanString(nr.Status, true /* lower */)
	return validate.Struct(nr)
}
