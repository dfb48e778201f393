package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vipinnagar8700/meditationLife-sub000/internal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names so messages match what the client sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

const (
	moodLevelTag        = "oneof=happy calm natural anxiety angry sad"
	sleepDescriptionTag = "oneof=excellent good fair poor terrible"
	sleepIntensityTag   = "gte=1,lte=12"
	noteTag             = "max=2000"
)

type MoodLogRequest struct {
	MoodLevel internal.MoodLevel `json:"moodLevel" validate:"required,oneof=happy calm natural anxiety angry sad"`
	// MoodNote is a pointer so an omitted note can be told apart from an empty one.
	MoodNote *string `json:"moodNote" validate:"omitempty,max=2000"`
}

type SleepLogRequest struct {
	SleepIntensity   int                       `json:"sleepIntensity" validate:"required,gte=1,lte=12"`
	SleepDescription internal.SleepDescription `json:"sleepDescription" validate:"required,oneof=excellent good fair poor terrible"`
	SleepNote        *string                   `json:"sleepNote" validate:"omitempty,max=2000"`
}

// UpdateEntryRequest carries a partial update; nil fields are left unchanged.
type UpdateEntryRequest struct {
	MoodLevel        *internal.MoodLevel        `json:"moodLevel"`
	MoodNote         *string                    `json:"moodNote"`
	SleepIntensity   *int                       `json:"sleepIntensity"`
	SleepDescription *internal.SleepDescription `json:"sleepDescription"`
	SleepNote        *string                    `json:"sleepNote"`
}

func ValidateMoodLogRequest(req *MoodLogRequest) error {
	return validationError(validate.Struct(req))
}

func ValidateSleepLogRequest(req *SleepLogRequest) error {
	return validationError(validate.Struct(req))
}

// ValidateUpdateRequest checks every present field that applies to kind.
// Fields belonging to the other kind are ignored.
func ValidateUpdateRequest(kind internal.Kind, req *UpdateEntryRequest) error {
	type check struct {
		name  string
		value interface{}
		tag   string
	}
	var checks []check
	switch kind {
	case internal.KindMood:
		if req.MoodLevel != nil {
			checks = append(checks, check{"moodLevel", string(*req.MoodLevel), moodLevelTag})
		}
		if req.MoodNote != nil {
			checks = append(checks, check{"moodNote", *req.MoodNote, noteTag})
		}
	case internal.KindSleep:
		if req.SleepIntensity != nil {
			checks = append(checks, check{"sleepIntensity", *req.SleepIntensity, sleepIntensityTag})
		}
		if req.SleepDescription != nil {
			checks = append(checks, check{"sleepDescription", string(*req.SleepDescription), sleepDescriptionTag})
		}
		if req.SleepNote != nil {
			checks = append(checks, check{"sleepNote", *req.SleepNote, noteTag})
		}
	}
	for _, c := range checks {
		if err := validate.Var(c.value, c.tag); err != nil {
			return internal.ValidationError(fieldMessage(c.name, err))
		}
	}
	return nil
}

// validationError turns validator output into a ValidationError with a
// readable message for the first failing field.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return internal.ValidationError(describe(verrs[0].Field(), verrs[0]))
	}
	return internal.ValidationError(err.Error())
}

func fieldMessage(name string, err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return describe(name, verrs[0])
	}
	return fmt.Sprintf("%s is invalid", name)
}

func describe(name string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte", "lte":
		if name == "sleepIntensity" {
			return fmt.Sprintf("%s must be between %d and %d", name, internal.MinSleepIntensity, internal.MaxSleepIntensity)
		}
		return fmt.Sprintf("%s is out of range", name)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", name)
}
