package dtos

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/caseweave/caseweave/modules/core/domain/aggregates/user"
	"github.com/caseweave/caseweave/modules/core/domain/value_objects/internet"
	"github.com/caseweave/caseweave/pkg/constants"
	"github.com/caseweave/caseweave/pkg/intl"

	"github.com/nicksnyder/go-i18n/v2/i18n"
)

type CreateUserDTO struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Language  string `json:"language" validate:"required,oneof=en ru"`
}

type UpdateUserDTO struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Language  string `json:"language" validate:"required,oneof=en ru"`
}

func (dto *CreateUserDTO) Ok(ctx context.Context) (map[string]string, bool) {
	return validateUserDTO(ctx, dto)
}

func (dto *UpdateUserDTO) Ok(ctx context.Context) (map[string]string, bool) {
	return validateUserDTO(ctx, dto)
}

func validateUserDTO(ctx context.Context, dto any) (map[string]string, bool) {
	l, ok := intl.UseLocalizer(ctx)
	if !ok {
		panic(intl.ErrNoLocalizer)
	}
	errorMessages := map[string]string{}
	errs := constants.Validate.Struct(dto)
	if errs == nil {
		return errorMessages, true
	}
	for _, err := range errs.(validator.ValidationErrors) {
		translatedFieldName := l.MustLocalize(&i18n.LocalizeConfig{
			MessageID: fmt.Sprintf("Users.Single.%s", err.Field()),
		})
		errorMessages[err.Field()] = l.MustLocalize(&i18n.LocalizeConfig{
			MessageID: fmt.Sprintf("ValidationErrors.%s", err.Tag()),
			TemplateData: map[string]string{
				"Field": translatedFieldName,
			},
		})
	}

	return errorMessages, len(errorMessages) == 0
}

func (dto *CreateUserDTO) ToEntity(tenantID uuid.UUID) (user.User, error) {
	email, err := internet.NewEmail(dto.Email)
	if err != nil {
		return nil, err
	}

	lang, err := user.NewUILanguage(dto.Language)
	if err != nil {
		return nil, err
	}

	return user.New(
		dto.FirstName,
		dto.LastName,
		email,
		lang,
		user.WithTenantID(tenantID),
	), nil
}

func (dto *UpdateUserDTO) Apply(entity user.User) (user.User, error) {
	email, err := internet.NewEmail(dto.Email)
	if err != nil {
		return nil, err
	}

	lang, err := user.NewUILanguage(dto.Language)
	if err != nil {
		return nil, err
	}

	out := entity.Rename(dto.FirstName, dto.LastName)
	out = out.SetEmail(email)
	out = out.SetUILanguage(lang)
	return out, nil
}
