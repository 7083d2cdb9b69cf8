package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

// Validator checks payload structs and renders failures as English messages keyed by JSON field names.
type Validator struct {
	validate *govalidator.Validate
	trans    ut.Translator
}

// New builds a validator with English translations registered.
func New() *Validator {
	v := govalidator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)
	return &Validator{validate: v, trans: trans}
}

// Struct validates s. Failures come back as a validation *appErrors.Error whose detail lists every field.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var ve govalidator.ValidationErrors
	if !errors.As(err, &ve) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	return appErrors.WithDetail(appErrors.ErrValidation, "invalid payload", strings.Join(v.messages(ve), "; "))
}

// Fields returns field -> message for a validation failure, or a single "detail" entry otherwise.
func (v *Validator) Fields(err error) map[string]string {
	fields := make(map[string]string)
	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(v.trans)
		}
		return fields
	}
	fields["detail"] = err.Error()
	return fields
}

func (v *Validator) messages(ve govalidator.ValidationErrors) []string {
	out := make([]string, 0, len(ve))
	for _, fe := range ve {
		msg := fe.Translate(v.trans)
		if msg == "" {
			msg = fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
		}
		out = append(out, msg)
	}
	return out
}
