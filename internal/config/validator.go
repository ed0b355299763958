package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

// NewTranslatedValidator returns a validator with English error messages
// that names fields after their tagKey struct tag ("json", "mapstructure").
func NewTranslatedValidator(tagKey string) (*validator.Validate, ut.Translator, error) {
	validate := validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, fmt.Errorf("failed to register default translations: %w", err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get(tagKey), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate, trans, nil
}

func newValidator() (*validator.Validate, ut.Translator, error) {
	validate, trans, err := NewTranslatedValidator("mapstructure")
	if err != nil {
		return nil, nil, err
	}
	if err := validate.RegisterValidation("snapshot", isSnapshotPathWritable); err != nil {
		return nil, nil, fmt.Errorf("failed to register snapshot validation: %w", err)
	}
	if err := validate.RegisterTranslation("snapshot", trans, func(ut ut.Translator) error {
		return ut.Add("snapshot", "{0} must be a file path inside an existing directory", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("snapshot", strings.TrimPrefix(fe.Namespace(), "Config."))
		return t
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to register snapshot translation: %w", err)
	}

	return validate, trans, nil
}

// isSnapshotPathWritable accepts a path whose parent directory exists and
// which is not itself a directory. The file may not exist yet.
func isSnapshotPathWritable(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	if path == "" {
		return false
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return false
	}

	dir, err := os.Stat(filepath.Dir(path))
	if err != nil {
		return false
	}
	if !dir.IsDir() {
		return false
	}

	// Check if the owner has write permission
	return dir.Mode().Perm()&(1<<(uint(7))) != 0
}
