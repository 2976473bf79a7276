package code

import (
	"errors"
	"fmt"
	"reflect"
)

// lang stores the localized variants of a code message.
type lang struct {
	en    string
	zh_cn string
}

// Default language is English.
var lng = "en"

const FALLBACK_LNG = "en"

// GetMessage returns the message for the configured global language,
// falling back to English when the field is empty.
func (l lang) GetMessage() string {
	if lng == "" {
		lng = FALLBACK_LNG
	}
	val := reflect.ValueOf(l)
	field := val.FieldByName(lng)
	if field.IsValid() && field.String() != "" {
		return field.String()
	}
	fallbackField := val.FieldByName(FALLBACK_LNG)
	if fallbackField.IsValid() && fallbackField.String() != "" {
		return fallbackField.String()
	}
	return fmt.Sprintf("No message available for language: %s", lng)
}

// GetSupportedLanguages returns the field names of the lang type.
func GetSupportedLanguages() []string {
	var languages []string
	typ := reflect.TypeOf(lang{})
	for i := 0; i < typ.NumField(); i++ {
		languages = append(languages, typ.Field(i).Name)
	}
	return languages
}

// SetGlobalDefaultLang sets the global message language.
func SetGlobalDefaultLang(language string) error {
	for _, l := range GetSupportedLanguages() {
		if language == l {
			lng = language
			return nil
		}
	}
	lng = FALLBACK_LNG
	return errors.New("unsupported language type, set defaulting to " + FALLBACK_LNG)
}

// GetGlobalDefaultLang gets the global message language.
func GetGlobalDefaultLang() string {
	return lng
}
