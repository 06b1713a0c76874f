package customizer

import (
	"strings"

	"storefront-customizer/internal/domain/layout"
)

var messages = map[string]map[layout.Code]string{
	"en": {
		layout.CodeUnauthorized:       "You are not signed in to this store.",
		layout.CodeNotFound:           "The requested item was not found.",
		layout.CodeLocked:             "This item is locked and cannot be changed.",
		layout.CodeValidation:         "Some of the submitted values are invalid.",
		layout.CodePersistence:        "We could not save your changes. Please try again.",
		layout.CodeUpload:             "Publishing failed. Your page was not changed.",
		layout.CodeConsistencyWarning: "The page was published, but some follow-up steps did not complete.",
	},
	"he": {
		layout.CodeUnauthorized:       "אינך מחובר לחנות זו.",
		layout.CodeNotFound:           "הפריט המבוקש לא נמצא.",
		layout.CodeLocked:             "הפריט נעול ולא ניתן לשנות אותו.",
		layout.CodeValidation:         "חלק מהערכים שנשלחו אינם תקינים.",
		layout.CodePersistence:        "לא הצלחנו לשמור את השינויים. נסה שוב.",
		layout.CodeUpload:             "הפרסום נכשל. העמוד לא השתנה.",
		layout.CodeConsistencyWarning: "העמוד פורסם, אך חלק מהשלבים הנלווים לא הושלמו.",
	},
}

// Message returns the user-facing text for code in lang, falling back to English.
func Message(code layout.Code, lang string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	return messages["en"][code]
}

// LanguageFromHeader picks a supported language from an Accept-Language value.
func LanguageFromHeader(h string) string {
	for _, part := range strings.Split(h, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		base := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if base == "iw" {
			base = "he"
		}
		if _, ok := messages[base]; ok {
			return base
		}
	}
	return "en"
}
