// Package i18n holds the user-facing message catalog and locale matching.
// English and Bengali are supported; anything else falls back to English.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	English = "en"
	Bengali = "bn"
)

var (
	supported = []language.Tag{language.English, language.Bengali}
	matcher   = language.NewMatcher(supported)
	messages  = catalog.NewBuilder(catalog.Fallback(language.English))
)

var entries = map[string][2]string{
	"unauthorized":       {"Authentication is required.", "প্রমাণীকরণ প্রয়োজন।"},
	"forbidden":          {"You are not allowed to perform this action.", "এই কাজটি করার অনুমতি আপনার নেই।"},
	"not_found":          {"The requested resource was not found.", "অনুরোধকৃত তথ্য পাওয়া যায়নি।"},
	"conflict":           {"The resource was changed by someone else.", "তথ্যটি অন্য কেউ পরিবর্তন করেছে।"},
	"duplicate_identity": {"This account is already registered.", "এই অ্যাকাউন্টটি ইতিমধ্যে নিবন্ধিত।"},
	"not_pending":        {"This request is no longer pending.", "এই অনুরোধটি আর অপেক্ষমাণ নয়।"},
	"duplicate_payment":  {"This payment has already been recorded.", "এই পেমেন্টটি ইতিমধ্যে লিপিবদ্ধ হয়েছে।"},
	"invalid_input":      {"The request is invalid.", "অনুরোধটি সঠিক নয়।"},
	"invalid_amount":     {"The amount must be greater than zero.", "পরিমাণ শূন্যের বেশি হতে হবে।"},
	"rate_limited":       {"Too many requests. Please slow down.", "অনেক বেশি অনুরোধ। একটু পরে চেষ্টা করুন।"},
	"unavailable":        {"The service is temporarily unavailable.", "সেবাটি সাময়িকভাবে অনুপলব্ধ।"},
	"payment_failed":     {"The payment processor rejected the request.", "পেমেন্ট প্রসেসর অনুরোধটি গ্রহণ করেনি।"},
	"internal":           {"Something went wrong.", "কিছু একটা ভুল হয়েছে।"},
}

func init() {
	for key, text := range entries {
		_ = messages.SetString(language.English, key, text[0])
		_ = messages.SetString(language.Bengali, key, text[1])
	}
}

// Message returns the localized text for key. Unknown keys are returned as is.
func Message(locale, key string) string {
	return message.NewPrinter(tag(locale), message.Catalog(messages)).Sprintf(key)
}

// Normalize maps a locale hint such as "bn-BD" or "EN" to a supported locale.
// It returns "" when the hint is empty or unparseable.
func Normalize(hint string) string {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return ""
	}
	t, err := language.Parse(hint)
	if err != nil {
		return ""
	}
	return match(t)
}

// MatchAcceptLanguage picks the best supported locale for an Accept-Language
// header, or "" when the header carries no usable tags.
func MatchAcceptLanguage(header string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	return match(tags...)
}

// ForCountry returns the locale implied by an ISO country code.
func ForCountry(country string) string {
	if strings.EqualFold(country, "BD") {
		return Bengali
	}
	return English
}

func match(tags ...language.Tag) string {
	_, idx, _ := matcher.Match(tags...)
	base, _ := supported[idx].Base()
	return base.String()
}

func tag(locale string) language.Tag {
	if locale == Bengali {
		return language.Bengali
	}
	return language.English
}
