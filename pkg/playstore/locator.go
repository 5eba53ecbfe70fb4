package playstore

import (
	"net/url"
	"strings"

	errs "playreviews/pkg/errors"
)

// StoreHost is the host of Google Play listing pages
const StoreHost = "play.google.com"

// ExtractAppID returns the package identifier from a store listing URL.
// The id query parameter is used when the locator parses as a URL. Otherwise
// the value is whatever follows the last "id=" up to the next "&", trimmed.
func ExtractAppID(locator string) (string, error) {
	if u, err := url.Parse(strings.TrimSpace(locator)); err == nil {
		if id := strings.TrimSpace(u.Query().Get("id")); id != "" {
			return id, nil
		}
	}

	idx := strings.LastIndex(locator, "id=")
	if idx < 0 {
		return "", errs.Input("locator %q has no id= parameter", locator)
	}

	value := locator[idx+len("id="):]
	if amp := strings.IndexByte(value, '&'); amp >= 0 {
		value = value[:amp]
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errs.Input("locator %q has an empty id= parameter", locator)
	}

	return value, nil
}

// IsStoreURL reports whether locator points at Google Play
func IsStoreURL(locator string) bool {
	return strings.Contains(strings.ToLower(locator), StoreHost)
}

// ListingURL builds the public listing URL for an app
func ListingURL(appID, language string) string {
	u := "https://" + StoreHost + "/store/apps/details?id=" + appID
	if language != "" {
		u += "&hl=" + language
	}
	return u
}
