package rules

import "net/url"

// NormalizeFeatureURL strips the query string and fragment from a feature
// URL. It is the single normalization step of the system, applied once at
// each HTTP boundary before the identifier reaches the catalog.
func NormalizeFeatureURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}
