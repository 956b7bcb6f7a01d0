package screen

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/devicelab-dev/pageflow/pkg/core"
)

// CountryName returns the English name of an ISO 3166 region code,
// e.g. "AF" -> "Afghanistan".
func CountryName(region string) (string, error) {
	r, err := language.ParseRegion(strings.TrimSpace(region))
	if err != nil || !r.IsCountry() {
		return "", core.ErrInvalidConfig.WithMessage("unknown country code " + region).WithCause(err)
	}
	return display.English.Regions().Name(r), nil
}

// countryLabel is how the country picker lists an entry.
func countryLabel(name, areaCode string) string {
	return name + " (" + areaCode + ")"
}
