package broker

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// CountryName returns the English display name for a broker region code.
// The broker lists the United Kingdom as "uk"; it is shown as GB without
// changing the code passed back to the broker.
func CountryName(code string) string {
	c := strings.ToUpper(code)
	if c == "UK" {
		c = "GB"
	}

	region, err := language.ParseRegion(c)
	if err != nil {
		return "unknown"
	}

	name := display.English.Regions().Name(region)
	if name == "" {
		return "unknown"
	}
	return name
}
