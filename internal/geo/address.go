package geo

import "regexp"

// The splitter is heuristic by design: it targets the formats the Places
// API returns for US addresses ("123 Main St, Springfield, IL 62704, USA").
// Anything that doesn't match is treated as a bare street line.
var (
	countrySuffixRe = regexp.MustCompile(`, (USA|United States)$`)
	stateZipRe      = regexp.MustCompile(`, ([A-Z]{2}) ([0-9-]*)$`)
	cityStateZipRe  = regexp.MustCompile(`, (.*), ([A-Z]{2}) ([0-9-]*)$`)
)

// AddressParts is the decomposition of a formatted address.
type AddressParts struct {
	// Line is the street line with city, state and zip stripped.
	Line string
	// Confirm keeps the city but drops state and zip; it is what the rider
	// sees in the confirmation prompt.
	Confirm string
	City    string
	State   string
	Zip     string
}

// SplitFormatted decomposes a Places-style formatted address. The trailing
// country is dropped first, then ", ST ZIP" isolates the confirmation text,
// then ", City, ST ZIP" isolates the street line and city.
func SplitFormatted(formatted string) AddressParts {
	f := countrySuffixRe.ReplaceAllString(formatted, "")
	parts := AddressParts{Line: f, Confirm: f}

	if loc := stateZipRe.FindStringSubmatchIndex(f); loc != nil {
		parts.Confirm = f[:loc[0]]
		parts.Line = f[:loc[0]]
		parts.State = f[loc[2]:loc[3]]
		parts.Zip = f[loc[4]:loc[5]]
	}
	if loc := cityStateZipRe.FindStringSubmatchIndex(f); loc != nil {
		parts.Line = f[:loc[0]]
		parts.City = f[loc[2]:loc[3]]
		parts.State = f[loc[4]:loc[5]]
		parts.Zip = f[loc[6]:loc[7]]
	}
	return parts
}
