package prayer

import (
	"errors"
	"strings"
)

var ErrUnknownMethod = errors.New("unknown calculation method")

// aladhan.com method ids keyed by the names the app stores.
var methodIDs = map[string]int{
	"Karachi":               1,
	"NorthAmerica":          2,
	"MuslimWorldLeague":     3,
	"UmmAlQura":             4,
	"Egyptian":              5,
	"Tehran":                7,
	"Kuwait":                9,
	"Qatar":                 10,
	"Singapore":             11,
	"Turkey":                13,
	"MoonsightingCommittee": 15,
	"Dubai":                 16,
}

// Methods is the option list shown on the settings page.
var Methods = []string{
	"UmmAlQura",
	"MuslimWorldLeague",
	"Egyptian",
	"Karachi",
	"Dubai",
	"Kuwait",
	"Qatar",
	"Singapore",
	"Tehran",
	"Turkey",
	"NorthAmerica",
	"MoonsightingCommittee",
}

var Madhabs = []string{"Shafi", "Hanafi"}

// Shafaqs only matter for MoonsightingCommittee.
var Shafaqs = []string{"General", "Ahmer", "Abyad"}

func MethodID(name string) (int, error) {
	id, ok := methodIDs[name]
	if !ok {
		return 0, ErrUnknownMethod
	}
	return id, nil
}

// school maps a madhab to aladhan's asr school parameter.
func school(madhab string) int {
	if strings.EqualFold(madhab, "Hanafi") {
		return 1
	}
	return 0
}
