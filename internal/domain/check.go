package domain

// Check identifies one of the fixed quality checks an ad goes through.
// The set is closed: nine visual checks, four content checks and two
// visual/content congruence checks.
type Check string

const (
	CheckV1 Check = "V1"
	CheckV2 Check = "V2"
	CheckV3 Check = "V3"
	CheckV4 Check = "V4"
	CheckV5 Check = "V5"
	CheckV6 Check = "V6"
	CheckV7 Check = "V7"
	CheckV8 Check = "V8"
	CheckV9 Check = "V9"
	CheckC1 Check = "C1"
	CheckC2 Check = "C2"
	CheckC3 Check = "C3"
	CheckC4 Check = "C4"
	CheckG1 Check = "G1"
	CheckG2 Check = "G2"
)

type CheckGroup string

const (
	CheckGroupVisual     CheckGroup = "visual"
	CheckGroupContent    CheckGroup = "content"
	CheckGroupCongruence CheckGroup = "congruence"
)

// AllChecks is the canonical ordering used everywhere a full check set is
// iterated or validated.
var AllChecks = []Check{
	CheckV1, CheckV2, CheckV3, CheckV4, CheckV5, CheckV6, CheckV7, CheckV8, CheckV9,
	CheckC1, CheckC2, CheckC3, CheckC4,
	CheckG1, CheckG2,
}

var validChecks = func() map[Check]bool {
	m := make(map[Check]bool, len(AllChecks))
	for _, c := range AllChecks {
		m[c] = true
	}
	return m
}()

func (c Check) Valid() bool {
	return validChecks[c]
}

func (c Check) Group() CheckGroup {
	switch {
	case len(c) == 0:
		return ""
	case c[0] == 'V':
		return CheckGroupVisual
	case c[0] == 'C':
		return CheckGroupContent
	default:
		return CheckGroupCongruence
	}
}
