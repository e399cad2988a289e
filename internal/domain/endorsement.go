package domain

import "strings"

// Endorsement is a certification credential a teacher may hold. The
// vocabulary is fixed, drawn from spec.md's enumerated list; "*" suffixed
// families (Social-Science-*, World-Language-*, Science-*, Art-*) are
// represented as a family prefix plus a free-form specialty suffix, e.g.
// "science-biology".
type Endorsement string

const (
	English       Endorsement = "english"
	Math          Endorsement = "math"
	CTE           Endorsement = "cte"
	ROTC          Endorsement = "rotc"
	PhysEd        Endorsement = "phys-ed"
	SpecialEdLBS1 Endorsement = "lbs1"
)

// Family prefixes for the endorsement groups that fan out into
// specialties (e.g. "social-science-us-history", "world-language-spanish",
// "science-chemistry", "art-ceramics").
const (
	SocialScienceFamily Endorsement = "social-science"
	WorldLanguageFamily Endorsement = "world-language"
	ScienceFamily       Endorsement = "science"
	ArtFamily           Endorsement = "art"
)

// Department is the coarse grouping of endorsements. IEP services
// (inclusion, separate-class) are expressed per department rather than
// per endorsement or per course, per the spec's canonical model.
type Department string

const (
	DeptEnglish       Department = "english"
	DeptMath          Department = "math"
	DeptSocialScience Department = "social-science"
	DeptWorldLanguage Department = "world-language"
	DeptScience       Department = "science"
	DeptCTE           Department = "cte"
	DeptROTC          Department = "rotc"
	DeptArt           Department = "art"
	DeptPhysEd        Department = "phys-ed"
	DeptSpecialEd     Department = "special-ed"
	DeptNone          Department = ""
)

// DepartmentOf derives the coarse department from a required
// endorsement, resolving family-prefixed specialties to their family.
func DepartmentOf(e Endorsement) Department {
	s := string(e)
	switch {
	case e == English:
		return DeptEnglish
	case e == Math:
		return DeptMath
	case e == CTE:
		return DeptCTE
	case e == ROTC:
		return DeptROTC
	case e == PhysEd:
		return DeptPhysEd
	case e == SpecialEdLBS1:
		return DeptSpecialEd
	case strings.HasPrefix(s, string(SocialScienceFamily)):
		return DeptSocialScience
	case strings.HasPrefix(s, string(WorldLanguageFamily)):
		return DeptWorldLanguage
	case strings.HasPrefix(s, string(ScienceFamily)):
		return DeptScience
	case strings.HasPrefix(s, string(ArtFamily)):
		return DeptArt
	default:
		return DeptNone
	}
}

// HasCert reports whether certs contains e.
func HasCert(certs []Endorsement, e Endorsement) bool {
	for _, c := range certs {
		if c == e {
			return true
		}
	}
	return false
}

// HasLBS1 reports whether certs includes the special-education
// endorsement that authorizes inclusion co-teaching and separate-class
// primary teaching.
func HasLBS1(certs []Endorsement) bool {
	return HasCert(certs, SpecialEdLBS1)
}
