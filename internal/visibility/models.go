package visibility

import (
	"viewergate/internal/biometric"
)

// BlurLevel is how strongly a preview image is obscured.
type BlurLevel string

const (
	BlurNone   BlurLevel = "none"
	BlurLight  BlurLevel = "light"
	BlurMedium BlurLevel = "medium"
	BlurHeavy  BlurLevel = "heavy"
)

// ActionVariant selects what the action button on a card or detail page does.
type ActionVariant string

const (
	// ActionHidden means no action button is rendered at all.
	ActionHidden        ActionVariant = "hidden"
	ActionLoginRequired ActionVariant = "loginRequired"
	ActionVerifyPending ActionVariant = "verifyPending"
	ActionOpenLink      ActionVariant = "openLink"
)

// Surface is where a decision is rendered. Detail covers are larger than grid
// thumbnails and get a heavier blur in the intermediate tiers.
type Surface int

const (
	SurfaceGrid Surface = iota
	SurfaceDetail
)

func (s Surface) String() string {
	if s == SurfaceDetail {
		return "detail"
	}
	return "grid"
}

// Decision is the visibility tier applied to one subject for one viewer. The
// preview image uses Blur and ShowLock; the action button uses Action.
type Decision struct {
	Blur     BlurLevel     `json:"blur_level"`
	ShowLock bool          `json:"show_lock"`
	Action   ActionVariant `json:"action_variant"`
}

// Restrictive is the decision for viewers whose state is missing or invalid.
var Restrictive = Decision{Blur: BlurHeavy, ShowLock: true, Action: ActionLoginRequired}

// Subject is what the viewer is looking at.
type Subject struct {
	// Names are compared against the viewer's own names for exclusion.
	Names []string
	// GenderSensitive marks subjects to which the restricted-gender policy applies.
	GenderSensitive bool
}

// Policy configures which detected genders get the restricted tier and
// competitor exclusion.
type Policy struct {
	RestrictedGenders []biometric.Gender
}

// DefaultPolicy restricts verified female viewers.
func DefaultPolicy() Policy {
	return Policy{RestrictedGenders: []biometric.Gender{biometric.GenderFemale}}
}

// PolicyFromStrings builds a policy from configuration values, ignoring
// anything that is not a known gender.
func PolicyFromStrings(genders []string) Policy {
	p := Policy{}
	for _, g := range genders {
		if parsed := biometric.ParseGender(g); parsed.IsKnown() {
			p.RestrictedGenders = append(p.RestrictedGenders, parsed)
		}
	}
	return p
}

func (p Policy) restricts(g biometric.Gender) bool {
	for _, r := range p.RestrictedGenders {
		if r == g {
			return true
		}
	}
	return false
}
