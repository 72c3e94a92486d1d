package page

// SlotKind tags the widget placed in the aside or cover position of a page.
type SlotKind int

const (
	SlotNone SlotKind = iota
	SlotEngagementActions
	SlotSocialShare
	SlotHeroCover
)

func (k SlotKind) String() string {
	switch k {
	case SlotEngagementActions:
		return "engagement_actions"
	case SlotSocialShare:
		return "social_share"
	case SlotHeroCover:
		return "hero_cover"
	default:
		return "none"
	}
}

// Slot is a widget position. TweetRef is only set for SlotEngagementActions.
type Slot struct {
	Kind     SlotKind
	TweetRef string
}

// EngagementActions is the author actions widget tied to a tweet.
func EngagementActions(tweetRef string) Slot {
	return Slot{Kind: SlotEngagementActions, TweetRef: tweetRef}
}

// SocialShare is the generic share widget.
func SocialShare() Slot { return Slot{Kind: SlotSocialShare} }

// HeroCover is the hero header.
func HeroCover() Slot { return Slot{Kind: SlotHeroCover} }

// Empty reports whether nothing is shown in the slot.
func (s Slot) Empty() bool { return s.Kind == SlotNone }
