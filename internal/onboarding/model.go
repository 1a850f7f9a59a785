// Package onboarding tracks which one-time notices a user has dismissed.
package onboarding

import "time"

// StepTypeOneTimeNotice is the only step type clients currently render.
const StepTypeOneTimeNotice = "one_time_notice"

// OneTimeNotices lists the notices in the order they are offered.
var OneTimeNotices = []string{
	"visibility_policy_banner",
	"intro_inbox_view_modal",
	"intro_recent_view_modal",
	"first_stream_created_banner",
	"jump_to_conversation_banner",
	"non_interleaved_view_messages_fading",
	"interleaved_view_messages_fading",
}

// Step is an onboarding step still to be shown.
type Step struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// SeenStep records that a user dismissed a step.
type SeenStep struct {
	UserID int64     `json:"userId"`
	Step   string    `json:"step"`
	SeenAt time.Time `json:"seenAt"`
}

func isKnownNotice(name string) bool {
	for _, n := range OneTimeNotices {
		if n == name {
			return true
		}
	}
	return false
}
