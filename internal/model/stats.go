package model

import "time"

// Stats is the serving/feedback volume summary for the research console
type Stats struct {
	TotalFeedbacks int64     `json:"total_feedbacks"`
	RuleServed     int64     `json:"rule_served"`
	LTRServed      int64     `json:"ltr_served"`
	TodayFeedbacks int64     `json:"today_feedbacks"`
	AsOf           time.Time `json:"as_of"`
	Timezone       string    `json:"timezone"`
}

// ProviderStanding is one row of the provider preference leaderboard
type ProviderStanding struct {
	Provider string `json:"provider"`
	Wins     int64  `json:"wins"`
	Rank     int    `json:"rank"`
}
