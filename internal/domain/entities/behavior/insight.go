package behavior

import "time"

// Intervention is a proactive action the experience layer should take right
// now for this user.
type Intervention struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Urgency string `json:"urgency"`
}

// PersonalizationInsight is the full adaptation bundle for one resolved
// profile: what to show, how to say it, and what to do next. Every field is
// derived by total lookups, so a bundle exists for any resolvable state.
type PersonalizationInsight struct {
	UserID       string       `json:"userId"`
	SessionID    string       `json:"sessionId"`
	GeneratedAt  time.Time    `json:"generatedAt"`
	PrimaryState State        `json:"primaryState"`
	JourneyStage JourneyStage `json:"journeyStage"`

	ProductFocus          []string        `json:"productFocus"`
	UIAdaptations         map[string]bool `json:"uiAdaptations"`
	CommunicationTone     string          `json:"communicationTone"`
	InteractionStyle      string          `json:"interactionStyle"`
	PriorityInformation   []string        `json:"priorityInformation"`
	MicroAdaptations      []string        `json:"microAdaptations"`
	PredictiveSuggestions []string        `json:"predictiveSuggestions"`
	JourneyGuidance       string          `json:"journeyGuidance"`
	ContextualMessage     string          `json:"contextualMessage"`
	PricingPsychology     string          `json:"pricingPsychology"`
	Interventions         []Intervention  `json:"interventions"`
	NextActions           []string        `json:"nextActions"`
}
