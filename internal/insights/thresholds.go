package insights

// Thresholds are the tunable gates of the built-in catalog.
type Thresholds struct {
	AgeDays         int     `json:"ageDays" mapstructure:"ageDays"`
	AgedShare       float64 `json:"agedShare" mapstructure:"agedShare"`
	CriticalAgeDays int     `json:"criticalAgeDays" mapstructure:"criticalAgeDays"`
	StaleDays       int     `json:"staleDays" mapstructure:"staleDays"`
	StaleShare      float64 `json:"staleShare" mapstructure:"staleShare"`

	FlowDays       int     `json:"flowDays" mapstructure:"flowDays"`
	RunwayDays     float64 `json:"runwayDays" mapstructure:"runwayDays"`
	AccelPerDay    float64 `json:"accelPerDay" mapstructure:"accelPerDay"`
	SlowResolution float64 `json:"slowResolutionDays" mapstructure:"slowResolutionDays"`

	BottleneckShare float64 `json:"bottleneckShare" mapstructure:"bottleneckShare"`
	TriageShare     float64 `json:"triageShare" mapstructure:"triageShare"`
	InflationShare  float64 `json:"inflationShare" mapstructure:"inflationShare"`
	MissingShare    float64 `json:"missingShare" mapstructure:"missingShare"`

	DuplicateShare      float64 `json:"duplicateShare" mapstructure:"duplicateShare"`
	SimilarShare        float64 `json:"similarShare" mapstructure:"similarShare"`
	SimilarityThreshold float64 `json:"similarityThreshold" mapstructure:"similarityThreshold"`
	MinSharedTokens     int     `json:"minSharedTokens" mapstructure:"minSharedTokens"`
	MaxSimilarIssues    int     `json:"maxSimilarIssues" mapstructure:"maxSimilarIssues"`

	TopicShare float64 `json:"topicShare" mapstructure:"topicShare"`
	TopicMin   int     `json:"topicMin" mapstructure:"topicMin"`

	OwnerActiveShare float64 `json:"ownerActiveShare" mapstructure:"ownerActiveShare"`
	OwnerActiveMin   int     `json:"ownerActiveMin" mapstructure:"ownerActiveMin"`
	OwnerAgedShare   float64 `json:"ownerAgedShare" mapstructure:"ownerAgedShare"`
	OwnerAgedMin     int     `json:"ownerAgedMin" mapstructure:"ownerAgedMin"`

	HealthRisk float64 `json:"healthRisk" mapstructure:"healthRisk"`
}

// DefaultThresholds returns the shipped gates.
func DefaultThresholds() Thresholds {
	return Thresholds{
		AgeDays:         30,
		AgedShare:       0.25,
		CriticalAgeDays: 14,
		StaleDays:       14,
		StaleShare:      0.20,

		FlowDays:       14,
		RunwayDays:     120,
		AccelPerDay:    0.3,
		SlowResolution: 14,

		BottleneckShare: 0.30,
		TriageShare:     0.35,
		InflationShare:  0.35,
		MissingShare:    0.18,

		DuplicateShare:      0.12,
		SimilarShare:        0.10,
		SimilarityThreshold: 0.55,
		MinSharedTokens:     3,
		MaxSimilarIssues:    400,

		TopicShare: 0.25,
		TopicMin:   3,

		OwnerActiveShare: 0.40,
		OwnerActiveMin:   4,
		OwnerAgedShare:   0.35,
		OwnerAgedMin:     2,

		HealthRisk: 40,
	}
}
