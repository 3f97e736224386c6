package types

// JobAnalysis is the structured result of the job parser stage
type JobAnalysis struct {
	JobTitle         string   `json:"job_title"`
	ExperienceLevel  string   `json:"experience_level"`
	EmploymentType   string   `json:"employment_type"`
	RequiredSkills   []string `json:"required_skills"`
	NiceToHaveSkills []string `json:"nice_to_have_skills"`
	Responsibilities []string `json:"responsibilities"`
	Qualifications   []string `json:"qualifications"`
	Error            string   `json:"error,omitempty"`
}

// DefaultJobAnalysis returns the fallback payload of the job parser.
func DefaultJobAnalysis() *JobAnalysis {
	return &JobAnalysis{
		JobTitle:         "Software Engineer",
		ExperienceLevel:  "3+ years",
		EmploymentType:   "Full-time",
		RequiredSkills:   []string{"Python"},
		NiceToHaveSkills: []string{"AWS"},
		Responsibilities: []string{"Develop software"},
		Qualifications:   []string{"Bachelor's degree"},
		Error:            FallbackMarker,
	}
}

// Platform is a sourcing channel with the reason it was chosen
type Platform struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// SourcingStrategy is the structured result of the sourcing stage
type SourcingStrategy struct {
	Platforms        []Platform `json:"platforms"`
	SearchKeywords   []string   `json:"search_keywords"`
	SourcingChannels []string   `json:"sourcing_channels"`
	OutreachStrategy string     `json:"outreach_strategy"`
	Timeline         string     `json:"timeline"`
	Error            string     `json:"error,omitempty"`
}

// DefaultSourcingStrategy returns the fallback payload of the sourcing stage.
func DefaultSourcingStrategy() *SourcingStrategy {
	return &SourcingStrategy{
		Platforms:        []Platform{{Name: "LinkedIn", Reason: "Professional network"}},
		SearchKeywords:   []string{"Python Developer"},
		SourcingChannels: []string{"Job boards"},
		OutreachStrategy: "Direct outreach",
		Timeline:         "2-4 weeks",
		Error:            FallbackMarker,
	}
}

// ScreeningCriteria is the structured result of the screening stage
type ScreeningCriteria struct {
	MustHaveCriteria    []string `json:"must_have_criteria"`
	NiceToHaveCriteria  []string `json:"nice_to_have_criteria"`
	ScreeningQuestions  []string `json:"screening_questions"`
	TechnicalAssessment string   `json:"technical_assessment"`
	EvaluationRubric    string   `json:"evaluation_rubric"`
	Error               string   `json:"error,omitempty"`
}

// DefaultScreeningCriteria returns the fallback payload of the screening stage.
func DefaultScreeningCriteria() *ScreeningCriteria {
	return &ScreeningCriteria{
		MustHaveCriteria:    []string{"Relevant experience"},
		NiceToHaveCriteria:  []string{"Advanced skills"},
		ScreeningQuestions:  []string{"Tell me about your experience"},
		TechnicalAssessment: "Coding challenge",
		EvaluationRubric:    "Standard evaluation",
		Error:               FallbackMarker,
	}
}

// SalaryRange is an inclusive salary band
type SalaryRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// CompensationPackage is the structured result of the compensation stage
type CompensationPackage struct {
	MarketAnalysis         string       `json:"market_analysis"`
	RecommendedSalaryRange *SalaryRange `json:"recommended_salary_range,omitempty"`
	TargetSalary           int          `json:"target_salary"`
	BenefitsPackage        []string     `json:"benefits_package"`
	EquityStructure        string       `json:"equity_structure"`
	Justification          string       `json:"justification"`
	Error                  string       `json:"error,omitempty"`
}

// DefaultCompensationPackage returns the fallback payload of the compensation stage.
// The range and target are derived from the budget bounds.
func DefaultCompensationPackage(floor, ceiling int) *CompensationPackage {
	return &CompensationPackage{
		MarketAnalysis:         "Competitive market",
		RecommendedSalaryRange: &SalaryRange{Min: floor, Max: ceiling},
		TargetSalary:           (floor + ceiling) / 2,
		BenefitsPackage:        []string{"Health insurance", "PTO"},
		EquityStructure:        "Standard equity",
		Justification:          "Market competitive",
		Error:                  FallbackMarker,
	}
}

// OfferLetterFallback is the offer letter text recorded when generation fails.
func OfferLetterFallback(cause string) string {
	return "Error generating offer letter: " + cause
}
