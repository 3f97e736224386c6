package types

import "time"

// Recommendation is the hiring verdict of a resume screening
type Recommendation string

// Recommendation values accepted from the resume screener.
const (
	RecommendationHire   Recommendation = "HIRE"
	RecommendationMaybe  Recommendation = "MAYBE"
	RecommendationReject Recommendation = "REJECT"
)

// Valid reports whether r is one of the known verdicts.
func (r Recommendation) Valid() bool {
	switch r {
	case RecommendationHire, RecommendationMaybe, RecommendationReject:
		return true
	}
	return false
}

// ResumeScreening is the structured result of screening one resume against a job
type ResumeScreening struct {
	Score          int            `json:"score"`
	Strengths      []string       `json:"strengths"`
	Weaknesses     []string       `json:"weaknesses"`
	Recommendation Recommendation `json:"recommendation"`
	Reasoning      string         `json:"reasoning"`
}

// DocumentMetadata describes an ingested resume or job description
type DocumentMetadata struct {
	Filename   string            `json:"filename,omitempty"`
	UploadedAt time.Time         `json:"uploaded_at"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Candidate is a resume retrieved for a job, optionally enriched with its screening
type Candidate struct {
	ID              string           `json:"id"`
	ResumeText      string           `json:"resume_text"`
	Metadata        DocumentMetadata `json:"metadata"`
	SimilarityScore float64          `json:"similarity_score"`
	Screening       *ResumeScreening `json:"screening,omitempty"`
	Passed          bool             `json:"passed"`
}
