package stages

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Offer letter prompt defaults used when upstream outputs are missing.
const (
	DefaultOfferTitle    = "Software Engineer"
	DefaultOfferSalary   = 100000
	DefaultOfferBenefits = "Competitive benefits package"
)

var moneyPrinter = message.NewPrinter(language.English)

// formatMoney renders n with thousands separators.
func formatMoney(n int) string {
	return moneyPrinter.Sprintf("%d", n)
}

func joinList(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, ", ")
}

// analysisData returns the prompt fields derived from the job analysis.
func analysisData(in Input) map[string]string {
	data := map[string]string{
		"JobDescription":  in.JobDescription,
		"JobTitle":        "N/A",
		"RequiredSkills":  "N/A",
		"ExperienceLevel": "N/A",
	}
	if a := in.JobAnalysis; a != nil {
		if a.JobTitle != "" {
			data["JobTitle"] = a.JobTitle
		}
		data["RequiredSkills"] = joinList(a.RequiredSkills, "N/A")
		if a.ExperienceLevel != "" {
			data["ExperienceLevel"] = a.ExperienceLevel
		}
	}
	return data
}
