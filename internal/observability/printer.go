// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jonathan/recruiting-agent/internal/batch"
	"github.com/jonathan/recruiting-agent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out   io.Writer
	money *message.Printer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, money: message.NewPrinter(language.English)}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// writeList writes up to limit items under a heading, noting how many were left out.
func writeList(sb *strings.Builder, heading string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(heading + ":\n")
	for _, item := range items[:min(len(items), limit)] {
		fmt.Fprintf(sb, "  • %s\n", item)
	}
	if len(items) > limit {
		fmt.Fprintf(sb, "  ... and %d more\n", len(items)-limit)
	}
}

func (p *Printer) dollars(n int) string {
	return p.money.Sprintf("$%d", n)
}

func fallbackNote(sb *strings.Builder, errMsg string) {
	if errMsg != "" {
		fmt.Fprintf(sb, "⚠ default used: %s\n", errMsg)
	}
}

// PrintWorkflow outputs every stage result of a finished workflow followed by its status.
func (p *Printer) PrintWorkflow(state *types.WorkflowState) {
	if state == nil {
		return
	}
	p.PrintJobAnalysis(state.JobAnalysis)
	p.PrintSourcingStrategy(state.SourcingStrategy)
	p.PrintScreeningCriteria(state.ScreeningCriteria)
	p.PrintCompensation(state.CompensationPackage)
	p.PrintOfferLetter(state.OfferLetter)
	p.PrintValidation(state.ValidationResults)
	p.PrintSummary(state)
}

// PrintJobAnalysis outputs a human-readable summary of the parsed job.
func (p *Printer) PrintJobAnalysis(a *types.JobAnalysis) {
	if a == nil {
		return
	}

	var sb strings.Builder
	fallbackNote(&sb, a.Error)
	fmt.Fprintf(&sb, "Title:      %s\n", a.JobTitle)
	fmt.Fprintf(&sb, "Experience: %s\n", a.ExperienceLevel)
	fmt.Fprintf(&sb, "Type:       %s\n", a.EmploymentType)
	sb.WriteString("\n")
	writeList(&sb, "Required Skills", a.RequiredSkills, maxItemsToShow)
	writeList(&sb, "Nice-to-haves", a.NiceToHaveSkills, 3)
	writeList(&sb, "Responsibilities", a.Responsibilities, 3)

	p.printBox("JOB ANALYSIS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSourcingStrategy outputs the platforms and keywords chosen for sourcing.
func (p *Printer) PrintSourcingStrategy(s *types.SourcingStrategy) {
	if s == nil {
		return
	}

	var sb strings.Builder
	fallbackNote(&sb, s.Error)
	platforms := make([]string, 0, len(s.Platforms))
	for _, pl := range s.Platforms {
		if pl.Reason != "" {
			platforms = append(platforms, pl.Name+" ("+pl.Reason+")")
		} else {
			platforms = append(platforms, pl.Name)
		}
	}
	writeList(&sb, "Platforms", platforms, maxItemsToShow)
	if len(s.SearchKeywords) > 0 {
		fmt.Fprintf(&sb, "Keywords: %s\n", strings.Join(s.SearchKeywords, ", "))
	}
	if s.Timeline != "" {
		fmt.Fprintf(&sb, "Timeline: %s\n", s.Timeline)
	}

	p.printBox("SOURCING STRATEGY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintScreeningCriteria outputs the criteria and questions for screening.
func (p *Printer) PrintScreeningCriteria(c *types.ScreeningCriteria) {
	if c == nil {
		return
	}

	var sb strings.Builder
	fallbackNote(&sb, c.Error)
	writeList(&sb, "Must Have", c.MustHaveCriteria, maxItemsToShow)
	writeList(&sb, "Questions", c.ScreeningQuestions, 3)
	if c.TechnicalAssessment != "" {
		fmt.Fprintf(&sb, "Assessment: %s\n", c.TechnicalAssessment)
	}

	p.printBox("SCREENING CRITERIA", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCompensation outputs the recommended salary and benefits.
func (p *Printer) PrintCompensation(c *types.CompensationPackage) {
	if c == nil {
		return
	}

	var sb strings.Builder
	fallbackNote(&sb, c.Error)
	if r := c.RecommendedSalaryRange; r != nil {
		fmt.Fprintf(&sb, "Range:  %s - %s\n", p.dollars(r.Min), p.dollars(r.Max))
	}
	fmt.Fprintf(&sb, "Target: %s\n", p.dollars(c.TargetSalary))
	if c.EquityStructure != "" {
		fmt.Fprintf(&sb, "Equity: %s\n", c.EquityStructure)
	}
	writeList(&sb, "Benefits", c.BenefitsPackage, maxItemsToShow)

	p.printBox("COMPENSATION PACKAGE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintOfferLetter outputs the opening lines of the offer letter.
func (p *Printer) PrintOfferLetter(letter *string) {
	if letter == nil {
		return
	}

	lines := strings.Split(strings.TrimSpace(*letter), "\n")
	shown := lines[:min(len(lines), 8)]
	content := strings.Join(shown, "\n")
	if len(lines) > len(shown) {
		content += fmt.Sprintf("\n... and %d more lines", len(lines)-len(shown))
	}
	p.printBox("OFFER LETTER", content)
}

// PrintValidation outputs each validation result, sorted by key.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintValidation(results map[string]types.ValidationResult) {
	if len(results) == 0 {
		return
	}

	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		r := results[k]
		mark := "✅"
		if !r.Valid {
			mark = "❌"
		}
		fmt.Fprintf(&sb, "%s %s\n", mark, k)
		for _, e := range r.Errors {
			fmt.Fprintf(&sb, "    error: %s\n", e)
		}
		for _, w := range r.Warnings {
			fmt.Fprintf(&sb, "    warning: %s\n", w)
		}
	}

	p.printBox("VALIDATION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSummary outputs the workflow outcome, the stage trace and any errors.
func (p *Printer) PrintSummary(state *types.WorkflowState) {
	if state == nil {
		return
	}

	var sb strings.Builder
	if state.RunID != "" {
		fmt.Fprintf(&sb, "Run:     %s\n", state.RunID)
	}
	fmt.Fprintf(&sb, "Outcome: %s\n", state.Outcome())
	fmt.Fprintf(&sb, "Stages:  %d\n", len(state.Trace))
	for _, step := range state.Trace {
		fmt.Fprintf(&sb, "  → %s\n", step)
	}
	if len(state.Errors) > 0 {
		sb.WriteString("\n")
		writeList(&sb, fmt.Sprintf("Errors (%d)", len(state.Errors)), state.Errors, maxItemsToShow)
	}

	p.printBox("WORKFLOW SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCandidates outputs ranked candidates with their screening verdicts.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintCandidates(jobID string, candidates []types.Candidate) {
	if len(candidates) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "NO CANDIDATES FOUND FOR "+jobID)
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	for i, c := range candidates {
		mark := "✗"
		if c.Passed {
			mark = "✓"
		}
		fmt.Fprintf(&sb, "#%d  %s %s\n", i+1, mark, c.ID)
		fmt.Fprintf(&sb, "    Similarity: %.2f", c.SimilarityScore)
		if s := c.Screening; s != nil {
			fmt.Fprintf(&sb, "  Score: %d  %s", s.Score, s.Recommendation)
		}
		sb.WriteString("\n")
		if s := c.Screening; s != nil && len(s.Strengths) > 0 {
			fmt.Fprintf(&sb, "    Strengths: %s\n", strings.Join(s.Strengths, ", "))
		}
		if i < len(candidates)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("CANDIDATES FOR "+jobID, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBatchResults outputs one line per batch item and the totals.
func (p *Printer) PrintBatchResults(results []batch.Result) {
	if len(results) == 0 {
		return
	}

	var sb strings.Builder
	failed := 0
	for _, r := range results {
		label := batch.Label(r.Config, r.Index)
		if r.Status == batch.StatusSuccess {
			fmt.Fprintf(&sb, "✓ %s: %s\n", label, r.Result.Outcome())
			continue
		}
		failed++
		fmt.Fprintf(&sb, "✗ %s: %s\n", label, r.Error)
	}
	fmt.Fprintf(&sb, "\n%d succeeded, %d failed", len(results)-failed, failed)

	p.printBox("BATCH RESULTS", sb.String())
}
