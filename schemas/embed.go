// Package schemas embeds the JSON Schemas for stage outputs and batch files.
package schemas

import "embed"

//go:embed *.schema.json
var files embed.FS

// Schema file names.
const (
	StageOutput     = "stage_output.schema.json"
	ResumeScreening = "resume_screening.schema.json"
	JobBatch        = "job_batch.schema.json"
)

// Load returns the raw schema document with the given file name.
func Load(name string) ([]byte, error) {
	return files.ReadFile(name)
}

// Names lists every embedded schema file.
func Names() []string {
	return []string{StageOutput, ResumeScreening, JobBatch}
}
