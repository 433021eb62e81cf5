// Package services holds the job entry points shared by the binaries: request
// decoding and validation, and the {success, message, results} response.
package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/fleet-telemetry/constants"
	"github.com/joseph-ayodele/fleet-telemetry/internal/common"
	"github.com/joseph-ayodele/fleet-telemetry/internal/pipeline"
)

// ProcessRequest starts a batch job over a source folder.
type ProcessRequest struct {
	SourceFolder string `json:"sourceFolder"`
	OutputFolder string `json:"outputFolder,omitempty"`
	BatchSize    int    `json:"batchSize,omitempty"`
	ChunkSize    int    `json:"chunkSize,omitempty"`
	KeepSources  bool   `json:"keepSources,omitempty"`
}

// Response is what every job returns to its caller.
type Response struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Results []string `json:"results,omitempty"`
}

const MsgCompleted = "Processing completed successfully"

// FolderAliases names the folder fields an endpoint also accepts in place of
// sourceFolder and outputFolder. The web UI posts these names.
type FolderAliases struct {
	Source string
	Output string
}

var (
	// PDFAliases: {pdfFolder, excelFolder}.
	PDFAliases = FolderAliases{Source: "pdfFolder", Output: "excelFolder"}
	// ImportAliases: {excelFolder}.
	ImportAliases = FolderAliases{Source: "excelFolder"}
)

func (a FolderAliases) schema() map[string]any {
	props := map[string]any{
		"sourceFolder": map[string]any{"type": "string", "minLength": 1},
		"outputFolder": map[string]any{"type": "string"},
		"batchSize":    map[string]any{"type": "integer", "minimum": 0},
		"chunkSize":    map[string]any{"type": "integer", "minimum": 0},
		"keepSources":  map[string]any{"type": "boolean"},
	}
	anyOf := []any{map[string]any{"required": []any{"sourceFolder"}}}
	if a.Source != "" {
		props[a.Source] = map[string]any{"type": "string", "minLength": 1}
		anyOf = append(anyOf, map[string]any{"required": []any{a.Source}})
	}
	if a.Output != "" {
		props[a.Output] = map[string]any{"type": "string"}
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"anyOf":                anyOf,
		"properties":           props,
	}
}

// DecodeProcessRequest validates raw JSON against the request schema before
// decoding it. Alias fields fill sourceFolder and outputFolder when those are
// absent.
func DecodeProcessRequest(data []byte, aliases FolderAliases) (ProcessRequest, error) {
	var req ProcessRequest
	if err := common.ValidateJSONAgainstSchema(aliases.schema(), data); err != nil {
		return req, common.NewAppError("INVALID_REQUEST", "request does not match schema", fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, common.NewAppError("INVALID_REQUEST", "request is not valid JSON", fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return req, common.NewAppError("INVALID_REQUEST", "request is not valid JSON", fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
	}
	if req.SourceFolder == "" && aliases.Source != "" {
		req.SourceFolder, _ = fields[aliases.Source].(string)
	}
	if req.OutputFolder == "" && aliases.Output != "" {
		req.OutputFolder, _ = fields[aliases.Output].(string)
	}
	req.SourceFolder = strings.TrimSpace(req.SourceFolder)
	req.OutputFolder = strings.TrimSpace(req.OutputFolder)
	return req, nil
}

// Validate checks the fields every job needs. When needOutput is set the
// output folder is mandatory and must differ from the source folder.
func (r ProcessRequest) Validate(needOutput bool) error {
	v := common.NewValidator().
		Field("sourceFolder", r.SourceFolder, common.Required).
		Field("batchSize", r.BatchSize, common.NonNegative).
		Field("chunkSize", r.ChunkSize, common.NonNegative)
	if needOutput {
		v.Field("outputFolder", r.OutputFolder, common.Required).
			Check(!common.SamePath(r.SourceFolder, r.OutputFolder), "outputFolder", r.OutputFolder, "must differ from sourceFolder")
	}
	return v.Error()
}

// Defaults fills the sizing a request leaves unset.
type Defaults struct {
	BatchSize    int
	ChunkSize    int
	MinWorkers   int
	WriteWorkers int
}

// PipelineConfig maps a request onto a pipeline run over files with exts.
func (d Defaults) PipelineConfig(r ProcessRequest, exts map[string]struct{}, recursive bool) pipeline.Config {
	return pipeline.Config{
		SourceDir:    r.SourceFolder,
		OutputDir:    r.OutputFolder,
		Extensions:   exts,
		Recursive:    recursive,
		KeepSources:  r.KeepSources,
		BatchSize:    orDefault(r.BatchSize, d.BatchSize),
		ChunkSize:    orDefault(r.ChunkSize, d.ChunkSize),
		MinWorkers:   d.MinWorkers,
		WriteWorkers: d.WriteWorkers,
	}
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// Rejected is the response and summary for a request that failed validation.
func Rejected(kind string, err error) (Response, pipeline.Summary) {
	sum := pipeline.Summary{Status: constants.JobStatusFailed, Message: err.Error()}
	return PipelineResponse(kind, sum, err), sum
}

// PipelineResponse renders a finished pipeline run. Recovered per-file and
// per-batch failures stay in the Summary and the logs; they are not reported
// to the caller.
func PipelineResponse(kind string, sum pipeline.Summary, err error) Response {
	if err != nil {
		return Response{Success: false, Message: fmt.Sprintf("Error processing %s: %v", kind, err)}
	}
	msg := MsgCompleted
	if sum.Message == pipeline.MsgNoFiles {
		msg = pipeline.MsgNoFiles
	}
	return Response{
		Success: true,
		Message: msg,
		Results: []string{
			fmt.Sprintf("job %s %s", sum.JobID, sum.Status),
			fmt.Sprintf("files found: %d", sum.Files),
			fmt.Sprintf("files processed: %d", sum.Processed),
			fmt.Sprintf("records written: %d", sum.Records),
			fmt.Sprintf("sources deleted: %d", sum.Deleted),
			fmt.Sprintf("elapsed: %.2fs", sum.Elapsed.Seconds()),
		},
	}
}
