package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"alfredoptarigan/recruit-dashboard/internal/logger"
	"alfredoptarigan/recruit-dashboard/internal/models"
)

type ExtractionOutcome string

const (
	ExtractionOK    ExtractionOutcome = "ok"
	ExtractionEmpty ExtractionOutcome = "empty"
)

// RemoteDocument is a transient upload on the language-model service. It
// must be released once the extraction calls are done.
type RemoteDocument struct {
	Name     string
	URI      string
	MIMEType string
	FileName string
}

type ExtractedFields struct {
	Outcome    ExtractionOutcome
	FullName   *string
	Email      *string
	Birthdate  *string
	Gender     *string
	Experience *int
	Address    *string
	Skills     []string
}

type FitAssessment struct {
	Outcome    ExtractionOutcome
	FitScore   *float64
	Strengths  []string
	Weaknesses []string
}

// ToCandidateData combines the two extraction results into proposed
// candidate data. Either argument may be nil.
func ToCandidateData(fields *ExtractedFields, fit *FitAssessment) models.CandidateData {
	var d models.CandidateData
	if fields != nil {
		d.FullName = fields.FullName
		d.Email = fields.Email
		d.Birthdate = fields.Birthdate
		d.Gender = fields.Gender
		d.Experience = fields.Experience
		d.Address = fields.Address
		d.Skills = fields.Skills
	}
	if fit != nil {
		d.FitScore = fit.FitScore
		d.Strengths = fit.Strengths
		d.Weaknesses = fit.Weaknesses
	}
	return d
}

// ExtractionTransportError is a service or network failure while talking to
// the extraction service about one file.
type ExtractionTransportError struct {
	FileName string
	Op       string
	Err      error
}

func (e *ExtractionTransportError) Error() string {
	return fmt.Sprintf("extraction failed for %s during %s: %v", e.FileName, e.Op, e.Err)
}

func (e *ExtractionTransportError) Unwrap() error {
	return e.Err
}

type Extractor interface {
	// Open returns a non-nil document whenever something was uploaded, even
	// alongside an error. Every such document must be passed to Release.
	Open(ctx context.Context, path, fileName string) (*RemoteDocument, error)
	ExtractFields(ctx context.Context, doc *RemoteDocument) (*ExtractedFields, error)
	ScoreFit(ctx context.Context, doc *RemoteDocument, requirements string) (*FitAssessment, error)
	Release(ctx context.Context, doc *RemoteDocument) error
}

type extractor struct {
	model   DocumentModel
	prompts *PromptBuilder
	log     *zap.Logger
}

func NewExtractor(model DocumentModel, log *zap.Logger) Extractor {
	return &extractor{
		model:   model,
		prompts: NewPromptBuilder(),
		log:     logger.OrNop(log).Named("extractor"),
	}
}

// Open implements Extractor.
func (e *extractor) Open(ctx context.Context, path, fileName string) (*RemoteDocument, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, &ExtractionTransportError{FileName: fileName, Op: "upload", Err: err}
	}

	doc, err := e.model.UploadFile(ctx, path, baseMIMEType(mtype.String()), fileName)
	if err != nil {
		// doc may be set: the upload happened and still has to be released.
		return doc, &ExtractionTransportError{FileName: fileName, Op: "upload", Err: err}
	}
	return doc, nil
}

// ExtractFields implements Extractor.
func (e *extractor) ExtractFields(ctx context.Context, doc *RemoteDocument) (*ExtractedFields, error) {
	text, err := e.model.GenerateFromFile(ctx, doc, e.prompts.BuildExtractFieldsPrompt())
	if err != nil {
		return nil, &ExtractionTransportError{FileName: doc.FileName, Op: "extract", Err: err}
	}

	fields := ParseExtractedFields(text)
	if fields.Outcome == ExtractionEmpty {
		e.log.Warn("extraction returned no usable fields",
			zap.String(logger.FieldFileName, doc.FileName),
			zap.String("response", logger.TruncateForLog(text, 200)))
	}
	return fields, nil
}

// ScoreFit implements Extractor.
func (e *extractor) ScoreFit(ctx context.Context, doc *RemoteDocument, requirements string) (*FitAssessment, error) {
	text, err := e.model.GenerateFromFile(ctx, doc, e.prompts.BuildFitScorePrompt(requirements))
	if err != nil {
		return nil, &ExtractionTransportError{FileName: doc.FileName, Op: "score", Err: err}
	}

	fit := ParseFitAssessment(text)
	if fit.Outcome == ExtractionEmpty {
		e.log.Warn("fit scoring returned no usable fields",
			zap.String(logger.FieldFileName, doc.FileName),
			zap.String("response", logger.TruncateForLog(text, 200)))
	}
	return fit, nil
}

// Release implements Extractor.
func (e *extractor) Release(ctx context.Context, doc *RemoteDocument) error {
	if doc == nil || doc.Name == "" {
		return nil
	}
	return e.model.DeleteFile(ctx, doc.Name)
}

// ParseExtractedFields decodes a model response. Anything that is not a JSON
// object, or an object without any recognised field, is an empty extraction.
func ParseExtractedFields(response string) *ExtractedFields {
	raw, ok := decodeObject(response)
	if !ok {
		return &ExtractedFields{Outcome: ExtractionEmpty}
	}

	fields := &ExtractedFields{
		FullName:   coerceString(raw["full_name"]),
		Email:      coerceString(raw["email"]),
		Birthdate:  coerceString(raw["birthdate"]),
		Gender:     coerceString(raw["gender"]),
		Experience: coerceInt(raw["experience"]),
		Address:    coerceString(raw["address"]),
		Skills:     coerceStrings(raw["skills"]),
	}
	fields.Outcome = ExtractionOK
	if fields.FullName == nil && fields.Email == nil && fields.Birthdate == nil &&
		fields.Gender == nil && fields.Experience == nil && fields.Address == nil && fields.Skills == nil {
		fields.Outcome = ExtractionEmpty
	}
	return fields
}

// ParseFitAssessment decodes a fit scoring response. The score is clamped
// to 0..100.
func ParseFitAssessment(response string) *FitAssessment {
	raw, ok := decodeObject(response)
	if !ok {
		return &FitAssessment{Outcome: ExtractionEmpty}
	}

	fit := &FitAssessment{
		FitScore:   coerceScore(raw["fit_score"]),
		Strengths:  coerceStrings(raw["strengths"]),
		Weaknesses: coerceStrings(raw["weaknesses"]),
	}

	fit.Outcome = ExtractionOK
	if fit.FitScore == nil && fit.Strengths == nil && fit.Weaknesses == nil {
		fit.Outcome = ExtractionEmpty
	}
	return fit
}

func decodeObject(response string) (map[string]any, bool) {
	jsonStr := extractJSON(response)
	if jsonStr == "" {
		return nil, false
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, false
	}
	return raw, raw != nil
}

// extractJSON strips markdown fences and any text around the outermost
// JSON object.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx != -1 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return ""
	}
	return text[start : end+1]
}

var leadingNumber = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

func coerceString(v any) *string {
	var s string
	switch val := v.(type) {
	case string:
		s = strings.TrimSpace(val)
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(val)
	default:
		return nil
	}
	if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "n/a") {
		return nil
	}
	return &s
}

func coerceFloat(v any) *float64 {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case string:
		match := leadingNumber.FindString(val)
		if match == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(match, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// coerceInt accepts 5, 5.7 and "5 years", all as 5. Negative values are
// dropped.
func coerceInt(v any) *int {
	f := coerceFloat(v)
	if f == nil || *f < 0 {
		return nil
	}
	n := int(math.Floor(*f))
	return &n
}

func coerceScore(v any) *float64 {
	f := coerceFloat(v)
	if f == nil {
		return nil
	}
	score := math.Max(0, math.Min(100, *f))
	return &score
}

// coerceStrings accepts a JSON array or a comma separated string. Blank
// entries are dropped.
func coerceStrings(v any) []string {
	var items []string
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if s := coerceString(item); s != nil {
				items = append(items, *s)
			}
		}
	case string:
		for _, part := range strings.Split(val, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
	default:
		return nil
	}
	if items == nil {
		return []string{}
	}
	return items
}
