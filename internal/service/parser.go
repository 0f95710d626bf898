package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/readmit-risk-server/internal/domain"
)

// ResponseParser extracts and validates the JSON assessment embedded in
// the judge's free-text reply. The judge is prompted to answer with a
// single JSON object but may wrap it in prose or markdown fences; the
// parser takes the first balanced object and ignores everything else.
type ResponseParser struct{}

// NewResponseParser creates a response parser.
func NewResponseParser() *ResponseParser {
	return &ResponseParser{}
}

// Parse pulls the first balanced JSON object out of text, decodes it and
// validates the required fields. Any failure here is fatal for the
// discharge event; there is no retry or fallback score.
func (p *ResponseParser) Parse(text string) (*domain.JudgeAssessment, error) {
	raw, err := firstJSONObject(text)
	if err != nil {
		return nil, err
	}

	var body judgeReplyBody
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return nil, domain.NewParseError(fmt.Sprintf("decoding assessment JSON: %v", err), truncate(raw, 500))
	}

	if err := body.validate(); err != nil {
		return nil, err
	}

	a := &domain.JudgeAssessment{
		Risk7Day:                 *body.Risk7Day,
		Risk30Day:                *body.Risk30Day,
		Risk90Day:                *body.Risk90Day,
		RiskCategory:             body.RiskCategory,
		RiskFactors:              body.RiskFactors,
		ProtectiveFactors:        body.ProtectiveFactors,
		Interventions:            body.Interventions,
		PredictedReadmissionDate: body.PredictedReadmissionDate,
		Confidence:               *body.Confidence,
	}

	if a.RiskFactors == nil {
		a.RiskFactors = []domain.RiskFactor{}
	}
	if a.ProtectiveFactors == nil {
		a.ProtectiveFactors = []domain.RiskFactor{}
	}
	if a.Interventions == nil {
		a.Interventions = []domain.RecommendedIntervention{}
	}

	return a, nil
}

// judgeReplyBody mirrors domain.JudgeAssessment with pointer numerics so
// a probability the judge omitted is distinguishable from a literal
// zero. An omitted probability must not be persisted as zero risk.
type judgeReplyBody struct {
	Risk7Day                 *float64                         `json:"risk_7_day"`
	Risk30Day                *float64                         `json:"risk_30_day"`
	Risk90Day                *float64                         `json:"risk_90_day"`
	RiskCategory             domain.RiskCategory              `json:"risk_category"`
	RiskFactors              []domain.RiskFactor              `json:"risk_factors"`
	ProtectiveFactors        []domain.RiskFactor              `json:"protective_factors"`
	Interventions            []domain.RecommendedIntervention `json:"interventions"`
	PredictedReadmissionDate *time.Time                       `json:"predicted_readmission_date"`
	Confidence               *float64                         `json:"confidence"`
}

// validate enforces the response contract: three numeric probabilities
// inside [0,1], a recognized category and a confidence inside [0,1].
// Every numeric field must actually be present in the reply.
func (b *judgeReplyBody) validate() error {
	if err := requireProbability("risk_7_day", b.Risk7Day); err != nil {
		return err
	}
	if err := requireProbability("risk_30_day", b.Risk30Day); err != nil {
		return err
	}
	if err := requireProbability("risk_90_day", b.Risk90Day); err != nil {
		return err
	}
	if !b.RiskCategory.Valid() {
		return domain.NewParseError(fmt.Sprintf("unrecognized risk_category %q", b.RiskCategory), "")
	}
	return requireProbability("confidence", b.Confidence)
}

func requireProbability(name string, v *float64) error {
	if v == nil {
		return domain.NewParseError(fmt.Sprintf("%s missing from assessment", name), "")
	}
	if *v < 0 || *v > 1 {
		return domain.NewParseError(fmt.Sprintf("%s %.4f outside [0,1]", name, *v), "")
	}
	return nil
}

// firstJSONObject scans for the first '{' and returns the substring up
// to its balancing '}'. Braces inside JSON strings do not count toward
// the balance.
func firstJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", domain.ErrNoJSONInReply
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", domain.NewParseError("unbalanced JSON object in judge response", truncate(text[start:], 500))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
