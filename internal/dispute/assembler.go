package dispute

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gigfair-backend/internal/database"
	"gigfair-backend/internal/llm"
	"gigfair-backend/pkg/api"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const systemPrompt = `You are a professional appeals writer for gig workers. Produce ONLY valid JSON with keys: "subject" (string), "body" (string), "summaryPoints" (array of strings). Body must be polite, factual, and explicitly reference evidence by id and integrity hash. Do NOT include meta commentary.`

// Assembler files disputes and drafts their appeal letters. Letter
// generation degrades to a deterministic template when the text-generation
// collaborator is unreachable or returns garbage; only the dispute insert
// itself can fail the request.
type Assembler struct {
	db        *gorm.DB
	generator llm.Generator
}

func NewAssembler(db *gorm.DB, generator llm.Generator) *Assembler {
	return &Assembler{db: db, generator: generator}
}

type Input struct {
	WorkerId       uuid.UUID
	WorkerName     string
	Platform       string
	Title          string
	Description    string
	EvidenceIds    []uuid.UUID
	GenerateAppeal bool
}

func (a *Assembler) Assemble(ctx context.Context, in Input) (uuid.UUID, *api.AppealLetter, error) {
	var letter *api.AppealLetter
	if in.GenerateAppeal {
		evidence, err := a.resolveEvidence(ctx, in.WorkerId, in.EvidenceIds)
		if err != nil {
			return uuid.Nil, nil, fmt.Errorf("error resolving evidence: %w", err)
		}
		letter = a.draftLetter(ctx, in, evidence)
	}

	evidenceIds, err := json.Marshal(in.EvidenceIds)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("error encoding evidence ids: %w", err)
	}

	record := database.Dispute{
		Id:           uuid.New(),
		UserId:       in.WorkerId,
		Title:        in.Title,
		Description:  in.Description,
		EvidenceIds:  datatypes.JSON(evidenceIds),
		Status:       database.DisputeOpen,
		CreationTime: time.Now().UTC(),
	}

	if letter != nil {
		serialized, err := json.Marshal(letter)
		if err != nil {
			return uuid.Nil, nil, fmt.Errorf("error encoding appeal letter: %w", err)
		}
		record.AppealLetter = datatypes.JSON(serialized)
	}

	if err := a.db.WithContext(ctx).Create(&record).Error; err != nil {
		return uuid.Nil, nil, fmt.Errorf("error creating dispute: %w", err)
	}

	return record.Id, letter, nil
}

// resolveEvidence loads the subset of requested evidence the worker
// actually owns. Ids that resolve to nothing are skipped, not errors.
func (a *Assembler) resolveEvidence(ctx context.Context, workerId uuid.UUID, ids []uuid.UUID) ([]database.Evidence, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var evidence []database.Evidence
	err := a.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", workerId, ids).
		Find(&evidence).Error
	if err != nil {
		return nil, err
	}
	return evidence, nil
}

func (a *Assembler) draftLetter(ctx context.Context, in Input, evidence []database.Evidence) *api.AppealLetter {
	if a.generator == nil {
		return fallbackLetter(in, evidence, time.Now())
	}

	text, err := a.generator.Generate(ctx, systemPrompt, buildPrompt(in, evidence))
	if err != nil {
		slog.Warn("appeal generator unavailable, using template fallback", "error", err)
		return fallbackLetter(in, evidence, time.Now())
	}

	obj, err := llm.ExtractJSONObject(text)
	if err != nil {
		slog.Error("no JSON object in appeal generator response", "error", err)
		return fallbackLetter(in, evidence, time.Now())
	}

	var letter api.AppealLetter
	if err := json.Unmarshal([]byte(obj), &letter); err != nil {
		slog.Error("error parsing appeal generator response", "error", err)
		return fallbackLetter(in, evidence, time.Now())
	}

	return &letter
}

func buildPrompt(in Input, evidence []database.Evidence) string {
	var lines []string
	for _, e := range evidence {
		lines = append(lines, fmt.Sprintf("%s | %s | %s | %s", e.Id, evidenceTags(e), e.Sha256, e.StorageUrl))
	}

	return fmt.Sprintf(`Platform: %s
WorkerName: %s
WorkerId: %s
IssueSummary: %s - %s
RequestedRemedy: Reinstatement and/or compensation
EvidenceLines:
%s
Instructions:
- Cite evidence lines using evidence id and integrity hash.
- Include dates/times where applicable.
- Keep body <= 400 words.
Return ONLY a JSON object with keys subject, body, summaryPoints.`,
		orUnknown(in.Platform), in.WorkerName, in.WorkerId, in.Title, in.Description, strings.Join(lines, "\n"))
}

// fallbackLetter composes the deterministic appeal used whenever generation
// is unavailable. It always fills all three letter fields.
func fallbackLetter(in Input, evidence []database.Evidence, now time.Time) *api.AppealLetter {
	platform := orUnknown(in.Platform)

	evidenceText := "I can provide further evidence upon request."
	if len(evidence) > 0 {
		var tags []string
		for _, e := range evidence {
			tags = append(tags, evidenceTags(e))
		}
		evidenceText = fmt.Sprintf("I have attached %d piece(s) of evidence to support my claim, including: %s.", len(evidence), strings.Join(tags, " and "))
	}

	body := fmt.Sprintf(`To the %s Appeals Team,

I am writing to formally appeal the recent decision regarding my account (ID: %s). I believe this decision was made in error and does not reflect my history of service on the platform.

Issue Summary: %s

Description: %s

%s

I respectfully request that you review this case and reinstate my account status. I am committed to following all platform guidelines and providing excellent service.

Sincerely,
%s
%s`, platform, in.WorkerId, in.Title, in.Description, evidenceText, in.WorkerName, now.Format("January 2, 2006"))

	return &api.AppealLetter{
		Subject: fmt.Sprintf("Formal Appeal Regarding Account Status - %s - %s", platform, in.WorkerName),
		Body:    body,
		SummaryPoints: []string{
			"Decision contested based on provided evidence.",
			"Requesting immediate review and reinstatement.",
			"Committed to platform guidelines.",
		},
	}
}

func evidenceTags(e database.Evidence) string {
	var tags []string
	if err := json.Unmarshal(e.Tags, &tags); err != nil || len(tags) == 0 {
		return "evidence"
	}
	return strings.Join(tags, ", ")
}

func orUnknown(platform string) string {
	if platform == "" {
		return "Unknown"
	}
	return platform
}
