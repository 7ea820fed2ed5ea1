package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gigfair-backend/internal/database"
	"gigfair-backend/pkg/api"
)

// WriteCaseFile streams a dispute case file: dispute metadata, the appeal
// letter, and an evidence log with integrity hashes. The document is plain
// text so it can be attached to platform appeal forms as-is.
func WriteCaseFile(w io.Writer, dispute database.Dispute, evidence []database.Evidence) error {
	var b strings.Builder

	b.WriteString("GIG WORKER DISPUTE CASE FILE\n")
	b.WriteString("============================\n\n")
	fmt.Fprintf(&b, "Case ID: %s\n", dispute.Id)
	fmt.Fprintf(&b, "Date: %s\n", dispute.CreationTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Status: %s\n", dispute.Status)
	fmt.Fprintf(&b, "Title: %s\n\n", dispute.Title)

	b.WriteString("APPEAL LETTER\n")
	b.WriteString("-------------\n")
	writeAppealLetter(&b, dispute.AppealLetter)

	b.WriteString("\nEVIDENCE LOG\n")
	b.WriteString("------------\n")
	if len(evidence) == 0 {
		b.WriteString("No evidence attached.\n")
	}
	for i, ev := range evidence {
		fmt.Fprintf(&b, "Evidence #%d\n", i+1)
		fmt.Fprintf(&b, "  ID: %s\n", ev.Id)
		fmt.Fprintf(&b, "  SHA-256: %s\n", ev.Sha256)
		fmt.Fprintf(&b, "  URL: %s\n", ev.StorageUrl)
		fmt.Fprintf(&b, "  Tags: %s\n\n", tagList(ev.Tags))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeAppealLetter(b *strings.Builder, raw []byte) {
	if len(raw) == 0 {
		b.WriteString("No appeal letter was generated for this dispute.\n")
		return
	}

	var letter api.AppealLetter
	if err := json.Unmarshal(raw, &letter); err != nil {
		// Older rows may hold free text; emit it untouched.
		b.Write(raw)
		b.WriteString("\n")
		return
	}

	fmt.Fprintf(b, "Subject: %s\n\n", letter.Subject)
	b.WriteString(letter.Body)
	b.WriteString("\n\nSummary Points:\n")
	for _, pt := range letter.SummaryPoints {
		fmt.Fprintf(b, "- %s\n", pt)
	}
}

func tagList(raw []byte) string {
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil || len(tags) == 0 {
		return "none"
	}
	return strings.Join(tags, ", ")
}
