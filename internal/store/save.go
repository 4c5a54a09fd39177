package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/agendaviva/ingest/internal/dedup"
	"github.com/agendaviva/ingest/internal/model"
	"github.com/agendaviva/ingest/internal/slug"
	"github.com/agendaviva/ingest/internal/taxonomy"
)

// SaveResult reports the outcome of persisting one classifier output.
type SaveResult struct {
	Success     bool   `json:"success"`
	ActivitatID string `json:"activitatId,omitempty"`
	QueueID     string `json:"queueId,omitempty"`
	Error       string `json:"error,omitempty"`
	IsDuplicate bool   `json:"isDuplicate,omitempty"`
}

// highPriorityConfidence routes review entries below this global confidence
// to the high-priority bucket.
const highPriorityConfidence = 50

var postalCodeRe = regexp.MustCompile(`\d{5}`)

// SaveFromClassification normalizes a classifier output and persists it,
// deciding between auto-publish and review-queue. Only confident,
// fully-resolved records publish automatically; any ambiguity collected
// during normalization lands the record in human review instead.
func SaveFromClassification(ctx context.Context, st Store, out *model.ClassificationOutput, sourceURL, sourceText string) (*SaveResult, error) {
	activitat := out.Activitat

	// Coarse duplicate gate on normalized name, cheaper than slug-level
	// dedup and applied first.
	existing, err := st.SearchActivitiesByName(ctx, truncateRunes(activitat.Nom, 50))
	if err != nil {
		return nil, eris.Wrap(err, "save: search duplicates")
	}
	normalized := normalizeName(activitat.Nom)
	for _, e := range existing {
		if normalizeName(e.Nom) == normalized {
			return &SaveResult{
				Success:     false,
				IsDuplicate: true,
				Error:       fmt.Sprintf("Potential duplicate of existing activity: %s", e.Nom),
			}, nil
		}
	}

	municipiID, municipiReasons := resolveMunicipi(activitat.MunicipiID, sourceText)

	existingSlugs, err := st.ListActivitySlugs(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "save: list slugs")
	}

	// Slug-tier gate: catches renames the name gate misses ("Taller de
	// Robòtica!" vs an existing taller-de-robotica).
	dup := dedup.CheckDuplicate(dedup.Candidate{Nom: activitat.Nom, MunicipiID: municipiID}, existingSlugs)
	if dup.IsDuplicate {
		return &SaveResult{
			Success:     false,
			IsDuplicate: true,
			Error:       fmt.Sprintf("Potential duplicate of existing activity: %s (similarity %.2f)", dup.MatchedSlug, dup.Similarity),
		}, nil
	}

	activitySlug := slug.GenerateUnique(activitat.Nom, existingSlugs)

	var extraReasons []string
	extraReasons = append(extraReasons, municipiReasons...)

	tipologiaPrincipal := taxonomy.DefaultTipologia
	if len(activitat.Tipologies) > 0 {
		tipologiaPrincipal = activitat.Tipologies[0].Codi
	} else {
		extraReasons = append(extraReasons,
			fmt.Sprintf("Tipologia no classificada - assignada per defecte com %q", taxonomy.DefaultTipologia))
	}

	quanEsFa := activitat.QuanEsFa
	if quanEsFa == "" {
		quanEsFa = taxonomy.DefaultQuanEsFa
	}

	finalNeedsReview := out.NeedsReview || len(extraReasons) > 0
	allReasons := append(append([]string{}, out.ReviewReasons...), extraReasons...)

	estat := model.StatusPublicada
	if finalNeedsReview {
		estat = model.StatusPendent
	}

	processedAt := out.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now().UTC()
	}

	activity := &model.Activity{
		Nom:                activitat.Nom,
		Slug:               activitySlug,
		Descripcio:         activitat.Descripcio,
		Tipologies:         activitat.Tipologies,
		TipologiaPrincipal: tipologiaPrincipal,
		QuanEsFa:           quanEsFa,
		EdatMin:            activitat.EdatMin,
		EdatMax:            activitat.EdatMax,
		EdatText:           activitat.EdatText,
		MunicipiID:         municipiID,
		BarriZona:          activitat.BarriZona,
		Espai:              activitat.Espai,
		Adreca:             activitat.Adreca,
		Dies:               activitat.Dies,
		Horari:             activitat.Horari,
		Preu:               activitat.Preu,
		Email:              activitat.Email,
		Telefon:            activitat.Telefon,
		Web:                activitat.Web,
		Tags:               activitat.Tags,
		ND:                 out.ND,
		NDVerificatPer:     "inferit",
		Estat:              estat,
		FontURL:            sourceURL,
		FontText:           truncateRunes(sourceText, 5000),
		FontTipus:          model.SourceScraping,
		ConfiancaGlobal:    out.Confianca,
		AgentModel:         out.ModelUsed,
		AgentProcessedAt:   &processedAt,
		CreatedBy:          "agent",
	}

	activityID, err := st.InsertActivity(ctx, activity)
	if err != nil {
		return nil, eris.Wrap(err, "save: insert activity")
	}

	result := &SaveResult{Success: true, ActivitatID: activityID}

	if finalNeedsReview {
		prioritat := model.PriorityMitjana
		if out.Confianca < highPriorityConfidence {
			prioritat = model.PriorityAlta
		}
		queueID, err := st.InsertReviewEntry(ctx, &model.ReviewQueueEntry{
			ActivitatID: activityID,
			Prioritat:   prioritat,
			Motiu:       strings.Join(allReasons, "; "),
			MotiuDetall: allReasons,
		})
		if err != nil {
			return nil, eris.Wrap(err, "save: insert review entry")
		}
		result.QueueID = queueID
	}

	zap.L().Info("save: activity persisted",
		zap.String("slug", activitySlug),
		zap.String("estat", string(estat)),
		zap.Bool("needs_review", finalNeedsReview),
		zap.Int("confianca", out.Confianca))

	return result, nil
}

// resolveMunicipi maps the classifier's municipality value to a canonical
// id. Resolution order: canonical id as-is, diacritic-insensitive name
// lookup, postal code found in the source text. Anything unresolved stays
// empty and contributes a review reason.
func resolveMunicipi(raw, sourceText string) (string, []string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", []string{"Municipi no especificat"}
	}

	if _, ok := taxonomy.GetMunicipi(raw); ok {
		return raw, nil
	}

	matches := taxonomy.SearchMunicipis(raw)
	switch {
	case len(matches) == 1:
		return matches[0].ID, nil
	case len(matches) > 1:
		return "", []string{fmt.Sprintf("Municipi ambigu: %q coincideix amb múltiples municipis", raw)}
	}

	for _, code := range postalCodeRe.FindAllString(raw+" "+sourceText, -1) {
		if m, ok := taxonomy.GetMunicipiByPostalCode(code); ok {
			return m.ID, nil
		}
	}

	return "", []string{fmt.Sprintf("Municipi no reconegut: %q", raw)}
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
