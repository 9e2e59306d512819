package services

import (
	"strings"

	"github.com/kljensen/snowball/english"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/bioqa-cli/internal/logger"
)

// Ensure EvaluationService implements the interface.
var _ driving.EvaluationService = (*EvaluationService)(nil)

// precisionCutoff is the rank cutoff for document precision.
const precisionCutoff = 10

// EvaluationService scores runs against BioASQ reference answers.
type EvaluationService struct{}

// NewEvaluationService creates an evaluation service.
func NewEvaluationService() *EvaluationService {
	return &EvaluationService{}
}

// Evaluate annotates each record with ROUGE scores against the first reference
// ideal answer and with P@10 against the gold documents, then returns averages
// and exact-answer accuracy. Failed records and records without references are
// left unscored.
func (s *EvaluationService) Evaluate(run *domain.Run, gold []domain.Question) domain.Evaluation {
	byID := make(map[string]domain.Question, len(gold))
	for _, q := range gold {
		byID[q.ID] = q
	}

	var (
		eval     domain.Evaluation
		rouge    []domain.RougeScores
		exactOK  int
		p10Sum   float64
		p10Count int
	)
	for i := range run.Records {
		rec := &run.Records[i]
		ref, ok := byID[rec.ID]
		if !ok || rec.Failed() {
			continue
		}

		if len(ref.IdealAnswers) > 0 {
			score := Rouge(ref.IdealAnswers[0], rec.GeneratedAnswer)
			rec.Rouge = &score
			rouge = append(rouge, score)
		}

		if rec.Type.HasExactAnswer() {
			if accepted := ref.ExactAnswers(); len(accepted) > 0 {
				eval.ExactScored++
				if ExactMatch(rec.Type, rec.ExactAnswer, accepted) {
					exactOK++
				}
			}
		}

		if goldIDs := ref.GoldPMIDs(); len(goldIDs) > 0 {
			p := PrecisionAt(rec.Documents, goldIDs, precisionCutoff)
			rec.Precision10 = &p
			p10Sum += p
			p10Count++
		}
	}

	eval.Scored = len(rouge)
	eval.AverageRouge = averageRouge(rouge)
	if eval.ExactScored > 0 {
		eval.ExactAccuracy = float64(exactOK) / float64(eval.ExactScored)
	}
	if p10Count > 0 {
		eval.MeanPrecision10 = p10Sum / float64(p10Count)
	}
	logger.Debug("Evaluated %d records (rouge=%d, exact=%d, p@10=%d)",
		len(run.Records), eval.Scored, eval.ExactScored, p10Count)
	return eval
}

// Rouge computes ROUGE-1, ROUGE-2 and ROUGE-L of candidate against reference.
// Text is lowercased and split on every rune outside [a-z0-9], so non-ASCII
// letters act as separators. Tokens longer than three bytes are stemmed with
// the Porter2 (snowball English) stemmer, which differs from the classic
// Porter stemmer on some suffixes, so scores can differ slightly from tools
// built on it.
func Rouge(reference, candidate string) domain.RougeScores {
	ref := rougeTokens(reference)
	cand := rougeTokens(candidate)
	return domain.RougeScores{
		Rouge1: ngramScore(ref, cand, 1),
		Rouge2: ngramScore(ref, cand, 2),
		RougeL: lcsScore(ref, cand),
	}
}

func rougeTokens(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})
	for i, f := range fields {
		if len(f) > 3 {
			fields[i] = english.Stem(f, false)
		}
	}
	return fields
}

func ngrams(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], " ")]++
	}
	return counts
}

func ngramScore(ref, cand []string, n int) domain.PRF {
	refGrams := ngrams(ref, n)
	candGrams := ngrams(cand, n)
	var overlap, refTotal, candTotal int
	for g, c := range refGrams {
		refTotal += c
		overlap += min(c, candGrams[g])
	}
	for _, c := range candGrams {
		candTotal += c
	}
	return prf(overlap, candTotal, refTotal)
}

func lcsScore(ref, cand []string) domain.PRF {
	return prf(lcsLength(ref, cand), len(cand), len(ref))
}

func lcsLength(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func prf(overlap, candTotal, refTotal int) domain.PRF {
	var p, r, f float64
	if candTotal > 0 {
		p = float64(overlap) / float64(candTotal)
	}
	if refTotal > 0 {
		r = float64(overlap) / float64(refTotal)
	}
	if p+r > 0 {
		f = 2 * p * r / (p + r)
	}
	return domain.PRF{Precision: p, Recall: r, FMeasure: f}
}

func averageRouge(scores []domain.RougeScores) domain.RougeScores {
	var avg domain.RougeScores
	if len(scores) == 0 {
		return avg
	}
	n := float64(len(scores))
	add := func(dst *domain.PRF, src domain.PRF) {
		dst.Precision += src.Precision / n
		dst.Recall += src.Recall / n
		dst.FMeasure += src.FMeasure / n
	}
	for _, s := range scores {
		add(&avg.Rouge1, s.Rouge1)
		add(&avg.Rouge2, s.Rouge2)
		add(&avg.RougeL, s.RougeL)
	}
	return avg
}

// ExactMatch reports whether a generated exact answer is accepted.
// Comparison ignores case and surrounding whitespace. Factoid and yes/no
// answers must equal one accepted string; every item of a list answer must.
func ExactMatch(qtype domain.QuestionType, answer string, accepted []string) bool {
	ok := make(map[string]bool, len(accepted))
	for _, a := range accepted {
		ok[normalizeAnswer(a)] = true
	}
	if qtype != domain.QuestionList {
		return ok[normalizeAnswer(answer)]
	}
	matched := 0
	for _, item := range strings.Split(answer, ";") {
		item = normalizeAnswer(item)
		if item == "" {
			continue
		}
		if !ok[item] {
			return false
		}
		matched++
	}
	return matched > 0
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(s), "."))
}

// PrecisionAt returns the share of the first k ranked documents found in gold,
// always dividing by k.
func PrecisionAt(docs []domain.ScoredDocument, gold []string, k int) float64 {
	if k <= 0 {
		return 0
	}
	relevant := make(map[string]bool, len(gold))
	for _, id := range gold {
		relevant[id] = true
	}
	hits := 0
	for i := 0; i < len(docs) && i < k; i++ {
		if relevant[docs[i].ID] {
			hits++
		}
	}
	return float64(hits) / float64(k)
}
