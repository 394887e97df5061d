package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"scholarmate/models"
	"scholarmate/providers/llm"
)

// Relevance scores, ordered by match specificity. The first matching rule
// wins, so exact-region >= province-only >= major >= nationwide >= none.
const (
	scoreExactRegion  = 10
	scoreProvinceOnly = 7
	scoreMajorMatch   = 5
	scoreNationwide   = 1
	scoreNoMatch      = 0
)

const (
	// NationwideToken marks scholarships without a region restriction.
	NationwideToken = "전국"

	sampleSize = 30
	resultSize = 5
)

// majorWildcardTokens are major_field values open to any major. "특정학과"
// (specific department) deliberately is not one of them.
var majorWildcardTokens = []string{"해당없음", "제한없음", "전공무관"}

// ErrProfileNotFound is returned when the requesting user has not created a
// scholarship profile yet.
var ErrProfileNotFound = errors.New("scholarship profile not found")

// Recommendation is one entry of the final answer. Reason is empty for
// entries produced by the scored fallback.
type Recommendation struct {
	Scholarship models.Scholarship `json:"scholarship"`
	Reason      string             `json:"reason,omitempty"`
	Score       int                `json:"score"`
}

// RecommendationService runs the filter-then-rank pipeline:
// profile lookup -> basic filter -> region filter -> score & sample ->
// LLM rank -> validate -> fallback-or-return.
type RecommendationService struct {
	DB     *gorm.DB
	Ranker llm.Ranker
	Logger *zap.Logger

	// ActiveOnly restricts candidates to scholarships whose recruitment
	// window covers today.
	ActiveOnly bool
}

// NewRecommendationService wires the pipeline.
func NewRecommendationService(db *gorm.DB, ranker llm.Ranker, logger *zap.Logger) *RecommendationService {
	return &RecommendationService{DB: db, Ranker: ranker, Logger: logger}
}

// Recommend produces up to five scholarships for the user, LLM-ranked with
// reasons when possible, otherwise the top-5 by relevance score.
func (s *RecommendationService) Recommend(ctx context.Context, userID uint) ([]Recommendation, error) {
	var profile models.UserScholarship
	if err := s.DB.WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	pool, err := s.loadCandidates(ctx)
	if err != nil {
		return nil, err
	}

	pool = FilterBasic(pool, profile)
	pool = FilterByRegion(pool, profile)
	s.Logger.Debug("Candidate pool after filtering",
		zap.Uint("user_id", userID), zap.Int("candidates", len(pool)))
	if len(pool) == 0 {
		recommendationsTotal.WithLabelValues("empty").Inc()
		return nil, nil
	}

	sampled := SampleByScore(pool, profile, sampleSize)

	ranked := s.Ranker.Rank(ctx, toCandidates(sampled), toProfile(profile))
	valid := ValidateRanked(ranked, sampled)

	var recs []Recommendation
	if len(valid) == 0 {
		s.Logger.Info("LLM ranking unusable, serving scored fallback",
			zap.Uint("user_id", userID), zap.Int("returned_items", len(ranked)))
		recommendationsTotal.WithLabelValues("fallback").Inc()
		recs = s.fallback(sampled, profile)
	} else {
		recommendationsTotal.WithLabelValues("ranked").Inc()
		recs, err = s.assemble(ctx, valid, sampled, profile)
		if err != nil {
			return nil, err
		}
	}

	s.backfillURLs(ctx, recs)
	return recs, nil
}

// loadCandidates pulls the curated pool the pipeline filters in memory. The
// basic filter is self-referential (it matches against distinct values of
// the already-filtered set), which is natural on a slice and awkward in SQL.
func (s *RecommendationService) loadCandidates(ctx context.Context) ([]models.Scholarship, error) {
	q := s.DB.WithContext(ctx).Model(&models.Scholarship{})
	if s.ActiveOnly {
		today := time.Now().Format("2006-01-02")
		q = q.Where("recruitment_start <= ? AND recruitment_end >= ?", today, today)
	}
	var pool []models.Scholarship
	if err := q.Find(&pool).Error; err != nil {
		return nil, err
	}
	return pool, nil
}

func (s *RecommendationService) fallback(sampled []models.Scholarship, profile models.UserScholarship) []Recommendation {
	n := len(sampled)
	if n > resultSize {
		n = resultSize
	}
	out := make([]Recommendation, 0, n)
	for _, sch := range sampled[:n] {
		out = append(out, Recommendation{Scholarship: sch, Score: ScoreScholarship(sch, profile)})
	}
	return out
}

// assemble re-queries the validated ids and returns them in LLM order via
// an explicit position map, ties broken by score.
func (s *RecommendationService) assemble(ctx context.Context, valid []llm.RankedItem, sampled []models.Scholarship, profile models.UserScholarship) ([]Recommendation, error) {
	if len(valid) > resultSize {
		valid = valid[:resultSize]
	}

	position := make(map[string]int, len(valid))
	reasons := make(map[string]string, len(valid))
	ids := make([]string, 0, len(valid))
	for i, item := range valid {
		if _, dup := position[item.ProductID]; dup {
			continue
		}
		position[item.ProductID] = i
		reasons[item.ProductID] = item.Reason
		ids = append(ids, item.ProductID)
	}

	var rows []models.Scholarship
	if err := s.DB.WithContext(ctx).Where("product_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]Recommendation, 0, len(rows))
	for _, sch := range rows {
		out = append(out, Recommendation{
			Scholarship: sch,
			Reason:      reasons[sch.ProductID],
			Score:       ScoreScholarship(sch, profile),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := position[out[i].Scholarship.ProductID], position[out[j].Scholarship.ProductID]
		if pi != pj {
			return pi < pj
		}
		return out[i].Score > out[j].Score
	})
	return out, nil
}

// backfillURLs fills missing homepage links from the raw staging rows,
// which keep the verbatim API payload. Best effort only.
func (s *RecommendationService) backfillURLs(ctx context.Context, recs []Recommendation) {
	var ids []string
	for _, r := range recs {
		if r.Scholarship.URL == "" {
			ids = append(ids, r.Scholarship.ProductID)
		}
	}
	if len(ids) == 0 {
		return
	}

	var raws []models.RawScholarship
	if err := s.DB.WithContext(ctx).
		Select("product_id", "url").
		Where("product_id IN ?", ids).
		Find(&raws).Error; err != nil {
		s.Logger.Warn("URL backfill lookup failed", zap.Error(err))
		return
	}
	urls := make(map[string]string, len(raws))
	for _, raw := range raws {
		urls[raw.ProductID] = raw.URL
	}
	for i := range recs {
		if recs[i].Scholarship.URL == "" {
			recs[i].Scholarship.URL = urls[recs[i].Scholarship.ProductID]
		}
	}
}

// FullRegion joins the profile's province and district into the region path
// used for exact matching, dropping empty parts.
func FullRegion(profile models.UserScholarship) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{profile.Region, profile.District} {
		if v := strings.TrimSpace(p); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// FilterBasic keeps scholarships loosely matching the profile's university
// type, academic year and major. University/academic-year matching is
// self-referential: the user's normalized value is matched by substring
// against the distinct values present in the current pool, and the filter
// only narrows when at least one pool value matches.
func FilterBasic(pool []models.Scholarship, profile models.UserScholarship) []models.Scholarship {
	if user := strings.TrimSpace(profile.UniversityType); user != "" {
		pool = filterByDistinct(pool, user,
			func(s models.Scholarship) string { return s.UniversityType },
			normalizeUniversityType)
	}
	if user := strings.TrimSpace(profile.AcademicYearType); user != "" {
		pool = filterByDistinct(pool, user,
			func(s models.Scholarship) string { return s.AcademicYearType },
			normalizeAcademicYear)
	}

	userMajor := strings.TrimSpace(profile.MajorField)
	if userMajor == "" {
		return pool
	}
	out := pool[:0:0]
	for _, s := range pool {
		if majorFieldMatches(s.MajorField, userMajor) {
			out = append(out, s)
		}
	}
	return out
}

func filterByDistinct(pool []models.Scholarship, userValue string, field func(models.Scholarship) string, normalize func(string) string) []models.Scholarship {
	userNorm := normalize(userValue)

	matching := make(map[string]bool)
	seen := make(map[string]bool)
	for _, s := range pool {
		v := field(s)
		if seen[v] {
			continue
		}
		seen[v] = true
		if strings.Contains(normalize(v), userNorm) {
			matching[v] = true
		}
	}
	if len(matching) == 0 {
		return pool
	}

	out := pool[:0:0]
	for _, s := range pool {
		if matching[field(s)] {
			out = append(out, s)
		}
	}
	return out
}

func majorFieldMatches(majorField, userMajor string) bool {
	if strings.Contains(majorField, userMajor) {
		return true
	}
	for _, token := range majorWildcardTokens {
		if majorField == token {
			return true
		}
	}
	return false
}

// FilterByRegion applies the three-way region match: empty profile region
// keeps only nationwide rows; otherwise a row survives when one of its
// comma-separated paths equals the full region or the province exactly, or
// is the nationwide token. Rows with an empty region (unknown, e.g. not yet
// processed) never match.
func FilterByRegion(pool []models.Scholarship, profile models.UserScholarship) []models.Scholarship {
	full := FullRegion(profile)
	province := strings.TrimSpace(profile.Region)

	out := pool[:0:0]
	for _, s := range pool {
		if full == "" {
			if regionContainsNationwide(s.Region) {
				out = append(out, s)
			}
			continue
		}
		if regionHasPath(s.Region, full) || regionHasPath(s.Region, province) || regionContainsNationwide(s.Region) {
			out = append(out, s)
		}
	}
	return out
}

// ScoreScholarship assigns the relevance score; the most specific matching
// rule governs.
func ScoreScholarship(s models.Scholarship, profile models.UserScholarship) int {
	full := FullRegion(profile)
	province := strings.TrimSpace(profile.Region)
	major := strings.TrimSpace(profile.MajorField)

	switch {
	case full != "" && regionHasPath(s.Region, full):
		return scoreExactRegion
	case province != "" && regionHasPath(s.Region, province):
		return scoreProvinceOnly
	case major != "" && strings.Contains(s.MajorField, major):
		return scoreMajorMatch
	case regionContainsNationwide(s.Region):
		return scoreNationwide
	default:
		return scoreNoMatch
	}
}

// SampleByScore stable-sorts the pool by descending relevance score (ties
// keep their original relative order) and caps it at limit.
func SampleByScore(pool []models.Scholarship, profile models.UserScholarship, limit int) []models.Scholarship {
	sampled := make([]models.Scholarship, len(pool))
	copy(sampled, pool)
	sort.SliceStable(sampled, func(i, j int) bool {
		return ScoreScholarship(sampled[i], profile) > ScoreScholarship(sampled[j], profile)
	})
	if len(sampled) > limit {
		sampled = sampled[:limit]
	}
	return sampled
}

// ValidateRanked drops ranked items whose product_id is not in the sampled
// candidate set, so a hallucinated id can never reach the response.
func ValidateRanked(items []llm.RankedItem, sampled []models.Scholarship) []llm.RankedItem {
	allowed := make(map[string]bool, len(sampled))
	for _, s := range sampled {
		allowed[s.ProductID] = true
	}
	out := make([]llm.RankedItem, 0, len(items))
	for _, item := range items {
		if item.ProductID != "" && allowed[item.ProductID] {
			out = append(out, item)
		}
	}
	return out
}

func regionHasPath(region, want string) bool {
	if want == "" {
		return false
	}
	for _, path := range strings.Split(region, ",") {
		if strings.TrimSpace(path) == want {
			return true
		}
	}
	return false
}

func regionContainsNationwide(region string) bool {
	return strings.Contains(region, NationwideToken)
}

// normalizeUniversityType folds the variants "4년제"/"4-년제"/"4~년제" style
// values together: NFC, trimmed, hyphens mapped to tildes.
func normalizeUniversityType(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "-", "~")
}

// normalizeAcademicYear strips all spaces so "대학 2학년" matches "대학2학년".
func normalizeAcademicYear(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "")
}

func toCandidates(pool []models.Scholarship) []llm.Candidate {
	out := make([]llm.Candidate, 0, len(pool))
	for _, s := range pool {
		out = append(out, llm.Candidate{
			ProductID:                    s.ProductID,
			Name:                         s.Name,
			ProductType:                  s.ProductType,
			UniversityType:               s.UniversityType,
			AcademicYearType:             s.AcademicYearType,
			MajorField:                   s.MajorField,
			Region:                       s.Region,
			GradeCriteriaDetails:         s.GradeCriteriaDetails,
			IncomeCriteriaDetails:        s.IncomeCriteriaDetails,
			SpecificQualificationDetails: s.SpecificQualificationDetails,
		})
	}
	return out
}

func toProfile(p models.UserScholarship) llm.Profile {
	return llm.Profile{
		Name:                     p.Name,
		Gender:                   p.Gender,
		Region:                   FullRegion(p),
		IncomeLevel:              p.IncomeLevel,
		UniversityType:           p.UniversityType,
		UniversityName:           p.UniversityName,
		MajorField:               p.MajorField,
		AcademicYearType:         p.AcademicYearType,
		Semester:                 p.Semester,
		GPALastSemester:          p.GPALastSemester,
		GPAOverall:               p.GPAOverall,
		IsMultiCulturalFamily:    p.IsMultiCulturalFamily,
		IsSingleParentFamily:     p.IsSingleParentFamily,
		IsMultipleChildrenFamily: p.IsMultipleChildrenFamily,
		IsNationalMerit:          p.IsNationalMerit,
		AdditionalInfo:           p.AdditionalInfo,
	}
}
