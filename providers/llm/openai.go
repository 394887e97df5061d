package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"scholarmate/config"
)

const (
	classifyTimeout = 15 * time.Second

	// Low temperatures keep both calls close to deterministic.
	classifyTemperature = 0.0
	rankTemperature     = 0.1
)

const regionSystemPrompt = `당신은 한국 행정구역 전문가이며, 장학금 공고문에서 지역 조건을 분석하는 AI입니다.
주어진 텍스트에서 해당하는 모든 지역명을 '특별시/광역시/도' 뿐만 아니라 '시/군/구' 단위까지 포함하여, **가장 구체적인 전체 경로(full path)로** 쉼표(,)로 구분된 단일 문자열로 반환해야 합니다.

**규칙 및 예시:**
1.  **전체 경로로 변환:** '영월군' -> '강원도 영월군', '수원시' -> '경기도 수원시'
2.  **약어 변환:** '서울' -> '서울특별시', '충남' -> '충청남도'
3.  **복합 경로 처리:** '충청남북도' -> '충청남도,충청북도'
4.  **구체적인 주소 유지:** "강원도 영월군 주천면" -> "강원도 영월군 주천면"
5.  **예외 조건 처리:** "서울, 광역시 제외 전국" -> 경기도,강원도,충청북도,충청남도,전라북도,전라남도,경상북도,경상남도,제주특별자치도,세종특별자치시 / "온라인 과정 이수자" 또는 "해외 유학생" -> "온라인" 또는 "해외"
6.  **지역명 미포함 시:** 특정 지역이 명시되지 않았으면 "전국"으로 간주합니다.
7.  **출력 형식:** 다른 설명 없이 오직 쉼표로 구분된 지역명 문자열만 반환하세요.`

const rankSystemPrompt = `당신은 장학금 추천 시스템입니다. 사용자의 요청에 따라 정확한 JSON 형식으로만 응답해야 합니다.`

// OpenAI implements RegionClassifier and Ranker against an
// OpenAI-compatible chat-completion endpoint.
type OpenAI struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAI builds the provider. With an empty API key every call degrades
// to an empty result, which callers already handle.
func NewOpenAI(cfg *config.Config, logger *zap.Logger) *OpenAI {
	return &OpenAI{
		client: openai.NewClient(cfg.OpenAIAPIKey),
		model:  cfg.OpenAIModel,
		logger: logger,
	}
}

// ClassifyRegion maps a residency requirement to canonical region paths.
// Empty or "not applicable" inputs short-circuit to nationwide without a
// model call; provider errors return "" (region unknown).
func (o *OpenAI) ClassifyRegion(ctx context.Context, text string) string {
	if isBlankResidency(text) {
		return "전국"
	}

	ctx, cancel := context.WithTimeout(ctx, classifyTimeout)
	defer cancel()

	reply, err := o.complete(ctx, regionSystemPrompt, text, classifyTemperature)
	if err != nil {
		o.logger.Warn("Region classification failed", zap.Error(err))
		return ""
	}
	return firstLine(reply)
}

// Rank asks the model for the top-5 candidates with reasons. The anti-
// hallucination check against the candidate set is the caller's job; Rank
// only guarantees a best-effort parsed list.
func (o *OpenAI) Rank(ctx context.Context, candidates []Candidate, profile Profile) []RankedItem {
	prompt, err := buildRankPrompt(candidates, profile)
	if err != nil {
		o.logger.Warn("Building rank prompt failed", zap.Error(err))
		return nil
	}

	reply, err := o.complete(ctx, rankSystemPrompt, prompt, rankTemperature)
	if err != nil {
		o.logger.Warn("Scholarship ranking call failed", zap.Error(err))
		return nil
	}
	return ParseRankedItems(reply)
}

func (o *OpenAI) complete(ctx context.Context, system, user string, temperature float32) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

func buildRankPrompt(candidates []Candidate, profile Profile) (string, error) {
	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return "", err
	}
	candidatesJSON, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`당신은 사용자의 프로필과 장학금 자격 조건을 비교하여, 개인화된 추천 메시지를 작성하는 AI 카피라이터입니다.

[사용자 프로필]
%s

[분석 대상 장학금 목록]
%s

[업무 지시]
사용자 프로필과 장학금 목록을 분석하여, 가장 적합한 **상위 5개의 장학금**을 적합도 순으로 정렬하여 JSON 배열로 반환하세요.

**[매우 중요한 규칙]**
1.  **사실 기반 작성:** 'reason'을 작성할 때는 아래 규칙을 반드시 따르고, **규칙에 해당하는 내용만을 근거로** 사실에 기반하여 작성하세요. 절대 추측하거나 없는 내용을 지어내지 마세요.
    규칙1.  **지역 조건:** 사용자의 지역('%s')과 장학금의 'region'이 구체적으로 일치할수록 높은 점수를 주세요. '전국'은 그 다음입니다.
    규칙2.  **성적 조건:** 사용자의 성적(gpa_last_semester, gpa_overall)과 장학금의 'grade_criteria_details'를 비교하여, 기준을 충족하면 점수를 부여하세요.
    규칙3.  **소득 조건:** 사용자의 소득분위('income_level')와 장학금의 'income_criteria_details'를 비교하여, 기준에 부합하면 점수를 부여하세요.
    규칙4.  **특정 자격 조건 (가산점 항목):**
        - 'is_multi_cultural_family'가 true이고 장학금 설명(주로 'specific_qualification_details')에 '다문화'라는 텍스트가 있으면 높은 가산점을 주세요.
        - 'is_single_parent_family'가 true이고 'income_criteria_details'에 '한부모', '가정형편', '경제사정'라는 텍스트가 있으면 높은 가산점을 주세요.
        - 'is_multiple_children_family'가 true이고 'income_criteria_details'에 '다자녀'라는 텍스트가 있으면 높은 가산점을 주세요.
        - 'is_national_merit'가 true이고 'income_criteria_details'에 '국가유공자' 또는 '보훈'이라는 텍스트가 있으면 높은 가산점을 주세요.
    규칙5.  **기타 조건:** 위 조건 외에도 사용자의 전공, 학년 등이 장학금의 조건과 일치하는지 종합적으로 고려하세요.
2.  **구체적인 이유 제시:** 'reason'에는 왜 이 장학금이 사용자에게 적합한지, 어떤 조건이 어떻게 부합하는지 **구체적으로** 서술하세요.

**[출력 형식]**
- 각 항목은 'product_id'와 'reason' 두 개의 키를 가진 JSON 객체여야 합니다.
- 'reason'은 사용자에게 보여줄 최종 추천 사유(한국어 문자열)입니다. 규칙4로 가산점을 얻은 경우 그 내용을 반드시 서술하세요.
- 'product_id'는 절대 변경하지 마세요.`,
		profileJSON, candidatesJSON, profile.Region), nil
}

func isBlankResidency(text string) bool {
	switch trimmed(text) {
	case "", "해당없음", "없음":
		return true
	}
	return false
}
