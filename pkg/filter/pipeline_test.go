package filter

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playreviews/pkg/langdetect"
	"playreviews/pkg/logger"
	"playreviews/pkg/models"
)

// stubClassifier answers by a leading tag like "[en]" and records its inputs
type stubClassifier struct {
	inputs []string
}

func (s *stubClassifier) Detect(text string) (string, error) {
	s.inputs = append(s.inputs, text)
	if strings.HasPrefix(text, "[") {
		if end := strings.IndexByte(text, ']'); end > 0 {
			return text[1:end], nil
		}
	}
	if strings.HasPrefix(text, "??") {
		return "", langdetect.ErrUndetectable
	}
	return "ru", nil
}

func criteria(langs ...string) models.Criteria {
	return models.Criteria{
		StartDate: models.MustParseDate("2023-01-01"),
		EndDate:   models.MustParseDate("2023-12-31"),
		Languages: langs,
	}
}

func review(id, content string, at interface{}) models.RawReview {
	return models.RawReview{ID: id, Rating: 4, Content: content, SubmittedAt: at}
}

func TestFilterScenario(t *testing.T) {
	p := New(&stubClassifier{}, logger.NewTestLogger())
	in := []models.RawReview{
		{ID: "a", Rating: 5, Content: "Отличное приложение!", SubmittedAt: "2023-06-01"},
		{ID: "b", Rating: 1, Content: "bad", SubmittedAt: "2019-01-01"},
	}

	out, stats := p.Filter(in, criteria("ru"))

	require.Len(t, out, 1)
	assert.Equal(t, models.FilteredReview{
		Rating: 5, Title: "", Content: "Отличное приложение!", Date: "2023-06-01", Language: "ru",
	}, out[0])
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Accepted)
	assert.Equal(t, 1, stats.RejectedByDate)
	assert.True(t, stats.Conserved())
}

func TestFilterDateBoundsInclusive(t *testing.T) {
	p := New(&stubClassifier{}, logger.NewTestLogger())
	in := []models.RawReview{
		review("start", "первый день", "2023-01-01"),
		review("end", "последний день", time.Date(2023, 12, 31, 23, 59, 0, 0, time.UTC)),
		review("before", "слишком рано", "2022-12-31T23:59:59Z"),
		review("after", "слишком поздно", models.MustParseDate("2024-01-01")),
	}

	out, stats := p.Filter(in, criteria("ru"))

	assert.Len(t, out, 2)
	assert.Equal(t, "2023-01-01", out[0].Date)
	assert.Equal(t, "2023-12-31", out[1].Date)
	assert.Equal(t, 2, stats.RejectedByDate)
}

func TestFilterUnparseableDate(t *testing.T) {
	p := New(&stubClassifier{}, logger.NewTestLogger())
	in := []models.RawReview{
		review("short", "нормальный отзыв", "2023"),
		review("garbage", "нормальный отзыв", "not-a-date-at-all"),
		review("nil", "нормальный отзыв", nil),
		review("number", "нормальный отзыв", 1700000000),
		review("zero", "нормальный отзыв", time.Time{}),
	}

	out, stats := p.Filter(in, criteria("ru"))
	assert.Empty(t, out)
	assert.Equal(t, 5, stats.RejectedByDate)
}

func TestFilterContentFloor(t *testing.T) {
	cls := &stubClassifier{}
	p := New(cls, logger.NewTestLogger())
	in := []models.RawReview{
		review("five", "абвгд", "2023-05-05"),
		review("four", "абвг", "2023-05-05"),
		review("padded", "   абвг   ", "2023-05-05"),
		review("empty", "", "2023-05-05"),
	}

	out, stats := p.Filter(in, criteria("ru"))

	require.Len(t, out, 1)
	assert.Equal(t, "абвгд", out[0].Content)
	assert.Equal(t, 3, stats.RejectedEmptyContent)
	// short texts never reach the classifier
	assert.Len(t, cls.inputs, 1)
}

func TestFilterLanguageBuckets(t *testing.T) {
	p := New(&stubClassifier{}, logger.NewTestLogger())
	in := []models.RawReview{
		review("en", "[en] great app", "2023-03-03"),
		review("uk", "[uk] гарний додаток", "2023-03-03"),
		review("undetected", "?? 123 456", "2023-03-03"),
		review("ru", "хорошее приложение", "2023-03-03"),
	}

	out, stats := p.Filter(in, criteria("ru", "uk"))

	require.Len(t, out, 2)
	assert.Equal(t, "uk", out[0].Language)
	assert.Equal(t, "ru", out[1].Language)
	assert.Equal(t, 1, stats.RejectedByLanguage)
	assert.Equal(t, 1, stats.RejectedLanguageUndetected)
	assert.True(t, stats.Conserved())
}

func TestFilterClassifiesBoundedPrefix(t *testing.T) {
	cls := &stubClassifier{}
	p := New(cls, logger.NewTestLogger())
	long := strings.Repeat("я", 1000)

	out, _ := p.Filter([]models.RawReview{review("long", long, "2023-07-07")}, criteria("ru"))

	require.Len(t, cls.inputs, 1)
	assert.Equal(t, ClassifyPrefixRunes, utf8.RuneCountInString(cls.inputs[0]))
	// the full text is kept in the output
	assert.Equal(t, long, out[0].Content)
}

func TestFilterNormalizesContent(t *testing.T) {
	p := New(&stubClassifier{}, logger.NewTestLogger())
	// "й" written as и + combining breve
	decomposed := "Мои\u0306 любимыи\u0306"

	out, _ := p.Filter([]models.RawReview{review("nfc", decomposed, "2023-02-02")}, criteria("ru"))
	require.Len(t, out, 1)
	assert.Equal(t, "Мо\u0439 любимы\u0439", out[0].Content)
}

func TestFilterConservationEmptyInput(t *testing.T) {
	p := New(&stubClassifier{}, logger.NewTestLogger())
	out, stats := p.Filter(nil, criteria("ru"))
	assert.Empty(t, out)
	assert.Equal(t, models.FilterStats{}, stats)
	assert.True(t, stats.Conserved())
}

func TestFilterLogsStats(t *testing.T) {
	tl := logger.NewTestLogger()
	p := New(&stubClassifier{}, tl)
	p.Filter([]models.RawReview{review("a", "хороший отзыв", "2023-02-02")}, criteria("ru"))

	msgs := tl.GetMessagesByLevel("INFO")
	require.Len(t, msgs, 1)
	assert.Equal(t, "100.0%", msgs[0].Fields["accepted_pct"])
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, "при", prefix("привет", 3))
	assert.Equal(t, "hi", prefix("hi", 300))
	assert.Equal(t, "", prefix("abc", 0))
}
