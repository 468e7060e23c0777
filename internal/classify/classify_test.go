package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradient-spp/noisemap/internal/model"
)

func TestIsNoisy(t *testing.T) {
	c := New()
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"exceeded norms", "Выявлены превышения нормативов по ночному времени", true},
		{"exceedances found", "По результатам замеров выявлены превышения", true},
		{"none found", "Превышения не выявлены", false},
		{"lower-case none found", "нарушений не выявлены", false},
		{"measurements not taken", "Замеры не производились", false},
		{"empty text", "", true},
		{"whitespace only", "   ", true},
		{"no phrase", "Обращение передано в управу", true},
		{"upper case", "ВЫЯВЛЕНЫ ПРЕВЫШЕНИЯ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsNoisy(tt.text))
		})
	}
}

func TestIsNoisy_TableOrderWins(t *testing.T) {
	c := New()

	// Both "не выявлены" and "не производились" occur; the earlier rule wins.
	text := "Превышения не выявлены, проверка не производились"
	r, ok := c.Match(text)
	require.True(t, ok)
	assert.Equal(t, "не выявлены", r.Phrase)
	assert.False(t, c.IsNoisy(text))

	// A noisy phrase earlier in the table beats a later denial.
	text = "превышения нормативов не выявлены"
	r, ok = c.Match(text)
	require.True(t, ok)
	assert.Equal(t, "превышения нормативов", r.Phrase)
	assert.True(t, c.IsNoisy(text))
}

func TestIsNoisy_ShadowedRuleNeverMatches(t *testing.T) {
	c := New()
	r, ok := c.Match("превышения не выявлены")
	require.True(t, ok)
	assert.Equal(t, "не выявлены", r.Phrase, "the longer denial is shadowed by its suffix")
}

func TestMatch_NoMatch(t *testing.T) {
	_, ok := New().Match("")
	assert.False(t, ok)
	_, ok = New().Match("текст без ключевых фраз")
	assert.False(t, ok)
}

func TestWithRules(t *testing.T) {
	c := New(WithRules([]Rule{{Phrase: "ТИШИНА", Noisy: false}}))
	assert.False(t, c.IsNoisy("полная тишина"))
	assert.True(t, c.IsNoisy("превышения не выявлены"))
}

func TestSources(t *testing.T) {
	c := New()

	got := c.Sources("[автотранспорт]", "Источник шума: Автотранспорт и музыка из кафе")
	assert.Equal(t, []string{"автотранспорт", "кафе", "музыка"}, got)

	got = c.Sources("", "Летнее кафе")
	assert.Equal(t, []string{"кафе", "летнее кафе"}, got)

	got = c.Sources("Строительство", "")
	assert.Equal(t, []string{"Строительство"}, got)
}

func TestSources_DropsPlaceholderCategories(t *testing.T) {
	c := New()
	for _, cat := range []string{"", "None", "[None]", "null", "[]", " [ ] "} {
		assert.Empty(t, c.Sources(cat, ""), "category %q", cat)
	}
}

func TestSources_CustomVocabulary(t *testing.T) {
	c := New(WithSourceTerms([]string{"Лай собак"}))
	assert.Equal(t, []string{"лай собак"}, c.Sources("", "жалоба на ЛАЙ СОБАК"))
	assert.Empty(t, c.Sources("", "автотранспорт"))
}

func TestClassify(t *testing.T) {
	c := New()
	v := c.Classify(model.ComplaintRecord{
		ID:            "1",
		NoiseCategory: "[строительные работы]",
		Results:       "Выявлены превышения. Строительные работы в ночное время",
	})
	require.NoError(t, v.Err)
	assert.True(t, v.Noisy)
	assert.Equal(t, []string{"строительные работы"}, v.Sources)

	v = c.Classify(model.ComplaintRecord{Results: "превышения не выявлены"})
	require.NoError(t, v.Err)
	assert.False(t, v.Noisy)
	assert.Empty(t, v.Sources)
}
