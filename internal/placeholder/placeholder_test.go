package placeholder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsPlaceholder(t *testing.T) {
	t.Parallel()

	var nilString *string
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{name: "nil", value: nil, want: true},
		{name: "nil pointer", value: nilString, want: true},
		{name: "empty", value: "", want: true},
		{name: "blank", value: "   ", want: true},
		{name: "clarify marker", value: "[УТОЧНИТЬ: адрес]", want: true},
		{name: "marker inside text", value: "Звоните [УТОЧНИТЬ телефон] сейчас", want: true},
		{name: "webhook marker", value: "[WEBHOOK_URL]", want: true},
		{name: "metrika marker", value: "[YANDEX_METRIKA_ID]", want: true},
		{name: "pixel marker", value: "[VK_PIXEL_ID]", want: true},
		{name: "plain text", value: "ул. Ленина, 1", want: false},
		{name: "brackets without marker", value: "[скоро]", want: false},
		{name: "number", value: 12345, want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, IsPlaceholder(tc.value))
		})
	}
}

func TestIsPlaceholderEveryToken(t *testing.T) {
	t.Parallel()

	for _, token := range Tokens {
		for _, wrap := range []string{"%s", "prefix %s", "%s suffix]", "a%sb"} {
			v := strings.ReplaceAll(wrap, "%s", token)
			require.True(t, IsPlaceholder(v), "value %q must be a placeholder", v)
		}
	}
}

func TestClean(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", Clean(nil))
	require.Equal(t, "", Clean("[УТОЧНИТЬ]"))
	require.Equal(t, "Пн-Вс 10:00-21:00", Clean("Пн-Вс 10:00-21:00"))
	require.Equal(t, "42", Clean(42))
}

func TestCleanAllKeepsOrder(t *testing.T) {
	t.Parallel()

	got := CleanAll([]string{"a", "[УТОЧНИТЬ]", "", "b", "c"})
	require.Equal(t, []string{"a", "b", "c"}, got)
	require.Nil(t, CleanAll(nil))
}

func TestFirstClean(t *testing.T) {
	t.Parallel()

	require.Equal(t, "full", FirstClean("", "[УТОЧНИТЬ]", "full", "other"))
	require.Equal(t, "", FirstClean("[VK_PIXEL_ID]"))
}
