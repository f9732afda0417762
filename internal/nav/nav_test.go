package nav

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func activePaths(items []RenderedItem) []string {
	var out []string
	for _, it := range items {
		if it.Active {
			out = append(out, it.Href)
		}
	}
	return out
}

func TestBuildActive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want []string
	}{
		{path: "/", want: []string{"/"}},
		{path: "", want: []string{"/"}},
		{path: "/prices", want: []string{"/prices"}},
		{path: "/prices/", want: []string{"/prices"}},
		{path: "/promos/first-visit", want: []string{"/promos"}},
		{path: "/pricesx", want: nil},
		{path: "/p/privacy", want: nil},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, activePaths(Build(tc.path)), tc.path)
	}

	items := Build("/masters")
	require.Equal(t, "page", items[3].AriaCurrent())
	require.Empty(t, items[0].AriaCurrent())
}

func TestBreadcrumbs(t *testing.T) {
	t.Parallel()

	require.Equal(t, []Crumb{{Href: "/", LabelKey: "nav.home", Active: true}}, Breadcrumbs("/", ""))

	crumbs := Breadcrumbs("/promos", "")
	require.Len(t, crumbs, 2)
	require.Equal(t, "nav.promos", crumbs[1].LabelKey)
	require.True(t, crumbs[1].Active)

	crumbs = Breadcrumbs("/p/privacy", "Политика конфиденциальности")
	require.Len(t, crumbs, 2)
	require.Equal(t, "Политика конфиденциальности", crumbs[1].Label)

	crumbs = Breadcrumbs("/p/public-offer", "")
	require.Equal(t, "Public offer", crumbs[1].Label)
}
