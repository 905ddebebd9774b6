package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/stakeledger/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRowSumsToTotal(t *testing.T) {
	for _, tc := range []struct{ total, n int }{{100, 3}, {80, 4}, {7, 2}} {
		widths := LayoutRow(tc.total, tc.n)
		sum := 0
		for _, w := range widths {
			sum += w
		}
		if sum != tc.total {
			t.Errorf("LayoutRow(%d, %d) sums to %d", tc.total, tc.n, sum)
		}
	}
	if LayoutRow(10, 0) != nil {
		t.Error("LayoutRow(10, 0) should be nil")
	}
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.SetActive("stake")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := len(strings.Split(shortCard, "\n"))
	tallLines := len(strings.Split(tallCard, "\n"))
	if shortLines >= tallLines {
		t.Fatal("Test setup error: short card should be shorter than tall card")
	}

	joined := CardRow([]string{tallCard, shortCard})
	lines := strings.Split(joined, "\n")
	if len(lines) != tallLines {
		t.Errorf("Joined height should match tallest card: got %d, want %d", len(lines), tallLines)
	}

	for i := shortLines; i < len(lines); i++ {
		if !strings.Contains(lines[i], "\x1b[") {
			t.Errorf("Line %d has no ANSI codes, padding is unstyled", i)
		}
	}

	first := lipgloss.Width(lines[0])
	for i, line := range lines {
		if w := lipgloss.Width(line); w != first {
			t.Errorf("Line %d width = %d, want %d", i, w, first)
		}
	}
}

func TestTabLookups(t *testing.T) {
	if got := TabIdxByKey('h'); got != 2 {
		t.Errorf("TabIdxByKey('h') = %d, want 2", got)
	}
	if got := TabIdxByKey('q'); got != -1 {
		t.Errorf("TabIdxByKey('q') = %d, want -1", got)
	}
	if got := TabIdxBySection("settings"); got != 3 {
		t.Errorf("TabIdxBySection(settings) = %d, want 3", got)
	}
	if got := TabIdxBySection("casinos"); got != 0 {
		t.Errorf("TabIdxBySection(unknown) = %d, want 0", got)
	}
}

func TestNetBarsOneLinePerValue(t *testing.T) {
	out := NetBars(
		[]string{"Mon", "Tue"},
		[]string{"+€5.00", "-€20.00"},
		[]float64{5, -20},
		40,
	)
	if got := len(strings.Split(out, "\n")); got != 2 {
		t.Errorf("NetBars rendered %d lines, want 2", got)
	}
	if NetBars(nil, nil, nil, 40) != "" {
		t.Error("NetBars with no values should be empty")
	}
}
