package common

import (
	"reflect"
	"testing"
)

func TestSplitKeywords(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"simple", "tv,playstation", []string{"tv", "playstation"}},
		{"spaces trimmed", " tv , playstation ", []string{"tv", "playstation"}},
		{"empties dropped", "tv,,playstation,", []string{"tv", "playstation"}},
		{"single", "vita", []string{"vita"}},
		{"empty", "", []string{}},
		{"only commas", ",,,", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitKeywords(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitKeywords(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestContainsAllKeywords(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		keywords []string
		want     bool
	}{
		{"all present", "Sony PlayStation TV Vita", []string{"tv", "playstation"}, true},
		{"case insensitive", "SONY PLAYSTATION tv", []string{"TV", "PlayStation"}, true},
		{"one missing", "Sony PlayStation 4", []string{"tv", "playstation"}, false},
		{"empty keywords match all", "anything", nil, true},
		{"blank keywords skipped", "PS Vita", []string{" ", "vita"}, true},
		{"substring match", "Телевізор Samsung", []string{"телевізор"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ContainsAllKeywords(tt.title, tt.keywords)
			if got != tt.want {
				t.Errorf("ContainsAllKeywords(%q, %v) = %v, want %v", tt.title, tt.keywords, got, tt.want)
			}
		})
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   int64
		wantOK bool
	}{
		{"plain", "1500", 1500, true},
		{"hryvnia suffix", "5 200 грн.", 5200, true},
		{"comma thousands", "1,250 zł", 1250, true},
		{"nbsp thousands", "3 500 грн.", 3500, true},
		{"decimal cut off", "1 299.99", 1299, true},
		{"negotiable", "Договірна", 0, false},
		{"free", "Безкоштовно", 0, false},
		{"na", "N/A", 0, false},
		{"empty", "", 0, false},
		{"currency prefix", "грн 700", 700, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePrice(tt.text)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParsePrice(%q) = (%d, %v), want (%d, %v)", tt.text, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFilterMatch(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		title  string
		price  string
		want   bool
	}{
		{"no constraints", Filter{}, "PS Vita TV", "100 грн.", true},
		{"keyword hit", Filter{Keywords: []string{"vita"}}, "PS Vita TV", "100 грн.", true},
		{"keyword miss", Filter{Keywords: []string{"vita"}}, "PS4 Slim", "100 грн.", false},
		{"below min", Filter{MinPrice: 500}, "PS Vita", "300 грн.", false},
		{"above max", Filter{MaxPrice: 1000}, "PS Vita", "1 500 грн.", false},
		{"inside bounds", Filter{MinPrice: 500, MaxPrice: 2000}, "PS Vita", "1 500 грн.", true},
		{"unparseable price passes bounds", Filter{MinPrice: 500}, "PS Vita", "Договірна", true},
		{"keyword beats price", Filter{Keywords: []string{"vita"}, MinPrice: 1}, "PS4", "999 грн.", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Match(tt.title, tt.price)
			if got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.title, tt.price, got, tt.want)
			}
		})
	}
}
