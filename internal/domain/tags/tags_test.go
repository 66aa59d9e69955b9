package tags

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"comma", "원피스, 네이비, 린넨", []string{"원피스", "네이비", "린넨"}},
		{"full-width comma", "코트，트위드", []string{"코트", "트위드"}},
		{"whitespace", "네이비 코트\t오버사이즈\n", []string{"네이비", "코트", "오버사이즈"}},
		{"repeated separators", ",, 셔츠 ,,", []string{"셔츠"}},
		{"empty", "", nil},
		{"only separators", " , ， ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.in)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"원피스, 네이비, 린넨", 3},
		{"코트，트위드 오버사이즈", 3},
		{"", 0},
		{"  ,  ", 0},
		{"셔츠", 1},
	}
	for _, tt := range tests {
		if got := Count(tt.in); got != tt.want {
			t.Errorf("Count(%q) = %d, want %d", tt.in, got, tt.want)
		}
		if got := len(Split(tt.in)); got != tt.want {
			t.Errorf("len(Split(%q)) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSplitList_KeepsMultiWordTags(t *testing.T) {
	got := SplitList("원피스, 롱 기장,\n 반팔 ,")
	want := []string{"원피스", "롱 기장", "반팔"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitList() = %q, want %q", got, want)
	}
}

func TestExtractVocabulary(t *testing.T) {
	got := ExtractVocabulary([]any{"원피스, 네이비", "네이비 코트"}, []string{"fallback"})
	want := []string{"네이비", "원피스", "코트"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractVocabulary() = %q, want %q", got, want)
	}
}

func TestExtractVocabulary_EmptyCorpusReturnsFallback(t *testing.T) {
	fallback := []string{"코트", "원피스", "코트"}
	got := ExtractVocabulary(nil, fallback)
	want := []string{"원피스", "코트"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractVocabulary(nil) = %q, want %q", got, want)
	}

	got = ExtractVocabulary([]any{}, fallback)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractVocabulary([]) = %q, want %q", got, want)
	}
}

func TestExtractVocabulary_SkipsMalformedEntries(t *testing.T) {
	corpus := []any{
		42,
		nil,
		map[string]string{"a": "b"},
		[]string{"셔츠, 스트라이프"},
		[]any{"니트", 3.14, []any{"nested"}},
		"데님",
	}
	got := ExtractVocabulary(corpus, []string{"fallback"})
	want := []string{"니트", "데님", "셔츠", "스트라이프"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractVocabulary() = %q, want %q", got, want)
	}
}

func TestExtractVocabulary_OnlyMalformedFallsBack(t *testing.T) {
	got := ExtractVocabulary([]any{1, 2.0, true}, []string{"미니멀"})
	if !reflect.DeepEqual(got, []string{"미니멀"}) {
		t.Errorf("ExtractVocabulary() = %q, want fallback", got)
	}
}

func TestExtractVocabulary_TokenLengthBounds(t *testing.T) {
	long := strings.Repeat("가", MaxTokenLen+1)
	edge := strings.Repeat("나", MaxTokenLen)
	got := ExtractVocabulary([]any{long + ", " + edge + ", 옷"}, nil)
	want := []string{edge, "옷"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractVocabulary() = %q, want %q", got, want)
	}
}

func TestExtractVocabulary_NFC(t *testing.T) {
	// decomposed jamo collapse with the precomposed syllable
	nfd := "\u1100\u1161"
	got := ExtractVocabulary([]any{nfd + ", 가"}, nil)
	if !reflect.DeepEqual(got, []string{"가"}) {
		t.Errorf("ExtractVocabulary() = %q, want [가]", got)
	}
}

func TestExtractVocabulary_Deterministic(t *testing.T) {
	corpus := []any{"코트, 린넨, 네이비", "원피스 코트"}
	first := ExtractVocabulary(corpus, nil)
	for range 10 {
		if got := ExtractVocabulary(corpus, nil); !reflect.DeepEqual(got, first) {
			t.Fatalf("non-deterministic result: %q vs %q", got, first)
		}
	}
}

func TestFromPhrases(t *testing.T) {
	got := FromPhrases([]string{
		"원피스, 네이비, 오피스룩",
		"여름에 입기 좋은 흰색 원피스",
	})
	want := []string{"네이비", "여름에", "오피스룩", "원피스", "입기", "좋은", "흰색"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FromPhrases() = %q, want %q", got, want)
	}
}
