package locale

import "testing"

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code   string
		want   Locale
		wantOK bool
	}{
		{code: "en", want: English, wantOK: true},
		{code: "en-GB", want: English, wantOK: true},
		{code: "zh", want: Chinese, wantOK: true},
		{code: "zh-CN", want: Chinese, wantOK: true},
		{code: "zh_TW", want: Chinese, wantOK: true},
		{code: " ZH-hans ", want: Chinese, wantOK: true},
		{code: "ja", wantOK: false},
		{code: "", wantOK: false},
		{code: "not a tag!", wantOK: false},
	}
	for _, tt := range tests {
		got, ok := Parse(tt.code)
		if ok != tt.wantOK {
			t.Fatalf("Parse(%q) ok = %v, want %v", tt.code, ok, tt.wantOK)
		}
		if ok && got != tt.want {
			t.Fatalf("Parse(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestNormalizeFallsBackToDefault(t *testing.T) {
	t.Parallel()

	if got := Normalize("fr-FR"); got != Default {
		t.Fatalf("Normalize(fr-FR) = %q, want %q", got, Default)
	}
	if got := Normalize("zh-CN"); got != Chinese {
		t.Fatalf("Normalize(zh-CN) = %q, want %q", got, Chinese)
	}
}

func TestMatchAcceptLanguage(t *testing.T) {
	t.Parallel()

	if got := Match("zh-CN,zh;q=0.9,en;q=0.8"); got != Chinese {
		t.Fatalf("Match = %q, want %q", got, Chinese)
	}
	if got := Match("en-US,en;q=0.9"); got != English {
		t.Fatalf("Match = %q, want %q", got, English)
	}
	if got := Match(""); got != Default {
		t.Fatalf("Match(empty) = %q, want %q", got, Default)
	}
}

func TestParseListDropsUnsupportedAndDuplicates(t *testing.T) {
	t.Parallel()

	got := ParseList([]string{"zh-CN", "ja", "zh", "en"})
	if len(got) != 2 || got[0] != Chinese || got[1] != English {
		t.Fatalf("ParseList = %v, want [zh en]", got)
	}
}

func TestValidAndTag(t *testing.T) {
	t.Parallel()

	if !Chinese.Valid() || Locale("fr").Valid() {
		t.Fatal("unexpected validity")
	}
	if Chinese.Tag().String() != "zh" {
		t.Fatalf("Chinese tag = %s", Chinese.Tag())
	}
}
