package menu

import (
	"testing"

	"golang.org/x/text/language"

	"github.com/aliskhannn/image-converter/internal/model"
)

func TestNew_Entries(t *testing.T) {
	tests := []struct {
		legacy   bool
		expected []string
	}{
		{false, []string{ParentID, DownloadID, DownloadCompressedID}},
		{true, []string{ParentID, DownloadID, DownloadCompressedID, DownloadAsPNGID, DownloadAsCompressedPNGID}},
	}

	for _, test := range tests {
		entries := New(test.legacy).Entries()
		if len(entries) != len(test.expected) {
			t.Fatalf("legacy=%v: got %d entries, expected %d", test.legacy, len(entries), len(test.expected))
		}

		for i, e := range entries {
			if e.ID != test.expected[i] {
				t.Errorf("legacy=%v: entry %d = %s, expected %s", test.legacy, i, e.ID, test.expected[i])
			}
			if len(e.Contexts) != 1 || e.Contexts[0] != ContextImage {
				t.Errorf("Entry %s should only appear on images, got %v", e.ID, e.Contexts)
			}
			if i > 0 && e.ParentID != ParentID {
				t.Errorf("Entry %s should be under %s", e.ID, ParentID)
			}
		}
	}
}

func TestMenu_Resolve(t *testing.T) {
	m := New(true)

	tests := []struct {
		id     string
		found  bool
		mode   model.ResizeMode
		format model.Format
	}{
		{DownloadID, true, model.ResizeNone, ""},
		{DownloadCompressedID, true, model.ResizeRatio, ""},
		{DownloadAsPNGID, true, model.ResizeNone, model.FormatPNG},
		{DownloadAsCompressedPNGID, true, model.ResizeMaxDimension, model.FormatPNG},
		{ParentID, false, 0, ""},
		{"", false, 0, ""},
		{"downloadAsCompresse", false, 0, ""},
	}

	for _, test := range tests {
		e, ok := m.Resolve(test.id)
		if ok != test.found {
			t.Errorf("Resolve(%q) found = %v, expected %v", test.id, ok, test.found)
			continue
		}
		if !ok {
			continue
		}
		if e.Action.Mode != test.mode || e.Action.Format != test.format {
			t.Errorf("Resolve(%q) = %+v, expected mode %s format %q", test.id, *e.Action, test.mode, test.format)
		}
	}

	if _, ok := New(false).Resolve(DownloadAsPNGID); ok {
		t.Error("Legacy entries should not resolve when legacy is off")
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		accept   string
		expected language.Tag
	}{
		{"zh-CN,zh;q=0.9,en;q=0.8", language.Chinese},
		{"en-US,en;q=0.9", language.English},
		{"fr-FR", language.English},
		{"", language.English},
	}

	for _, test := range tests {
		if got := Match(test.accept); got != test.expected {
			t.Errorf("Match(%q) = %s, expected %s", test.accept, got, test.expected)
		}
	}
}

func TestMenu_Localized(t *testing.T) {
	m := New(false)

	en := m.Localized(language.English)
	if en[0].Title != "Image Converter" || en[1].Title != "Download" {
		t.Errorf("Unexpected english titles: %+v", en)
	}

	zh := m.Localized(language.Chinese)
	if zh[0].Title != "图片转换" || zh[2].Title != "压缩下载" {
		t.Errorf("Unexpected chinese titles: %+v", zh)
	}
}
