package menu

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	keyMenuTitle             = "menuTitle"
	keyDownload              = "download"
	keyDownloadCompressed    = "downloadCompressed"
	keyDownloadPNG           = "downloadPng"
	keyDownloadCompressedPNG = "downloadCompressedPng"
)

var supported = []language.Tag{language.English, language.Chinese}

var (
	titles  = buildCatalog()
	matcher = language.NewMatcher(supported)
)

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))

	messages := map[language.Tag]map[string]string{
		language.English: {
			keyMenuTitle:             "Image Converter",
			keyDownload:              "Download",
			keyDownloadCompressed:    "Download compressed",
			keyDownloadPNG:           "Download as PNG",
			keyDownloadCompressedPNG: "Download compressed PNG",
		},
		language.Chinese: {
			keyMenuTitle:             "图片转换",
			keyDownload:              "下载",
			keyDownloadCompressed:    "压缩下载",
			keyDownloadPNG:           "下载为 PNG",
			keyDownloadCompressedPNG: "压缩并下载为 PNG",
		},
	}

	for tag, msgs := range messages {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}

	return b
}

// Item is an entry with its title resolved for a language.
type Item struct {
	ID       string   `json:"id"`
	ParentID string   `json:"parentId,omitempty"`
	Title    string   `json:"title"`
	Contexts []string `json:"contexts"`
}

// Match picks the supported language for an Accept-Language value or tag list.
func Match(accept ...string) language.Tag {
	var tags []language.Tag
	for _, a := range accept {
		parsed, _, err := language.ParseAcceptLanguage(a)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}

	_, idx, _ := matcher.Match(tags...)

	return supported[idx]
}

// Localized returns the entries with titles in the given language.
func (m *Menu) Localized(tag language.Tag) []Item {
	p := message.NewPrinter(tag, message.Catalog(titles))

	items := make([]Item, 0, len(m.entries))
	for _, e := range m.entries {
		items = append(items, Item{
			ID:       e.ID,
			ParentID: e.ParentID,
			Title:    p.Sprintf(message.Reference(e.TitleKey)),
			Contexts: e.Contexts,
		})
	}

	return items
}
