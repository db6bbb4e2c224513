// Package catalogtest provides a small bilingual catalog fixture for tests.
package catalogtest

import (
	"testing"

	"github.com/louisbranch/promptforge/internal/core/catalog"
)

// CatalogJSON backs a subset of the default slots. "ribbon" is present in
// both head and accessory to exercise slot-order tie-breaks.
const CatalogJSON = `{
  "catalogs": {
    "hair_style": [
      {"id": "twin_tails", "name_i18n": {"en": "twin tails", "zh": "双马尾"}, "group": "tails"},
      {"id": "ponytail", "name_i18n": {"en": "ponytail", "zh": "马尾"}, "group": "tails"},
      {"id": "bob_cut", "name_i18n": {"en": "bob cut", "zh": "波波头"}}
    ],
    "hair_color": [
      {"id": "black_hair", "name_i18n": {"en": "black hair", "zh": "黑发"}},
      {"id": "blonde_hair", "name_i18n": {"en": "blonde hair", "zh": "金发"}}
    ],
    "eye_color": [
      {"id": "red_eyes", "name_i18n": {"en": "red eyes", "zh": "红色眼睛"}},
      {"id": "blue_eyes", "name_i18n": {"en": "blue eyes", "zh": "蓝色眼睛"}}
    ],
    "expression": [
      {"id": "smile", "name_i18n": {"en": "smile", "zh": "微笑"}},
      {"id": "pout", "name": "pout"}
    ],
    "head": [
      {"id": "head_ribbon", "name_i18n": {"en": "ribbon", "zh": "发带"}}
    ],
    "upper_body": [
      {"id": "shirt", "name_i18n": {"en": "shirt", "zh": "衬衫"}},
      {"id": "sailor_blouse", "name_i18n": {"en": "sailor blouse", "zh": "水手服上衣"}}
    ],
    "lower_body": [
      {"id": "pleated_skirt", "name_i18n": {"en": "pleated skirt", "zh": "百褶裙"}},
      {"id": "long_skirt", "name_i18n": {"en": "long skirt", "zh": "长裙"}, "covers_legs": true},
      {"id": "jeans", "name_i18n": {"en": "jeans", "zh": "牛仔裤"}, "covers_legs": true}
    ],
    "full_body": [
      {"id": "sundress", "name_i18n": {"en": "sundress", "zh": "太阳裙"}},
      {"id": "kimono", "name_i18n": {"en": "kimono", "zh": "和服"}}
    ],
    "legs": [
      {"id": "thighhighs", "name_i18n": {"en": "thighhighs", "zh": "过膝袜"}}
    ],
    "feet": [
      {"id": "sneakers", "name_i18n": {"en": "sneakers", "zh": "运动鞋"}}
    ],
    "accessory": [
      {"id": "accessory_ribbon", "name_i18n": {"en": "ribbon", "zh": "缎带"}}
    ],
    "pose": [
      {"id": "standing", "name_i18n": {"en": "standing", "zh": "站立"}},
      {"id": "hands_on_hips", "name_i18n": {"en": "hands on hips", "zh": "双手叉腰"}, "uses_hands": true}
    ],
    "gesture": [
      {"id": "peace_sign", "name_i18n": {"en": "peace sign", "zh": "剪刀手"}}
    ],
    "background": [
      {"id": "simple_background", "name_i18n": {"en": "simple background", "zh": "简单背景"}}
    ]
  }
}`

// ColorsJSON holds the individual colors and three palettes: one with a
// fallback, one without, and one referencing a token outside the
// individual set.
const ColorsJSON = `{
  "individual_colors": [
    {"id": "red", "name_i18n": {"en": "red", "zh": "红色"}},
    {"id": "blue", "name_i18n": {"en": "blue", "zh": "蓝色"}},
    {"id": "navy_blue", "name_i18n": {"en": "navy blue", "zh": "海军蓝"}},
    {"id": "white", "name_i18n": {"en": "white", "zh": "白色"}},
    {"id": "black", "name_i18n": {"en": "black", "zh": "黑色"}}
  ],
  "palettes": [
    {"id": "school", "name_i18n": {"en": "School", "zh": "校园"}, "category_colors": {"top": "white", "bottom": "navy_blue"}, "fallback": "black"},
    {"id": "bare", "name": "Bare", "category_colors": {"top": "red"}},
    {"id": "wedding", "name": "Wedding", "category_colors": {"dress": "ivory"}}
  ]
}`

// Sources returns the fixture as loadable sources.
func Sources() []catalog.Source {
	return []catalog.Source{
		{Name: "catalogs/fixture.json", Kind: catalog.KindCatalog, Data: []byte(CatalogJSON)},
		{Name: "colors/fixture.json", Kind: catalog.KindColors, Data: []byte(ColorsJSON)},
	}
}

// Index loads the fixture or fails the test.
func Index(t testing.TB) *catalog.Index {
	t.Helper()
	ix, err := catalog.Load(Sources())
	if err != nil {
		t.Fatalf("load fixture catalog: %v", err)
	}
	return ix
}
