package stops

import (
	"regexp"
	"strings"

	"github.com/mideind/straeto/internal/feed"
)

// voiceNames maps display names that read badly aloud to their spoken form.
var voiceNames = map[string]string{
	"Umferðarmiðstöðin (BSÍ)":          "Umferðarmiðstöðin",
	"BSÍ":                              "Umferðarmiðstöðin",
	"BSÍ / Landspítalinn":              "Umferðarmiðstöðin / Landspítalinn",
	"KEF - Airport":                    "Keflavíkurflugvöllur",
	"10-11":                            "Tíu ellefu",
	"Fjölbrautaskóli Suðurnesja / FS":  "Fjölbrautaskóli Suðurnesja",
	"Sauðárkrókur - N1":                "Sauðárkrókur - Enn einn",
	"Þórunnarstræti / MA":              "Þórunnarstræti / Menntaskólinn á Akureyri",
	"Fáskrúðsfjörður / Hafnargata v. Franska sp.": "Fáskrúðsfjörður / Hafnargata við franska spítalann",
	"Stöðvarfjörður / Brekkan - uppl. miðstöð":    "Stöðvarfjörður / Brekkan upplýsingamiðstöð",
	"Selfoss - N1":                     "Selfoss - Enn einn",
	"Selfoss - FSU":                    "Selfoss - Fjölbrautaskóli Suðurlands",
	"FSU":                              "Fjölbrautaskóli Suðurlands",
	"RÚV":                              "Útvarpshúsið",
	"TBR":                              "Tennis og badmintonfélag Reykjavíkur",
	"KR":                               "Knattspyrnufélag Reykjavíkur",
	"JL húsið":                         "Joð ell húsið",
	"Esjurætur - Hiking Center":        "Esjurætur",
	"LSH / Hringbraut":                 "Landspítalinn / Hringbraut",
	"Menntaskólinn í Reykjavík / MR":   "MR",
	"Menntaskólinn við Hamrahlíð / MH": "MH",
	"Menntaskólinn við Sund / MS":      "MS",
	"Íþróttamiðstöð ÍR":                "Íþróttamiðstöð Í R",
}

// Voice returns the spoken form of a stop name.
func Voice(name string) string {
	if v, ok := voiceNames[name]; ok {
		return v
	}
	return name
}

var spaceRun = regexp.MustCompile(`\s+`)

// searchKey lower-cases a name and turns hyphens and slashes into single
// spaces.
func searchKey(name string) string {
	if name == "" {
		return ""
	}
	key := strings.NewReplacer("-", " ", "/", " ").Replace(strings.ToLower(name))
	return strings.TrimSpace(spaceRun.ReplaceAllString(key, " "))
}

// Named returns the stops called name. With fuzzy set it also returns stops
// whose name, or spoken name, contains the query as a whole word
// sequence, ignoring case, hyphens and slashes. Exact matches come first,
// the rest follow grouped by name in order of first appearance.
func (idx *Index) Named(name string, fuzzy bool) []feed.Stop {
	exact := idx.byName[name]
	if !fuzzy {
		return idx.collect(exact)
	}

	query := searchKey(name)
	if query == "" {
		return idx.collect(exact)
	}
	pattern, err := regexp.Compile(`(^|[^\p{L}\p{N}])` + regexp.QuoteMeta(query) + `($|[^\p{L}\p{N}])`)
	if err != nil {
		return idx.collect(exact)
	}

	seen := make(map[int]struct{}, len(exact))
	positions := append([]int(nil), exact...)
	for _, p := range exact {
		seen[p] = struct{}{}
	}
	for _, key := range idx.keys {
		if !pattern.MatchString(key.skey) && (key.voice == "" || !pattern.MatchString(key.voice)) {
			continue
		}
		for _, p := range idx.byName[key.name] {
			if _, dup := seen[p]; !dup {
				seen[p] = struct{}{}
				positions = append(positions, p)
			}
		}
	}
	return idx.collect(positions)
}
