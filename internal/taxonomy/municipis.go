package taxonomy

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Municipi is one municipality of the Vallès Oriental.
type Municipi struct {
	ID           string
	Nom          string
	CodisPostals []string
}

// Municipis lists every municipality, keyed by canonical id.
var Municipis = map[string]Municipi{
	"ametlla": {ID: "ametlla", Nom: "L'Ametlla del Vallès", CodisPostals: []string{"08480"}},
	"bigues-riells": {ID: "bigues-riells", Nom: "Bigues i Riells", CodisPostals: []string{"08415"}},
	"caldes-montbui": {ID: "caldes-montbui", Nom: "Caldes de Montbui", CodisPostals: []string{"08140"}},
	"campins": {ID: "campins", Nom: "Campins", CodisPostals: []string{"08479"}},
	"canovelles": {ID: "canovelles", Nom: "Canovelles", CodisPostals: []string{"08420"}},
	"cardedeu": {ID: "cardedeu", Nom: "Cardedeu", CodisPostals: []string{"08440"}},
	"castellcir": {ID: "castellcir", Nom: "Castellcir", CodisPostals: []string{"08183"}},
	"castelltercol": {ID: "castelltercol", Nom: "Castellterçol", CodisPostals: []string{"08183"}},
	"fogars-montclus": {ID: "fogars-montclus", Nom: "Fogars de Montclús", CodisPostals: []string{"08479"}},
	"garriga": {ID: "garriga", Nom: "La Garriga", CodisPostals: []string{"08530"}},
	"granera": {ID: "granera", Nom: "Granera", CodisPostals: []string{"08183"}},
	"granollers": {ID: "granollers", Nom: "Granollers", CodisPostals: []string{"08400", "08401", "08402", "08403"}},
	"gualba": {ID: "gualba", Nom: "Gualba", CodisPostals: []string{"08474"}},
	"llagosta": {ID: "llagosta", Nom: "La Llagosta", CodisPostals: []string{"08120"}},
	"les-franqueses": {ID: "les-franqueses", Nom: "Les Franqueses del Vallès", CodisPostals: []string{"08520"}},
	"llica-amunt": {ID: "llica-amunt", Nom: "Lliçà d'Amunt", CodisPostals: []string{"08186"}},
	"llica-vall": {ID: "llica-vall", Nom: "Lliçà de Vall", CodisPostals: []string{"08185"}},
	"llinars": {ID: "llinars", Nom: "Llinars del Vallès", CodisPostals: []string{"08450"}},
	"martorelles": {ID: "martorelles", Nom: "Martorelles", CodisPostals: []string{"08107"}},
	"mollet": {ID: "mollet", Nom: "Mollet del Vallès", CodisPostals: []string{"08100"}},
	"montmelo": {ID: "montmelo", Nom: "Montmeló", CodisPostals: []string{"08160"}},
	"montornes": {ID: "montornes", Nom: "Montornès del Vallès", CodisPostals: []string{"08170"}},
	"montseny": {ID: "montseny", Nom: "Montseny", CodisPostals: []string{"08469"}},
	"parets": {ID: "parets", Nom: "Parets del Vallès", CodisPostals: []string{"08150"}},
	"roca": {ID: "roca", Nom: "La Roca del Vallès", CodisPostals: []string{"08430"}},
	"sant-antoni-vilamajor": {ID: "sant-antoni-vilamajor", Nom: "Sant Antoni de Vilamajor", CodisPostals: []string{"08459"}},
	"sant-celoni": {ID: "sant-celoni", Nom: "Sant Celoni", CodisPostals: []string{"08470"}},
	"sant-esteve-palautordera": {ID: "sant-esteve-palautordera", Nom: "Sant Esteve de Palautordera", CodisPostals: []string{"08461"}},
	"sant-feliu-codines": {ID: "sant-feliu-codines", Nom: "Sant Feliu de Codines", CodisPostals: []string{"08182"}},
	"sant-fost-campsentelles": {ID: "sant-fost-campsentelles", Nom: "Sant Fost de Campsentelles", CodisPostals: []string{"08105"}},
	"sant-pere-vilamajor": {ID: "sant-pere-vilamajor", Nom: "Sant Pere de Vilamajor", CodisPostals: []string{"08458"}},
	"sant-quirze-safaja": {ID: "sant-quirze-safaja", Nom: "Sant Quirze Safaja", CodisPostals: []string{"08189"}},
	"santa-eulalia-roncana": {ID: "santa-eulalia-roncana", Nom: "Santa Eulàlia de Ronçana", CodisPostals: []string{"08187"}},
	"santa-maria-martorelles": {ID: "santa-maria-martorelles", Nom: "Santa Maria de Martorelles", CodisPostals: []string{"08106"}},
	"santa-maria-palautordera": {ID: "santa-maria-palautordera", Nom: "Santa Maria de Palautordera", CodisPostals: []string{"08460"}},
	"tagamanent": {ID: "tagamanent", Nom: "Tagamanent", CodisPostals: []string{"08593"}},
	"vallgorguina": {ID: "vallgorguina", Nom: "Vallgorguina", CodisPostals: []string{"08471"}},
	"vallromanes": {ID: "vallromanes", Nom: "Vallromanes", CodisPostals: []string{"08188"}},
	"vilalba-sasserra": {ID: "vilalba-sasserra", Nom: "Vilalba Sasserra", CodisPostals: []string{"08455"}},
	"vilanova-valles": {ID: "vilanova-valles", Nom: "Vilanova del Vallès", CodisPostals: []string{"08410"}},
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases s and strips diacritics ("Montmeló" → "montmelo").
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// GetMunicipi looks up a municipality by canonical id.
func GetMunicipi(id string) (Municipi, bool) {
	m, ok := Municipis[id]
	return m, ok
}

// GetMunicipiByPostalCode resolves a municipality from a 5-digit postal
// code. Some rural codes (08183, 08479) cover several municipalities; those
// resolve to no match so the record goes to review instead of a guess.
func GetMunicipiByPostalCode(codi string) (Municipi, bool) {
	var found []Municipi
	for _, id := range municipiIDs() {
		m := Municipis[id]
		for _, cp := range m.CodisPostals {
			if cp == codi {
				found = append(found, m)
				break
			}
		}
	}
	if len(found) != 1 {
		return Municipi{}, false
	}
	return found[0], true
}

// SearchMunicipis returns every municipality whose name contains the query,
// ignoring case and diacritics.
func SearchMunicipis(query string) []Municipi {
	q := Fold(query)
	var matches []Municipi
	for _, id := range municipiIDs() {
		m := Municipis[id]
		if strings.Contains(Fold(m.Nom), q) {
			matches = append(matches, m)
		}
	}
	return matches
}

func municipiIDs() []string {
	ids := make([]string, 0, len(Municipis))
	for id := range Municipis {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
