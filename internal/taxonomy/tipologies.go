// Package taxonomy holds the static reference data the classifier and the
// persistence layer consume: activity typologies, the municipalities of the
// Vallès Oriental, ND readiness levels, cadence codes and the tag vocabulary.
package taxonomy

// Tipologia is one taxonomy category an activity can be assigned to.
type Tipologia struct {
	Codi          string
	Nom           string
	Descripcio    string
	Subtipologies []string
}

// DefaultTipologia is the catch-all category applied when the classifier
// returns no typology at all. Persisting without a primary typology is not
// allowed.
const DefaultTipologia = "lleure"

// MaxTipologies bounds how many typology assignments one activity carries.
const MaxTipologies = 3

// Tipologies lists every taxonomy category, keyed by code.
var Tipologies = map[string]Tipologia{
	"arts": {
		Codi:          "arts",
		Nom:           "Arts",
		Descripcio:    "Música, dansa, teatre, arts plàstiques, circ",
		Subtipologies: []string{"musica", "dansa", "teatre", "arts_plastiques", "circ", "audiovisuals"},
	},
	"esports": {
		Codi:          "esports",
		Nom:           "Esports",
		Descripcio:    "Esports individuals i d'equip, arts marcials",
		Subtipologies: []string{"futbol", "basquet", "natacio", "arts_marcials", "gimnastica"},
	},
	"natura_ciencia": {
		Codi:          "natura_ciencia",
		Nom:           "Natura i Ciència",
		Descripcio:    "Ciència, tecnologia, robòtica, medi ambient",
		Subtipologies: []string{"robotica", "programacio", "ciencia", "natura", "astronomia"},
	},
	"cultura_popular": {
		Codi:          "cultura_popular",
		Nom:           "Cultura Popular",
		Descripcio:    "Castells, gegants, diables, sardanes",
		Subtipologies: []string{"castells", "gegants", "diables", "sardanes", "folklore"},
	},
	"llengua_cultura": {
		Codi:          "llengua_cultura",
		Nom:           "Llengua i Cultura",
		Descripcio:    "Idiomes, literatura, escriptura",
		Subtipologies: []string{"catala", "angles", "literatura", "escriptura"},
	},
	"lleure": {
		Codi:          "lleure",
		Nom:           "Lleure",
		Descripcio:    "Esplais, caus, agrupaments, ludoteques",
		Subtipologies: []string{"esplai", "cau", "agrupament", "ludoteca", "casal"},
	},
	"social_comunitari": {
		Codi:          "social_comunitari",
		Nom:           "Social i Comunitari",
		Descripcio:    "Voluntariat, participació, projectes comunitaris",
		Subtipologies: []string{"voluntariat", "participacio", "comunitari"},
	},
	"accio_social": {
		Codi:          "accio_social",
		Nom:           "Acció Social",
		Descripcio:    "Projectes d'inclusió, diversitat funcional",
		Subtipologies: []string{"inclusio", "diversitat_funcional", "suport"},
	},
	"educacio_reforc": {
		Codi:          "educacio_reforc",
		Nom:           "Educació i Reforç",
		Descripcio:    "Reforç escolar, tècniques d'estudi",
		Subtipologies: []string{"reforc_escolar", "tecniques_estudi", "logopedia"},
	},
}

// TipologiaCodis returns every typology code in a stable order.
func TipologiaCodis() []string {
	return []string{
		"arts", "esports", "natura_ciencia", "cultura_popular",
		"llengua_cultura", "lleure", "social_comunitari", "accio_social",
		"educacio_reforc",
	}
}

// IsTipologia reports whether codi is a known typology code.
func IsTipologia(codi string) bool {
	_, ok := Tipologies[codi]
	return ok
}
