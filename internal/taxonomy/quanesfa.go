package taxonomy

// QuanEsFa is a cadence category: how often an activity happens.
type QuanEsFa struct {
	Codi       string
	Nom        string
	Descripcio string
}

// DefaultQuanEsFa is applied when the classifier leaves the cadence empty.
const DefaultQuanEsFa = "puntual"

// QuanEsFaCodis lists every cadence code in a stable order.
var QuanEsFaCodis = []string{"setmanal", "caps_de_setmana", "intensiu_vacances", "puntual", "flexible"}

// QuanEsFaTable maps cadence code → description.
var QuanEsFaTable = map[string]QuanEsFa{
	"setmanal":          {Codi: "setmanal", Nom: "Setmanal", Descripcio: "Activitat regular durant la setmana"},
	"caps_de_setmana":   {Codi: "caps_de_setmana", Nom: "Caps de setmana", Descripcio: "Dissabtes i/o diumenges"},
	"intensiu_vacances": {Codi: "intensiu_vacances", Nom: "Intensiu vacances", Descripcio: "Casals, colònies, campus estivals"},
	"puntual":           {Codi: "puntual", Nom: "Puntual", Descripcio: "Activitat única o esporàdica"},
	"flexible":          {Codi: "flexible", Nom: "Flexible", Descripcio: "Horaris adaptables"},
}

// IsQuanEsFa reports whether codi is a known cadence code.
func IsQuanEsFa(codi string) bool {
	_, ok := QuanEsFaTable[codi]
	return ok
}
