package taxonomy

// NDLevel describes one step of the 1-5 neurodivergence readiness rubric.
type NDLevel struct {
	Score      int
	Codi       string
	Nom        string
	Descripcio string
}

// NDLevels maps score → level. Score 5 is deliberately never auto-trusted:
// the classifier forces human review whenever it is assigned.
var NDLevels = map[int]NDLevel{
	5: {Score: 5, Codi: "nd_excellent", Nom: "ND-Excel·lent", Descripcio: "Dissenyada explícitament per ser inclusiva"},
	4: {Score: 4, Codi: "nd_preparat", Nom: "ND-Preparat", Descripcio: "Estructures naturalment compatibles"},
	3: {Score: 3, Codi: "nd_compatible", Nom: "ND-Compatible", Descripcio: "Pot funcionar sense garanties"},
	2: {Score: 2, Codi: "nd_variable", Nom: "ND-Variable", Descripcio: "Presenta reptes potencials"},
	1: {Score: 1, Codi: "nd_desafiador", Nom: "ND-Desafiador", Descripcio: "Probablement difícil"},
}

// GetNDLevel returns the level for a score, if the score is in range.
func GetNDLevel(score int) (NDLevel, bool) {
	l, ok := NDLevels[score]
	return l, ok
}

// IsValidNDScore reports whether score is within the 1-5 rubric.
func IsValidNDScore(score int) bool {
	return score >= 1 && score <= 5
}
