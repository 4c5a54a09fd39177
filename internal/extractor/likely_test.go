package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLikelyActivity(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{
			"catalan announcement",
			"Taller de teatre per a infants de 6 a 12 anys. Inscripció oberta, horari de dimecres.",
			true,
		},
		{
			"spanish announcement",
			"Curso de natación infantil. Inscripción abierta, horario de lunes a viernes, precio 40 euros.",
			true,
		},
		{
			"boilerplate",
			"Avís legal i política de privacitat de l'Ajuntament. Tots els drets reservats.",
			false,
		},
		{
			"two keywords only",
			"El curs escolar comença al setembre.",
			false,
		},
		{
			"empty",
			"",
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLikelyActivity(tt.text))
		})
	}
}

func TestExtractActivityLinks(t *testing.T) {
	html := `<html><body>
		<a href="/activitats/robotica">Robòtica</a>
		<a href="/contacte">Contacte</a>
		<a href="/p/123">Inscripcions obertes</a>
		<a href="/activitats/robotica">Robòtica (duplicat)</a>
		<a href="https://other.org/agenda">Agenda</a>
	</body></html>`

	links, err := ExtractActivityLinks(html, "https://example.org")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://example.org/activitats/robotica",
		"https://example.org/p/123",
		"https://other.org/agenda",
	}, links)
}

func TestExtractStructuredData(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">{"@type":"Event","name":"Festa Major"}</script>
		<script type="application/ld+json">{"@type":"Organization","name":"Ajuntament"}</script>
		<script type="application/ld+json">{bad json</script>
		<script type="application/ld+json">{"@type":"Course","name":"Curs de teatre"}</script>
	</head><body></body></html>`

	data, err := ExtractStructuredData(html)
	require.NoError(t, err)
	require.Len(t, data, 2)
	assert.Equal(t, "Festa Major", data[0]["name"])
	assert.Equal(t, "Curs de teatre", data[1]["name"])
}

func TestExtractStructuredData_ArrayAndGraph(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">[
			{"@type":"Event","name":"Caminada popular"},
			{"@type":"WebPage","name":"Inici"}
		]</script>
		<script type="application/ld+json">{
			"@context":"https://schema.org",
			"@graph":[
				{"@type":"Organization","name":"Esplai"},
				{"@type":"Course","name":"Casal d'estiu"}
			]
		}</script>
	</head><body></body></html>`

	data, err := ExtractStructuredData(html)
	require.NoError(t, err)
	require.Len(t, data, 2)
	assert.Equal(t, "Caminada popular", data[0]["name"])
	assert.Equal(t, "Casal d'estiu", data[1]["name"])
}
