package utils

import (
	"sort"
	"strings"
)

// Concept maps a set of synonym phrases to one canonical value.
type Concept struct {
	Canonical string
	Synonyms  []string
}

// Match is a dictionary hit over a token slice, covering tokens[Start:End].
type Match struct {
	Canonical string
	Start     int
	End       int
}

type phrase struct {
	tokens    []string
	canonical string
}

// Dictionary matches token windows against synonym phrases.
type Dictionary struct {
	concepts []Concept
	phrases  []phrase
}

// NewDictionary builds a dictionary. Synonyms are normalized the same way
// as input text, so they may be written with accents.
func NewDictionary(concepts []Concept) *Dictionary {
	d := &Dictionary{concepts: concepts}
	for _, c := range concepts {
		for _, syn := range c.Synonyms {
			toks := Normalize(syn)
			if len(toks) == 0 {
				continue
			}
			d.phrases = append(d.phrases, phrase{tokens: toks, canonical: c.Canonical})
		}
	}
	// Longest phrase first so "mato grosso do sul" wins over "mato grosso".
	sort.SliceStable(d.phrases, func(i, j int) bool {
		return len(d.phrases[i].tokens) > len(d.phrases[j].tokens)
	})
	return d
}

// Canonicals returns the canonical values in declaration order.
func (d *Dictionary) Canonicals() []string {
	out := make([]string, len(d.concepts))
	for i, c := range d.concepts {
		out[i] = c.Canonical
	}
	return out
}

// Scan returns non-overlapping matches from left to right.
func (d *Dictionary) Scan(tokens []string) []Match {
	var matches []Match
	for i := 0; i < len(tokens); {
		matched := false
		for _, p := range d.phrases {
			if hasPrefixTokens(tokens[i:], p.tokens) {
				matches = append(matches, Match{Canonical: p.canonical, Start: i, End: i + len(p.tokens)})
				i += len(p.tokens)
				matched = true
				break
			}
		}
		if !matched {
			i++
		}
	}
	return matches
}

// Last returns the canonical value of the right-most match.
func (d *Dictionary) Last(tokens []string) (string, bool) {
	matches := d.Scan(tokens)
	if len(matches) == 0 {
		return "", false
	}
	return matches[len(matches)-1].Canonical, true
}

// Set returns the distinct canonical values found in tokens.
func (d *Dictionary) Set(tokens []string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, m := range d.Scan(tokens) {
		set[m.Canonical] = struct{}{}
	}
	return set
}

// Any reports whether any phrase occurs in tokens.
func (d *Dictionary) Any(tokens []string) bool {
	return len(d.Scan(tokens)) > 0
}

func hasPrefixTokens(tokens, prefix []string) bool {
	if len(prefix) > len(tokens) {
		return false
	}
	for i := range prefix {
		if tokens[i] != prefix[i] {
			return false
		}
	}
	return true
}

// PropertyTypes maps type words to catalog categories.
var PropertyTypes = NewDictionary([]Concept{
	{"Fazenda", []string{"fazenda", "fazendas", "propriedade rural"}},
	{"Sítio", []string{"sítio", "sítios", "sitiozinho"}},
	{"Chácara", []string{"chácara", "chácaras", "chacrinha"}},
	{"Haras", []string{"haras"}},
	{"Rancho", []string{"rancho", "ranchos"}},
	{"Terreno", []string{"terreno", "terrenos", "gleba", "glebas", "lote rural"}},
})

// States maps state names, accepted codes and region nicknames to UF codes.
// Two-letter codes that collide with common words (se, es, to, pa...) are
// left out; they resolve only through StateCode.
var States = NewDictionary([]Concept{
	{"AC", []string{"acre"}},
	{"AL", []string{"alagoas"}},
	{"AP", []string{"amapá"}},
	{"AM", []string{"amazonas"}},
	{"BA", []string{"bahia", "ba", "oeste baiano"}},
	{"CE", []string{"ceará"}},
	{"DF", []string{"distrito federal", "df"}},
	{"ES", []string{"espírito santo"}},
	{"GO", []string{"goiás", "go", "goias"}},
	{"MA", []string{"maranhão"}},
	{"MT", []string{"mato grosso", "mt", "matogrosso"}},
	{"MS", []string{"mato grosso do sul", "ms"}},
	{"MG", []string{"minas gerais", "minas", "mg", "triângulo mineiro", "sul de minas", "norte de minas"}},
	{"PA", []string{"estado do pará", "no pará", "sul do pará", "sudeste do pará"}},
	{"PB", []string{"paraíba", "pb"}},
	{"PR", []string{"paraná", "pr", "norte do paraná", "oeste do paraná"}},
	{"PE", []string{"pernambuco"}},
	{"PI", []string{"piauí", "pi"}},
	{"RJ", []string{"rio de janeiro", "rj"}},
	{"RN", []string{"rio grande do norte", "rn"}},
	{"RS", []string{"rio grande do sul", "rs", "gaúcho", "serra gaúcha"}},
	{"RO", []string{"rondônia", "ro"}},
	{"RR", []string{"roraima", "rr"}},
	{"SC", []string{"santa catarina", "sc"}},
	{"SP", []string{"são paulo", "sp", "interior paulista", "oeste paulista"}},
	{"SE", []string{"sergipe"}},
	{"TO", []string{"tocantins"}},
})

// stateNames resolves full state names for address parsing.
var stateNames = map[string]string{
	"acre": "AC", "alagoas": "AL", "amapa": "AP", "amazonas": "AM", "bahia": "BA",
	"ceara": "CE", "distrito federal": "DF", "espirito santo": "ES", "goias": "GO",
	"maranhao": "MA", "mato grosso": "MT", "mato grosso do sul": "MS", "minas gerais": "MG",
	"para": "PA", "paraiba": "PB", "parana": "PR", "pernambuco": "PE", "piaui": "PI",
	"rio de janeiro": "RJ", "rio grande do norte": "RN", "rio grande do sul": "RS",
	"rondonia": "RO", "roraima": "RR", "santa catarina": "SC", "sao paulo": "SP",
	"sergipe": "SE", "tocantins": "TO",
	"state of sao paulo": "SP", "state of minas gerais": "MG", "state of goias": "GO",
}

var stateCodes = map[string]bool{
	"AC": true, "AL": true, "AP": true, "AM": true, "BA": true, "CE": true, "DF": true,
	"ES": true, "GO": true, "MA": true, "MT": true, "MS": true, "MG": true, "PA": true,
	"PB": true, "PR": true, "PE": true, "PI": true, "RJ": true, "RN": true, "RS": true,
	"RO": true, "RR": true, "SC": true, "SP": true, "SE": true, "TO": true,
}

// StateCode resolves a region written as a UF code or a full state name.
func StateCode(region string) (string, bool) {
	r := NormalizeJoined(region)
	if r == "" {
		return "", false
	}
	if code := strings.ToUpper(r); stateCodes[code] {
		return code, true
	}
	code, ok := stateNames[r]
	return code, ok
}

// City is a known municipality with its state.
type City struct {
	Name  string
	State string
}

var cityTable = []City{
	{"Uberaba", "MG"}, {"Uberlândia", "MG"}, {"Patos de Minas", "MG"}, {"Montes Claros", "MG"},
	{"Unaí", "MG"}, {"Paracatu", "MG"}, {"Governador Valadares", "MG"}, {"Araxá", "MG"},
	{"Ribeirão Preto", "SP"}, {"Barretos", "SP"}, {"Araçatuba", "SP"}, {"Presidente Prudente", "SP"},
	{"São José do Rio Preto", "SP"}, {"Campinas", "SP"}, {"Botucatu", "SP"},
	{"Goiânia", "GO"}, {"Rio Verde", "GO"}, {"Jataí", "GO"}, {"Cristalina", "GO"},
	{"Campo Grande", "MS"}, {"Dourados", "MS"}, {"Três Lagoas", "MS"}, {"Corumbá", "MS"},
	{"Cuiabá", "MT"}, {"Sorriso", "MT"}, {"Rondonópolis", "MT"}, {"Sinop", "MT"}, {"Lucas do Rio Verde", "MT"},
	{"Londrina", "PR"}, {"Cascavel", "PR"}, {"Maringá", "PR"}, {"Guarapuava", "PR"},
	{"Chapecó", "SC"}, {"Lages", "SC"},
	{"Passo Fundo", "RS"}, {"Santa Maria", "RS"}, {"Bagé", "RS"},
	{"Luís Eduardo Magalhães", "BA"}, {"Barreiras", "BA"}, {"Vitória da Conquista", "BA"},
	{"Palmas", "TO"}, {"Araguaína", "TO"},
	{"Marabá", "PA"}, {"Paragominas", "PA"},
	{"Balsas", "MA"}, {"Imperatriz", "MA"},
	{"Ji-Paraná", "RO"}, {"Vilhena", "RO"},
}

// Cities maps known municipality names to their display name.
var Cities = func() *Dictionary {
	concepts := make([]Concept, len(cityTable))
	for i, c := range cityTable {
		concepts[i] = Concept{Canonical: c.Name, Synonyms: []string{c.Name}}
	}
	return NewDictionary(concepts)
}()

// CityState returns the state of a known city.
func CityState(name string) (string, bool) {
	folded := NormalizeJoined(name)
	for _, c := range cityTable {
		if NormalizeJoined(c.Name) == folded {
			return c.State, true
		}
	}
	return "", false
}

// Purposes maps vocabulary to listing purposes.
var Purposes = NewDictionary([]Concept{
	{"Livestock", []string{"pecuária", "pecuarista", "gado", "gado de corte", "boi", "bois", "bovinos", "bovino", "engorda", "cria e recria", "criação de gado"}},
	{"Agriculture", []string{"agricultura", "agrícola", "lavoura", "lavouras", "plantio", "plantar", "soja", "milho", "café", "grãos", "cana"}},
	{"Dairy", []string{"leiteira", "leiteiro", "leite", "gado de leite", "ordenha"}},
	{"Leisure", []string{"lazer", "descanso", "fim de semana", "final de semana", "recreio", "veraneio"}},
	{"Forestry", []string{"reflorestamento", "eucalipto", "silvicultura", "pinus"}},
})

// OfferTypes maps vocabulary to sale or lease.
var OfferTypes = NewDictionary([]Concept{
	{"sale", []string{"venda", "vender", "vendo", "comprar", "compra", "à venda"}},
	{"lease", []string{"arrendamento", "arrendar", "arrendo", "arrendada", "aluguel", "alugar", "locação"}},
})

// WaterSources is the water vocabulary; canonicals are intake option labels.
var WaterSources = NewDictionary([]Concept{
	{"Rio", []string{"rio", "rios"}},
	{"Córrego", []string{"córrego", "córregos", "riacho", "ribeirão"}},
	{"Nascente", []string{"nascente", "nascentes", "mina d'água"}},
	{"Poço artesiano", []string{"poço artesiano", "poço", "artesiano"}},
	{"Açude", []string{"açude", "açudes"}},
	{"Represa", []string{"represa", "represas", "barragem", "barragens"}},
	{"Lago", []string{"lago", "lagoa"}},
	{"Cisterna", []string{"cisterna"}},
})

// EnergySources is the energy vocabulary.
var EnergySources = NewDictionary([]Concept{
	{"Rede elétrica", []string{"rede elétrica", "energia elétrica", "luz", "energia", "trifásica", "monofásica"}},
	{"Solar", []string{"solar", "placas solares", "fotovoltaica"}},
	{"Gerador", []string{"gerador"}},
	{"Eólica", []string{"eólica"}},
})

// SoilTypes is the soil vocabulary.
var SoilTypes = NewDictionary([]Concept{
	{"Argiloso", []string{"argiloso", "argila"}},
	{"Arenoso", []string{"arenoso", "areia"}},
	{"Misto", []string{"misto"}},
	{"Terra roxa", []string{"terra roxa"}},
	{"Latossolo", []string{"latossolo"}},
	{"Humífero", []string{"humífero", "orgânico"}},
})

// Structures is the improvements vocabulary.
var Structures = NewDictionary([]Concept{
	{"Casa sede", []string{"casa sede", "sede"}},
	{"Casa de caseiro", []string{"casa de caseiro", "caseiro"}},
	{"Curral", []string{"curral", "mangueiro"}},
	{"Galpão", []string{"galpão", "barracão"}},
	{"Estábulo", []string{"estábulo", "cocheira", "baias"}},
	{"Cercas", []string{"cerca", "cercas", "cercada", "cercado"}},
	{"Pastagem", []string{"pasto", "pastos", "pastagem", "pastagens"}},
	{"Piscina", []string{"piscina"}},
	{"Pomar", []string{"pomar"}},
	{"Silo", []string{"silo", "silos", "armazém"}},
})

// CountedThings are nouns a bare number can count ("3 casas", "500 cabeças
// de gado"). A number in front of them is neither a price nor an area.
var CountedThings = NewDictionary([]Concept{
	{"Casa", []string{"casa", "casas"}},
	{"Quarto", []string{"quarto", "quartos"}},
	{"Cabeça", []string{"cabeça", "cabeças"}},
	{"Lote", []string{"lote", "lotes"}},
	{"Quilômetro", []string{"km", "quilômetro", "quilômetros"}},
})

// SearchDirectives ask the assistant to search with what it has.
var SearchDirectives = NewDictionary([]Concept{
	{"search", []string{"buscar", "busque", "busca agora", "pesquisar", "pesquise", "procure", "mostrar", "mostre", "mostra", "resultados", "tanto faz", "qualquer um", "pode buscar"}},
})

// BrowseDirectives ask for the unfiltered catalog.
var BrowseDirectives = NewDictionary([]Concept{
	{"browse", []string{"ver todos", "mostrar todos", "mostre todos", "todos os imóveis", "sem filtro", "sem filtros", "ver tudo"}},
})

// RestartDirectives reset a dialogue.
var RestartDirectives = NewDictionary([]Concept{
	{"restart", []string{"recomeçar", "reiniciar", "nova busca", "começar de novo", "do zero", "restart"}},
})

// DoneDirectives close a multi-choice answer.
var DoneDirectives = NewDictionary([]Concept{
	{"done", []string{"pronto", "próximo", "continuar", "ok", "só isso", "concluir", "feito", "avançar"}},
})

// SkipDirectives skip an optional field.
var SkipDirectives = NewDictionary([]Concept{
	{"skip", []string{"pular", "pula", "pule"}},
})

// KeywordCategories are the attribute vocabularies used for keyword scoring.
var KeywordCategories = []*Dictionary{WaterSources, EnergySources, SoilTypes, Structures}
