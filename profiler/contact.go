package profiler

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`(?:\+?55[\s.\-]?)?\(?\d{2}\)?[\s.\-]?9?\d{4}[\s.\-]?\d{4}`)
	namePattern  = regexp.MustCompile(`(?i:meu nome (?:é|e)|my name is)\s+(\p{Lu}\p{L}*(?:\s+(?:(?:de|da|do|das|dos)\s+)?\p{Lu}\p{L}*)*)`)
)

// ExtractEmails returns the e-mail addresses in text, deduplicated
// case-insensitively in first-seen order.
func ExtractEmails(text string) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, m := range emailPattern.FindAllString(text, -1) {
		key := strings.ToLower(m)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}
	return out
}

// ExtractPhones returns Brazilian phone numbers (optional +55, area code,
// 8 or 9 digit subscriber number) deduplicated by their digits.
func ExtractPhones(text string) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, loc := range phonePattern.FindAllStringIndex(text, -1) {
		if loc[0] > 0 && isDigitByte(text[loc[0]-1]) {
			continue
		}
		if loc[1] < len(text) && isDigitByte(text[loc[1]]) {
			continue
		}
		raw := strings.TrimSpace(text[loc[0]:loc[1]])
		key := phoneKey(raw)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, raw)
	}
	return out
}

// phoneKey strips formatting and the country code; it returns "" when the
// remaining digits are not a valid area code plus subscriber number.
func phoneKey(raw string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if (len(digits) == 12 || len(digits) == 13) && strings.HasPrefix(digits, "55") {
		digits = digits[2:]
	}
	if len(digits) != 10 && len(digits) != 11 {
		return ""
	}
	return digits
}

func isDigitByte(b byte) bool {
	return b >= '0' && b <= '9'
}

// ExtractNames returns person entities from doc. A name introduced by "meu
// nome é" / "my name is" that is also an entity is listed first. When there
// are no entities, those introduced names are the result.
func ExtractNames(doc *Document) []string {
	out := []string{}
	if doc == nil {
		return out
	}
	var declared []string
	for _, m := range namePattern.FindAllStringSubmatch(doc.Text, -1) {
		declared = append(declared, m[1])
	}

	seen := make(map[string]struct{})
	add := func(name string) {
		name = strings.Join(strings.Fields(name), " ")
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	var persons []string
	for _, ent := range doc.Entities {
		if ent.Label == PersonLabel {
			persons = append(persons, strings.Join(strings.Fields(ent.Text), " "))
		}
	}
	if len(persons) == 0 {
		for _, name := range declared {
			add(name)
		}
		return out
	}
	for _, name := range declared {
		name = strings.Join(strings.Fields(name), " ")
		if slices.Contains(persons, name) {
			add(name)
		}
	}
	for _, name := range persons {
		add(name)
	}
	return out
}

// particles may appear between the capitalized words of a person name.
var particles = map[string]struct{}{
	"de": {}, "da": {}, "do": {}, "das": {}, "dos": {}, "di": {}, "del": {}, "van": {}, "von": {},
}

// headerWords never start or continue a person name; they are common résumé
// section titles and form labels.
var headerWords = buildStopwords(
	"experiência", "experiências", "profissional", "profissionais", "formação",
	"acadêmica", "habilidades", "competências", "resumo", "objetivo", "objetivos",
	"contato", "idiomas", "cursos", "projetos", "educação", "certificações",
	"perfil", "nome", "endereço", "telefone", "celular", "email", "e-mail",
	"currículo", "curriculum", "vitae", "sobre", "mim", "informações", "pessoais",
	"trabalho", "empresa", "cargo", "linkedin", "github", "brasil",
)

// orgWords mark a capitalized run as an institution or an address rather
// than a person.
var orgWords = buildStopwords(
	"universidade", "faculdade", "faculdades", "instituto", "escola", "colégio",
	"centro", "fundação", "federal", "estadual", "municipal", "pontifícia",
	"associação", "departamento", "secretaria", "ministério", "banco", "ltda",
	"rua", "avenida", "av", "alameda", "travessa", "rodovia", "bairro", "cidade",
	"estado", "região", "campus",
)

// places are city and state names. Multi-word entries match whole words
// inside a run; surnames such as Santos or Vitória are left out.
var places = []string{
	"são paulo", "rio de janeiro", "belo horizonte", "porto alegre", "minas gerais",
	"santa catarina", "rio grande do sul", "rio grande do norte", "espírito santo",
	"mato grosso", "mato grosso do sul", "distrito federal", "são bernardo do campo",
	"santo andré", "são josé dos campos", "ribeirão preto", "juiz de fora",
	"campo grande", "vila velha", "duque de caxias", "nova iguaçu", "são luís",
	"foz do iguaçu", "joão pessoa", "brasília", "curitiba", "fortaleza", "recife",
	"manaus", "belém", "goiânia", "campinas", "florianópolis", "maceió", "teresina",
	"aracaju", "cuiabá", "londrina", "niterói", "osasco", "guarulhos", "sorocaba",
	"uberlândia", "joinville", "bahia", "pernambuco", "ceará", "amazonas", "goiás",
	"pará", "maranhão", "alagoas", "sergipe", "piauí", "tocantins", "rondônia",
	"roraima", "amapá", "paraíba", "paraná",
}

func isPlaceOrOrg(span []TextUnit) bool {
	words := make([]string, 0, len(span))
	for _, u := range span {
		if _, ok := orgWords[u.Lower]; ok {
			return true
		}
		words = append(words, u.Lower)
	}
	padded := " " + strings.Join(words, " ") + " "
	for _, p := range places {
		if strings.Contains(padded, " "+p+" ") {
			return true
		}
	}
	return false
}

// RecognizePersons finds sequences of two to four capitalized words on the
// same line, optionally joined by name particles, that contain no vocabulary
// term and no section header word. Runs naming a place or an institution are
// dropped whole.
func RecognizePersons(tokens []TextUnit, isTerm func(string) bool) []Entity {
	var out []Entity
	for i := 0; i < len(tokens); {
		if !isNameWord(tokens[i], isTerm) {
			i++
			continue
		}
		words := 1
		j := i
		for j+1 < len(tokens) && words < 4 && tokens[j+1].Line == tokens[i].Line {
			next := tokens[j+1]
			if isNameWord(next, isTerm) {
				j++
				words++
				continue
			}
			if _, ok := particles[next.Lower]; ok && j+2 < len(tokens) &&
				tokens[j+2].Line == tokens[i].Line && isNameWord(tokens[j+2], isTerm) {
				j += 2
				words++
				continue
			}
			break
		}
		if words >= 2 && !isPlaceOrOrg(tokens[i:j+1]) {
			span := joinTokens(tokens[i : j+1])
			if isTerm == nil || !isTerm(span.Lower) {
				out = append(out, Entity{Text: span.Text, Label: PersonLabel, Start: span.Start, End: span.End})
			}
		}
		i = j + 1
	}
	return out
}

func isNameWord(u TextUnit, isTerm func(string) bool) bool {
	if u.IsPunct || u.IsStop {
		return false
	}
	runes := []rune(u.Text)
	if len(runes) < 2 || !unicode.IsUpper(runes[0]) {
		return false
	}
	lower := false
	for _, r := range runes[1:] {
		if !unicode.IsLetter(r) && r != '\'' && r != '-' {
			return false
		}
		lower = lower || unicode.IsLower(r)
	}
	if !lower {
		return false
	}
	if _, ok := headerWords[u.Lower]; ok {
		return false
	}
	if isTerm != nil && isTerm(u.Lower) {
		return false
	}
	return true
}
