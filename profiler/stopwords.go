package profiler

var stopwords = buildStopwords(
	// Portuguese
	"a", "à", "às", "ao", "aos", "aquela", "aquelas", "aquele", "aqueles", "aquilo",
	"as", "até", "com", "como", "da", "das", "de", "dela", "delas", "dele", "deles",
	"depois", "do", "dos", "e", "é", "ela", "elas", "ele", "eles", "em", "entre",
	"era", "eram", "essa", "essas", "esse", "esses", "esta", "está", "estão", "estas",
	"estava", "este", "estes", "eu", "foi", "fomos", "for", "foram", "fui", "há",
	"isso", "isto", "já", "lhe", "lhes", "mais", "mas", "me", "mesmo", "meu", "meus",
	"minha", "minhas", "muito", "na", "nas", "não", "nem", "no", "nos", "nós", "nossa",
	"nossas", "nosso", "nossos", "num", "numa", "o", "os", "ou", "para", "pela",
	"pelas", "pelo", "pelos", "por", "qual", "quando", "que", "quem", "se", "sem",
	"ser", "seu", "seus", "só", "sou", "sua", "suas", "também", "te", "tem", "têm",
	"tenho", "ter", "teu", "tu", "tua", "um", "uma", "umas", "uns", "você", "vocês",
	"vos",
	// English
	"an", "and", "are", "at", "by", "for", "from", "i", "in", "is", "it", "my",
	"of", "on", "or", "the", "to", "with",
)

func buildStopwords(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// IsStopword reports whether the lower-cased word is a function word.
func IsStopword(lower string) bool {
	_, ok := stopwords[lower]
	return ok
}
