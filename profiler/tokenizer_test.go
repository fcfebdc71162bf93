package profiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(units []TextUnit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.Text
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "symbols inside words",
			in:   "Sei C++, C#, Node.js e CI/CD.",
			want: []string{"Sei", "C++", ",", "C#", ",", "Node.js", "e", "CI", "/", "CD", "."},
		},
		{
			name: "leading dot",
			in:   "Experiência com .NET e ASP.NET",
			want: []string{"Experiência", "com", ".NET", "e", "ASP.NET"},
		},
		{
			name: "email stays whole",
			in:   "contato: ana.souza@empresa.com.br.",
			want: []string{"contato", ":", "ana.souza@empresa.com.br", "."},
		},
		{
			name: "accents",
			in:   "computação em nuvem",
			want: []string{"computação", "em", "nuvem"},
		},
		{
			name: "hyphens split",
			in:   "front- e back-end",
			want: []string{"front", "-", "e", "back", "-", "end"},
		},
		{
			name: "slashes split",
			in:   "HTML/CSS, Python/Django",
			want: []string{"HTML", "/", "CSS", ",", "Python", "/", "Django"},
		},
		{name: "empty", in: "  \n ", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := texts(Tokenize(tt.in))
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenizeAttributes(t *testing.T) {
	toks := Tokenize("Python e SQL\nDocker!")
	require.Len(t, toks, 5)

	for i, tok := range toks {
		assert.Equal(t, i, tok.Start)
		assert.Equal(t, i+1, tok.End)
		assert.Equal(t, KindToken, tok.Kind)
	}
	assert.Equal(t, "python", toks[0].Lower)
	assert.True(t, toks[1].IsStop)
	assert.False(t, toks[2].IsStop)
	assert.Equal(t, 0, toks[2].Line)
	assert.Equal(t, 1, toks[3].Line)
	assert.True(t, toks[4].IsPunct)
	assert.False(t, toks[4].IsStop)
}

func TestChunk(t *testing.T) {
	toks := Tokenize("Banco de dados, machine learning e deep learning\ncomputação em nuvem; python")
	chunks := Chunk(toks)

	assert.Equal(t, []string{
		"Banco de dados",
		"machine learning e deep learning",
		"computação em nuvem",
	}, texts(chunks))

	first := chunks[0]
	assert.Equal(t, "banco de dados", first.Lower)
	assert.Equal(t, 0, first.Start)
	assert.Equal(t, 3, first.End)
	assert.Equal(t, KindChunk, first.Kind)
	assert.Equal(t, 1, chunks[2].Line)
}

func TestChunkDoesNotCrossLines(t *testing.T) {
	chunks := Chunk(Tokenize("machine\nlearning"))
	assert.Empty(t, chunks)
}

func TestChunkNeedsContentOnBothSidesOfConnector(t *testing.T) {
	chunks := Chunk(Tokenize("docker e"))
	assert.Empty(t, chunks)

	chunks = Chunk(Tokenize("python e e sql"))
	assert.Empty(t, chunks)
}
