// Package emb runs a sentence-embedding ONNX model through onnxruntime.
package emb

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

// Config points the encoder at the runtime library, model and tokenizer files.
type Config struct {
	OrtDLL        string
	ModelPath     string
	TokenizerPath string
	MaxSeqLen     int
}

// Encoder turns text into a single L2-normalized vector.
// Encode calls are serialized; the ONNX session is not shared across goroutines.
type Encoder struct {
	mu          sync.Mutex
	tk          *tokenizer.Tokenizer
	session     *ort.DynamicAdvancedSession
	inputNames  []string
	outputName  string
	maxSeqLen   int
	ownsRuntime bool
}

var (
	envMu    sync.Mutex
	envUsers int
)

// Init loads the tokenizer, initializes the onnxruntime environment and opens the model.
func (e *Encoder) Init(cfg Config) error {
	if cfg.ModelPath == "" {
		return errors.New("emb: model path is required")
	}
	if cfg.TokenizerPath == "" {
		return errors.New("emb: tokenizer path is required")
	}
	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return fmt.Errorf("emb: load tokenizer: %w", err)
	}
	if err := acquireRuntime(cfg.OrtDLL); err != nil {
		return err
	}
	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		releaseRuntime()
		return fmt.Errorf("emb: inspect model: %w", err)
	}
	inputNames := make([]string, 0, len(inputs))
	for _, in := range inputs {
		switch in.Name {
		case "input_ids", "attention_mask", "token_type_ids":
			inputNames = append(inputNames, in.Name)
		}
	}
	if len(inputNames) == 0 {
		releaseRuntime()
		return fmt.Errorf("emb: model %s has no recognised inputs", cfg.ModelPath)
	}
	if len(outputs) == 0 {
		releaseRuntime()
		return fmt.Errorf("emb: model %s has no outputs", cfg.ModelPath)
	}
	outputName := outputs[0].Name
	for _, out := range outputs {
		if out.Name == "sentence_embedding" {
			outputName = out.Name
			break
		}
	}
	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, inputNames, []string{outputName}, nil)
	if err != nil {
		releaseRuntime()
		return fmt.Errorf("emb: create session: %w", err)
	}
	maxLen := cfg.MaxSeqLen
	if maxLen <= 0 {
		maxLen = 512
	}
	e.tk = tk
	e.session = session
	e.inputNames = inputNames
	e.outputName = outputName
	e.maxSeqLen = maxLen
	e.ownsRuntime = true
	return nil
}

// Close destroys the session and releases the shared runtime.
func (e *Encoder) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		_ = e.session.Destroy()
		e.session = nil
	}
	if e.ownsRuntime {
		e.ownsRuntime = false
		releaseRuntime()
	}
}

// Encode embeds text and returns an L2-normalized vector.
func (e *Encoder) Encode(text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil || e.tk == nil {
		return nil, errors.New("emb: encoder is not initialized")
	}
	enc, err := e.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("emb: tokenize: %w", err)
	}
	ids := truncateIDs(enc.Ids, e.maxSeqLen)
	n := len(ids)
	if n == 0 {
		return nil, errors.New("emb: empty token sequence")
	}
	mask := make([]int64, n)
	typeIDs := make([]int64, n)
	idVals := make([]int64, n)
	for i, id := range ids {
		idVals[i] = int64(id)
		mask[i] = 1
	}

	shape := ort.NewShape(1, int64(n))
	var inputs []ort.Value
	defer func() {
		for _, v := range inputs {
			_ = v.Destroy()
		}
	}()
	for _, name := range e.inputNames {
		var data []int64
		switch name {
		case "input_ids":
			data = idVals
		case "attention_mask":
			data = mask
		default:
			data = typeIDs
		}
		t, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, fmt.Errorf("emb: build %s tensor: %w", name, err)
		}
		inputs = append(inputs, t)
	}

	outputs := []ort.Value{nil}
	if err := e.session.Run(inputs, outputs); err != nil {
		return nil, fmt.Errorf("emb: run session: %w", err)
	}
	defer func() {
		if outputs[0] != nil {
			_ = outputs[0].Destroy()
		}
	}()
	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("emb: unexpected output type for %s", e.outputName)
	}
	dims := out.GetShape()
	data := out.GetData()

	var vec []float32
	switch len(dims) {
	case 2:
		vec = append([]float32(nil), data[:dims[1]]...)
	case 3:
		vec = meanPool(data, int(dims[1]), int(dims[2]), mask)
	default:
		return nil, fmt.Errorf("emb: unexpected output rank %d", len(dims))
	}
	normalizeL2(vec)
	return vec, nil
}

func truncateIDs(ids []int, max int) []int {
	if max <= 0 || len(ids) <= max {
		return ids
	}
	out := make([]int, max)
	copy(out, ids[:max-1])
	out[max-1] = ids[len(ids)-1]
	return out
}

func meanPool(data []float32, seqLen, hidden int, mask []int64) []float32 {
	vec := make([]float32, hidden)
	var count float32
	for t := 0; t < seqLen && t < len(mask); t++ {
		if mask[t] == 0 {
			continue
		}
		row := data[t*hidden : (t+1)*hidden]
		for i, v := range row {
			vec[i] += v
		}
		count++
	}
	if count > 0 {
		for i := range vec {
			vec[i] /= count
		}
	}
	return vec
}

func normalizeL2(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
}

func acquireRuntime(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()
	if envUsers == 0 {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("emb: initialize onnxruntime: %w", err)
		}
	}
	envUsers++
	return nil
}

func releaseRuntime() {
	envMu.Lock()
	defer envMu.Unlock()
	if envUsers == 0 {
		return
	}
	envUsers--
	if envUsers == 0 {
		_ = ort.DestroyEnvironment()
	}
}
