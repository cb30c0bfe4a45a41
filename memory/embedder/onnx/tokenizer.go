package onnx

import (
	"encoding/json"
	"os"
	"strings"
	"unicode"

	"github.com/m-mizutani/goerr/v2"
)

// Fallback ids of the special tokens in the bert-base-uncased vocabulary.
const (
	defaultUNK = 100
	defaultCLS = 101
	defaultSEP = 102
)

// Tokenizer is a lowercase WordPiece tokenizer loaded from a Hugging Face
// tokenizer.json file.
type Tokenizer struct {
	vocab map[string]int64
	cls   int64
	sep   int64
	unk   int64
}

// LoadTokenizer reads the WordPiece vocabulary from a tokenizer.json file.
func LoadTokenizer(path string) (*Tokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read tokenizer", goerr.Value("path", path))
	}

	var file struct {
		Model struct {
			Vocab map[string]int64 `json:"vocab"`
		} `json:"model"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse tokenizer", goerr.Value("path", path))
	}
	if len(file.Model.Vocab) == 0 {
		return nil, goerr.New("tokenizer has no vocabulary", goerr.Value("path", path))
	}

	return NewTokenizer(file.Model.Vocab), nil
}

// NewTokenizer creates a tokenizer over vocab.
func NewTokenizer(vocab map[string]int64) *Tokenizer {
	lookup := func(token string, fallback int64) int64 {
		if id, ok := vocab[token]; ok {
			return id
		}
		return fallback
	}
	return &Tokenizer{
		vocab: vocab,
		cls:   lookup("[CLS]", defaultCLS),
		sep:   lookup("[SEP]", defaultSEP),
		unk:   lookup("[UNK]", defaultUNK),
	}
}

// Tokenize converts text to WordPiece token ids, without special tokens.
func (t *Tokenizer) Tokenize(text string) []int64 {
	var ids []int64
	for _, word := range splitWords(strings.ToLower(text)) {
		ids = append(ids, t.wordPiece(word)...)
	}
	return ids
}

// Encode returns input ids and the attention mask for a sequence of exactly
// maxLen tokens: [CLS], the truncated text tokens, [SEP], then padding.
func (t *Tokenizer) Encode(text string, maxLen int) (ids, mask []int64) {
	ids = make([]int64, maxLen)
	mask = make([]int64, maxLen)
	if maxLen < 2 {
		return ids, mask
	}

	tokens := t.Tokenize(text)
	if len(tokens) > maxLen-2 {
		tokens = tokens[:maxLen-2]
	}

	ids[0] = t.cls
	copy(ids[1:], tokens)
	ids[len(tokens)+1] = t.sep
	for i := 0; i < len(tokens)+2; i++ {
		mask[i] = 1
	}
	return ids, mask
}

// wordPiece splits a word greedily into the longest vocabulary pieces. A word
// with any unmatched remainder becomes a single [UNK].
func (t *Tokenizer) wordPiece(word string) []int64 {
	if id, ok := t.vocab[word]; ok {
		return []int64{id}
	}

	runes := []rune(word)
	var pieces []int64
	for start := 0; start < len(runes); {
		end := len(runes)
		var id int64
		found := false
		for ; end > start; end-- {
			piece := string(runes[start:end])
			if start > 0 {
				piece = "##" + piece
			}
			if id, found = t.vocab[piece]; found {
				break
			}
		}
		if !found {
			return []int64{t.unk}
		}
		pieces = append(pieces, id)
		start = end
	}
	return pieces
}

// splitWords splits on whitespace and emits each punctuation rune as its own
// word.
func splitWords(text string) []string {
	var words []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = current[:0]
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush()
			words = append(words, string(r))
		default:
			current = append(current, r)
		}
	}
	flush()
	return words
}
