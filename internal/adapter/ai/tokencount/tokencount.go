// Package tokencount measures prompt and chunk sizes in cl100k tokens.
//
// It uses tiktoken-go. The BPE ranks are fetched on first use; when that
// fails (offline hosts) every count falls back to a four-runes-per-token
// estimate, so callers never see an error.
package tokencount

import (
	"log/slog"
	"sync"
	"unicode/utf8"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the encoding used for chunking and prompt metrics.
const DefaultEncoding = "cl100k_base"

// Counter counts tokens for one encoding. It is safe for concurrent use.
type Counter struct {
	encoding string
	load     func(string) (*tiktoken.Tiktoken, error)

	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewCounter creates a counter for the named tiktoken encoding.
func NewCounter(encoding string) *Counter {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	return &Counter{encoding: encoding, load: tiktoken.GetEncoding}
}

// DefaultCounter is shared by the chunker and the AI clients.
var DefaultCounter = NewCounter(DefaultEncoding)

func (c *Counter) encoder() *tiktoken.Tiktoken {
	c.once.Do(func() {
		enc, err := c.load(c.encoding)
		if err != nil {
			slog.Warn("tiktoken encoding unavailable, estimating token counts",
				slog.String("encoding", c.encoding),
				slog.Any("error", err))
			return
		}
		c.enc = enc
	})
	return c.enc
}

// Exact reports whether counts come from the real tokenizer.
func (c *Counter) Exact() bool { return c.encoder() != nil }

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	if enc := c.encoder(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return Estimate(text)
}

// CountPrompt counts a system + user prompt pair, including the per-message
// framing chat APIs add (3 per message, 3 to prime the reply).
func (c *Counter) CountPrompt(system, user string) int {
	n := 3
	if system != "" {
		n += 3 + c.Count(system)
	}
	n += 3 + c.Count(user)
	return n
}

// Estimate approximates tokens as one per four runes, rounded up.
func Estimate(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}

// Count uses DefaultCounter.
func Count(text string) int { return DefaultCounter.Count(text) }
