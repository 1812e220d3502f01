package analysis

import (
	"context"
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE used for token estimates.
const DefaultEncoding = "cl100k_base"

// TokenCounter estimates the token length of a message.
type TokenCounter interface {
	Count(text string) int
	Encoding() string
}

// TiktokenCounter counts tokens with a tiktoken encoding.
type TiktokenCounter struct {
	name string
	enc  *tiktoken.Tiktoken
}

type loadResult struct {
	enc *tiktoken.Tiktoken
	err error
}

// NewTiktokenCounter loads the named encoding. Loading may fetch the BPE
// ranks over the network on first use; the fetch has no deadline of its own,
// so ctx bounds how long the caller waits for it.
func NewTiktokenCounter(ctx context.Context, encoding string) (*TiktokenCounter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", encoding, err)
	}

	done := make(chan loadResult, 1)
	go func() {
		enc, err := tiktoken.GetEncoding(encoding)
		done <- loadResult{enc: enc, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to load %s encoding: %w", encoding, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("failed to load %s encoding: %w", encoding, res.err)
		}
		return &TiktokenCounter{name: encoding, enc: res.enc}, nil
	}
}

// Count returns the number of tokens in text.
func (c *TiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// Encoding names the loaded encoding.
func (c *TiktokenCounter) Encoding() string {
	return c.name
}
