package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// MetadataChunkLimit is the payment provider's per-value character limit.
	MetadataChunkLimit = 500
	// MaxGuestCartChunks leaves room for the other metadata keys under the
	// provider's 50-key ceiling.
	MaxGuestCartChunks = 40

	guestCartChunkPrefix = "guest_cart_"
	guestCartChunksKey   = "guest_cart_chunks"
)

var (
	ErrGuestCartTooLarge = errors.New("guest cart does not fit in session metadata")
	ErrGuestCartMissing  = errors.New("guest cart metadata missing")
)

// compactLine keeps the guest cart small enough to ride in session metadata.
type compactLine struct {
	SizeID    uuid.UUID       `json:"s"`
	ProductID *uuid.UUID      `json:"p,omitempty"`
	Quantity  int             `json:"q"`
	UnitPrice decimal.Decimal `json:"u"`
	Name      string          `json:"n"`
	Size      string          `json:"z,omitempty"`
}

// EncodeGuestCart serializes lines into guest_cart_<n> values of at most
// MetadataChunkLimit characters plus a guest_cart_chunks count. Images are
// dropped; the order does not keep them.
func EncodeGuestCart(lines []Line) (map[string]string, error) {
	compact := make([]compactLine, 0, len(lines))
	for _, line := range lines {
		compact = append(compact, compactLine{
			SizeID:    line.ProductSizeID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Name:      line.Name,
			Size:      line.Size,
		})
	}
	raw, err := json.Marshal(compact)
	if err != nil {
		return nil, fmt.Errorf("marshal guest cart: %w", err)
	}

	chunks := splitRunes(string(raw), MetadataChunkLimit)
	if len(chunks) > MaxGuestCartChunks {
		return nil, ErrGuestCartTooLarge
	}
	out := make(map[string]string, len(chunks)+1)
	for i, chunk := range chunks {
		out[guestCartChunkPrefix+strconv.Itoa(i)] = chunk
	}
	out[guestCartChunksKey] = strconv.Itoa(len(chunks))
	return out, nil
}

// DecodeGuestCart reassembles the chunks written by EncodeGuestCart.
func DecodeGuestCart(metadata map[string]string) ([]Line, error) {
	countRaw, ok := metadata[guestCartChunksKey]
	if !ok {
		return nil, ErrGuestCartMissing
	}
	count, err := strconv.Atoi(countRaw)
	if err != nil || count <= 0 || count > MaxGuestCartChunks {
		return nil, fmt.Errorf("invalid guest cart chunk count %q", countRaw)
	}

	var b strings.Builder
	for i := 0; i < count; i++ {
		chunk, ok := metadata[guestCartChunkPrefix+strconv.Itoa(i)]
		if !ok {
			return nil, fmt.Errorf("guest cart chunk %d missing", i)
		}
		b.WriteString(chunk)
	}

	var compact []compactLine
	if err := json.Unmarshal([]byte(b.String()), &compact); err != nil {
		return nil, fmt.Errorf("decode guest cart: %w", err)
	}
	lines := make([]Line, 0, len(compact))
	for _, c := range compact {
		lines = append(lines, Line{
			ProductID:     c.ProductID,
			ProductSizeID: c.SizeID,
			Name:          c.Name,
			Size:          c.Size,
			UnitPrice:     c.UnitPrice,
			Quantity:      c.Quantity,
		})
	}
	return lines, nil
}

// splitRunes cuts s into pieces of at most limit characters without
// splitting a multi-byte rune.
func splitRunes(s string, limit int) []string {
	if s == "" {
		return []string{""}
	}
	var chunks []string
	for len(s) > 0 {
		if utf8.RuneCountInString(s) <= limit {
			chunks = append(chunks, s)
			break
		}
		cut, n := 0, 0
		for cut < len(s) && n < limit {
			_, size := utf8.DecodeRuneInString(s[cut:])
			cut += size
			n++
		}
		chunks = append(chunks, s[:cut])
		s = s[cut:]
	}
	return chunks
}
