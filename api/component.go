package api

import (
	"encoding/json"
	"fmt"
)

// Block types known to the renderer. Anything else decodes into *Unknown.
const (
	BlockHero      = "hero"
	BlockText      = "text"
	BlockFAQ       = "faq"
	BlockTrust     = "trust"
	BlockCTA       = "cta"
	BlockServices  = "services"
	BlockCityLinks = "cityLinks"
)

// Block is one renderable content descriptor of a page.
type Block interface {
	BlockType() string
	BlockID() string
}

// Link is a labelled href.
type Link struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

type Hero struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Image    string `json:"image,omitempty"`
	CTA      *Link  `json:"cta,omitempty"`
}

type Text struct {
	ID      string `json:"id,omitempty"`
	Heading string `json:"heading,omitempty"`
	Content string `json:"content"`
}

type FAQItem struct {
	ID       string `json:"id,omitempty"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type FAQ struct {
	ID    string    `json:"id,omitempty"`
	Title string    `json:"title,omitempty"`
	Items []FAQItem `json:"items"`
}

type TrustItem struct {
	ID    string `json:"id,omitempty"`
	Label string `json:"label"`
	Text  string `json:"text,omitempty"`
}

type Trust struct {
	ID    string      `json:"id,omitempty"`
	Title string      `json:"title,omitempty"`
	Items []TrustItem `json:"items"`
}

type CTA struct {
	ID     string `json:"id,omitempty"`
	Title  string `json:"title"`
	Text   string `json:"text,omitempty"`
	Button Link   `json:"button"`
}

type Service struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Href        string `json:"href,omitempty"`
}

type Services struct {
	ID    string    `json:"id,omitempty"`
	Title string    `json:"title,omitempty"`
	Items []Service `json:"items"`
}

// CityLinks lists links to the programmatic instances of a page key.
type CityLinks struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title,omitempty"`
	PageKey string `json:"pageKey,omitempty"`
}

// Unknown preserves blocks of a type this build does not know about.
type Unknown struct {
	Type string
	ID   string
	Raw  json.RawMessage
}

func (b *Hero) BlockType() string      { return BlockHero }
func (b *Text) BlockType() string      { return BlockText }
func (b *FAQ) BlockType() string       { return BlockFAQ }
func (b *Trust) BlockType() string     { return BlockTrust }
func (b *CTA) BlockType() string       { return BlockCTA }
func (b *Services) BlockType() string  { return BlockServices }
func (b *CityLinks) BlockType() string { return BlockCityLinks }
func (b *Unknown) BlockType() string   { return b.Type }

func (b *Hero) BlockID() string      { return b.ID }
func (b *Text) BlockID() string      { return b.ID }
func (b *FAQ) BlockID() string       { return b.ID }
func (b *Trust) BlockID() string     { return b.ID }
func (b *CTA) BlockID() string       { return b.ID }
func (b *Services) BlockID() string  { return b.ID }
func (b *CityLinks) BlockID() string { return b.ID }
func (b *Unknown) BlockID() string   { return b.ID }

// Components is the ordered block tree of a page.
// It encodes as a JSON array of objects discriminated by "type".
type Components []Block

// UnmarshalJSON decodes each element by its "type" discriminator.
func (c *Components) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Components, 0, len(raw))
	for i, r := range raw {
		b, err := DecodeBlock(r)
		if err != nil {
			return fmt.Errorf("component %d: %w", i, err)
		}
		out = append(out, b)
	}
	*c = out
	return nil
}

// MarshalJSON encodes each block with its "type" field first.
func (c Components) MarshalJSON() ([]byte, error) {
	parts := make([]json.RawMessage, 0, len(c))
	for _, b := range c {
		enc, err := EncodeBlock(b)
		if err != nil {
			return nil, err
		}
		parts = append(parts, enc)
	}
	return json.Marshal(parts)
}

// DecodeBlock decodes a single tagged block.
func DecodeBlock(data []byte) (Block, error) {
	var probe struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	var b Block
	switch probe.Type {
	case BlockHero:
		b = &Hero{}
	case BlockText:
		b = &Text{}
	case BlockFAQ:
		b = &FAQ{}
	case BlockTrust:
		b = &Trust{}
	case BlockCTA:
		b = &CTA{}
	case BlockServices:
		b = &Services{}
	case BlockCityLinks:
		b = &CityLinks{}
	case "":
		return nil, fmt.Errorf("missing block type")
	default:
		raw := make(json.RawMessage, len(data))
		copy(raw, data)
		return &Unknown{Type: probe.Type, ID: probe.ID, Raw: raw}, nil
	}
	if err := json.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("decode %s block: %w", probe.Type, err)
	}
	return b, nil
}

// EncodeBlock encodes a block with its discriminator.
func EncodeBlock(b Block) ([]byte, error) {
	if u, ok := b.(*Unknown); ok {
		return u.Raw, nil
	}
	body, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	typ, err := json.Marshal(b.BlockType())
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(body)+len(typ)+9)
	out = append(out, `{"type":`...)
	out = append(out, typ...)
	if len(body) > 2 {
		out = append(out, ',')
		out = append(out, body[1:]...)
	} else {
		out = append(out, '}')
	}
	return out, nil
}
