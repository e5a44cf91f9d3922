package docmigrate

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ActorKind discriminates actor-shaped documents.
type ActorKind string

// Actor kinds known to the migration engine. Any other stored type is
// treated as ActorOther.
const (
	ActorTraveller  ActorKind = "traveller"
	ActorNPC        ActorKind = "npc"
	ActorCreature   ActorKind = "creature"
	ActorSpacecraft ActorKind = "spacecraft"
	ActorOther      ActorKind = "other"
)

// ParseActorKind maps a stored document type onto an ActorKind.
func ParseActorKind(s string) ActorKind {
	switch k := ActorKind(s); k {
	case ActorTraveller, ActorNPC, ActorCreature, ActorSpacecraft:
		return k
	default:
		return ActorOther
	}
}

// ItemKind discriminates item-shaped documents.
type ItemKind string

// Item kinds known to the migration engine. Any other stored type is
// treated as ItemOther.
const (
	ItemWeapon    ItemKind = "weapon"
	ItemArmour    ItemKind = "armour"
	ItemTerm      ItemKind = "term"
	ItemAssociate ItemKind = "associate"
	ItemOther     ItemKind = "other"
)

// ParseItemKind maps a stored document type onto an ItemKind.
func ParseItemKind(s string) ItemKind {
	switch k := ItemKind(s); k {
	case ItemWeapon, ItemArmour, ItemTerm, ItemAssociate:
		return k
	default:
		return ItemOther
	}
}

// Document is a stored JSON document. Its identifying fields are decoded
// eagerly, everything else is read on demand with Get.
type Document struct {
	ID   string
	Name string
	Type string

	raw []byte
}

func newDocument(op string, raw []byte) (Document, error) {
	if !gjson.ValidBytes(raw) {
		return Document{}, &Error{
			Code: EInvalid,
			Op:   op,
			Msg:  "document is not valid JSON",
		}
	}

	res := gjson.GetManyBytes(raw, "_id", "name", "type")
	return Document{
		ID:   res[0].String(),
		Name: res[1].String(),
		Type: res[2].String(),
		raw:  append([]byte(nil), raw...),
	}, nil
}

// Get returns the value at the dotted path.
func (d Document) Get(path string) gjson.Result {
	return gjson.GetBytes(d.raw, path)
}

// Has reports whether the value at path exists and is not null.
func (d Document) Has(path string) bool {
	return Present(d.Get(path))
}

// Bytes returns a copy of the raw document.
func (d Document) Bytes() []byte {
	return append([]byte(nil), d.raw...)
}

// MarshalJSON returns the raw document.
func (d Document) MarshalJSON() ([]byte, error) {
	if len(d.raw) == 0 {
		return []byte("null"), nil
	}
	return d.Bytes(), nil
}

// Present reports whether a looked up value exists and is not null.
func Present(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}

// Actor is an actor-shaped document.
type Actor struct {
	Document
	Kind ActorKind
}

// NewActor decodes an actor document.
func NewActor(raw []byte) (*Actor, error) {
	doc, err := newDocument("docmigrate.NewActor", raw)
	if err != nil {
		return nil, err
	}
	return &Actor{Document: doc, Kind: ParseActorKind(doc.Type)}, nil
}

// Item is an item-shaped document.
type Item struct {
	Document
	Kind ItemKind
}

// NewItem decodes an item document.
func NewItem(raw []byte) (*Item, error) {
	doc, err := newDocument("docmigrate.NewItem", raw)
	if err != nil {
		return nil, err
	}
	return &Item{Document: doc, Kind: ParseItemKind(doc.Type)}, nil
}

// Scene is a scene document with its embedded tokens.
type Scene struct {
	Document
	Tokens []*Token
}

// NewScene decodes a scene document and its embedded tokens.
func NewScene(raw []byte) (*Scene, error) {
	doc, err := newDocument("docmigrate.NewScene", raw)
	if err != nil {
		return nil, err
	}

	s := &Scene{Document: doc}
	var terr error
	doc.Get("tokens").ForEach(func(_, value gjson.Result) bool {
		var tok *Token
		if tok, terr = NewToken([]byte(value.Raw)); terr != nil {
			return false
		}
		s.Tokens = append(s.Tokens, tok)
		return true
	})
	if terr != nil {
		return nil, fmt.Errorf("scene %q: %w", doc.ID, terr)
	}
	return s, nil
}

// Token is a token embedded in a scene. An unlinked token carries its own
// actor-shaped delta instead of sharing the canonical actor's data.
type Token struct {
	ID        string
	Name      string
	ActorID   string
	ActorLink bool

	raw []byte
}

// NewToken decodes an embedded token.
func NewToken(raw []byte) (*Token, error) {
	doc, err := newDocument("docmigrate.NewToken", raw)
	if err != nil {
		return nil, err
	}

	res := gjson.GetManyBytes(raw, "actorId", "actorLink")
	return &Token{
		ID:        doc.ID,
		Name:      doc.Name,
		ActorID:   res[0].String(),
		ActorLink: res[1].Bool(),
		raw:       doc.raw,
	}, nil
}

// Delta returns an independent copy of the token's actor delta. A token
// without a delta yields an empty object.
func (t *Token) Delta() []byte {
	r := gjson.GetBytes(t.raw, "delta")
	if !r.IsObject() {
		return []byte("{}")
	}
	return []byte(r.Raw)
}

// WithDelta returns a copy of the token whose delta is replaced.
func (t *Token) WithDelta(delta []byte) (*Token, error) {
	raw, err := sjson.SetRawBytes(t.Bytes(), "delta", delta)
	if err != nil {
		return nil, &Error{Code: EInvalid, Op: "docmigrate.Token.WithDelta", Err: err}
	}
	return NewToken(raw)
}

// Bytes returns a copy of the raw token.
func (t *Token) Bytes() []byte {
	return append([]byte(nil), t.raw...)
}

// MarshalJSON returns the raw token.
func (t *Token) MarshalJSON() ([]byte, error) {
	return t.Bytes(), nil
}

var _ json.Marshaler = (*Token)(nil)

// Pack document types and owning packages.
const (
	// PackageWorld marks a pack as authored locally in the world.
	PackageWorld = "world"
	// PackTypeItem is the document type of item packs.
	PackTypeItem = "Item"
)

// PackMetadata describes a compendium pack.
type PackMetadata struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Package string `json:"package"`
	Type    string `json:"type"`
}

// IsWorldItemPack reports whether the pack is a locally authored item pack,
// the only kind of pack the migration engine touches.
func (m PackMetadata) IsWorldItemPack() bool {
	return m.Package == PackageWorld && m.Type == PackTypeItem
}
