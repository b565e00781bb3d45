package testing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ValentinKolb/dScene/lib/registry"
	"github.com/ValentinKolb/dScene/lib/scene"
	"github.com/ValentinKolb/dScene/lib/serde"
)

// --------------------------------------------------------------------------
// Fixture Types
// --------------------------------------------------------------------------

// A is a plain component without hooks
type A struct {
	X int32 `json:"x" yaml:"x" cbor:"x"`
}

// B is a plain component without hooks
type B struct {
	Y int32 `json:"y" yaml:"y" cbor:"y"`
}

// Health is canonicalized by clamping Current to Max
type Health struct {
	Current int32 `json:"current" yaml:"current" cbor:"current"`
	Max     int32 `json:"max" yaml:"max" cbor:"max"`
}

// Label has a canonicalization hook that always fails
type Label struct {
	Text string `json:"text" yaml:"text" cbor:"text"`
}

// Color travels as a "#rrggbb" string through a custom codec
type Color uint32

// Gravity is used as a resource
type Gravity struct {
	X float64 `json:"x" yaml:"x" cbor:"x"`
	Y float64 `json:"y" yaml:"y" cbor:"y"`
}

// Type names of the fixture types
const (
	NameA       = "A"
	NameB       = "B"
	NameHealth  = "game::Health"
	NameLabel   = "game::Label"
	NameColor   = "game::Color"
	NameGravity = "game::Gravity"
	NameNote    = "editor::Note"
)

var errLabel = errors.New("labels cannot be canonicalized")

// NewFixtureRegistry returns a registry with all fixture types
func NewFixtureRegistry() *registry.TypeRegistry {
	reg := registry.New()
	registerFixtures(reg, "")
	return reg
}

// NewFixtureRegistryWithout returns a registry with all fixture types except
// the one registered under name
func NewFixtureRegistryWithout(name string) *registry.TypeRegistry {
	reg := registry.New()
	registerFixtures(reg, name)
	return reg
}

func registerFixtures(reg *registry.TypeRegistry, skip string) {
	if skip != NameA {
		registry.MustRegister[A](reg, NameA)
	}
	if skip != NameB {
		registry.MustRegister[B](reg, NameB)
	}
	if skip != NameHealth {
		registry.MustRegister[Health](reg, NameHealth,
			registry.WithCanonicalizer(func(h Health) (Health, error) {
				if h.Current > h.Max {
					h.Current = h.Max
				}
				return h, nil
			}),
		)
	}
	if skip != NameLabel {
		registry.MustRegister[Label](reg, NameLabel,
			registry.WithCanonicalizer(func(l Label) (Label, error) {
				return Label{}, errLabel
			}),
		)
	}
	if skip != NameColor {
		registry.MustRegister[Color](reg, NameColor,
			registry.WithCodec(encodeColor, decodeColor),
		)
	}
	if skip != NameGravity {
		registry.MustRegister[Gravity](reg, NameGravity)
	}
	if skip != NameNote {
		if _, err := registry.RegisterDynamic(reg, NameNote); err != nil {
			panic(err)
		}
	}
}

func encodeColor(enc serde.Encoder, c Color) error {
	return enc.EncodeString(fmt.Sprintf("#%06x", uint32(c)))
}

func decodeColor(dec serde.Decoder) (Color, error) {
	s, err := dec.DecodeString()
	if err != nil {
		return 0, err
	}
	if !strings.HasPrefix(s, "#") {
		return 0, fmt.Errorf("color %q must start with '#'", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("color %q: %w", s, err)
	}
	return Color(v), nil
}

// --------------------------------------------------------------------------
// Fixture Scenes
// --------------------------------------------------------------------------

// ExampleScene returns the scene with no resources and the entities
// 7: {A{x:1}} and 3: {A{x:2}, B{y:5}}, in that order
func ExampleScene(reg *registry.TypeRegistry) *scene.Scene {
	s := scene.New()
	s.AddEntity(7, reg.MustValueOf(A{X: 1}))
	s.AddEntity(3, reg.MustValueOf(A{X: 2}), reg.MustValueOf(B{Y: 5}))
	return s
}

// RichScene returns a scene that uses every fixture type
func RichScene(reg *registry.TypeRegistry) *scene.Scene {
	note, err := reg.NamedValue(NameNote, map[string]any{"text": "spawn point", "pinned": true})
	if err != nil {
		panic(err)
	}

	s := scene.New()
	s.AddResource(reg.MustValueOf(Gravity{X: 0, Y: -9.81}))
	s.AddResource(note)
	s.AddEntity(scene.NewEntityKey(0, 0),
		reg.MustValueOf(Health{Current: 80, Max: 100}),
		reg.MustValueOf(Color(0x00ff7f)),
		reg.MustValueOf(A{X: -4}),
	)
	s.AddEntity(scene.NewEntityKey(1, 3),
		reg.MustValueOf(B{Y: 1 << 20}),
	)
	s.AddEntity(scene.NewEntityKey(2, 0))
	s.AddEntity(scene.NewEntityKey(9, 1),
		reg.MustValueOf(Label{Text: "crate"}),
		reg.MustValueOf(Color(0)),
	)
	return s
}
