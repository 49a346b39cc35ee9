package serialization

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/autoscigo/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	Name  string
	Sizes []int
}

func newWidget(cfg Config) (*widget, error) {
	name, err := cfg.String("name")
	if err != nil {
		return nil, err
	}
	sizes, err := cfg.Ints("sizes")
	if err != nil {
		return nil, err
	}
	return &widget{Name: name, Sizes: sizes}, nil
}

func TestRegistry_RegisterAndDeserialize(t *testing.T) {
	reg := NewRegistry[*widget]("widget", 1)
	require.NoError(t, reg.Register("Widget", newWidget))

	err := reg.Register("Widget", newWidget)
	assert.Error(t, err, "duplicate registration")

	w, err := reg.Deserialize(Object{ClassName: "Widget", Config: Config{"name": "a", "sizes": []int{1, 2}}})
	require.NoError(t, err)
	assert.Equal(t, &widget{Name: "a", Sizes: []int{1, 2}}, w)

	_, err = reg.Deserialize(Object{ClassName: "Gadget"})
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationError(err))

	assert.Equal(t, []string{"Widget"}, reg.Tags())
	assert.Equal(t, 1, reg.Version())
}

func TestRegistry_ConstructorPanic(t *testing.T) {
	reg := NewRegistry[int]("number", 1)
	reg.MustRegister("Boom", func(Config) (int, error) { panic("bad config") })
	_, err := reg.Deserialize(Object{ClassName: "Boom"})
	require.Error(t, err)
	var pe *errors.PanicError
	assert.True(t, errors.As(err, &pe))

	assert.Panics(t, func() { reg.MustRegister("Boom", nil) })
}

func TestConfig_JSONRoundTrip(t *testing.T) {
	in := Object{ClassName: "Widget", Config: Config{
		"name":     "table",
		"sizes":    []int{3, 4},
		"types":    map[string]string{"a": "numerical"},
		"lookback": nil,
		"nested":   Object{ClassName: "Inner", Config: Config{"flag": true}},
	}}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, in))

	var out Object
	require.NoError(t, Decode(&buf, &out))
	assert.Equal(t, "Widget", out.ClassName)

	name, err := out.Config.String("name")
	require.NoError(t, err)
	assert.Equal(t, "table", name)

	sizes, err := out.Config.Ints("sizes")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, sizes)

	types, err := out.Config.StringMap("types")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "numerical"}, types)

	lookback, err := out.Config.OptionalInt("lookback")
	require.NoError(t, err)
	assert.Nil(t, lookback)

	nested, err := out.Config.Object("nested")
	require.NoError(t, err)
	assert.Equal(t, "Inner", nested.ClassName)
	flag, err := nested.Config.Bool("flag", false)
	require.NoError(t, err)
	assert.True(t, flag)
}

func TestConfig_Errors(t *testing.T) {
	cfg := Config{"n": 1.5, "s": 3, "list": []any{"a", 1}}

	_, err := cfg.Int("n")
	assert.Error(t, err)
	_, err = cfg.Int("absent")
	assert.Error(t, err)
	_, err = cfg.String("s")
	assert.Error(t, err)
	_, err = cfg.Strings("list")
	assert.Error(t, err)
	_, err = cfg.Object("absent")
	assert.Error(t, err)
}

func TestSaveLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	in := Object{ClassName: "Widget", Config: Config{"name": "x"}}
	require.NoError(t, SaveFile(path, in))

	var out Object
	require.NoError(t, LoadFile(path, &out))
	assert.Equal(t, "Widget", out.ClassName)
	assert.Equal(t, "x", out.Config["name"])

	assert.Error(t, LoadFile(filepath.Join(t.TempDir(), "missing.json"), &out))
}
