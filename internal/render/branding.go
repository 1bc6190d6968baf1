package render

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// Branding is the optional visual identity applied to rendered documents.
// The zero value is valid and renders with the default palette.
type Branding struct {
	CompanyName    string `toml:"company_name"`
	LogoPath       string `toml:"logo_path"`
	PrimaryColor   string `toml:"primary_color"`
	SecondaryColor string `toml:"secondary_color"`
}

const (
	DefaultPrimaryColor   = "#1F3864"
	DefaultSecondaryColor = "#D9E2F3"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// RGB is a parsed #RRGGBB color.
type RGB struct {
	R, G, B uint8
}

// ParseColor parses a #RRGGBB string.
func ParseColor(s string) (RGB, error) {
	if !colorPattern.MatchString(s) {
		return RGB{}, fmt.Errorf("invalid color %q (must be #RRGGBB)", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Hex returns the color as RRGGBB without the leading '#'.
func (c RGB) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// ValidColor reports whether s is empty or a well-formed #RRGGBB color.
func ValidColor(s string) bool {
	return s == "" || colorPattern.MatchString(s)
}

type palette struct {
	primary   RGB
	secondary RGB
}

func (b Branding) palette(logger *slog.Logger) palette {
	return palette{
		primary:   resolveColor(b.PrimaryColor, DefaultPrimaryColor, "primary_color", logger),
		secondary: resolveColor(b.SecondaryColor, DefaultSecondaryColor, "secondary_color", logger),
	}
}

func resolveColor(value, fallback, field string, logger *slog.Logger) RGB {
	if value != "" {
		c, err := ParseColor(value)
		if err == nil {
			return c
		}
		logger.Warn("invalid branding color, using default", "field", field, "value", value, "default", fallback)
	}
	c, _ := ParseColor(fallback)
	return c
}

type logo struct {
	data      []byte
	mime      string
	imageType string
}

var imageTypes = map[string]string{
	"image/png":  "PNG",
	"image/jpeg": "JPG",
	"image/gif":  "GIF",
}

func detectImage(data []byte) (mime, imageType string, ok bool) {
	m := mimetype.Detect(data)
	for candidate, tp := range imageTypes {
		if m.Is(candidate) {
			return candidate, tp, true
		}
	}
	return m.String(), "", false
}

func loadLogo(fs afero.Fs, path string) (*logo, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("%w: read logo %s: %v", ErrAsset, path, err)
	}

	mime, tp, ok := detectImage(data)
	if !ok {
		return nil, fmt.Errorf("%w: logo %s has unsupported type %s", ErrAsset, path, mime)
	}

	return &logo{data: data, mime: mime, imageType: tp}, nil
}
