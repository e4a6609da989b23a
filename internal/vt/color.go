package vt

// ColorKind discriminates the closed set of color variants a cell can carry.
type ColorKind uint8

const (
	// ColorDefault is the terminal's configured default for the plane
	// (foreground or background) the color is used on.
	ColorDefault ColorKind = iota
	// ColorDefaultInverted is the default of the opposite plane, used when
	// rendering inverse video without knowing the palette.
	ColorDefaultInverted
	// ColorIndexed is one of the 256 palette slots.
	ColorIndexed
	// ColorRGB is a direct 24-bit color.
	ColorRGB
)

// Color is a closed variant: Default, DefaultInverted, Indexed(0-255) or
// RGB(r,g,b). The zero value is the default color.
type Color struct {
	Kind    ColorKind
	Index   uint8
	R, G, B uint8
}

// DefaultColor returns the default color for the current plane.
func DefaultColor() Color {
	return Color{}
}

// DefaultInvertedColor returns the opposite plane's default.
func DefaultInvertedColor() Color {
	return Color{Kind: ColorDefaultInverted}
}

// IndexColor returns a palette color in the 0-255 range.
func IndexColor(n uint8) Color {
	return Color{Kind: ColorIndexed, Index: n}
}

// RGBColor returns a direct 24-bit color.
func RGBColor(r, g, b uint8) Color {
	return Color{Kind: ColorRGB, R: r, G: g, B: b}
}

// IsDefault reports whether c is the plain default color.
func (c Color) IsDefault() bool {
	return c.Kind == ColorDefault
}
