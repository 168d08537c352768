package config

import (
	"fmt"

	yaml "gopkg.in/yaml.v3"
)

// Specification of which renderer a compile drives its output through.
// ENUM(svg, dom, sem, raster)
type RenderTarget int

const (
	RenderTargetSvg RenderTarget = iota
	RenderTargetDom
	RenderTargetSem
	RenderTargetRaster
)

func (t RenderTarget) String() string {
	switch t {
	case RenderTargetSvg:
		return "svg"
	case RenderTargetDom:
		return "dom"
	case RenderTargetSem:
		return "sem"
	case RenderTargetRaster:
		return "raster"
	default:
		return fmt.Sprintf("RenderTarget(%d)", int(t))
	}
}

// MarshalYAML renders the target by name rather than its numeric value.
func (t RenderTarget) MarshalYAML() (any, error) {
	return t.String(), nil
}

// UnmarshalYAML parses a target by name.
func (t *RenderTarget) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch s {
	case "svg":
		*t = RenderTargetSvg
	case "dom":
		*t = RenderTargetDom
	case "sem":
		*t = RenderTargetSem
	case "raster":
		*t = RenderTargetRaster
	default:
		return fmt.Errorf("config: unknown render target %q", s)
	}
	return nil
}
